package utils

import (
	"os"
	"path/filepath"
	"strings"
)

func GetPathInfo(relPath string) (fullPath string, parentDir string, err error) {
	// Convert to absolute path (resolves ../../ and cleans the path)
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", err
	}

	// Get the directory containing the file
	parentDir = filepath.Dir(fullPath)

	return fullPath, parentDir, nil
}

// UnitName is the translation unit name of a source file: its base name
// without extension.
func UnitName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DefaultOutputPath swaps the extension of inPath for ext. A directory
// produces <dir>/<dir name><ext>.
func DefaultOutputPath(inPath, ext string) string {
	clean := filepath.Clean(inPath)
	if info, err := os.Stat(clean); err == nil && info.IsDir() {
		return filepath.Join(clean, filepath.Base(clean)+ext)
	}

	old := filepath.Ext(clean)
	if old == "" {
		return clean + ext
	}
	return strings.TrimSuffix(clean, old) + ext
}
