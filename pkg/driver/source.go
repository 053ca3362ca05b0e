package driver

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"hackvm/pkg/utils"
)

// VMExt is the extension of VM source files.
const VMExt = ".vm"

var (
	ErrNoUnits = errors.New("no .vm files")
	ErrNotVM   = errors.New("not a .vm file")
)

// Unit is one translation unit: a name used for statics and comparison
// labels, and its VM source text.
type Unit struct {
	Name   string
	Source string
}

// Source yields the translation units of a program.
type Source interface {
	Units() ([]Unit, error)
	// MultiUnit reports whether the program was given as a directory.
	MultiUnit() bool
}

// FileSource is a program made of a single .vm file.
type FileSource struct {
	Path string
}

func (s FileSource) Units() ([]Unit, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", s.Path)
	}
	return []Unit{{Name: utils.UnitName(s.Path), Source: string(data)}}, nil
}

func (s FileSource) MultiUnit() bool { return false }

// DirSource is every .vm file directly inside a directory, in name order.
type DirSource struct {
	Path string
}

func (s DirSource) Units() ([]Unit, error) {
	entries, err := os.ReadDir(s.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "listing %s", s.Path)
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.EqualFold(filepath.Ext(e.Name()), VMExt) {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, errors.Wrapf(ErrNoUnits, "%s", s.Path)
	}
	sort.Strings(names)

	units := make([]Unit, 0, len(names))
	for _, name := range names {
		file := FileSource{Path: filepath.Join(s.Path, name)}
		u, err := file.Units()
		if err != nil {
			return nil, err
		}
		units = append(units, u...)
	}
	return units, nil
}

func (s DirSource) MultiUnit() bool { return true }

// Open picks a FileSource or DirSource for path.
func Open(path string) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	if info.IsDir() {
		return DirSource{Path: path}, nil
	}
	if !strings.EqualFold(filepath.Ext(path), VMExt) {
		return nil, errors.Wrapf(ErrNotVM, "%s", path)
	}
	return FileSource{Path: path}, nil
}
