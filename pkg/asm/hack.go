package asm

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// FormatHack renders ROM words in the textual .hack format: one
// 16-character binary string per line.
func FormatHack(words []uint16) string {
	var sb strings.Builder
	sb.Grow(len(words) * 17)
	for _, w := range words {
		fmt.Fprintf(&sb, "%016b\n", w)
	}
	return sb.String()
}

// ParseHack reads the textual .hack format back into ROM words.
func ParseHack(text string) ([]uint16, error) {
	var words []uint16
	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if len(line) != 16 {
			return nil, fmt.Errorf("expected 16 binary digits on line %d, got %d", i+1, len(line))
		}
		var w uint16
		for _, r := range line {
			switch r {
			case '0':
				w <<= 1
			case '1':
				w = w<<1 | 1
			default:
				return nil, fmt.Errorf("invalid binary digit %q on line %d", r, i+1)
			}
		}
		words = append(words, w)
	}
	return words, nil
}

// EncodeBinary packs ROM words as little-endian bytes.
func EncodeBinary(words []uint16) []byte {
	out := make([]byte, len(words)*2)
	for i, w := range words {
		binary.LittleEndian.PutUint16(out[i*2:], w)
	}
	return out
}

// DecodeBinary unpacks little-endian bytes produced by EncodeBinary.
func DecodeBinary(data []byte) ([]uint16, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("binary image has odd length %d", len(data))
	}
	words := make([]uint16, len(data)/2)
	for i := range words {
		words[i] = binary.LittleEndian.Uint16(data[i*2:])
	}
	return words, nil
}
