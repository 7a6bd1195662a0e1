// Package latin1 converts the ISO-8859-1 strings stored in binary files
// to and from Go strings.
package latin1

import (
	"fmt"

	"golang.org/x/text/encoding/charmap"
)

// Decode converts raw file bytes to a UTF-8 string. Every byte maps to a rune,
// so decoding never fails.
func Decode(data []byte) string {
	s, _ := charmap.ISO8859_1.NewDecoder().Bytes(data)
	return string(s)
}

// Encode converts s to file bytes. Runes outside Latin-1 are an error.
func Encode(s string) ([]byte, error) {
	data, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("latin1: cannot encode %q: %w", s, err)
	}
	return data, nil
}
