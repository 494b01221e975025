package util

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrInvalidFileName is returned for names that cannot be stored safely.
var ErrInvalidFileName = errors.New("invalid file name")

const maxFileNameRunes = 255

// SanitizeFileName removes path separators and control characters, so the
// result is always a single path element, and rejects "." and "..". The result
// is safe to use as the last element of a storage key.
func SanitizeFileName(name string) (string, error) {
	s := strings.TrimSpace(name)
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)
	if s == "" || s == "." || s == ".." || utf8.RuneCountInString(s) > maxFileNameRunes {
		return "", ErrInvalidFileName
	}
	return s, nil
}
