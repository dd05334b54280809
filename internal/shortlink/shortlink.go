// Package shortlink encodes recipe ids as compact positional base-64 codes.
package shortlink

import (
	"errors"
	"math"
	"strings"
)

// Alphabet is the digit set, most significant digit first
const Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-_"

const base = uint64(len(Alphabet))

var (
	ErrInvalidCode = errors.New("link is not valid")
	ErrOverflow    = errors.New("link does not fit an id")
)

// Encode renders id in base 64. Zero encodes as "0".
func Encode(id uint64) string {
	if id == 0 {
		return Alphabet[:1]
	}

	var buf [11]byte
	i := len(buf)
	for id > 0 {
		i--
		buf[i] = Alphabet[id%base]
		id /= base
	}
	return string(buf[i:])
}

// Validate reports whether every character of code belongs to the alphabet.
// It does not touch any storage.
func Validate(code string) error {
	if code == "" {
		return ErrInvalidCode
	}
	for _, r := range code {
		if !strings.ContainsRune(Alphabet, r) {
			return ErrInvalidCode
		}
	}
	return nil
}

// Decode parses a code produced by Encode
func Decode(code string) (uint64, error) {
	if err := Validate(code); err != nil {
		return 0, err
	}

	var id uint64
	for i := 0; i < len(code); i++ {
		digit := uint64(strings.IndexByte(Alphabet, code[i]))
		if id > (math.MaxUint64-digit)/base {
			return 0, ErrOverflow
		}
		id = id*base + digit
	}
	return id, nil
}
