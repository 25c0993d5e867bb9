package store

import (
	"fmt"
	"unicode/utf8"
)

// Codec converts symbols to and from their stored text form. Encode must be
// injective: two distinct symbols may never encode to the same string, or
// they would merge when the model is reloaded.
type Codec[T comparable] interface {
	Encode(sym T) string
	Decode(text string) (T, error)
}

// StringCodec stores string symbols as-is.
type StringCodec struct{}

func (StringCodec) Encode(sym string) string { return sym }

func (StringCodec) Decode(text string) (string, error) { return text, nil }

// RuneCodec stores rune symbols as single-rune strings.
type RuneCodec struct{}

func (RuneCodec) Encode(sym rune) string { return string(sym) }

func (RuneCodec) Decode(text string) (rune, error) {
	r, size := utf8.DecodeRuneInString(text)
	if size == 0 || size != len(text) || (r == utf8.RuneError && size == 1) {
		return 0, fmt.Errorf("store: %q is not a single rune", text)
	}
	return r, nil
}
