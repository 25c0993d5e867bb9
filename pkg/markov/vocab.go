package markov

import (
	"strconv"
	"strings"
)

// vocab interns symbols to small integer ids so that context windows can be
// keyed by a compact, order-sensitive string. The key for a window is its
// symbols' ids joined by spaces; the empty window keys to "". Ids are
// assigned on first sight and never reused, so key equality is exactly
// window equality.
type vocab[T comparable] struct {
	ids     map[T]int
	symbols []T
}

func newVocab[T comparable]() *vocab[T] {
	return &vocab[T]{ids: make(map[T]int)}
}

// intern returns the id for sym, assigning a fresh one if needed.
func (v *vocab[T]) intern(sym T) int {
	if id, ok := v.ids[sym]; ok {
		return id
	}
	id := len(v.symbols)
	v.ids[sym] = id
	v.symbols = append(v.symbols, sym)
	return id
}

// symbol returns the symbol interned under id.
func (v *vocab[T]) symbol(id int) T {
	return v.symbols[id]
}

// key builds the map key for a window, interning any unseen symbols.
func (v *vocab[T]) key(items []T) string {
	var buf []byte
	for i, item := range items {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = strconv.AppendInt(buf, int64(v.intern(item)), 10)
	}
	return string(buf)
}

// lookupKey builds the map key for a window without interning. The second
// return is false when some symbol has never been seen, in which case no
// entry for the window can exist.
func (v *vocab[T]) lookupKey(items []T) (string, bool) {
	var buf []byte
	for i, item := range items {
		id, ok := v.ids[item]
		if !ok {
			return "", false
		}
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = strconv.AppendInt(buf, int64(id), 10)
	}
	return string(buf), true
}

// decode rebuilds the window behind a key produced by this vocab.
func (v *vocab[T]) decode(key string) []T {
	if key == "" {
		return nil
	}
	parts := strings.Split(key, " ")
	items := make([]T, len(parts))
	for i, part := range parts {
		id, _ := strconv.Atoi(part)
		items[i] = v.symbols[id]
	}
	return items
}
