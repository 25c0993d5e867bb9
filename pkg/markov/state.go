package markov

// ChainState is an immutable window of the most recently seen symbols. It
// identifies "where we are" during training and generation. States are value
// types: two states are equal iff they have the same length and the same
// symbols in the same order. A state is never mutated after construction;
// Push returns a new state instead.
type ChainState[T comparable] struct {
	items []T
}

// NewChainState builds a state from the given symbols. The slice is copied,
// so the caller may reuse it. A nil or empty slice yields the empty state.
func NewChainState[T comparable](items []T) ChainState[T] {
	if len(items) == 0 {
		return ChainState[T]{}
	}
	s := ChainState[T]{items: make([]T, len(items))}
	copy(s.items, items)
	return s
}

// Len returns the number of symbols in the window.
func (s ChainState[T]) Len() int {
	return len(s.items)
}

// Items returns a copy of the window's symbols, oldest first.
func (s ChainState[T]) Items() []T {
	if len(s.items) == 0 {
		return nil
	}
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// Push appends item to the window and returns the resulting state, keeping at
// most order symbols. Once the window is full the oldest symbol is dropped.
// An order of zero returns the receiver unchanged (the empty window is the
// only order-0 state). Push panics if order is negative.
func (s ChainState[T]) Push(item T, order int) ChainState[T] {
	switch {
	case order < 0:
		panic("markov: ChainState.Push called with negative order")
	case order == 0:
		return s
	case order == 1:
		return ChainState[T]{items: []T{item}}
	case len(s.items) < order:
		items := make([]T, len(s.items)+1)
		copy(items, s.items)
		items[len(s.items)] = item
		return ChainState[T]{items: items}
	default:
		items := make([]T, order)
		copy(items, s.items[len(s.items)-order+1:])
		items[order-1] = item
		return ChainState[T]{items: items}
	}
}

// Equal reports whether two states hold the same symbols in the same order.
func (s ChainState[T]) Equal(other ChainState[T]) bool {
	if len(s.items) != len(other.items) {
		return false
	}
	for i, item := range s.items {
		if item != other.items[i] {
			return false
		}
	}
	return true
}

// truncate returns the state's window limited to its most recent k symbols.
func (s ChainState[T]) truncate(k int) []T {
	if len(s.items) <= k {
		return s.items
	}
	return s.items[len(s.items)-k:]
}
