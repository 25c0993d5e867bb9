package markov

import "iter"

// Model is the capability shared by the fixed-order Chain and the composite
// BackoffChain: weighted edge and terminal updates, successor and terminal
// queries, and state enumeration. The generation loop is written once against
// this interface, so the two engines stay independent implementations rather
// than one subclassing the other.
type Model[T comparable] interface {
	// Order returns the maximum context window length the model keys by.
	Order() int
	// AddEdge adds weight to the transition state -> next.
	AddEdge(state ChainState[T], next T, weight int)
	// AddTerminal adds weight to the odds that a sequence ends at state.
	AddTerminal(state ChainState[T], weight int)
	// NextStates returns a copy of the weighted successors of state, or nil.
	NextStates(state ChainState[T]) map[T]int
	// TerminalWeight returns the terminal weight of state, zero if unknown.
	TerminalWeight(state ChainState[T]) int
	// States enumerates every known context window once.
	States() []ChainState[T]
}

var (
	_ Model[string] = (*Chain[string])(nil)
	_ Model[string] = (*BackoffChain[string])(nil)
)

// Generate returns a lazy random walk over the chain starting from the empty
// context. Each pull of the iterator performs exactly one weighted draw and
// advances the window by one symbol; stopping early is simply not pulling
// again. The walk ends when the current window has no successors or when the
// draw lands on the window's terminal weight. rnd must not be nil; use
// NewRand for a default source.
func (c *Chain[T]) Generate(rnd RandomSource) iter.Seq[T] {
	return walk[T](c, nil, rnd)
}

// GenerateFrom is Generate starting after the given preceding context.
func (c *Chain[T]) GenerateFrom(previous []T, rnd RandomSource) iter.Seq[T] {
	return walk[T](c, previous, rnd)
}

// Generate returns a lazy random walk over the composite starting from the
// empty context. At every step the backoff policy picks the order to draw
// from. See Chain.Generate for the iteration contract.
func (b *BackoffChain[T]) Generate(rnd RandomSource) iter.Seq[T] {
	return walk[T](b, nil, rnd)
}

// GenerateFrom is Generate starting after the given preceding context.
func (b *BackoffChain[T]) GenerateFrom(previous []T, rnd RandomSource) iter.Seq[T] {
	return walk[T](b, previous, rnd)
}

func walk[T comparable](m Model[T], previous []T, rnd RandomSource) iter.Seq[T] {
	if rnd == nil {
		panic("markov: nil RandomSource")
	}
	return func(yield func(T) bool) {
		state := NewChainState(previous)
		for {
			next, ok := step(m, &state, rnd)
			if !ok || !yield(next) {
				return
			}
		}
	}
}

// step performs one weighted draw: v is uniform in [1, total+stop], values
// above total select termination, and otherwise the successor row is scanned
// cumulatively so each candidate wins with probability weight/(total+stop).
// On success the window is advanced in place.
func step[T comparable](m Model[T], state *ChainState[T], rnd RandomSource) (T, bool) {
	var zero T
	weights := m.NextStates(*state)
	if len(weights) == 0 {
		return zero, false
	}

	total := 0
	for _, w := range weights {
		total += w
	}
	stop := m.TerminalWeight(*state)

	v := rnd.Next(total+stop) + 1
	if v > total {
		return zero, false
	}

	acc := 0
	for next, w := range weights {
		acc += w
		if acc >= v {
			*state = state.Push(next, m.Order())
			return next, true
		}
	}
	return zero, false
}
