package markov

// Chain is a fixed-order Markov chain. It maps each context window of at most
// Order symbols to a weighted set of possible next symbols, plus a terminal
// weight giving the odds that a sequence legitimately ends at that window.
//
// A Chain is built incrementally with Add / AddWeighted / AddEdge. Weights
// are nonnegative integers; adding a negative weight un-trains previously
// added data, and an entry whose weight reaches zero is removed outright.
// Chains are not safe for concurrent mutation; callers that share a chain
// across goroutines must synchronize externally. The query methods return
// copies, so a snapshot read is never invalidated by a later write.
type Chain[T comparable] struct {
	order       int
	vocab       *vocab[T]
	transitions map[string]map[int]int
	terminals   map[string]int
}

// NewChain creates an empty chain of the given order. The order bounds every
// context window: only the most recent order symbols of a context are kept.
// An order of zero is legal and collapses every context to the empty window.
func NewChain[T comparable](order int) (*Chain[T], error) {
	if order < 0 {
		return nil, ErrInvalidOrder
	}
	return &Chain[T]{
		order:       order,
		vocab:       newVocab[T](),
		transitions: make(map[string]map[int]int),
		terminals:   make(map[string]int),
	}, nil
}

// Order returns the chain's order.
func (c *Chain[T]) Order() int {
	return c.order
}

// Add trains the chain on one complete sequence with weight 1.
func (c *Chain[T]) Add(seq []T) {
	c.AddWeighted(seq, 1)
}

// AddWeighted slides a window of at most Order previous symbols across seq,
// adding weight to the transition entry for every (window, next symbol) pair.
// After the last symbol, weight is added to the terminal entry for the final
// window, marking that a sequence may end there. A negative weight reverses a
// prior add: weights are clamped at zero, a zero-weight entry is deleted, and
// a context row left empty is deleted with it.
func (c *Chain[T]) AddWeighted(seq []T, weight int) {
	previous := make([]T, 0, c.order+1)
	for _, item := range seq {
		c.addEdge(previous, item, weight)
		previous = append(previous, item)
		if len(previous) > c.order {
			previous = previous[1:]
		}
	}
	c.addTerminal(previous, weight)
}

// AddEdge adds weight to the single transition state -> next. The state is
// truncated to the chain's order first. The same clamp-at-zero and cleanup
// rules as AddWeighted apply.
func (c *Chain[T]) AddEdge(state ChainState[T], next T, weight int) {
	c.addEdge(state.truncate(c.order), next, weight)
}

// AddTerminal adds weight to the terminal entry for state, truncated to the
// chain's order.
func (c *Chain[T]) AddTerminal(state ChainState[T], weight int) {
	c.addTerminal(state.truncate(c.order), weight)
}

func (c *Chain[T]) addEdge(window []T, next T, weight int) {
	key := c.vocab.key(window)
	row := c.transitions[key]
	if row == nil {
		if weight <= 0 {
			return
		}
		row = make(map[int]int)
		c.transitions[key] = row
	}
	id := c.vocab.intern(next)
	if w := row[id] + weight; w > 0 {
		row[id] = w
	} else {
		delete(row, id)
		if len(row) == 0 {
			delete(c.transitions, key)
		}
	}
}

func (c *Chain[T]) addTerminal(window []T, weight int) {
	key := c.vocab.key(window)
	if w := c.terminals[key] + weight; w > 0 {
		c.terminals[key] = w
	} else {
		delete(c.terminals, key)
	}
}

// NextStates returns a copy of the weighted successor set for state,
// truncated to the chain's order. It returns nil when the window has never
// been trained; an unknown context is normal "end of data", not an error.
func (c *Chain[T]) NextStates(state ChainState[T]) map[T]int {
	key, ok := c.vocab.lookupKey(state.truncate(c.order))
	if !ok {
		return nil
	}
	row, ok := c.transitions[key]
	if !ok {
		return nil
	}
	out := make(map[T]int, len(row))
	for id, w := range row {
		out[c.vocab.symbol(id)] = w
	}
	return out
}

// InitialStates returns the successor set for the empty context: the symbols
// a fresh sequence can start with. It returns nil for an untrained chain.
func (c *Chain[T]) InitialStates() map[T]int {
	return c.NextStates(ChainState[T]{})
}

// TerminalWeight returns the weight with which sequences end at state,
// truncated to the chain's order. Unknown windows report zero, never an
// error.
func (c *Chain[T]) TerminalWeight(state ChainState[T]) int {
	key, ok := c.vocab.lookupKey(state.truncate(c.order))
	if !ok {
		return 0
	}
	return c.terminals[key]
}

// States enumerates every context window present in the transition or
// terminal maps, each exactly once. Order is unspecified.
func (c *Chain[T]) States() []ChainState[T] {
	out := make([]ChainState[T], 0, len(c.transitions))
	for key := range c.transitions {
		out = append(out, ChainState[T]{items: c.vocab.decode(key)})
	}
	for key := range c.terminals {
		if _, dup := c.transitions[key]; !dup {
			out = append(out, ChainState[T]{items: c.vocab.decode(key)})
		}
	}
	return out
}

// successorCount reports how many distinct next symbols the window has,
// without copying the row.
func (c *Chain[T]) successorCount(state ChainState[T]) int {
	key, ok := c.vocab.lookupKey(state.truncate(c.order))
	if !ok {
		return 0
	}
	return len(c.transitions[key])
}
