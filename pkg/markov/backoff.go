package markov

// BackoffChain composes one Chain per order from 1 up to a maximum. Writes
// fan out to every order, each keyed by the right-truncated context, so all
// orders stay consistent views of the same corpus. Reads pick the highest
// order whose successor set is rich enough: starting at the maximum order,
// the policy descends one order at a time until the candidate count reaches
// DesiredNextStates, with order 1 always accepted as the floor. Long context
// is used where the corpus is dense, shorter context where it is sparse, and
// order 1 guarantees some continuation exists whenever the corpus does.
type BackoffChain[T comparable] struct {
	maxOrder    int
	desiredNext int
	chains      []*Chain[T] // chains[i] has order i+1
}

// NewBackoffChain creates a composite of chains at orders maximumOrder down
// to 1. maximumOrder must be at least 1 and desiredNumNextStates must be
// non-negative. A desiredNumNextStates of zero disables backoff entirely:
// the maximum order is always accepted.
func NewBackoffChain[T comparable](maximumOrder, desiredNumNextStates int) (*BackoffChain[T], error) {
	if maximumOrder < 1 {
		return nil, ErrInvalidMaxOrder
	}
	if desiredNumNextStates < 0 {
		return nil, ErrInvalidDesiredStates
	}
	chains := make([]*Chain[T], maximumOrder)
	for i := range chains {
		c, err := NewChain[T](i + 1)
		if err != nil {
			return nil, err
		}
		chains[i] = c
	}
	return &BackoffChain[T]{
		maxOrder:    maximumOrder,
		desiredNext: desiredNumNextStates,
		chains:      chains,
	}, nil
}

// Order returns the maximum order.
func (b *BackoffChain[T]) Order() int {
	return b.maxOrder
}

// DesiredNextStates returns the candidate-count threshold below which reads
// back off to a lower order.
func (b *BackoffChain[T]) DesiredNextStates() int {
	return b.desiredNext
}

// Primary returns the chain at the maximum order. Lower orders are derived
// views of the same trained data, so the primary chain alone is enough to
// reconstruct the composite; the store package relies on this. Treat the
// returned chain as read-only: writing to it directly would desynchronize
// the lower orders.
func (b *BackoffChain[T]) Primary() *Chain[T] {
	return b.chains[b.maxOrder-1]
}

// Add trains every order on one complete sequence with weight 1.
func (b *BackoffChain[T]) Add(seq []T) {
	b.AddWeighted(seq, 1)
}

// AddWeighted trains every order on seq; each chain slides its own window.
func (b *BackoffChain[T]) AddWeighted(seq []T, weight int) {
	for _, c := range b.chains {
		c.AddWeighted(seq, weight)
	}
}

// AddEdge fans the single-edge update out to every order, each receiving the
// context right-truncated to its own length.
func (b *BackoffChain[T]) AddEdge(state ChainState[T], next T, weight int) {
	for _, c := range b.chains {
		c.AddEdge(state, next, weight)
	}
}

// AddTerminal fans the terminal update out to every order.
func (b *BackoffChain[T]) AddTerminal(state ChainState[T], weight int) {
	for _, c := range b.chains {
		c.AddTerminal(state, weight)
	}
}

// DesiredOrderTarget runs the backoff descent for state: the highest order
// whose successor count reaches the desired threshold, or 1 as the floor.
// Every query re-derives this independently, so successor and terminal
// lookups for the same step agree on the selected order as long as the
// corpus is not mutated between them.
func (b *BackoffChain[T]) DesiredOrderTarget(state ChainState[T]) int {
	for target := b.maxOrder; target > 1; target-- {
		if b.chains[target-1].successorCount(state) >= b.desiredNext {
			return target
		}
	}
	return 1
}

// NextStates returns a copy of the successor set at the backoff-selected
// order, or nil when even the order-1 window is unknown.
func (b *BackoffChain[T]) NextStates(state ChainState[T]) map[T]int {
	return b.chains[b.DesiredOrderTarget(state)-1].NextStates(state)
}

// TerminalWeight returns the terminal weight at the backoff-selected order.
func (b *BackoffChain[T]) TerminalWeight(state ChainState[T]) int {
	return b.chains[b.DesiredOrderTarget(state)-1].TerminalWeight(state)
}

// States enumerates the union of every order's states, each window once.
func (b *BackoffChain[T]) States() []ChainState[T] {
	shared := newVocab[T]()
	seen := make(map[string]struct{})
	var out []ChainState[T]
	for _, c := range b.chains {
		for _, s := range c.States() {
			key := shared.key(s.items)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
