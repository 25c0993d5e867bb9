package markov

// ChainStats holds aggregate counts for a single chain.
type ChainStats struct {
	Contexts       int // distinct context windows with at least one successor
	Edges          int // distinct (context, next symbol) pairs
	TotalWeight    int // sum of all transition weights; total trained transitions
	Terminals      int // distinct windows with a nonzero terminal weight
	StartingStates int // successors of the empty context
}

// Prune removes every transition whose weight is at or below minWeight,
// deleting context rows that end up empty. Terminal weights are untouched.
// Pruning rare transitions shrinks a model trained on noisy data at the cost
// of exact un-train accounting for the removed entries.
func (c *Chain[T]) Prune(minWeight int) int {
	removed := 0
	for key, row := range c.transitions {
		for id, w := range row {
			if w <= minWeight {
				delete(row, id)
				removed++
			}
		}
		if len(row) == 0 {
			delete(c.transitions, key)
		}
	}
	return removed
}

// Stats returns a snapshot of the chain's aggregate counts.
func (c *Chain[T]) Stats() ChainStats {
	s := ChainStats{
		Contexts:  len(c.transitions),
		Terminals: len(c.terminals),
	}
	for _, row := range c.transitions {
		s.Edges += len(row)
		for _, w := range row {
			s.TotalWeight += w
		}
	}
	s.StartingStates = len(c.transitions[""])
	return s
}

// Prune applies Chain.Prune to every order and returns the total number of
// transitions removed.
func (b *BackoffChain[T]) Prune(minWeight int) int {
	removed := 0
	for _, c := range b.chains {
		removed += c.Prune(minWeight)
	}
	return removed
}

// Stats returns per-order aggregate counts, keyed by order.
func (b *BackoffChain[T]) Stats() map[int]ChainStats {
	out := make(map[int]ChainStats, len(b.chains))
	for _, c := range b.chains {
		out[c.Order()] = c.Stats()
	}
	return out
}
