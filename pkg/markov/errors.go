package markov

import "errors"

var (
	// ErrInvalidOrder is returned by NewChain when the requested order is
	// negative.
	ErrInvalidOrder = errors.New("markov: order must be non-negative")

	// ErrInvalidMaxOrder is returned by NewBackoffChain when the maximum
	// order is below 1.
	ErrInvalidMaxOrder = errors.New("markov: maximum order must be at least 1")

	// ErrInvalidDesiredStates is returned by NewBackoffChain when the
	// desired next-state count is negative.
	ErrInvalidDesiredStates = errors.New("markov: desired next states must be non-negative")
)
