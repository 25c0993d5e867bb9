/*
Package markov implements generic, weighted Markov chains over any comparable
symbol type, along with a backing-off composite that adaptively shortens its
context window when the trained corpus is too sparse at higher orders.

Chains are trained incrementally with integer weights; a negative weight
un-trains previously added data exactly. Generation is a lazy weighted random
walk driven by a caller-supplied RandomSource, so sequences can be consumed
one symbol at a time and abandoned at any point.

For persistence of trained models, see the store package.
*/
package markov
