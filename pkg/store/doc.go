/*
Package store persists trained markov chains to a SQLite database.

A model snapshot is the boundary the core leaves to its collaborators: every
context window maps to a successor-weight row, plus one terminal weight per
window. Symbols cross into TEXT columns through a Codec, windows are stored as
space-joined token-id strings, and each saved model is identified by name and
a generated UUID. Models can also be exported to and imported from JSON.

The package works with any database/sql driver that speaks SQLite; the
repository wires modernc.org/sqlite by default and mattn/go-sqlite3 behind
the cgo_sqlite build tag.
*/
package store
