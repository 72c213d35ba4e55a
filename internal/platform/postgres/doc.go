// Package postgres provides the optional task snapshot archive. Registry
// mutations are mirrored asynchronously into a postgres table for post-run
// inspection; the in-memory registry stays the sole source of truth, and an
// unavailable archive never affects task state.
package postgres
