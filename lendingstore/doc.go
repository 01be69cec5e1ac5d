// Package lendingstore defines the contracts shared by the lending store
// engines: the record version type used for optimistic concurrency, the
// mechanical error sentinels, and the dependency-free observability ports.
//
// The engines themselves live in the postgresengine and memoryengine
// subpackages. Both expose the same capability set: plain reads that also
// report the current book version, and conditional writes that apply a
// whole borrow or return transition in one atomic step, failing with
// ErrConcurrencyConflict when the expected version no longer matches.
package lendingstore
