// Package memoryengine provides an in-memory implementation of the lending store.
//
// It mirrors the Postgres engine's semantics exactly: version-guarded writes,
// atomic borrow/return transitions, and one open loan per (book, user) pair.
// State lives in maps guarded by a mutex, which makes the engine suitable for
// handler tests and local development but not for durable use.
package memoryengine
