// Package addbook implements the Add Book use case.
//
// This feature creates a catalog record with all copies available. Adding a
// book id that is already shelved is an idempotent no-op, which also absorbs
// the race where two clients shelve the same id concurrently.
package addbook
