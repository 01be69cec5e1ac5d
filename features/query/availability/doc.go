// Package availability implements the Book Availability query use case.
//
// This feature is a pure read operation that reports how many copies of a
// book exist and how many are currently on the shelf. Querying a book that
// is not in the catalog fails with core.ErrBookNotFound.
package availability
