// Package removebook implements the Remove Book use case.
//
// This feature deletes a catalog record. Removal is rejected while open loans
// still reference the book; returned-loan history never blocks removal and
// survives it. Removing an absent book is an idempotent no-op.
package removebook
