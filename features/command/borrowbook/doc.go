// Package borrowbook implements the Borrow Book use case.
//
// This feature lends one available copy of a book to a user. It follows the
// Read-Decide-Apply pattern with proper separation between infrastructure
// concerns (CommandHandler) and pure business logic (Decide function).
//
// The business logic enforces that the book exists, has at least one available
// copy, and that the user does not already hold an open loan for it. The copy
// decrement and the loan creation are applied as one atomic conditional write;
// concurrency conflicts are retried with exponential backoff.
package borrowbook
