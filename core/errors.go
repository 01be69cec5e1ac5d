package core

import "errors"

// The business error taxonomy for lending transitions. All of these are
// returned as typed results to the calling layer, which maps each to a
// stable status code; none of them is ever thrown across the service
// boundary as a generic failure.
var (
	// ErrBookNotFound is returned when no book with the given id exists.
	ErrBookNotFound = errors.New("book not found")

	// ErrLoanNotFound is returned when no loan with the given id exists,
	// or when the loan does not belong to the calling user. The two cases
	// are deliberately indistinguishable so that loan existence does not
	// leak across users.
	ErrLoanNotFound = errors.New("loan not found")

	// ErrNoCopiesAvailable is returned when a borrow hits a book with zero available copies.
	ErrNoCopiesAvailable = errors.New("no copies available")

	// ErrAlreadyBorrowed is returned when the user already has an open loan for the book.
	ErrAlreadyBorrowed = errors.New("book already borrowed by this user")

	// ErrAlreadyReturned is returned when a return hits a loan that was returned before.
	// Return is not idempotent: a double return is a caller error.
	ErrAlreadyReturned = errors.New("loan already returned")

	// ErrConflict signals transient concurrent-update contention that survived
	// the bounded retries; the caller may safely retry the whole operation.
	ErrConflict = errors.New("concurrent update contention")

	// ErrUnavailable signals that the store did not answer within the timeout.
	ErrUnavailable = errors.New("store unavailable")

	// ErrIntegrityViolation signals a violated invariant, e.g. available copies
	// drifting out of the [0, total] bounds. It indicates a bug, is never
	// retried and never auto-corrected.
	ErrIntegrityViolation = errors.New("integrity violation")
)
