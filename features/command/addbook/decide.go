package addbook

import (
	"errors"

	"github.com/circulatehq/library-lending-go/core"
)

// ErrTotalCopiesMustBePositive is returned when a book is added with fewer than one copy.
var ErrTotalCopiesMustBePositive = errors.New("total copies must be positive")

// Snapshot captures the state an add-book decision depends on.
type Snapshot struct {
	BookFound bool // a book with this id is already shelved
}

// Decide implements the business logic to determine whether a book should be shelved.
// This is a pure function with no side effects.
//
// Business Rules:
//
//	GIVEN: A book id with title, author, genre and a copy count
//	WHEN: AddBook command is received
//	THEN: BookShelved change is generated with all copies available
//	ERROR: ErrTotalCopiesMustBePositive if the copy count is less than one
//	IDEMPOTENCY: If the id is already shelved, no change is generated (no-op)
func Decide(snapshot Snapshot, command Command) core.DecisionResult {
	if command.TotalCopies < 1 {
		return core.ErrorDecision(ErrTotalCopiesMustBePositive)
	}

	if snapshot.BookFound {
		return core.IdempotentDecision()
	}

	return core.SuccessDecision(core.BookShelved{
		Book: core.BuildBook(
			command.BookID,
			command.Title,
			command.Author,
			command.Genre,
			command.TotalCopies,
		),
	})
}
