package borrowbook

import (
	"github.com/circulatehq/library-lending-go/core"
)

// Snapshot captures the state a borrow decision depends on, as read from the
// store immediately before deciding.
type Snapshot struct {
	Book        core.Book
	BookFound   bool
	HasOpenLoan bool // the user already holds an open loan for this book
}

// Decide implements the business logic to determine whether a book may be borrowed.
// This is a pure function with no side effects - it takes a snapshot of current state
// and a command and returns the change that should be applied based on the business rules.
//
// Business Rules:
//
//	GIVEN: A book with BookID and a user with UserID
//	WHEN: BorrowBook command is received
//	THEN: LoanOpened change is generated with dueAt = borrowedAt + 14 days
//	ERROR: core.ErrBookNotFound if no such book exists
//	ERROR: core.ErrAlreadyBorrowed if the user already has an open loan for this book
//	ERROR: core.ErrNoCopiesAvailable if all copies are currently lent out
func Decide(snapshot Snapshot, command Command) core.DecisionResult {
	if !snapshot.BookFound {
		return core.ErrorDecision(core.ErrBookNotFound)
	}

	if snapshot.HasOpenLoan {
		return core.ErrorDecision(core.ErrAlreadyBorrowed)
	}

	if !snapshot.Book.HasAvailableCopies() {
		return core.ErrorDecision(core.ErrNoCopiesAvailable)
	}

	return core.SuccessDecision(
		core.BuildLoanOpened(
			command.LoanID,
			command.BookID,
			command.UserID,
			command.OccurredAt,
		),
	)
}
