package returnbook

import (
	"github.com/circulatehq/library-lending-go/core"
)

// Snapshot captures the state a return decision depends on, as read from the
// store immediately before deciding.
type Snapshot struct {
	Loan      core.Loan
	LoanFound bool
	Book      core.Book
	BookFound bool
}

// Decide implements the business logic to determine whether a loan may be closed.
// This is a pure function with no side effects - it takes a snapshot of current state
// and a command and returns the change that should be applied based on the business rules.
//
// Business Rules:
//
//	GIVEN: A loan with LoanID held by the user with UserID
//	WHEN: ReturnBook command is received
//	THEN: LoanClosed change is generated with returnedAt set once
//	ERROR: core.ErrLoanNotFound if no such loan exists OR it belongs to another
//	       user (deliberately indistinguishable, existence must not leak)
//	ERROR: core.ErrAlreadyReturned if the loan was closed before (not idempotent)
//	ERROR: core.ErrIntegrityViolation if the open loan's book is missing or its
//	       available count already equals the total (releasing would overflow)
func Decide(snapshot Snapshot, command Command) core.DecisionResult {
	if !snapshot.LoanFound || snapshot.Loan.UserID != command.UserID {
		return core.ErrorDecision(core.ErrLoanNotFound)
	}

	if !snapshot.Loan.IsOpen() {
		return core.ErrorDecision(core.ErrAlreadyReturned)
	}

	if !snapshot.BookFound || snapshot.Book.AvailableCopies >= snapshot.Book.TotalCopies {
		return core.ErrorDecision(core.ErrIntegrityViolation)
	}

	return core.SuccessDecision(
		core.BuildLoanClosed(snapshot.Loan, command.OccurredAt),
	)
}
