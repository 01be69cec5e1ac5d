package core

import (
	"time"

	"github.com/google/uuid"
)

// Change type identifiers.
const (
	LoanOpenedChangeType  = "LoanOpened"
	LoanClosedChangeType  = "LoanClosed"
	BookShelvedChangeType = "BookShelved"
	BookRemovedChangeType = "BookRemoved"
)

// Change represents a state transition a Decide function wants the store to
// apply. Each change is applied by exactly one conditional store write.
type Change interface {
	ChangeType() string
}

// LoanOpened records that a new loan should be created and one available copy taken.
type LoanOpened struct {
	Loan Loan
}

// ChangeType returns the change type identifier.
func (c LoanOpened) ChangeType() string {
	return LoanOpenedChangeType
}

// BuildLoanOpened creates a LoanOpened change for a fresh loan.
func BuildLoanOpened(loanID uuid.UUID, bookID uuid.UUID, userID uuid.UUID, borrowedAt time.Time) LoanOpened {
	return LoanOpened{
		Loan: BuildOpenLoan(loanID, bookID, userID, borrowedAt),
	}
}

// LoanClosed records that a loan should be marked returned and one copy released.
type LoanClosed struct {
	Loan Loan // the loan with ReturnedAt set
}

// ChangeType returns the change type identifier.
func (c LoanClosed) ChangeType() string {
	return LoanClosedChangeType
}

// BuildLoanClosed creates a LoanClosed change from an open loan and the return time.
func BuildLoanClosed(loan Loan, returnedAt time.Time) LoanClosed {
	return LoanClosed{
		Loan: loan.WithReturnedAt(returnedAt),
	}
}

// BookShelved records that a new catalog record should be created.
type BookShelved struct {
	Book Book
}

// ChangeType returns the change type identifier.
func (c BookShelved) ChangeType() string {
	return BookShelvedChangeType
}

// BookRemoved records that a catalog record should be deleted.
type BookRemoved struct {
	BookID uuid.UUID
}

// ChangeType returns the change type identifier.
func (c BookRemoved) ChangeType() string {
	return BookRemovedChangeType
}
