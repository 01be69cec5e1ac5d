package core

import (
	"time"

	"github.com/google/uuid"
)

// LoanStatus is the derived lifecycle state of a loan.
type LoanStatus string

const (
	// LoanStatusOpen marks a loan that has not been returned yet; it consumes one copy from availability.
	LoanStatusOpen LoanStatus = "OPEN"

	// LoanStatusReturned marks a loan whose book copy came back.
	LoanStatusReturned LoanStatus = "RETURNED"
)

// Loans is an alias type for a slice of Loan.
type Loans = []Loan

// Loan represents a single borrow transaction linking one user to one book copy.
//
// BorrowedAt and DueAt are set once at creation. ReturnedAt stays at the zero
// value while the loan is open and is set exactly once by the return transition;
// the status is derived from it, never stored.
type Loan struct {
	ID         uuid.UUID
	BookID     uuid.UUID
	UserID     uuid.UUID
	BorrowedAt RecordedAt
	DueAt      RecordedAt
	ReturnedAt RecordedAt
}

// BuildOpenLoan creates a new open Loan with the due date derived from the loan period.
func BuildOpenLoan(loanID uuid.UUID, bookID uuid.UUID, userID uuid.UUID, borrowedAt time.Time) Loan {
	return Loan{
		ID:         loanID,
		BookID:     bookID,
		UserID:     userID,
		BorrowedAt: ToRecordedAt(borrowedAt),
		DueAt:      ToRecordedAt(borrowedAt.Add(LoanPeriod)),
	}
}

// Status derives OPEN or RETURNED from the ReturnedAt timestamp.
func (l Loan) Status() LoanStatus {
	if l.ReturnedAt.IsZero() {
		return LoanStatusOpen
	}

	return LoanStatusReturned
}

// IsOpen returns true while the loan has not been returned.
func (l Loan) IsOpen() bool {
	return l.Status() == LoanStatusOpen
}

// WithReturnedAt returns a copy of the loan closed at the given time.
func (l Loan) WithReturnedAt(returnedAt time.Time) Loan {
	l.ReturnedAt = ToRecordedAt(returnedAt)
	return l
}
