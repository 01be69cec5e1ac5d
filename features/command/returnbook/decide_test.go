package returnbook_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/circulatehq/library-lending-go/core"
	"github.com/circulatehq/library-lending-go/features/command/returnbook"
)

func Test_Decide_Success_WhenLoanIsOpenAndOwnedByUser(t *testing.T) {
	// arrange
	userID := uuid.New()
	loan := givenOpenLoan(t, userID)
	returnedAt := time.Now()

	snapshot := returnbook.Snapshot{
		Loan:      loan,
		LoanFound: true,
		Book:      givenBook(t, loan.BookID, 3, 1),
		BookFound: true,
	}

	command := returnbook.BuildCommand(loan.ID, userID, returnedAt)

	// act
	result := returnbook.Decide(snapshot, command)

	// assert
	assert.NoError(t, result.HasError())
	assert.True(t, result.HasChangeToApply())

	change := result.Change.(core.LoanClosed)
	assert.Equal(t, loan.ID, change.Loan.ID)
	assert.Equal(t, core.LoanStatusReturned, change.Loan.Status())
	assert.Equal(t, core.ToRecordedAt(returnedAt), change.Loan.ReturnedAt)
}

func Test_Decide_Fails_WhenLoanNotFound(t *testing.T) {
	// arrange
	snapshot := returnbook.Snapshot{LoanFound: false}
	command := returnbook.BuildCommand(uuid.New(), uuid.New(), time.Now())

	// act
	result := returnbook.Decide(snapshot, command)

	// assert
	assert.ErrorIs(t, result.HasError(), core.ErrLoanNotFound)
}

func Test_Decide_Fails_WhenLoanBelongsToAnotherUser(t *testing.T) {
	// arrange - the caller must not learn that the loan exists
	loan := givenOpenLoan(t, uuid.New())

	snapshot := returnbook.Snapshot{
		Loan:      loan,
		LoanFound: true,
		Book:      givenBook(t, loan.BookID, 3, 1),
		BookFound: true,
	}

	command := returnbook.BuildCommand(loan.ID, uuid.New(), time.Now())

	// act
	result := returnbook.Decide(snapshot, command)

	// assert
	assert.ErrorIs(t, result.HasError(), core.ErrLoanNotFound)
}

func Test_Decide_Fails_WhenLoanAlreadyReturned(t *testing.T) {
	// arrange
	userID := uuid.New()
	loan := givenOpenLoan(t, userID).WithReturnedAt(time.Now().Add(-time.Hour))

	snapshot := returnbook.Snapshot{
		Loan:      loan,
		LoanFound: true,
		Book:      givenBook(t, loan.BookID, 3, 2),
		BookFound: true,
	}

	command := returnbook.BuildCommand(loan.ID, userID, time.Now())

	// act
	result := returnbook.Decide(snapshot, command)

	// assert
	assert.ErrorIs(t, result.HasError(), core.ErrAlreadyReturned)
}

func Test_Decide_Fails_WhenReleaseWouldOverflowTotalCopies(t *testing.T) {
	// arrange - an open loan exists but the book already shows all copies available
	userID := uuid.New()
	loan := givenOpenLoan(t, userID)

	snapshot := returnbook.Snapshot{
		Loan:      loan,
		LoanFound: true,
		Book:      givenBook(t, loan.BookID, 2, 2),
		BookFound: true,
	}

	command := returnbook.BuildCommand(loan.ID, userID, time.Now())

	// act
	result := returnbook.Decide(snapshot, command)

	// assert
	assert.ErrorIs(t, result.HasError(), core.ErrIntegrityViolation)
}

func Test_Decide_Fails_WhenBookRecordIsMissingForOpenLoan(t *testing.T) {
	// arrange
	userID := uuid.New()
	loan := givenOpenLoan(t, userID)

	snapshot := returnbook.Snapshot{
		Loan:      loan,
		LoanFound: true,
		BookFound: false,
	}

	command := returnbook.BuildCommand(loan.ID, userID, time.Now())

	// act
	result := returnbook.Decide(snapshot, command)

	// assert
	assert.ErrorIs(t, result.HasError(), core.ErrIntegrityViolation)
}

func givenOpenLoan(t *testing.T, userID uuid.UUID) core.Loan {
	t.Helper()

	return core.BuildOpenLoan(uuid.New(), uuid.New(), userID, time.Now().Add(-48*time.Hour))
}

func givenBook(t *testing.T, bookID uuid.UUID, totalCopies int, availableCopies int) core.Book {
	t.Helper()

	book := core.BuildBook(bookID, "Working Effectively with Legacy Code", "Michael Feathers", "Tech", totalCopies)
	book.AvailableCopies = availableCopies

	return book
}
