package memoryengine_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/circulatehq/library-lending-go/core"
	"github.com/circulatehq/library-lending-go/lendingstore"
	"github.com/circulatehq/library-lending-go/lendingstore/memoryengine"
)

func Test_AddBook_ShouldStoreBookWithAllCopiesAvailable(t *testing.T) {
	// arrange
	store := memoryengine.NewLendingStore()
	ctx := context.Background()
	book := core.BuildBook(uuid.New(), "The Go Programming Language", "Donovan / Kernighan", "Tech", 3)

	// act
	err := store.AddBook(ctx, book)

	// assert
	assert.NoError(t, err)

	stored, version, found, readErr := store.BookByID(ctx, book.ID)
	assert.NoError(t, readErr)
	assert.True(t, found)
	assert.Equal(t, lendingstore.VersionUint(0), version)
	assert.Equal(t, 3, stored.AvailableCopies)
	assert.Equal(t, 3, stored.TotalCopies)
}

func Test_AddBook_ShouldFail_WhenBookIDAlreadyShelved(t *testing.T) {
	// arrange
	store := memoryengine.NewLendingStore()
	ctx := context.Background()
	book := core.BuildBook(uuid.New(), "Clean Architecture", "Robert C. Martin", "Tech", 1)
	assert.NoError(t, store.AddBook(ctx, book))

	// act
	err := store.AddBook(ctx, book)

	// assert
	assert.ErrorIs(t, err, lendingstore.ErrBookAlreadyShelved)
}

func Test_AppendLoan_ShouldTakeOneCopyAndBumpVersion(t *testing.T) {
	// arrange
	store := memoryengine.NewLendingStore()
	ctx := context.Background()
	book := givenShelvedBook(t, store, 2)
	loan := core.BuildOpenLoan(uuid.New(), book.ID, uuid.New(), time.Now())

	// act
	err := store.AppendLoan(ctx, loan, 0)

	// assert
	assert.NoError(t, err)

	stored, version, _, _ := store.BookByID(ctx, book.ID)
	assert.Equal(t, 1, stored.AvailableCopies)
	assert.Equal(t, lendingstore.VersionUint(1), version)

	open, found, findErr := store.FindOpenLoan(ctx, book.ID, loan.UserID)
	assert.NoError(t, findErr)
	assert.True(t, found)
	assert.Equal(t, loan.ID, open.ID)
}

func Test_AppendLoan_ShouldFail_WhenVersionIsStale(t *testing.T) {
	// arrange
	store := memoryengine.NewLendingStore()
	ctx := context.Background()
	book := givenShelvedBook(t, store, 2)
	assert.NoError(t, store.AppendLoan(ctx, core.BuildOpenLoan(uuid.New(), book.ID, uuid.New(), time.Now()), 0))

	// act - version 0 was consumed by the first borrow
	err := store.AppendLoan(ctx, core.BuildOpenLoan(uuid.New(), book.ID, uuid.New(), time.Now()), 0)

	// assert
	assert.ErrorIs(t, err, lendingstore.ErrConcurrencyConflict)
}

func Test_AppendLoan_ShouldFail_WhenNoCopiesAvailable(t *testing.T) {
	// arrange
	store := memoryengine.NewLendingStore()
	ctx := context.Background()
	book := givenShelvedBook(t, store, 1)
	assert.NoError(t, store.AppendLoan(ctx, core.BuildOpenLoan(uuid.New(), book.ID, uuid.New(), time.Now()), 0))

	// act
	err := store.AppendLoan(ctx, core.BuildOpenLoan(uuid.New(), book.ID, uuid.New(), time.Now()), 1)

	// assert
	assert.ErrorIs(t, err, lendingstore.ErrConcurrencyConflict)
}

func Test_AppendLoan_ShouldFail_WhenUserAlreadyHasOpenLoanForBook(t *testing.T) {
	// arrange
	store := memoryengine.NewLendingStore()
	ctx := context.Background()
	book := givenShelvedBook(t, store, 5)
	userID := uuid.New()
	assert.NoError(t, store.AppendLoan(ctx, core.BuildOpenLoan(uuid.New(), book.ID, userID, time.Now()), 0))

	// act
	err := store.AppendLoan(ctx, core.BuildOpenLoan(uuid.New(), book.ID, userID, time.Now()), 1)

	// assert
	assert.ErrorIs(t, err, lendingstore.ErrConcurrencyConflict)
}

func Test_CloseLoan_ShouldReleaseOneCopyAndBumpVersion(t *testing.T) {
	// arrange
	store := memoryengine.NewLendingStore()
	ctx := context.Background()
	book := givenShelvedBook(t, store, 2)
	loan := core.BuildOpenLoan(uuid.New(), book.ID, uuid.New(), time.Now())
	assert.NoError(t, store.AppendLoan(ctx, loan, 0))

	// act
	err := store.CloseLoan(ctx, loan.WithReturnedAt(time.Now()), 1)

	// assert
	assert.NoError(t, err)

	stored, version, _, _ := store.BookByID(ctx, book.ID)
	assert.Equal(t, 2, stored.AvailableCopies)
	assert.Equal(t, lendingstore.VersionUint(2), version)

	returned, found, _ := store.LoanByID(ctx, loan.ID)
	assert.True(t, found)
	assert.Equal(t, core.LoanStatusReturned, returned.Status())
}

func Test_CloseLoan_ShouldFail_WhenLoanIsAlreadyReturned(t *testing.T) {
	// arrange
	store := memoryengine.NewLendingStore()
	ctx := context.Background()
	book := givenShelvedBook(t, store, 2)
	loan := core.BuildOpenLoan(uuid.New(), book.ID, uuid.New(), time.Now())
	assert.NoError(t, store.AppendLoan(ctx, loan, 0))
	assert.NoError(t, store.CloseLoan(ctx, loan.WithReturnedAt(time.Now()), 1))

	// act
	err := store.CloseLoan(ctx, loan.WithReturnedAt(time.Now()), 2)

	// assert
	assert.ErrorIs(t, err, lendingstore.ErrConcurrencyConflict)
}

func Test_RemoveBook_ShouldFail_WhileOpenLoansRemain(t *testing.T) {
	// arrange
	store := memoryengine.NewLendingStore()
	ctx := context.Background()
	book := givenShelvedBook(t, store, 1)
	loan := core.BuildOpenLoan(uuid.New(), book.ID, uuid.New(), time.Now())
	assert.NoError(t, store.AppendLoan(ctx, loan, 0))

	// act
	err := store.RemoveBook(ctx, book.ID, 1)

	// assert
	assert.ErrorIs(t, err, lendingstore.ErrOpenLoansRemain)
}

func Test_RemoveBook_ShouldSucceed_WhenAllLoansAreReturned(t *testing.T) {
	// arrange
	store := memoryengine.NewLendingStore()
	ctx := context.Background()
	book := givenShelvedBook(t, store, 1)
	loan := core.BuildOpenLoan(uuid.New(), book.ID, uuid.New(), time.Now())
	assert.NoError(t, store.AppendLoan(ctx, loan, 0))
	assert.NoError(t, store.CloseLoan(ctx, loan.WithReturnedAt(time.Now()), 1))

	// act
	err := store.RemoveBook(ctx, book.ID, 2)

	// assert
	assert.NoError(t, err)

	_, _, found, _ := store.BookByID(ctx, book.ID)
	assert.False(t, found)

	// returned loan history survives catalog removal
	_, loanFound, _ := store.LoanByID(ctx, loan.ID)
	assert.True(t, loanFound)
}

func Test_AuditBook_ShouldPass_AfterBorrowAndReturnCycle(t *testing.T) {
	// arrange
	store := memoryengine.NewLendingStore()
	ctx := context.Background()
	book := givenShelvedBook(t, store, 2)
	loan := core.BuildOpenLoan(uuid.New(), book.ID, uuid.New(), time.Now())
	assert.NoError(t, store.AppendLoan(ctx, loan, 0))

	// act + assert - with one open loan
	assert.NoError(t, store.AuditBook(ctx, book.ID))

	assert.NoError(t, store.CloseLoan(ctx, loan.WithReturnedAt(time.Now()), 1))

	// act + assert - after the copy came back
	assert.NoError(t, store.AuditBook(ctx, book.ID))
}

func Test_ConcurrentBorrows_ShouldNeverOversellCopies(t *testing.T) {
	// arrange
	store := memoryengine.NewLendingStore()
	ctx := context.Background()
	totalCopies := 2
	borrowers := 10
	book := givenShelvedBook(t, store, totalCopies)

	// act - each borrower retries on conflict until success or copies run out
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0

	for i := 0; i < borrowers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			userID := uuid.New()

			for {
				stored, version, found, readErr := store.BookByID(ctx, book.ID)
				if readErr != nil || !found || !stored.HasAvailableCopies() {
					return
				}

				loan := core.BuildOpenLoan(uuid.New(), book.ID, userID, time.Now())
				appendErr := store.AppendLoan(ctx, loan, version)

				if appendErr == nil {
					mu.Lock()
					successes++
					mu.Unlock()

					return
				}
			}
		}()
	}

	wg.Wait()

	// assert
	assert.Equal(t, totalCopies, successes)

	stored, _, _, _ := store.BookByID(ctx, book.ID)
	assert.Equal(t, 0, stored.AvailableCopies)
	assert.NoError(t, store.AuditBook(ctx, book.ID))
}

func givenShelvedBook(t *testing.T, store *memoryengine.LendingStore, totalCopies int) core.Book {
	t.Helper()

	book := core.BuildBook(uuid.New(), "Domain-Driven Design", "Eric Evans", "Tech", totalCopies)
	assert.NoError(t, store.AddBook(context.Background(), book))

	return book
}
