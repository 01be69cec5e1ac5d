package borrowbook_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/circulatehq/library-lending-go/core"
	"github.com/circulatehq/library-lending-go/features/command/borrowbook"
	"github.com/circulatehq/library-lending-go/lendingstore"
	"github.com/circulatehq/library-lending-go/lendingstore/memoryengine"
)

func Test_CommandHandler_Handle_CreatesLoanAndTakesCopy(t *testing.T) {
	// arrange
	store := memoryengine.NewLendingStore()
	handler := borrowbook.NewCommandHandler(store)
	ctx := context.Background()

	book := givenShelvedBook(t, store, 2)
	command := borrowbook.BuildCommand(book.ID, uuid.New(), time.Now())

	// act
	loan, result, err := handler.Handle(ctx, command)

	// assert
	assert.NoError(t, err)
	assert.False(t, result.Idempotent)
	assert.Equal(t, command.LoanID, loan.ID)
	assert.Equal(t, core.LoanStatusOpen, loan.Status())

	stored, _, _, _ := store.BookByID(ctx, book.ID)
	assert.Equal(t, 1, stored.AvailableCopies)
}

func Test_CommandHandler_Handle_Fails_WhenBookNotFound(t *testing.T) {
	// arrange
	store := memoryengine.NewLendingStore()
	handler := borrowbook.NewCommandHandler(store)
	command := borrowbook.BuildCommand(uuid.New(), uuid.New(), time.Now())

	// act
	_, _, err := handler.Handle(context.Background(), command)

	// assert
	assert.ErrorIs(t, err, core.ErrBookNotFound)
}

func Test_CommandHandler_Handle_Fails_WhenNoCopiesAvailable(t *testing.T) {
	// arrange
	store := memoryengine.NewLendingStore()
	handler := borrowbook.NewCommandHandler(store)
	ctx := context.Background()

	book := givenShelvedBook(t, store, 1)
	_, _, firstErr := handler.Handle(ctx, borrowbook.BuildCommand(book.ID, uuid.New(), time.Now()))
	assert.NoError(t, firstErr)

	// act
	_, _, err := handler.Handle(ctx, borrowbook.BuildCommand(book.ID, uuid.New(), time.Now()))

	// assert
	assert.ErrorIs(t, err, core.ErrNoCopiesAvailable)
}

func Test_CommandHandler_Handle_Fails_WhenUserBorrowsSameBookTwice(t *testing.T) {
	// arrange
	store := memoryengine.NewLendingStore()
	handler := borrowbook.NewCommandHandler(store)
	ctx := context.Background()
	userID := uuid.New()

	book := givenShelvedBook(t, store, 3)
	_, _, firstErr := handler.Handle(ctx, borrowbook.BuildCommand(book.ID, userID, time.Now()))
	assert.NoError(t, firstErr)

	// act
	_, _, err := handler.Handle(ctx, borrowbook.BuildCommand(book.ID, userID, time.Now()))

	// assert
	assert.ErrorIs(t, err, core.ErrAlreadyBorrowed)

	// only one copy was taken
	stored, _, _, _ := store.BookByID(ctx, book.ID)
	assert.Equal(t, 2, stored.AvailableCopies)
}

func Test_CommandHandler_Handle_ConcurrentBorrows_ExactlyAsManyLoansAsCopies(t *testing.T) {
	// arrange
	store := memoryengine.NewLendingStore()
	handler := borrowbook.NewCommandHandler(store)
	ctx := context.Background()

	totalCopies := 3
	borrowers := 12
	book := givenShelvedBook(t, store, totalCopies)

	// act - N users race for K copies; retries are inside the handler
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	noCopies := 0

	for i := 0; i < borrowers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			command := borrowbook.BuildCommand(book.ID, uuid.New(), time.Now())
			_, _, err := handler.Handle(ctx, command)

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				successes++
			case errors.Is(err, core.ErrNoCopiesAvailable):
				noCopies++
			}
		}()
	}

	wg.Wait()

	// assert - exactly as many loans as copies, and the invariant holds afterwards.
	// The book version bumps at most totalCopies times, so every borrower reaches
	// a definitive outcome within the default retry budget.
	assert.Equal(t, totalCopies, successes)
	assert.Equal(t, borrowers-totalCopies, noCopies)

	stored, _, _, _ := store.BookByID(ctx, book.ID)
	assert.Equal(t, 0, stored.AvailableCopies)
	assert.NoError(t, store.AuditBook(ctx, book.ID))
}

func Test_CommandHandler_Handle_Fails_WithUnavailable_WhenStoreTimesOut(t *testing.T) {
	// arrange
	handler := borrowbook.NewCommandHandler(
		unresponsiveStore{},
		borrowbook.WithStoreTimeout(5*time.Millisecond),
	)
	command := borrowbook.BuildCommand(uuid.New(), uuid.New(), time.Now())

	// act
	_, result, err := handler.Handle(context.Background(), command)

	// assert - the deadline fails fast, it is never retried
	assert.ErrorIs(t, err, core.ErrUnavailable)
	assert.Equal(t, 1, result.RetryAttempts)
	assert.False(t, result.RetriesExhausted)
}

// unresponsiveStore blocks every read until the caller's deadline expires.
type unresponsiveStore struct{}

func (unresponsiveStore) BookByID(ctx context.Context, _ uuid.UUID) (
	core.Book,
	lendingstore.VersionUint,
	bool,
	error,
) {
	<-ctx.Done()
	return core.Book{}, 0, false, ctx.Err()
}

func (unresponsiveStore) FindOpenLoan(ctx context.Context, _ uuid.UUID, _ uuid.UUID) (core.Loan, bool, error) {
	<-ctx.Done()
	return core.Loan{}, false, ctx.Err()
}

func (unresponsiveStore) AppendLoan(context.Context, core.Loan, lendingstore.VersionUint) error {
	return nil
}

func givenShelvedBook(t *testing.T, store *memoryengine.LendingStore, totalCopies int) core.Book {
	t.Helper()

	book := core.BuildBook(uuid.New(), "Refactoring", "Martin Fowler", "Tech", totalCopies)
	assert.NoError(t, store.AddBook(context.Background(), book))

	return book
}
