package removebook_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/circulatehq/library-lending-go/core"
	"github.com/circulatehq/library-lending-go/features/command/borrowbook"
	"github.com/circulatehq/library-lending-go/features/command/removebook"
	"github.com/circulatehq/library-lending-go/features/command/returnbook"
	"github.com/circulatehq/library-lending-go/lendingstore"
	"github.com/circulatehq/library-lending-go/lendingstore/memoryengine"
)

func Test_CommandHandler_Handle_RemovesBook_WhenAllLoansReturned(t *testing.T) {
	// arrange
	store := memoryengine.NewLendingStore()
	borrowHandler := borrowbook.NewCommandHandler(store)
	returnHandler := returnbook.NewCommandHandler(store)
	removeHandler := removebook.NewCommandHandler(store)
	ctx := context.Background()
	userID := uuid.New()

	book := core.BuildBook(uuid.New(), "The Pragmatic Programmer", "Hunt / Thomas", "Tech", 1)
	assert.NoError(t, store.AddBook(ctx, book))

	loan, _, borrowErr := borrowHandler.Handle(ctx, borrowbook.BuildCommand(book.ID, userID, time.Now()))
	assert.NoError(t, borrowErr)

	_, returnErr := returnHandler.Handle(ctx, returnbook.BuildCommand(loan.ID, userID, time.Now()))
	assert.NoError(t, returnErr)

	// act
	result, err := removeHandler.Handle(ctx, removebook.BuildCommand(book.ID))

	// assert
	assert.NoError(t, err)
	assert.False(t, result.Idempotent)

	_, _, found, _ := store.BookByID(ctx, book.ID)
	assert.False(t, found)

	stored, loanFound, _ := store.LoanByID(ctx, loan.ID)
	assert.True(t, loanFound, "returned loan history must survive catalog removal")
	assert.Equal(t, core.LoanStatusReturned, stored.Status())
}

func Test_CommandHandler_Handle_Fails_WhileOpenLoanExists(t *testing.T) {
	// arrange
	store := memoryengine.NewLendingStore()
	borrowHandler := borrowbook.NewCommandHandler(store)
	removeHandler := removebook.NewCommandHandler(store)
	ctx := context.Background()

	book := core.BuildBook(uuid.New(), "Working Effectively with Legacy Code", "Michael Feathers", "Tech", 2)
	assert.NoError(t, store.AddBook(ctx, book))

	_, _, borrowErr := borrowHandler.Handle(ctx, borrowbook.BuildCommand(book.ID, uuid.New(), time.Now()))
	assert.NoError(t, borrowErr)

	// act
	_, err := removeHandler.Handle(ctx, removebook.BuildCommand(book.ID))

	// assert
	assert.ErrorIs(t, err, lendingstore.ErrOpenLoansRemain)

	_, _, found, _ := store.BookByID(ctx, book.ID)
	assert.True(t, found, "book must stay shelved while a copy is out")
}

func Test_CommandHandler_Handle_Idempotent_WhenBookAbsent(t *testing.T) {
	// arrange
	store := memoryengine.NewLendingStore()
	handler := removebook.NewCommandHandler(store)

	// act
	result, err := handler.Handle(context.Background(), removebook.BuildCommand(uuid.New()))

	// assert
	assert.NoError(t, err)
	assert.True(t, result.Idempotent)
}
