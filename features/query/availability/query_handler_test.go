package availability_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/circulatehq/library-lending-go/core"
	"github.com/circulatehq/library-lending-go/features/command/borrowbook"
	"github.com/circulatehq/library-lending-go/features/query/availability"
	"github.com/circulatehq/library-lending-go/lendingstore/memoryengine"
)

func Test_QueryHandler_Handle_ReportsCopyCounts(t *testing.T) {
	// arrange
	store := memoryengine.NewLendingStore()
	borrowHandler := borrowbook.NewCommandHandler(store)
	queryHandler, err := availability.NewQueryHandler(store)
	assert.NoError(t, err)

	ctx := context.Background()
	book := core.BuildBook(uuid.New(), "The C Programming Language", "Kernighan / Ritchie", "Tech", 3)
	assert.NoError(t, store.AddBook(ctx, book))

	_, _, borrowErr := borrowHandler.Handle(ctx, borrowbook.BuildCommand(book.ID, uuid.New(), time.Now()))
	assert.NoError(t, borrowErr)

	// act
	result, err := queryHandler.Handle(ctx, availability.BuildQuery(book.ID))

	// assert
	assert.NoError(t, err)
	assert.Equal(t, book.ID, result.BookID)
	assert.Equal(t, "The C Programming Language", result.Title)
	assert.Equal(t, 3, result.TotalCopies)
	assert.Equal(t, 2, result.AvailableCopies)
}

func Test_QueryHandler_Handle_Fails_WhenBookNotInCatalog(t *testing.T) {
	// arrange
	store := memoryengine.NewLendingStore()
	queryHandler, err := availability.NewQueryHandler(store)
	assert.NoError(t, err)

	// act
	_, err = queryHandler.Handle(context.Background(), availability.BuildQuery(uuid.New()))

	// assert
	assert.ErrorIs(t, err, core.ErrBookNotFound)
}
