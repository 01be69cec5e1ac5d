package postgresengine

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/circulatehq/library-lending-go/core"
)

// The conditional writes are hand-assembled from a rendered CTE body and an outer
// statement, so their shape is asserted here without a database: the CTE body must
// be parenthesized or Postgres rejects the whole statement.

func Test_BuildAppendLoanQuery_WrapsTheCopyTakeInAParenthesizedCTE(t *testing.T) {
	// arrange
	store := storeWithDefaultTables()
	loan := core.BuildOpenLoan(uuid.New(), uuid.New(), uuid.New(), time.Unix(0, 0).UTC())

	// act
	sqlQuery, err := store.buildAppendLoanQuery(loan, 5)

	// assert
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(sqlQuery, `WITH taken AS (UPDATE "books" SET`), sqlQuery)
	assert.Contains(t, sqlQuery, `RETURNING "id") INSERT INTO "loans"`)
	assert.Contains(t, sqlQuery, `("version" = 5)`)
	assert.Contains(t, sqlQuery, `("available_copies" > 0)`)
	assert.Contains(t, sqlQuery, `FROM "taken"`)
	assert.Contains(t, sqlQuery, loan.BookID.String())
	assert.Contains(t, sqlQuery, loan.UserID.String())
}

func Test_BuildCloseLoanQuery_GuardsTheCopyReleaseOnTheLoanBeingOpen(t *testing.T) {
	// arrange
	store := storeWithDefaultTables()
	loan := core.BuildOpenLoan(uuid.New(), uuid.New(), uuid.New(), time.Unix(0, 0).UTC()).
		WithReturnedAt(time.Unix(60, 0).UTC())

	// act
	sqlQuery, err := store.buildCloseLoanQuery(loan, 3)

	// assert
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(sqlQuery, `WITH released AS (UPDATE "books" SET`), sqlQuery)
	assert.Contains(t, sqlQuery, `RETURNING "id") UPDATE "loans" SET`)
	assert.Contains(t, sqlQuery, `("version" = 3)`)
	assert.Contains(t, sqlQuery, `("available_copies" < "total_copies")`)
	assert.Contains(t, sqlQuery, `EXISTS (SELECT 1 FROM "loans" WHERE`)
	assert.Contains(t, sqlQuery, `IN (SELECT "id" FROM "released")`)

	// the openness check must appear inside the CTE as well as on the outer update,
	// so the copy release and the loan close share one condition
	assert.Equal(t, 2, strings.Count(sqlQuery, `("returned_at" IS NULL)`), sqlQuery)
}

func Test_BuildRemoveBookQuery_RefusesWhileOpenLoansReferenceTheBook(t *testing.T) {
	// arrange
	store := storeWithDefaultTables()
	bookID := uuid.New()

	// act
	sqlQuery, err := store.buildRemoveBookQuery(bookID, 7)

	// assert
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(sqlQuery, `DELETE FROM "books" WHERE`), sqlQuery)
	assert.Contains(t, sqlQuery, bookID.String())
	assert.Contains(t, sqlQuery, `("version" = 7)`)
	assert.Contains(t, sqlQuery, `NOT IN (SELECT "book_id" FROM "loans" WHERE ("returned_at" IS NULL))`)
}

func Test_BuildQueries_RespectCustomTableNames(t *testing.T) {
	// arrange
	store := LendingStore{booksTableName: "catalog", loansTableName: "lending_records"}
	loan := core.BuildOpenLoan(uuid.New(), uuid.New(), uuid.New(), time.Unix(0, 0).UTC())

	// act
	sqlQuery, err := store.buildAppendLoanQuery(loan, 1)

	// assert
	assert.NoError(t, err)
	assert.Contains(t, sqlQuery, `UPDATE "catalog" SET`)
	assert.Contains(t, sqlQuery, `INSERT INTO "lending_records"`)
}

func storeWithDefaultTables() LendingStore {
	return LendingStore{
		booksTableName: defaultBooksTableName,
		loansTableName: defaultLoansTableName,
	}
}
