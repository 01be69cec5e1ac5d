package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // driver import
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/circulatehq/library-lending-go/core"
	"github.com/circulatehq/library-lending-go/lendingstore"
	"github.com/circulatehq/library-lending-go/lendingstore/postgresengine/internal/adapters"
)

const (
	defaultBooksTableName = "books"
	defaultLoansTableName = "loans"

	logMsgBuildQueryFailed      = "failed to build query"
	logMsgDBQueryFailed         = "database query execution failed"
	logMsgCloseRowsFailed       = "failed to close database rows"
	logMsgScanRowFailed         = "failed to scan database row"
	logMsgDBExecFailed          = "database execution failed"
	logMsgRowsAffectedFailed    = "failed to get rows affected count"
	logMsgLoanAppended          = "loan appended, one copy taken"
	logMsgLoanClosed            = "loan closed, one copy released"
	logMsgBookAdded             = "book added to catalog"
	logMsgBookRemoved           = "book removed from catalog"
	logMsgConcurrencyConflict   = "concurrency conflict detected"
	logMsgIntegrityViolation    = "copy counts violate the lending invariant"
	logMsgSQLExecuted           = "executed sql for: "
	logMsgOperation             = "lendingstore operation: "
	logAttrError                = "error"
	logAttrQuery                = "query"
	logAttrBookID               = "book_id"
	logAttrLoanID               = "loan_id"
	logAttrDurationMS           = "duration_ms"
	logAttrRowsAffected         = "rows_affected"
	logAttrExpectedVersion      = "expected_version"
	logActionReadBook           = "read book"
	logActionReadLoan           = "read loan"
	logActionReadOpenLoans      = "read open loans"
	logActionAppendLoan         = "append loan"
	logActionCloseLoan          = "close loan"
	logActionAddBook            = "add book"
	logActionRemoveBook         = "remove book"
	logActionAudit              = "audit book"
	colID                       = "id"
	colTitle                    = "title"
	colAuthor                   = "author"
	colGenre                    = "genre"
	colTotalCopies              = "total_copies"
	colAvailableCopies          = "available_copies"
	colVersion                  = "version"
	colBookID                   = "book_id"
	colUserID                   = "user_id"
	colBorrowedAt               = "borrowed_at"
	colDueAt                    = "due_at"
	colReturnedAt               = "returned_at"
	cteTaken                    = "taken"
	cteReleased                 = "released"
	dialectPostgres             = "postgres"
	pgCodeUniqueViolation       = "23505"

	metricOperationDuration = "lendingstore_operation_duration"
	metricConflictsTotal    = "lendingstore_concurrency_conflicts_total"
	metricLabelAction       = "action"
	metricLabelStatus       = "status"
	metricStatusSuccess     = "success"
	metricStatusError       = "error"
	spanNamePrefix          = "lendingstore."
	spanStatusOK            = "ok"
	spanStatusError         = "error"
)

type (
	sqlQueryString    = string
	rowsAffectedInt64 = int64
	queryDuration     = time.Duration
)

// LendingStore is the Postgres implementation of the catalog and loan stores.
//
// All state transitions are single conditional SQL statements: the book row
// carries a version column that every availability mutation bumps, and every
// write predicates on the version observed during the preceding read. A write
// that affects no rows lost a race and reports lendingstore.ErrConcurrencyConflict,
// which callers resolve by re-reading and deciding again.
type LendingStore struct {
	db                adapters.DBAdapter
	booksTableName    string
	loansTableName    string
	logger            lendingstore.Logger
	contextualLogger  lendingstore.ContextualLogger
	metrics           lendingstore.MetricsCollector
	contextualMetrics lendingstore.ContextualMetricsCollector
	tracing           lendingstore.TracingCollector
}

// Option defines a functional option for configuring LendingStore.
type Option func(*LendingStore) error

// WithBooksTableName sets the catalog table name for the LendingStore.
func WithBooksTableName(tableName string) Option {
	return func(ls *LendingStore) error {
		if tableName == "" {
			return lendingstore.ErrEmptyTableNameSupplied
		}

		ls.booksTableName = tableName

		return nil
	}
}

// WithLoansTableName sets the loan table name for the LendingStore.
func WithLoansTableName(tableName string) Option {
	return func(ls *LendingStore) error {
		if tableName == "" {
			return lendingstore.ErrEmptyTableNameSupplied
		}

		ls.loansTableName = tableName

		return nil
	}
}

// WithLogger sets the logger for the LendingStore.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL queries with execution timing (development use)
// Info level: Operation outcomes, durations, concurrency conflicts (production-safe)
// Warn level: Non-critical issues like cleanup failures
// Error level: Critical failures that cause operation failures.
func WithLogger(logger lendingstore.Logger) Option {
	return func(ls *LendingStore) error {
		ls.logger = logger
		return nil
	}
}

// WithContextualLogger sets a context-aware logger for the LendingStore.
// When configured, it takes precedence over the plain logger for operational
// messages, enabling automatic trace correlation.
func WithContextualLogger(logger lendingstore.ContextualLogger) Option {
	return func(ls *LendingStore) error {
		ls.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the LendingStore.
// The collector receives operation durations and conflict counters.
func WithMetrics(collector lendingstore.MetricsCollector) Option {
	return func(ls *LendingStore) error {
		ls.metrics = collector
		return nil
	}
}

// WithContextualMetrics sets a context-aware metrics collector for the LendingStore.
// When configured, it takes precedence over the plain collector so metric
// backends can correlate recordings with active traces.
func WithContextualMetrics(collector lendingstore.ContextualMetricsCollector) Option {
	return func(ls *LendingStore) error {
		ls.contextualMetrics = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the LendingStore.
// Every store operation runs inside its own span.
func WithTracing(collector lendingstore.TracingCollector) Option {
	return func(ls *LendingStore) error {
		ls.tracing = collector
		return nil
	}
}

// NewLendingStoreFromPGXPool creates a new LendingStore using a pgx Pool with optional configuration.
func NewLendingStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (LendingStore, error) {
	if db == nil {
		return LendingStore{}, lendingstore.ErrNilDatabaseConnection
	}

	return newLendingStore(adapters.NewPGXAdapter(db), options...)
}

// NewLendingStoreFromPGXPoolAndReplica creates a new LendingStore that executes
// writes against the primary pool and routes reads to a replica pool.
// Reads served by the replica may trail the primary; the conditional writes
// still detect any staleness through their version guards.
func NewLendingStoreFromPGXPoolAndReplica(db *pgxpool.Pool, replica *pgxpool.Pool, options ...Option) (LendingStore, error) {
	if db == nil || replica == nil {
		return LendingStore{}, lendingstore.ErrNilDatabaseConnection
	}

	return newLendingStore(adapters.NewPGXAdapterWithReplica(db, replica), options...)
}

// NewLendingStoreFromSQLDB creates a new LendingStore using a sql.DB with optional configuration.
func NewLendingStoreFromSQLDB(db *sql.DB, options ...Option) (LendingStore, error) {
	if db == nil {
		return LendingStore{}, lendingstore.ErrNilDatabaseConnection
	}

	return newLendingStore(adapters.NewSQLAdapter(db), options...)
}

// NewLendingStoreFromSQLX creates a new LendingStore using a sqlx.DB with optional configuration.
func NewLendingStoreFromSQLX(db *sqlx.DB, options ...Option) (LendingStore, error) {
	if db == nil {
		return LendingStore{}, lendingstore.ErrNilDatabaseConnection
	}

	return newLendingStore(adapters.NewSQLXAdapter(db), options...)
}

func newLendingStore(db adapters.DBAdapter, options ...Option) (LendingStore, error) {
	ls := LendingStore{
		db:             db,
		booksTableName: defaultBooksTableName,
		loansTableName: defaultLoansTableName,
	}

	for _, option := range options {
		if err := option(&ls); err != nil {
			return LendingStore{}, err
		}
	}

	return ls, nil
}

// BookByID retrieves a catalog record together with its current version.
// The returned bool reports whether the book exists; absence is not an error.
func (ls LendingStore) BookByID(ctx context.Context, bookID uuid.UUID) (
	core.Book,
	lendingstore.VersionUint,
	bool,
	error,
) {

	var empty core.Book

	sqlQuery, buildErr := ls.buildBookSelectQuery(bookID)
	if buildErr != nil {
		return empty, 0, false, buildErr
	}

	rows, _, queryErr := ls.executeQuery(ctx, sqlQuery, logActionReadBook)
	if queryErr != nil {
		return empty, 0, false, queryErr
	}
	defer ls.closeRows(rows)

	if !rows.Next() {
		return empty, 0, false, nil
	}

	book := core.Book{ID: bookID}
	var version int64

	scanErr := rows.Scan(&book.Title, &book.Author, &book.Genre, &book.TotalCopies, &book.AvailableCopies, &version)
	if scanErr != nil {
		ls.logError(logMsgScanRowFailed, scanErr)
		return empty, 0, false, errors.Join(lendingstore.ErrScanningDBRowFailed, scanErr)
	}

	return book, lendingstore.VersionUint(version), true, nil
}

// LoanByID retrieves a loan record, open or returned.
// The returned bool reports whether the loan exists; absence is not an error.
func (ls LendingStore) LoanByID(ctx context.Context, loanID uuid.UUID) (core.Loan, bool, error) {
	sqlQuery, buildErr := ls.buildLoanSelectQuery(goqu.Ex{colID: loanID.String()}, false)
	if buildErr != nil {
		return core.Loan{}, false, buildErr
	}

	loans, err := ls.queryLoans(ctx, sqlQuery, logActionReadLoan)
	if err != nil {
		return core.Loan{}, false, err
	}

	if len(loans) == 0 {
		return core.Loan{}, false, nil
	}

	return loans[0], true, nil
}

// FindOpenLoan retrieves the open loan for a (book, user) pair if one exists.
func (ls LendingStore) FindOpenLoan(ctx context.Context, bookID uuid.UUID, userID uuid.UUID) (
	core.Loan,
	bool,
	error,
) {

	sqlQuery, buildErr := ls.buildLoanSelectQuery(goqu.Ex{
		colBookID:     bookID.String(),
		colUserID:     userID.String(),
		colReturnedAt: nil,
	}, false)
	if buildErr != nil {
		return core.Loan{}, false, buildErr
	}

	loans, err := ls.queryLoans(ctx, sqlQuery, logActionReadLoan)
	if err != nil {
		return core.Loan{}, false, err
	}

	if len(loans) == 0 {
		return core.Loan{}, false, nil
	}

	return loans[0], true, nil
}

// OpenLoansByUser retrieves all open loans of a user, most recently borrowed first.
func (ls LendingStore) OpenLoansByUser(ctx context.Context, userID uuid.UUID) (core.Loans, error) {
	sqlQuery, buildErr := ls.buildLoanSelectQuery(goqu.Ex{
		colUserID:     userID.String(),
		colReturnedAt: nil,
	}, true)
	if buildErr != nil {
		return nil, buildErr
	}

	return ls.queryLoans(ctx, sqlQuery, logActionReadOpenLoans)
}

// AppendLoan creates a loan and takes one available copy in a single atomic statement.
//
// The write only applies while the book still has the expected version and at
// least one available copy; otherwise it affects no rows and the method returns
// lendingstore.ErrConcurrencyConflict. A concurrent borrow for the same
// (book, user) pair is stopped by the partial unique index on open loans and
// reported as a conflict as well, so a retry re-reads and surfaces the
// business outcome.
func (ls LendingStore) AppendLoan(
	ctx context.Context,
	loan core.Loan,
	expectedVersion lendingstore.VersionUint,
) error {

	sqlQuery, buildErr := ls.buildAppendLoanQuery(loan, expectedVersion)
	if buildErr != nil {
		return buildErr
	}

	rowsAffected, duration, execErr := ls.executeWrite(ctx, sqlQuery, logActionAppendLoan)
	if execErr != nil {
		if isUniqueViolation(execErr) {
			ls.countConflict(ctx, logActionAppendLoan)
			ls.logOperation(ctx, logMsgConcurrencyConflict,
				logAttrLoanID, loan.ID.String(),
				logAttrExpectedVersion, expectedVersion)

			return lendingstore.ErrConcurrencyConflict
		}

		return execErr
	}

	if rowsAffected == 0 {
		ls.countConflict(ctx, logActionAppendLoan)
		ls.logOperation(ctx, logMsgConcurrencyConflict,
			logAttrLoanID, loan.ID.String(),
			logAttrExpectedVersion, expectedVersion)

		return lendingstore.ErrConcurrencyConflict
	}

	ls.logOperation(ctx, logMsgLoanAppended,
		logAttrLoanID, loan.ID.String(),
		logAttrBookID, loan.BookID.String(),
		logAttrDurationMS, ls.durationToMilliseconds(duration))

	return nil
}

// CloseLoan marks a loan returned and releases one copy in a single atomic statement.
//
// The write only applies while the book still has the expected version, the
// loan is still open, and releasing a copy would not push the available count
// past the total; otherwise it affects no rows and the method returns
// lendingstore.ErrConcurrencyConflict for the caller to re-read and decide again.
func (ls LendingStore) CloseLoan(
	ctx context.Context,
	loan core.Loan,
	expectedVersion lendingstore.VersionUint,
) error {

	sqlQuery, buildErr := ls.buildCloseLoanQuery(loan, expectedVersion)
	if buildErr != nil {
		return buildErr
	}

	rowsAffected, duration, execErr := ls.executeWrite(ctx, sqlQuery, logActionCloseLoan)
	if execErr != nil {
		return execErr
	}

	if rowsAffected == 0 {
		ls.countConflict(ctx, logActionCloseLoan)
		ls.logOperation(ctx, logMsgConcurrencyConflict,
			logAttrLoanID, loan.ID.String(),
			logAttrExpectedVersion, expectedVersion)

		return lendingstore.ErrConcurrencyConflict
	}

	ls.logOperation(ctx, logMsgLoanClosed,
		logAttrLoanID, loan.ID.String(),
		logAttrBookID, loan.BookID.String(),
		logAttrDurationMS, ls.durationToMilliseconds(duration))

	return nil
}

// AddBook creates a catalog record with all copies available.
// Adding an id that already exists returns lendingstore.ErrBookAlreadyShelved.
func (ls LendingStore) AddBook(ctx context.Context, book core.Book) error {
	insertStmt := goqu.Dialect(dialectPostgres).
		Insert(ls.booksTableName).
		Rows(goqu.Record{
			colID:              book.ID.String(),
			colTitle:           book.Title,
			colAuthor:          book.Author,
			colGenre:           book.Genre,
			colTotalCopies:     book.TotalCopies,
			colAvailableCopies: book.AvailableCopies,
			colVersion:         0,
		}).
		OnConflict(goqu.DoNothing())

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		ls.logError(logMsgBuildQueryFailed, toSQLErr)
		return errors.Join(lendingstore.ErrBuildingQueryFailed, toSQLErr)
	}

	rowsAffected, duration, execErr := ls.executeWrite(ctx, sqlQuery, logActionAddBook)
	if execErr != nil {
		return execErr
	}

	if rowsAffected == 0 {
		return lendingstore.ErrBookAlreadyShelved
	}

	ls.logOperation(ctx, logMsgBookAdded,
		logAttrBookID, book.ID.String(),
		logAttrDurationMS, ls.durationToMilliseconds(duration))

	return nil
}

// RemoveBook deletes a catalog record unless open loans still reference it.
//
// The delete predicates on the expected version; when it affects no rows the
// method distinguishes blocked removal (lendingstore.ErrOpenLoansRemain) from
// a lost race (lendingstore.ErrConcurrencyConflict) by counting open loans.
// Returned loans never block removal; their history keeps the loan rows.
func (ls LendingStore) RemoveBook(
	ctx context.Context,
	bookID uuid.UUID,
	expectedVersion lendingstore.VersionUint,
) error {

	sqlQuery, buildErr := ls.buildRemoveBookQuery(bookID, expectedVersion)
	if buildErr != nil {
		return buildErr
	}

	rowsAffected, duration, execErr := ls.executeWrite(ctx, sqlQuery, logActionRemoveBook)
	if execErr != nil {
		return execErr
	}

	if rowsAffected == 0 {
		openLoans, countErr := ls.countOpenLoans(ctx, bookID)
		if countErr != nil {
			return countErr
		}

		if openLoans > 0 {
			return lendingstore.ErrOpenLoansRemain
		}

		ls.countConflict(ctx, logActionRemoveBook)

		return lendingstore.ErrConcurrencyConflict
	}

	ls.logOperation(ctx, logMsgBookRemoved,
		logAttrBookID, bookID.String(),
		logAttrDurationMS, ls.durationToMilliseconds(duration))

	return nil
}

// AuditBook verifies the lending invariant for one book against current store state:
// available copies must stay within [0, total] and equal total minus open loans.
// A violation is logged and reported as lendingstore.ErrIntegrityViolation,
// never auto-corrected.
func (ls LendingStore) AuditBook(ctx context.Context, bookID uuid.UUID) error {
	book, _, found, err := ls.BookByID(ctx, bookID)
	if err != nil {
		return err
	}

	if !found {
		return nil // nothing to audit
	}

	openLoans, err := ls.countOpenLoans(ctx, bookID)
	if err != nil {
		return err
	}

	if !book.CopiesWithinBounds() || book.AvailableCopies != book.TotalCopies-openLoans {
		ls.logError(logMsgIntegrityViolation, lendingstore.ErrIntegrityViolation)
		return lendingstore.ErrIntegrityViolation
	}

	return nil
}

func (ls LendingStore) buildBookSelectQuery(bookID uuid.UUID) (sqlQueryString, error) {
	selectStmt := goqu.Dialect(dialectPostgres).
		From(ls.booksTableName).
		Select(colTitle, colAuthor, colGenre, colTotalCopies, colAvailableCopies, colVersion).
		Where(goqu.Ex{colID: bookID.String()})

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		ls.logError(logMsgBuildQueryFailed, toSQLErr)
		return "", errors.Join(lendingstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (ls LendingStore) buildLoanSelectQuery(where goqu.Ex, newestFirst bool) (sqlQueryString, error) {
	selectStmt := goqu.Dialect(dialectPostgres).
		From(ls.loansTableName).
		Select(colID, colBookID, colUserID, colBorrowedAt, colDueAt, colReturnedAt).
		Where(where)

	if newestFirst {
		selectStmt = selectStmt.Order(goqu.I(colBorrowedAt).Desc())
	}

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		ls.logError(logMsgBuildQueryFailed, toSQLErr)
		return "", errors.Join(lendingstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

// buildAppendLoanQuery builds the borrow statement: a CTE takes one copy from the
// book row under the version guard, and the loan insert selects from the CTE so
// both apply together or not at all.
func (ls LendingStore) buildAppendLoanQuery(
	loan core.Loan,
	expectedVersion lendingstore.VersionUint,
) (sqlQueryString, error) {

	builder := goqu.Dialect(dialectPostgres)

	takeStmt := builder.
		Update(ls.booksTableName).
		Set(goqu.Record{
			colAvailableCopies: goqu.L(colAvailableCopies + " - 1"),
			colVersion:         goqu.L(colVersion + " + 1"),
		}).
		Where(
			goqu.C(colID).Eq(loan.BookID.String()),
			goqu.C(colVersion).Eq(expectedVersion),
			goqu.C(colAvailableCopies).Gt(0),
		).
		Returning(colID)

	takeSQL, _, takeErr := takeStmt.ToSQL()
	if takeErr != nil {
		ls.logError(logMsgBuildQueryFailed, takeErr)
		return "", errors.Join(lendingstore.ErrBuildingQueryFailed, takeErr)
	}

	selectStmt := builder.
		From(cteTaken).
		Select(
			goqu.V(loan.ID.String()),
			goqu.C(colID),
			goqu.V(loan.UserID.String()),
			goqu.V(loan.BorrowedAt),
			goqu.V(loan.DueAt),
		)

	// goqu emits literals verbatim; the CTE body must carry its own parentheses.
	insertStmt := builder.
		Insert(ls.loansTableName).
		Cols(colID, colBookID, colUserID, colBorrowedAt, colDueAt).
		FromQuery(selectStmt).
		With(cteTaken, goqu.L("("+takeSQL+")"))

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		ls.logError(logMsgBuildQueryFailed, toSQLErr)
		return "", errors.Join(lendingstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

// buildCloseLoanQuery builds the return statement: a CTE releases one copy on the
// book row under the version guard and the invariant ceiling, and the loan update
// only applies when the CTE produced the book row.
//
// The loan-is-still-open check sits INSIDE the CTE, not only on the outer update.
// A data-modifying CTE runs to completion regardless of what the outer statement
// matches, so guarding the copy release on the loan row as well keeps both writes
// on one condition: either the open loan closes and the copy comes back together,
// or nothing changes at all.
func (ls LendingStore) buildCloseLoanQuery(
	loan core.Loan,
	expectedVersion lendingstore.VersionUint,
) (sqlQueryString, error) {

	builder := goqu.Dialect(dialectPostgres)

	openLoanStmt := builder.
		From(ls.loansTableName).
		Select(goqu.L("1")).
		Where(
			goqu.C(colID).Eq(loan.ID.String()),
			goqu.C(colReturnedAt).IsNull(),
		)

	releaseStmt := builder.
		Update(ls.booksTableName).
		Set(goqu.Record{
			colAvailableCopies: goqu.L(colAvailableCopies + " + 1"),
			colVersion:         goqu.L(colVersion + " + 1"),
		}).
		Where(
			goqu.C(colID).Eq(loan.BookID.String()),
			goqu.C(colVersion).Eq(expectedVersion),
			goqu.C(colAvailableCopies).Lt(goqu.I(colTotalCopies)),
			goqu.L("EXISTS ?", openLoanStmt),
		).
		Returning(colID)

	releaseSQL, _, releaseErr := releaseStmt.ToSQL()
	if releaseErr != nil {
		ls.logError(logMsgBuildQueryFailed, releaseErr)
		return "", errors.Join(lendingstore.ErrBuildingQueryFailed, releaseErr)
	}

	updateStmt := builder.
		Update(ls.loansTableName).
		Set(goqu.Record{colReturnedAt: loan.ReturnedAt}).
		Where(
			goqu.C(colID).Eq(loan.ID.String()),
			goqu.C(colReturnedAt).IsNull(),
			goqu.C(colBookID).In(builder.From(cteReleased).Select(colID)),
		).
		With(cteReleased, goqu.L("("+releaseSQL+")"))

	sqlQuery, _, toSQLErr := updateStmt.ToSQL()
	if toSQLErr != nil {
		ls.logError(logMsgBuildQueryFailed, toSQLErr)
		return "", errors.Join(lendingstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

// buildRemoveBookQuery builds the catalog delete: the version guard detects lost
// races and the NOT IN subquery refuses removal while open loans reference the book.
func (ls LendingStore) buildRemoveBookQuery(
	bookID uuid.UUID,
	expectedVersion lendingstore.VersionUint,
) (sqlQueryString, error) {

	builder := goqu.Dialect(dialectPostgres)

	openLoansStmt := builder.
		From(ls.loansTableName).
		Select(colBookID).
		Where(goqu.C(colReturnedAt).IsNull())

	deleteStmt := builder.
		Delete(ls.booksTableName).
		Where(
			goqu.C(colID).Eq(bookID.String()),
			goqu.C(colVersion).Eq(expectedVersion),
			goqu.C(colID).NotIn(openLoansStmt),
		)

	sqlQuery, _, toSQLErr := deleteStmt.ToSQL()
	if toSQLErr != nil {
		ls.logError(logMsgBuildQueryFailed, toSQLErr)
		return "", errors.Join(lendingstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (ls LendingStore) countOpenLoans(ctx context.Context, bookID uuid.UUID) (int, error) {
	countStmt := goqu.Dialect(dialectPostgres).
		From(ls.loansTableName).
		Select(goqu.COUNT(goqu.Star())).
		Where(
			goqu.C(colBookID).Eq(bookID.String()),
			goqu.C(colReturnedAt).IsNull(),
		)

	sqlQuery, _, toSQLErr := countStmt.ToSQL()
	if toSQLErr != nil {
		ls.logError(logMsgBuildQueryFailed, toSQLErr)
		return 0, errors.Join(lendingstore.ErrBuildingQueryFailed, toSQLErr)
	}

	rows, _, queryErr := ls.executeQuery(ctx, sqlQuery, logActionAudit)
	if queryErr != nil {
		return 0, queryErr
	}
	defer ls.closeRows(rows)

	var count int64
	if rows.Next() {
		if scanErr := rows.Scan(&count); scanErr != nil {
			ls.logError(logMsgScanRowFailed, scanErr)
			return 0, errors.Join(lendingstore.ErrScanningDBRowFailed, scanErr)
		}
	}

	return int(count), nil
}

// queryLoans executes a loan select and scans all resulting rows.
func (ls LendingStore) queryLoans(ctx context.Context, sqlQuery string, action string) (core.Loans, error) {
	rows, _, queryErr := ls.executeQuery(ctx, sqlQuery, action)
	if queryErr != nil {
		return nil, queryErr
	}
	defer ls.closeRows(rows)

	loans := make(core.Loans, 0)

	for rows.Next() {
		var loanID, bookID, userID string
		var borrowedAt, dueAt time.Time
		var returnedAt sql.NullTime

		scanErr := rows.Scan(&loanID, &bookID, &userID, &borrowedAt, &dueAt, &returnedAt)
		if scanErr != nil {
			ls.logError(logMsgScanRowFailed, scanErr)
			return nil, errors.Join(lendingstore.ErrScanningDBRowFailed, scanErr)
		}

		loan, buildErr := buildLoanFromRow(loanID, bookID, userID, borrowedAt, dueAt, returnedAt)
		if buildErr != nil {
			ls.logError(logMsgScanRowFailed, buildErr)
			return nil, errors.Join(lendingstore.ErrScanningDBRowFailed, buildErr)
		}

		loans = append(loans, loan)
	}

	return loans, nil
}

func buildLoanFromRow(
	loanID string,
	bookID string,
	userID string,
	borrowedAt time.Time,
	dueAt time.Time,
	returnedAt sql.NullTime,
) (core.Loan, error) {

	parsedLoanID, err := uuid.Parse(loanID)
	if err != nil {
		return core.Loan{}, err
	}

	parsedBookID, err := uuid.Parse(bookID)
	if err != nil {
		return core.Loan{}, err
	}

	parsedUserID, err := uuid.Parse(userID)
	if err != nil {
		return core.Loan{}, err
	}

	loan := core.Loan{
		ID:         parsedLoanID,
		BookID:     parsedBookID,
		UserID:     parsedUserID,
		BorrowedAt: core.ToRecordedAt(borrowedAt),
		DueAt:      core.ToRecordedAt(dueAt),
	}

	if returnedAt.Valid {
		loan.ReturnedAt = core.ToRecordedAt(returnedAt.Time)
	}

	return loan, nil
}

// executeQuery executes a read and returns rows with timing information.
func (ls LendingStore) executeQuery(ctx context.Context, sqlQuery string, action string) (
	adapters.DBRows,
	time.Duration,
	error,
) {

	spanCtx, span := ls.startSpan(ctx, action)
	ctx = spanCtx

	start := time.Now()
	rows, queryErr := ls.db.Query(ctx, sqlQuery)
	duration := time.Since(start)
	ls.logQueryWithDuration(sqlQuery, action, duration)
	ls.recordOperationDuration(ctx, action, duration, queryErr != nil)
	ls.finishSpan(span, queryErr != nil)

	if queryErr != nil {
		ls.logErrorWithQuery(logMsgDBQueryFailed, queryErr, sqlQuery)
		return nil, duration, errors.Join(lendingstore.ErrQueryingStoreFailed, queryErr)
	}

	return rows, duration, nil
}

// executeWrite executes a conditional write and returns rows affected and duration.
func (ls LendingStore) executeWrite(ctx context.Context, sqlQuery string, action string) (
	rowsAffectedInt64,
	queryDuration,
	error,
) {

	spanCtx, span := ls.startSpan(ctx, action)
	ctx = spanCtx

	start := time.Now()
	result, execErr := ls.db.Exec(ctx, sqlQuery)
	duration := time.Since(start)
	ls.logQueryWithDuration(sqlQuery, action, duration)
	ls.recordOperationDuration(ctx, action, duration, execErr != nil)
	ls.finishSpan(span, execErr != nil)

	if execErr != nil {
		if !isUniqueViolation(execErr) {
			ls.logErrorWithQuery(logMsgDBExecFailed, execErr, sqlQuery)
		}

		return 0, duration, errors.Join(lendingstore.ErrExecutingStoreFailed, execErr)
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		ls.logError(logMsgRowsAffectedFailed, rowsAffectedErr)
		return 0, duration, errors.Join(lendingstore.ErrGettingRowsAffectedFailed, rowsAffectedErr)
	}

	return rowsAffected, duration, nil
}

// recordOperationDuration records operation timing, preferring the contextual collector.
func (ls LendingStore) recordOperationDuration(ctx context.Context, action string, duration time.Duration, failed bool) {
	status := metricStatusSuccess
	if failed {
		status = metricStatusError
	}

	labels := map[string]string{metricLabelAction: action, metricLabelStatus: status}

	if ls.contextualMetrics != nil {
		ls.contextualMetrics.RecordDurationContext(ctx, metricOperationDuration, duration, labels)
		return
	}

	if ls.metrics != nil {
		ls.metrics.RecordDuration(metricOperationDuration, duration, labels)
	}
}

// countConflict increments the conflict counter for an action.
func (ls LendingStore) countConflict(ctx context.Context, action string) {
	labels := map[string]string{metricLabelAction: action}

	if ls.contextualMetrics != nil {
		ls.contextualMetrics.IncrementCounterContext(ctx, metricConflictsTotal, labels)
		return
	}

	if ls.metrics != nil {
		ls.metrics.IncrementCounter(metricConflictsTotal, labels)
	}
}

func (ls LendingStore) startSpan(ctx context.Context, action string) (context.Context, lendingstore.SpanContext) {
	if ls.tracing == nil {
		return ctx, nil
	}

	return ls.tracing.StartSpan(ctx, spanNamePrefix+action, nil)
}

func (ls LendingStore) finishSpan(span lendingstore.SpanContext, failed bool) {
	if ls.tracing == nil || span == nil {
		return
	}

	status := spanStatusOK
	if failed {
		status = spanStatusError
	}

	ls.tracing.FinishSpan(span, status, nil)
}

// isUniqueViolation reports whether the error is a Postgres unique constraint
// violation, regardless of which database adapter produced it.
func isUniqueViolation(err error) bool {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code == pgCodeUniqueViolation
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgCodeUniqueViolation
	}

	return false
}

// closeRows safely closes database rows and logs any errors.
func (ls LendingStore) closeRows(rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		if ls.logger != nil {
			ls.logger.Warn(logMsgCloseRowsFailed, logAttrError, closeErr.Error())
		}
	}
}

// logQueryWithDuration logs SQL queries with execution time at debug level if a logger is configured.
func (ls LendingStore) logQueryWithDuration(sqlQuery string, action string, duration time.Duration) {
	if ls.logger != nil {
		ls.logger.Debug(logMsgSQLExecuted+action, logAttrDurationMS, ls.durationToMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

// logOperation logs operational information at info level, preferring the contextual logger.
func (ls LendingStore) logOperation(ctx context.Context, action string, args ...any) {
	if ls.contextualLogger != nil {
		ls.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
		return
	}

	if ls.logger != nil {
		ls.logger.Info(logMsgOperation+action, args...)
	}
}

func (ls LendingStore) logError(msg string, err error) {
	if ls.logger != nil {
		ls.logger.Error(msg, logAttrError, err.Error())
	}
}

func (ls LendingStore) logErrorWithQuery(msg string, err error, sqlQuery string) {
	if ls.logger != nil {
		ls.logger.Error(msg, logAttrError, err.Error(), logAttrQuery, sqlQuery)
	}
}

// durationToMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func (ls LendingStore) durationToMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
