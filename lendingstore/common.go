package lendingstore

import (
	"errors"
)

var (
	// ErrNilDatabaseConnection is returned by engine constructors when the supplied connection is nil.
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")

	// ErrEmptyTableNameSupplied is returned when an empty table name is configured.
	ErrEmptyTableNameSupplied = errors.New("empty table name supplied")

	// ErrConcurrencyConflict is returned by conditional writes when no rows were
	// affected because the expected book version no longer matched, or when a
	// concurrent write hit the one-open-loan-per-(user, book) constraint.
	// It is safe to retry after re-reading state.
	ErrConcurrencyConflict = errors.New("concurrency conflict, no rows were affected")

	// ErrBookAlreadyShelved is returned when adding a book whose id already exists.
	ErrBookAlreadyShelved = errors.New("book with this id is already shelved")

	// ErrOpenLoansRemain is returned when removing a book that open loans still reference.
	ErrOpenLoansRemain = errors.New("open loans still reference this book")

	// ErrIntegrityViolation is returned by AuditBook when the stored available
	// count disagrees with the open-loan count or leaves the [0, total] bounds.
	ErrIntegrityViolation = errors.New("stored copy counts violate the lending invariant")

	// ErrBuildingQueryFailed is returned when SQL query construction fails.
	ErrBuildingQueryFailed = errors.New("building the query failed")

	// ErrQueryingStoreFailed is returned when a read against the store fails.
	ErrQueryingStoreFailed = errors.New("querying the store failed")

	// ErrScanningDBRowFailed is returned when a database row cannot be scanned.
	ErrScanningDBRowFailed = errors.New("scanning the database row failed")

	// ErrExecutingStoreFailed is returned when a write against the store fails.
	ErrExecutingStoreFailed = errors.New("executing the store write failed")

	// ErrGettingRowsAffectedFailed is returned when the affected row count cannot be read.
	ErrGettingRowsAffectedFailed = errors.New("getting rows affected count failed")
)

// VersionUint is a type alias for uint, representing the optimistic-concurrency
// version of a book record. Every mutation of a book's available copies bumps it.
type VersionUint = uint
