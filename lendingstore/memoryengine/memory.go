package memoryengine

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/circulatehq/library-lending-go/core"
	"github.com/circulatehq/library-lending-go/lendingstore"
)

type bookRecord struct {
	book    core.Book
	version lendingstore.VersionUint
}

// LendingStore is an in-memory implementation of the lending store contract.
// All methods are safe for concurrent use.
type LendingStore struct {
	mu    sync.RWMutex
	books map[uuid.UUID]bookRecord
	loans map[uuid.UUID]core.Loan
}

// NewLendingStore creates an empty in-memory LendingStore.
func NewLendingStore() *LendingStore {
	return &LendingStore{
		books: make(map[uuid.UUID]bookRecord),
		loans: make(map[uuid.UUID]core.Loan),
	}
}

// BookByID retrieves a catalog record together with its current version.
// The returned bool reports whether the book exists; absence is not an error.
func (ls *LendingStore) BookByID(_ context.Context, bookID uuid.UUID) (
	core.Book,
	lendingstore.VersionUint,
	bool,
	error,
) {

	ls.mu.RLock()
	defer ls.mu.RUnlock()

	record, found := ls.books[bookID]
	if !found {
		return core.Book{}, 0, false, nil
	}

	return record.book, record.version, true, nil
}

// LoanByID retrieves a loan record, open or returned.
func (ls *LendingStore) LoanByID(_ context.Context, loanID uuid.UUID) (core.Loan, bool, error) {
	ls.mu.RLock()
	defer ls.mu.RUnlock()

	loan, found := ls.loans[loanID]

	return loan, found, nil
}

// FindOpenLoan retrieves the open loan for a (book, user) pair if one exists.
func (ls *LendingStore) FindOpenLoan(_ context.Context, bookID uuid.UUID, userID uuid.UUID) (
	core.Loan,
	bool,
	error,
) {

	ls.mu.RLock()
	defer ls.mu.RUnlock()

	for _, loan := range ls.loans {
		if loan.BookID == bookID && loan.UserID == userID && loan.IsOpen() {
			return loan, true, nil
		}
	}

	return core.Loan{}, false, nil
}

// OpenLoansByUser retrieves all open loans of a user, most recently borrowed first.
func (ls *LendingStore) OpenLoansByUser(_ context.Context, userID uuid.UUID) (core.Loans, error) {
	ls.mu.RLock()
	defer ls.mu.RUnlock()

	loans := make(core.Loans, 0)

	for _, loan := range ls.loans {
		if loan.UserID == userID && loan.IsOpen() {
			loans = append(loans, loan)
		}
	}

	sort.Slice(loans, func(i, j int) bool {
		return loans[i].BorrowedAt.After(loans[j].BorrowedAt)
	})

	return loans, nil
}

// AppendLoan creates a loan and takes one available copy atomically.
// A stale version, no available copies, or an existing open loan for the same
// (book, user) pair all report lendingstore.ErrConcurrencyConflict so that the
// caller re-reads and decides again, matching the Postgres engine.
func (ls *LendingStore) AppendLoan(
	_ context.Context,
	loan core.Loan,
	expectedVersion lendingstore.VersionUint,
) error {

	ls.mu.Lock()
	defer ls.mu.Unlock()

	record, found := ls.books[loan.BookID]
	if !found || record.version != expectedVersion || !record.book.HasAvailableCopies() {
		return lendingstore.ErrConcurrencyConflict
	}

	for _, existing := range ls.loans {
		if existing.BookID == loan.BookID && existing.UserID == loan.UserID && existing.IsOpen() {
			return lendingstore.ErrConcurrencyConflict
		}
	}

	record.book.AvailableCopies--
	record.version++
	ls.books[loan.BookID] = record
	ls.loans[loan.ID] = loan

	return nil
}

// CloseLoan marks a loan returned and releases one copy atomically.
// A stale version, a loan that is no longer open, or a release that would push
// the available count past the total all report lendingstore.ErrConcurrencyConflict.
func (ls *LendingStore) CloseLoan(
	_ context.Context,
	loan core.Loan,
	expectedVersion lendingstore.VersionUint,
) error {

	ls.mu.Lock()
	defer ls.mu.Unlock()

	record, found := ls.books[loan.BookID]
	if !found || record.version != expectedVersion {
		return lendingstore.ErrConcurrencyConflict
	}

	if record.book.AvailableCopies >= record.book.TotalCopies {
		return lendingstore.ErrConcurrencyConflict
	}

	stored, loanFound := ls.loans[loan.ID]
	if !loanFound || !stored.IsOpen() {
		return lendingstore.ErrConcurrencyConflict
	}

	record.book.AvailableCopies++
	record.version++
	ls.books[loan.BookID] = record
	ls.loans[loan.ID] = stored.WithReturnedAt(loan.ReturnedAt)

	return nil
}

// AddBook creates a catalog record with all copies available.
// Adding an id that already exists returns lendingstore.ErrBookAlreadyShelved.
func (ls *LendingStore) AddBook(_ context.Context, book core.Book) error {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if _, exists := ls.books[book.ID]; exists {
		return lendingstore.ErrBookAlreadyShelved
	}

	ls.books[book.ID] = bookRecord{book: book, version: 0}

	return nil
}

// RemoveBook deletes a catalog record unless open loans still reference it.
// Returned loans never block removal; their history keeps the loan rows.
func (ls *LendingStore) RemoveBook(
	_ context.Context,
	bookID uuid.UUID,
	expectedVersion lendingstore.VersionUint,
) error {

	ls.mu.Lock()
	defer ls.mu.Unlock()

	record, found := ls.books[bookID]
	if !found {
		return lendingstore.ErrConcurrencyConflict
	}

	for _, loan := range ls.loans {
		if loan.BookID == bookID && loan.IsOpen() {
			return lendingstore.ErrOpenLoansRemain
		}
	}

	if record.version != expectedVersion {
		return lendingstore.ErrConcurrencyConflict
	}

	delete(ls.books, bookID)

	return nil
}

// AuditBook verifies the lending invariant for one book against current store state.
// A violation is reported as lendingstore.ErrIntegrityViolation, never auto-corrected.
func (ls *LendingStore) AuditBook(_ context.Context, bookID uuid.UUID) error {
	ls.mu.RLock()
	defer ls.mu.RUnlock()

	record, found := ls.books[bookID]
	if !found {
		return nil
	}

	openLoans := 0
	for _, loan := range ls.loans {
		if loan.BookID == bookID && loan.IsOpen() {
			openLoans++
		}
	}

	book := record.book
	if !book.CopiesWithinBounds() || book.AvailableCopies != book.TotalCopies-openLoans {
		return lendingstore.ErrIntegrityViolation
	}

	return nil
}
