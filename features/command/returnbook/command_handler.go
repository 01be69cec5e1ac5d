package returnbook

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/circulatehq/library-lending-go/core"
	"github.com/circulatehq/library-lending-go/lendingstore"
	"github.com/circulatehq/library-lending-go/shell"
)

// LendingStore defines the interface needed by the CommandHandler for store operations.
type LendingStore interface {
	LoanByID(ctx context.Context, loanID uuid.UUID) (core.Loan, bool, error)
	BookByID(ctx context.Context, bookID uuid.UUID) (core.Book, lendingstore.VersionUint, bool, error)
	CloseLoan(ctx context.Context, loan core.Loan, expectedVersion lendingstore.VersionUint) error
}

// CommandHandler orchestrates the complete command processing workflow with pure business logic and retry.
// It handles the core workflow: Read -> Decide -> Apply.
// External wrappers handle all observability concerns.
type CommandHandler struct {
	store        LendingStore
	retryOptions []shell.RetryOption
	storeTimeout time.Duration
}

// Option configures a CommandHandler.
type Option func(*CommandHandler)

// WithRetryOptions sets a custom retry configuration for the handler.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(h *CommandHandler) {
		h.retryOptions = opts
	}
}

// WithStoreTimeout bounds each attempt with a deadline. A store that does not
// answer in time surfaces core.ErrUnavailable to the caller.
func WithStoreTimeout(timeout time.Duration) Option {
	return func(h *CommandHandler) {
		h.storeTimeout = timeout
	}
}

// NewCommandHandler creates a new CommandHandler with optional configuration.
func NewCommandHandler(store LendingStore, opts ...Option) CommandHandler {
	handler := CommandHandler{
		store: store,
	}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle executes the complete command processing workflow with retry logic.
// It delegates business logic to executeCommand and handles retry with exponential backoff.
// Errors are mapped to the core taxonomy at this boundary, so a conflict that
// survived all retries becomes core.ErrConflict.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult, error) {
	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		return h.executeCommand(retryCtx, command)
	}, h.retryOptions...)

	if err != nil {
		return shell.NewErrorResult(retryMetrics), shell.MapToBoundaryError(err)
	}

	return shell.NewSuccessResult(retryMetrics), nil
}

// executeCommand contains the core command processing logic that can be retried.
func (h CommandHandler) executeCommand(ctx context.Context, command Command) error {
	if h.storeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.storeTimeout)
		defer cancel()
	}

	// Read phase
	loan, loanFound, loanErr := h.store.LoanByID(ctx, command.LoanID)
	if loanErr != nil {
		return loanErr
	}

	snapshot := Snapshot{
		Loan:      loan,
		LoanFound: loanFound,
	}

	var expectedVersion lendingstore.VersionUint

	if loanFound {
		book, version, bookFound, bookErr := h.store.BookByID(ctx, loan.BookID)
		if bookErr != nil {
			return bookErr
		}

		snapshot.Book = book
		snapshot.BookFound = bookFound
		expectedVersion = version
	}

	// Business logic phase - delegate to pure core function
	result := Decide(snapshot, command)

	if decideErr := result.HasError(); decideErr != nil {
		return decideErr
	}

	if !result.HasChangeToApply() {
		return nil
	}

	// Apply phase - one conditional write, guarded by the version just read
	change := result.Change.(core.LoanClosed)

	return h.store.CloseLoan(ctx, change.Loan, expectedVersion)
}
