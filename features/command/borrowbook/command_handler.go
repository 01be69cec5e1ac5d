package borrowbook

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
	BookByID(ctx context.Context, bookID uuid.UUID) (core.Book, lendingstore.VersionUint, bool, error)
	FindOpenLoan(ctx context.Context, bookID uuid.UUID, userID uuid.UUID) (core.Loan, bool, error)
	AppendLoan(ctx context.Context, loan core.Loan, expectedVersion lendingstore.VersionUint) error
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
// On success it returns the created loan; errors are mapped to the core taxonomy
// at this boundary, so a conflict that survived all retries becomes core.ErrConflict.
func (h CommandHandler) Handle(ctx context.Context, command Command) (core.Loan, shell.HandlerResult, error) {
	var loan core.Loan

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		createdLoan, execErr := h.executeCommand(retryCtx, command)
		loan = createdLoan

		return execErr
	}, h.retryOptions...)

	if err != nil {
		return core.Loan{}, shell.NewErrorResult(retryMetrics), shell.MapToBoundaryError(err)
	}

	return loan, shell.NewSuccessResult(retryMetrics), nil
}

// executeCommand contains the core command processing logic that can be retried.
func (h CommandHandler) executeCommand(ctx context.Context, command Command) (core.Loan, error) {
	if h.storeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.storeTimeout)
		defer cancel()
	}

	// Read phase
	book, expectedVersion, bookFound, readErr := h.store.BookByID(ctx, command.BookID)
	if readErr != nil {
		return core.Loan{}, readErr
	}

	_, hasOpenLoan, findErr := h.store.FindOpenLoan(ctx, command.BookID, command.UserID)
	if findErr != nil {
		return core.Loan{}, findErr
	}

	// Business logic phase - delegate to pure core function
	result := Decide(Snapshot{
		Book:        book,
		BookFound:   bookFound,
		HasOpenLoan: hasOpenLoan,
	}, command)

	if decideErr := result.HasError(); decideErr != nil {
		return core.Loan{}, decideErr
	}

	if !result.HasChangeToApply() {
		return core.Loan{}, nil
	}

	// Apply phase - one conditional write, guarded by the version just read
	change := result.Change.(core.LoanOpened)

	if appendErr := h.store.AppendLoan(ctx, change.Loan, expectedVersion); appendErr != nil {
		return core.Loan{}, appendErr
	}

	return change.Loan, nil
}
