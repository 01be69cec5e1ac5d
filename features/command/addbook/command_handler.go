package addbook

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/circulatehq/library-lending-go/core"
	"github.com/circulatehq/library-lending-go/lendingstore"
	"github.com/circulatehq/library-lending-go/shell"
)

// LendingStore defines the interface needed by the CommandHandler for store operations.
type LendingStore interface {
	BookByID(ctx context.Context, bookID uuid.UUID) (core.Book, lendingstore.VersionUint, bool, error)
	AddBook(ctx context.Context, book core.Book) error
}

// CommandHandler orchestrates the complete command processing workflow with pure business logic and retry.
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
// Shelving an id that already exists reports an idempotent result, including
// the race where another client shelved the same id between read and write.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult, error) {
	var isIdempotent bool

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		idempotent, execErr := h.executeCommand(retryCtx, command)
		isIdempotent = idempotent

		return execErr
	}, h.retryOptions...)

	if isIdempotent {
		return shell.NewIdempotentResult(retryMetrics), nil
	}

	if err != nil {
		return shell.NewErrorResult(retryMetrics), shell.MapToBoundaryError(err)
	}

	return shell.NewSuccessResult(retryMetrics), nil
}

// executeCommand contains the core command processing logic that can be retried.
func (h CommandHandler) executeCommand(ctx context.Context, command Command) (bool, error) {
	if h.storeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.storeTimeout)
		defer cancel()
	}

	// Read phase
	_, _, bookFound, readErr := h.store.BookByID(ctx, command.BookID)
	if readErr != nil {
		return false, readErr
	}

	// Business logic phase - delegate to pure core function
	result := Decide(Snapshot{BookFound: bookFound}, command)

	if decideErr := result.HasError(); decideErr != nil {
		return false, decideErr
	}

	if !result.HasChangeToApply() {
		return true, nil // Idempotent success - already shelved
	}

	// Apply phase
	change := result.Change.(core.BookShelved)

	if addErr := h.store.AddBook(ctx, change.Book); addErr != nil {
		if errors.Is(addErr, lendingstore.ErrBookAlreadyShelved) {
			return true, nil // lost the race, but the outcome is the same
		}

		return false, addErr
	}

	return false, nil
}
