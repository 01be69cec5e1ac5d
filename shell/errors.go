package shell

import (
	"context"
	"errors"

	"github.com/circulatehq/library-lending-go/core"
	"github.com/circulatehq/library-lending-go/lendingstore"
)

// MapToBoundaryError translates infrastructure failures into the stable error
// vocabulary of the core so that callers never see store internals.
//
// A concurrency conflict that survived all retry attempts becomes core.ErrConflict:
// the transaction could not be applied atomically within the bounded retry budget.
// A deadline or cancellation becomes core.ErrUnavailable: the store could not be
// reached in time and the caller may try again later. Integrity violations and
// core business errors pass through unchanged.
func MapToBoundaryError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, lendingstore.ErrConcurrencyConflict):
		return core.ErrConflict
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return core.ErrUnavailable
	case errors.Is(err, lendingstore.ErrIntegrityViolation):
		return core.ErrIntegrityViolation
	default:
		return err
	}
}
