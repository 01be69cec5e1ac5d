package removebook

import (
	"github.com/circulatehq/library-lending-go/core"
)

// Snapshot captures the state a remove-book decision depends on.
type Snapshot struct {
	BookFound bool
}

// Decide implements the business logic to determine whether a book should be removed.
// This is a pure function with no side effects.
//
// Business Rules:
//
//	GIVEN: A book id
//	WHEN: RemoveBook command is received
//	THEN: BookRemoved change is generated
//	IDEMPOTENCY: If no such book exists, no change is generated (no-op)
//
// Open loans are checked by the store at apply time: the delete statement and
// the open-loan check must be atomic, which a pre-read here could not guarantee.
func Decide(snapshot Snapshot, command Command) core.DecisionResult {
	if !snapshot.BookFound {
		return core.IdempotentDecision()
	}

	return core.SuccessDecision(core.BookRemoved{
		BookID: command.BookID,
	})
}
