package shell

import (
	"context"
)

// Command represents the contract for all command types in the lending application.
// Each command encapsulates the intent and parameters needed to execute a specific business operation.
// The CommandType method enables polymorphic handling and observability instrumentation.
type Command interface {
	CommandType() string
}

// CoreCommandHandler defines the contract for components that process commands with pure business logic.
// Handlers orchestrate the complete command workflow: reading state, deciding, and applying the change.
// The generic parameter C ensures type safety between commands and their corresponding handlers.
// Handlers return HandlerResult containing business outcomes (idempotency) and execution metadata (retry info).
type CoreCommandHandler[C Command] interface {
	Handle(ctx context.Context, command C) (HandlerResult, error)
}

// Query represents the contract for all query types in the lending application.
// Each query encapsulates the intent and parameters needed to retrieve a specific projection.
// The QueryType method enables polymorphic handling and cache key generation.
type Query interface {
	QueryType() string
	CacheKey() string
}

// QueryHandler defines the contract for components that process queries and return projections.
// The generic parameters Q and R ensure type safety between queries and their corresponding results.
// Implementations handle infrastructure concerns (store access, observability) while delegating
// business logic to pure projection functions.
type QueryHandler[Q Query, R any] interface {
	Handle(ctx context.Context, query Q) (R, error)
}
