package activeloans

import (
	"github.com/google/uuid"
)

const (
	queryType = "ActiveLoans"
)

// Query represents the intent to list the open loans of a user.
type Query struct {
	UserID uuid.UUID
}

// BuildQuery creates a new Query with the provided user ID.
func BuildQuery(userID uuid.UUID) Query {
	return Query{
		UserID: userID,
	}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}

// CacheKey returns the cache key for this query, unique per user.
func (q Query) CacheKey() string {
	return "activeloans:user:" + q.UserID.String()
}
