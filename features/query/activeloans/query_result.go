package activeloans

import (
	"github.com/google/uuid"

	"github.com/circulatehq/library-lending-go/shell"
)

// ActiveLoans represents the query result containing the open loans of a user.
// Loans are ordered by borrow time, newest first.
type ActiveLoans struct {
	UserID uuid.UUID        `json:"userId"`
	Loans  []shell.LoanView `json:"loans"`
	Count  int              `json:"count"`
}
