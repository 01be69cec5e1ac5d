package shell

import (
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/circulatehq/library-lending-go/core"
)

// ErrMappingToLoanViewFailed is returned when loan view serialization fails.
var ErrMappingToLoanViewFailed = errors.New("mapping to loan view failed")

// ErrMappingFromLoanViewFailed is returned when loan view deserialization fails.
var ErrMappingFromLoanViewFailed = errors.New("mapping from loan view failed")

// LoanView is the serialized representation of a loan at the service boundary.
// Timestamps use RFC 3339 in UTC; ReturnedAt is empty while the loan is open.
type LoanView struct {
	LoanID     string `json:"loan_id"`
	BookID     string `json:"book_id"`
	UserID     string `json:"user_id"`
	BorrowedAt string `json:"borrowed_at"`
	DueAt      string `json:"due_at"`
	ReturnedAt string `json:"returned_at,omitempty"`
	Status     string `json:"status"`
}

// LoanViewFrom converts a core.Loan into its boundary representation.
func LoanViewFrom(loan core.Loan) LoanView {
	view := LoanView{
		LoanID:     loan.ID.String(),
		BookID:     loan.BookID.String(),
		UserID:     loan.UserID.String(),
		BorrowedAt: loan.BorrowedAt.Format(time.RFC3339Nano),
		DueAt:      loan.DueAt.Format(time.RFC3339Nano),
		Status:     string(loan.Status()),
	}

	if !loan.ReturnedAt.IsZero() {
		view.ReturnedAt = loan.ReturnedAt.Format(time.RFC3339Nano)
	}

	return view
}

// LoanViewsFrom converts a slice of loans into boundary representations,
// preserving order.
func LoanViewsFrom(loans core.Loans) []LoanView {
	views := make([]LoanView, 0, len(loans))
	for _, loan := range loans {
		views = append(views, LoanViewFrom(loan))
	}

	return views
}

// MarshalLoanView serializes a LoanView to JSON.
func MarshalLoanView(view LoanView) ([]byte, error) {
	data, err := jsoniter.ConfigFastest.Marshal(view)
	if err != nil {
		return nil, errors.Join(ErrMappingToLoanViewFailed, err)
	}

	return data, nil
}

// UnmarshalLoanView deserializes a LoanView from JSON.
func UnmarshalLoanView(data []byte) (LoanView, error) {
	var view LoanView

	if err := jsoniter.ConfigFastest.Unmarshal(data, &view); err != nil {
		return LoanView{}, errors.Join(ErrMappingFromLoanViewFailed, err)
	}

	return view, nil
}
