package shell

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/circulatehq/library-lending-go/core"
)

func Test_LoanViewFrom_OpenLoan(t *testing.T) {
	// arrange
	borrowedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	loan := core.BuildOpenLoan(uuid.New(), uuid.New(), uuid.New(), borrowedAt)

	// act
	view := LoanViewFrom(loan)

	// assert
	assert.Equal(t, loan.ID.String(), view.LoanID)
	assert.Equal(t, "OPEN", view.Status)
	assert.Equal(t, "2025-06-01T12:00:00Z", view.BorrowedAt)
	assert.Equal(t, "2025-06-15T12:00:00Z", view.DueAt)
	assert.Empty(t, view.ReturnedAt)
}

func Test_LoanViewFrom_ReturnedLoan(t *testing.T) {
	// arrange
	borrowedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	loan := core.BuildOpenLoan(uuid.New(), uuid.New(), uuid.New(), borrowedAt)
	loan = loan.WithReturnedAt(borrowedAt.Add(48 * time.Hour))

	// act
	view := LoanViewFrom(loan)

	// assert
	assert.Equal(t, "RETURNED", view.Status)
	assert.Equal(t, "2025-06-03T12:00:00Z", view.ReturnedAt)
}

func Test_LoanView_MarshalRoundTrip(t *testing.T) {
	// arrange
	loan := core.BuildOpenLoan(uuid.New(), uuid.New(), uuid.New(), time.Now())
	view := LoanViewFrom(loan)

	// act
	data, marshalErr := MarshalLoanView(view)
	restored, unmarshalErr := UnmarshalLoanView(data)

	// assert
	assert.NoError(t, marshalErr)
	assert.NoError(t, unmarshalErr)
	assert.Equal(t, view, restored)
}

func Test_UnmarshalLoanView_InvalidJSON(t *testing.T) {
	// act
	_, err := UnmarshalLoanView([]byte("{not json"))

	// assert
	assert.ErrorIs(t, err, ErrMappingFromLoanViewFailed)
}
