package returnbook

import (
	"time"

	"github.com/google/uuid"

	"github.com/circulatehq/library-lending-go/core"
)

const (
	commandType = "ReturnBook"
)

// Command represents the intent to return a borrowed book.
// It encapsulates all the necessary information required to execute the return book use case.
type Command struct {
	LoanID     uuid.UUID
	UserID     uuid.UUID
	OccurredAt core.RecordedAt
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(loanID uuid.UUID, userID uuid.UUID, occurredAt time.Time) Command {
	return Command{
		LoanID:     loanID,
		UserID:     userID,
		OccurredAt: core.ToRecordedAt(occurredAt),
	}
}
