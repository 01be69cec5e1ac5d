package borrowbook

import (
	"time"

	"github.com/google/uuid"

	"github.com/circulatehq/library-lending-go/core"
)

const (
	commandType = "BorrowBook"
)

// Command represents the intent to borrow one copy of a book.
// It encapsulates all the necessary information required to execute the borrow book use case.
// LoanID is generated up front so that retries of the same command never create two loans.
type Command struct {
	LoanID     uuid.UUID
	BookID     uuid.UUID
	UserID     uuid.UUID
	OccurredAt core.RecordedAt
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with a fresh loan id.
func BuildCommand(bookID uuid.UUID, userID uuid.UUID, occurredAt time.Time) Command {
	return Command{
		LoanID:     uuid.New(),
		BookID:     bookID,
		UserID:     userID,
		OccurredAt: core.ToRecordedAt(occurredAt),
	}
}
