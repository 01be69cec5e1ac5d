package addbook

import (
	"github.com/google/uuid"
)

const (
	commandType = "AddBook"
)

// Command represents the intent to add a book to the catalog.
// It encapsulates all the necessary information required to execute the add book use case.
type Command struct {
	BookID      uuid.UUID
	Title       string
	Author      string
	Genre       string
	TotalCopies int
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(bookID uuid.UUID, title string, author string, genre string, totalCopies int) Command {
	return Command{
		BookID:      bookID,
		Title:       title,
		Author:      author,
		Genre:       genre,
		TotalCopies: totalCopies,
	}
}
