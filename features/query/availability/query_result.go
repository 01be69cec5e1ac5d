package availability

import (
	"github.com/google/uuid"
)

// BookAvailability represents the query result describing the copy counts of a book.
type BookAvailability struct {
	BookID          uuid.UUID `json:"bookId"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	Genre           string    `json:"genre"`
	TotalCopies     int       `json:"totalCopies"`
	AvailableCopies int       `json:"availableCopies"`
}
