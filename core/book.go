package core

import (
	"github.com/google/uuid"
)

// Book represents a catalog record with its copy counts.
//
// The central invariant is 0 <= AvailableCopies <= TotalCopies; it must hold
// before and after every transition. The store additionally guarantees that
// AvailableCopies equals TotalCopies minus the number of open loans.
type Book struct {
	ID              uuid.UUID
	Title           string
	Author          string
	Genre           string
	TotalCopies     int
	AvailableCopies int
}

// BuildBook creates a new Book with all copies available.
func BuildBook(bookID uuid.UUID, title string, author string, genre string, totalCopies int) Book {
	return Book{
		ID:              bookID,
		Title:           title,
		Author:          author,
		Genre:           genre,
		TotalCopies:     totalCopies,
		AvailableCopies: totalCopies,
	}
}

// HasAvailableCopies returns true if at least one copy can be borrowed.
func (b Book) HasAvailableCopies() bool {
	return b.AvailableCopies > 0
}

// CopiesWithinBounds reports whether the copy-count invariant holds.
func (b Book) CopiesWithinBounds() bool {
	return b.AvailableCopies >= 0 && b.AvailableCopies <= b.TotalCopies
}
