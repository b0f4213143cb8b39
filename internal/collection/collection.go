// Package collection builds and queries the in-memory set of books and notes.
package collection

import "github.com/starford/pocketnotes/internal/models"

// Collection holds every matched book and the flat list of their notes.
//
// A collection is filled by a single writer (Builder or the snapshot
// loader) and treated as read-only once published.
type Collection struct {
	Books []*models.Book
	Notes []*models.Note
}

// New returns an empty collection.
func New() *Collection {
	return &Collection{}
}

// AddBook appends a book in match order.
func (c *Collection) AddBook(b *models.Book) {
	c.Books = append(c.Books, b)
}

// AddNotes appends notes to the flat list and to the owning book together.
func (c *Collection) AddNotes(b *models.Book, notes []*models.Note) {
	for _, n := range notes {
		c.Notes = append(c.Notes, n)
		b.AddNote(n)
	}
}

// Book returns the book with the given id.
func (c *Collection) Book(id int) (*models.Book, bool) {
	for _, b := range c.Books {
		if b.ID == id {
			return b, true
		}
	}
	return nil, false
}

// Len returns the number of notes.
func (c *Collection) Len() int {
	return len(c.Notes)
}
