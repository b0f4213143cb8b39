package api

import (
	"github.com/starford/pocketnotes/internal/library"
	"github.com/starford/pocketnotes/internal/models"
	"github.com/starford/pocketnotes/internal/snapshot"
)

// BookSummary is a lightweight book item (aliased from the domain layer).
type BookSummary = library.BookSummary

// BookListResponse wraps the book listing.
type BookListResponse struct {
	Books []BookSummary `json:"books" validate:"required"`
	Total int           `json:"total" example:"12" validate:"required"`
}

// BookDetail is a book with all of its notes in document order.
type BookDetail struct {
	BookSummary
	Notes []*models.Note `json:"notes" validate:"required"`
}

// NoteListResponse wraps query results.
type NoteListResponse struct {
	Notes []*models.Note `json:"notes" validate:"required"`
	Total int            `json:"total" example:"42" validate:"required"`
}

// SearchResult is a single search hit (aliased from the snapshot layer).
type SearchResult = snapshot.Hit

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}

// FieldsResponse lists the queryable note fields.
type FieldsResponse struct {
	Fields []string `json:"fields" example:"highlight_color,text" validate:"required"`
}

// RebuildResponse is returned after a rebuild (aliased from the domain layer).
type RebuildResponse = library.RebuildStats
