package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/pocketnotes/internal/collection"
	"github.com/starford/pocketnotes/internal/library"
	"github.com/starford/pocketnotes/internal/models"
)

// Handler holds API route handlers.
type Handler struct {
	svc *library.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *library.Service) *Handler {
	return &Handler{svc: svc}
}

// bookID extracts the numeric book id from the URL.
func bookID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	return id, err == nil
}

// ListBooks handles GET /api/books.
//
//	@Summary		List matched books
//	@Tags			books
//	@Produce		json
//	@Success		200	{object}	BookListResponse
//	@Security		BearerAuth
//	@Router			/books [get]
func (h *Handler) ListBooks(w http.ResponseWriter, _ *http.Request) {
	books := h.svc.Books()
	writeJSON(w, http.StatusOK, BookListResponse{Books: books, Total: len(books)})
}

// GetBook handles GET /api/books/{id}.
//
//	@Summary		Get a book with its notes
//	@Tags			books
//	@Produce		json
//	@Param			id	path		int	true	"Book id"
//	@Success		200	{object}	BookDetail
//	@Failure		400	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/books/{id} [get]
func (h *Handler) GetBook(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid book id"))
		return
	}
	book, err := h.svc.Book(id)
	if err != nil {
		writeError(w, "get book", err)
		return
	}
	summary, _ := h.svc.BookSummary(id)
	notes := book.Notes
	if notes == nil {
		notes = []*models.Note{}
	}
	writeJSON(w, http.StatusOK, BookDetail{BookSummary: summary, Notes: notes})
}

// GetBookMarkdown handles GET /api/books/{id}/markdown.
//
//	@Summary		Render a book's vault page
//	@Tags			books
//	@Produce		text/markdown
//	@Param			id	path		int	true	"Book id"
//	@Success		200	{string}	string
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/books/{id}/markdown [get]
func (h *Handler) GetBookMarkdown(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid book id"))
		return
	}
	page, err := h.svc.RenderBook(id)
	if err != nil {
		writeError(w, "render book", err)
		return
	}
	writeMarkdown(w, page)
}

// QueryNotes handles GET /api/notes.
//
// Every query parameter names a note field; its values are candidate
// substrings. A note matches when any field contains any of its values.
//
//	@Summary		Query notes by field substrings
//	@Tags			notes
//	@Produce		json
//	@Param			text			query		string	false	"Substring of the highlighted text"
//	@Param			highlight_color	query		string	false	"Substring of the semantic color tag"
//	@Param			tags			query		string	false	"Substring of the space-joined tags"
//	@Success		200				{object}	NoteListResponse
//	@Failure		400				{object}	errResponse
//	@Failure		404				{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) QueryNotes(w http.ResponseWriter, r *http.Request) {
	q := collection.Query(r.URL.Query())
	if len(q) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("at least one field=value parameter is required"))
		return
	}
	notes, err := h.svc.Query(q)
	if err != nil {
		writeError(w, "query notes", err)
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: notes, Total: len(notes)})
}

// Fields handles GET /api/fields.
//
//	@Summary		List queryable note fields
//	@Tags			notes
//	@Produce		json
//	@Success		200	{object}	FieldsResponse
//	@Security		BearerAuth
//	@Router			/fields [get]
func (h *Handler) Fields(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, FieldsResponse{Fields: collection.Fields()})
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across highlights
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(q, limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Rebuild handles POST /api/rebuild.
//
//	@Summary		Rebuild the collection from the local files
//	@Tags			collection
//	@Produce		json
//	@Success		200	{object}	RebuildResponse
//	@Failure		422	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/rebuild [post]
func (h *Handler) Rebuild(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Rebuild(r.Context())
	if err != nil {
		writeError(w, "rebuild", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Export handles POST /api/export.
//
//	@Summary		Export the collection into the vault
//	@Tags			collection
//	@Produce		json
//	@Success		200	{object}	vault.ExportStats
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/export [post]
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Export(r.Context())
	if err != nil {
		writeError(w, "export", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
