package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/pocketnotes/internal/library"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *library.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Books.
	r.Get("/books", h.ListBooks)
	r.Get("/books/{id}", h.GetBook)
	r.Get("/books/{id}/markdown", h.GetBookMarkdown)

	// Notes query.
	r.Get("/notes", h.QueryNotes)
	r.Get("/fields", h.Fields)

	// Search.
	r.Get("/search", h.Search)

	// Collection lifecycle.
	r.Post("/rebuild", h.Rebuild)
	r.Post("/export", h.Export)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
