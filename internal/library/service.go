// Package library coordinates building, persisting, querying and exporting
// the note collection.
package library

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"

	"github.com/starford/pocketnotes/internal/apperr"
	"github.com/starford/pocketnotes/internal/checksum"
	"github.com/starford/pocketnotes/internal/collection"
	"github.com/starford/pocketnotes/internal/matcher"
	"github.com/starford/pocketnotes/internal/models"
	"github.com/starford/pocketnotes/internal/snapshot"
	"github.com/starford/pocketnotes/internal/storage"
	"github.com/starford/pocketnotes/internal/vault"
)

// Event kinds passed to the Notifier.
const (
	EventRebuilt  = "rebuilt"
	EventExported = "exported"
)

// ErrNoVault is returned by Export when no vault is configured.
var ErrNoVault = errors.New("no vault configured")

// Notifier receives collection lifecycle events.
type Notifier interface {
	PublishCollectionEvent(kind string, data any)
}

// BookSummary is a lightweight item in a book list.
type BookSummary struct {
	ID                int      `json:"book_id"`
	Name              string   `json:"name"`
	Authors           []string `json:"authors"`
	Publisher         string   `json:"publisher,omitempty"`
	Year              int      `json:"year,omitempty"`
	FileType          string   `json:"file_type"`
	MetadataExtracted bool     `json:"metadata_extracted"`
	HasPageNumbers    bool     `json:"has_page_numbers"`
	Notes             int      `json:"notes"`
	BookPath          string   `json:"book_path"`
	NotePath          string   `json:"note_path"`
}

// RebuildStats describes a finished rebuild.
type RebuildStats struct {
	Books         int              `json:"books"`
	Notes         int              `json:"notes"`
	LeftoverBooks []models.FileRef `json:"leftover_books"`
	LeftoverNotes []models.FileRef `json:"leftover_notes"`
}

// Service holds the current collection. Rebuilds swap the whole collection,
// so readers never observe a partially built one.
type Service struct {
	builder  *collection.Builder
	store    storage.Provider
	snap     snapshot.Store
	vault    *vault.Writer
	notifier Notifier
	logger   *slog.Logger

	buildMu sync.Mutex // serialises rebuilds

	mu    sync.RWMutex
	coll  *collection.Collection
	files map[string]struct{} // book and note files seen by the last build
	last  matcher.Result
}

// NewService creates a library service. vw and notifier may be nil.
func NewService(b *collection.Builder, snap snapshot.Store, vw *vault.Writer, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{
		builder:  b,
		store:    b.Store,
		snap:     snap,
		vault:    vw,
		notifier: notifier,
		logger:   logger,
		coll:     collection.New(),
	}
}

// SetNotifier replaces the event notifier.
func (s *Service) SetNotifier(n Notifier) {
	s.mu.Lock()
	s.notifier = n
	s.mu.Unlock()
}

// Load makes a collection available. With update it rebuilds from the
// files; otherwise it reuses the saved snapshot and rebuilds only when
// none exists.
func (s *Service) Load(ctx context.Context, update bool) error {
	if !update {
		coll, err := s.snap.Load()
		switch {
		case err == nil:
			at, _ := s.snap.SavedAt()
			s.logger.Info("library: loaded snapshot",
				slog.Int("books", len(coll.Books)),
				slog.Int("notes", coll.Len()),
				slog.Time("saved_at", at))
			s.swap(coll, filesOf(coll), matcher.Result{})
			return nil
		case errors.Is(err, apperr.ErrNotFound):
			s.logger.Info("library: no snapshot, rebuilding")
		default:
			return err
		}
	}
	_, err := s.Rebuild(ctx)
	return err
}

// Rebuild parses the local collection from scratch, saves the snapshot and
// publishes the result.
func (s *Service) Rebuild(ctx context.Context) (RebuildStats, error) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	coll, res, err := s.builder.Build(ctx)
	if err != nil {
		return RebuildStats{}, err
	}
	if err := s.snap.Save(coll); err != nil {
		return RebuildStats{}, err
	}
	s.swap(coll, filesOf(coll, res.LeftoverBooks, res.LeftoverNotes), res)

	stats := RebuildStats{
		Books:         len(coll.Books),
		Notes:         coll.Len(),
		LeftoverBooks: nonNilSlice(res.LeftoverBooks),
		LeftoverNotes: nonNilSlice(res.LeftoverNotes),
	}
	s.notify(EventRebuilt, stats)
	return stats, nil
}

// Refresh rebuilds only when the set of files changed or a bookmark export
// differs from the one the snapshot was built from. It reports whether a
// rebuild happened.
func (s *Service) Refresh(ctx context.Context) (bool, error) {
	changed, err := s.changed()
	if err != nil {
		return false, err
	}
	if !changed {
		s.logger.Debug("library: refresh, nothing changed")
		return false, nil
	}
	if _, err := s.Rebuild(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) changed() (bool, error) {
	books, err := s.store.List(s.builder.BooksDir)
	if err != nil {
		return false, fmt.Errorf("library: %w", err)
	}
	notes, err := s.store.List(s.builder.NotesDir)
	if err != nil {
		return false, fmt.Errorf("library: %w", err)
	}
	current := filesOf(nil, books, notes)

	s.mu.RLock()
	known := s.files
	s.mu.RUnlock()
	if !maps.Equal(current, known) {
		return true, nil
	}

	stored, err := s.snap.NoteChecksums()
	if err != nil {
		return false, err
	}
	for path, cs := range stored {
		data, err := s.store.Read(path)
		if err != nil {
			return true, nil
		}
		if !checksum.Matches(data, cs) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) swap(coll *collection.Collection, files map[string]struct{}, res matcher.Result) {
	s.mu.Lock()
	s.coll = coll
	s.files = files
	s.last = res
	s.mu.Unlock()
}

func (s *Service) notify(kind string, data any) {
	s.mu.RLock()
	n := s.notifier
	s.mu.RUnlock()
	if n != nil {
		n.PublishCollectionEvent(kind, data)
	}
}

// Collection returns the current collection. Callers must not modify it.
func (s *Service) Collection() *collection.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.coll
}

// LastMatch returns the matcher result of the last rebuild in this process.
func (s *Service) LastMatch() matcher.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Books lists every book in collection order.
func (s *Service) Books() []BookSummary {
	coll := s.Collection()
	out := make([]BookSummary, len(coll.Books))
	for i, b := range coll.Books {
		out[i] = summarize(b)
	}
	return out
}

// Book returns one book or apperr.ErrNotFound.
func (s *Service) Book(id int) (*models.Book, error) {
	b, ok := s.Collection().Book(id)
	if !ok {
		return nil, fmt.Errorf("library: book %d: %w", id, apperr.ErrNotFound)
	}
	return b, nil
}

// BookSummary returns the summary of one book or apperr.ErrNotFound.
func (s *Service) BookSummary(id int) (BookSummary, error) {
	b, err := s.Book(id)
	if err != nil {
		return BookSummary{}, err
	}
	return summarize(b), nil
}

// Query validates q and runs it against the current collection.
func (s *Service) Query(q collection.Query) ([]*models.Note, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return s.Collection().Where(q)
}

// Search runs a full-text search over the saved snapshot.
func (s *Service) Search(query string, limit int) ([]snapshot.Hit, error) {
	hits, err := s.snap.Search(query, limit)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(hits), nil
}

// RenderBook renders one book's vault page.
func (s *Service) RenderBook(id int) ([]byte, error) {
	b, err := s.Book(id)
	if err != nil {
		return nil, err
	}
	format, sortByPage := vault.FormatObsidian, true
	if s.vault != nil {
		format, sortByPage = s.vault.Format, s.vault.SortByPage
	}
	return vault.RenderBook(b, format, sortByPage)
}

// Export writes the current collection into the vault.
func (s *Service) Export(ctx context.Context) (vault.ExportStats, error) {
	if s.vault == nil {
		return vault.ExportStats{}, fmt.Errorf("library: export: %w", ErrNoVault)
	}
	stats, err := s.vault.Export(ctx, s.Collection())
	if err != nil {
		return stats, err
	}
	s.notify(EventExported, stats)
	return stats, nil
}

// NoteStrings renders notes in the export format, one string per note.
func NoteStrings(notes []*models.Note, format string) (string, error) {
	var buf bytes.Buffer
	for i, n := range notes {
		str, err := vault.NoteString(n, format)
		if err != nil {
			return "", err
		}
		if i > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(str)
	}
	return buf.String(), nil
}

func summarize(b *models.Book) BookSummary {
	year, _ := b.Year()
	return BookSummary{
		ID:                b.ID,
		Name:              b.DisplayName(),
		Authors:           nonNilSlice(b.Authors()),
		Publisher:         b.Publisher(),
		Year:              year,
		FileType:          b.FileType,
		MetadataExtracted: b.MetadataExtracted(),
		HasPageNumbers:    b.HasPageNumbers,
		Notes:             len(b.Notes),
		BookPath:          b.BookPath,
		NotePath:          b.NotePath,
	}
}

// filesOf collects book and note paths of coll plus any extra file lists.
func filesOf(coll *collection.Collection, extra ...[]models.FileRef) map[string]struct{} {
	out := make(map[string]struct{})
	if coll != nil {
		for _, b := range coll.Books {
			out[b.BookPath] = struct{}{}
			out[b.NotePath] = struct{}{}
		}
	}
	for _, refs := range extra {
		for _, r := range refs {
			out[r.Path] = struct{}{}
		}
	}
	return out
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
