package collection

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/pocketnotes/internal/bookname"
	"github.com/starford/pocketnotes/internal/checksum"
	"github.com/starford/pocketnotes/internal/matcher"
	"github.com/starford/pocketnotes/internal/models"
	"github.com/starford/pocketnotes/internal/parser"
	"github.com/starford/pocketnotes/internal/storage"
)

// Builder reads the local books and notes directories and produces a Collection.
type Builder struct {
	Store    storage.Provider
	BooksDir string // relative to the store root
	NotesDir string // relative to the store root
	Parser   *parser.Parser
	Logger   *slog.Logger
}

// Match lists both directories and pairs books with notes.
func (b *Builder) Match() (matcher.Result, error) {
	books, err := b.Store.List(b.BooksDir)
	if err != nil {
		return matcher.Result{}, fmt.Errorf("collection: list books: %w", err)
	}
	notes, err := b.Store.List(b.NotesDir)
	if err != nil {
		return matcher.Result{}, fmt.Errorf("collection: list notes: %w", err)
	}
	res := matcher.Match(books, notes)
	res.LogSummary(b.Logger)
	return res, nil
}

// Build matches the files, then parses each book's export in match order.
// Unmatched files are left out; an unmapped highlight color aborts the build.
func (b *Builder) Build(ctx context.Context) (*Collection, matcher.Result, error) {
	res, err := b.Match()
	if err != nil {
		return nil, res, err
	}

	coll := New()
	for _, pair := range res.Pairs {
		if err := ctx.Err(); err != nil {
			return nil, res, err
		}

		book := &models.Book{
			ID:       pair.ID,
			BookPath: pair.Book.Path,
			NotePath: pair.Note.Path,
			FileType: bookname.FileType(pair.Book.Suffix),
			Meta:     bookname.Parse(pair.Book.Stem),
		}

		data, err := b.Store.Read(book.NotePath)
		if err != nil {
			return nil, res, fmt.Errorf("collection: %w", err)
		}
		book.NoteChecksum = checksum.Sum(data)

		parsed, err := b.Parser.Parse(bytes.NewReader(data), book)
		if err != nil {
			return nil, res, err
		}
		book.HasPageNumbers = parsed.HasPageNumbers

		coll.AddBook(book)
		coll.AddNotes(book, parsed.Notes)

		b.Logger.Debug("collection: parsed book",
			slog.Int("book_id", book.ID),
			slog.String("book", book.DisplayName()),
			slog.Int("notes", len(parsed.Notes)),
			slog.Bool("has_page_numbers", book.HasPageNumbers))
	}

	b.Logger.Info("collection: built",
		slog.Int("books", len(coll.Books)),
		slog.Int("notes", len(coll.Notes)))
	return coll, res, nil
}
