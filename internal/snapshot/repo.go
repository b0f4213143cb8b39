package snapshot

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/pocketnotes/internal/apperr"
	"github.com/starford/pocketnotes/internal/collection"
	"github.com/starford/pocketnotes/internal/models"
)

const (
	kindStructured = "structured"
	kindFallback   = "fallback"

	savedAtKey = "saved_at"
)

// Hit represents one search hit.
type Hit struct {
	BookID     int    `json:"book_id"`
	BookName   string `json:"book_name"`
	PageNumber int    `json:"page_number"`
	Snippet    string `json:"snippet"`
}

// Save replaces the stored snapshot with coll within a single transaction.
func (db *DB) Save(coll *collection.Collection) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("snapshot: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if err := ftsClear(tx); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM notes`); err != nil {
		return fmt.Errorf("snapshot: clear notes: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM books`); err != nil {
		return fmt.Errorf("snapshot: clear books: %w", err)
	}

	bookStmt, err := tx.Prepare(`
		INSERT INTO books (id, book_path, note_path, file_type, meta_kind, meta, has_page_numbers, note_checksum)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("snapshot: prepare book insert: %w", err)
	}
	defer bookStmt.Close()

	for _, b := range coll.Books {
		kind, meta, err := encodeMeta(b.Meta)
		if err != nil {
			return err
		}
		if _, err := bookStmt.Exec(b.ID, b.BookPath, b.NotePath, b.FileType, kind, meta, b.HasPageNumbers, b.NoteChecksum); err != nil {
			return fmt.Errorf("snapshot: insert book %d: %w", b.ID, err)
		}
	}

	noteStmt, err := tx.Prepare(`
		INSERT INTO notes (id, book_id, highlight_color, page_number, text, annotation, tags,
		                   note_path, book_path, book_name, date_created)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("snapshot: prepare note insert: %w", err)
	}
	defer noteStmt.Close()

	for i, n := range coll.Notes {
		id := i + 1
		tags, _ := json.Marshal(n.Tags)
		if _, err := noteStmt.Exec(id, n.BookID, n.HighlightColor, n.PageNumber, n.Text, nullString(n.Annotation),
			string(tags), n.NotePath, n.BookPath, n.BookName, n.DateCreated.Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("snapshot: insert note %d: %w", id, err)
		}
		if err := ftsInsert(tx, id, n); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, savedAtKey, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("snapshot: write meta: %w", err)
	}

	return tx.Commit()
}

// SavedAt returns when the snapshot was last saved, or apperr.ErrNotFound
// if it never was.
func (db *DB) SavedAt() (time.Time, error) {
	var v string
	err := db.conn.QueryRow(`SELECT value FROM meta WHERE key = ?`, savedAtKey).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, fmt.Errorf("snapshot: never saved: %w", apperr.ErrNotFound)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("snapshot: read meta: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("snapshot: parse saved_at: %w", err)
	}
	return t, nil
}

// Load rebuilds the collection from the stored snapshot, restoring book
// order, note order and the book back references.
func (db *DB) Load() (*collection.Collection, error) {
	if _, err := db.SavedAt(); err != nil {
		return nil, err
	}

	coll := collection.New()
	books := make(map[int]*models.Book)

	rows, err := db.conn.Query(`
		SELECT id, book_path, note_path, file_type, meta_kind, meta, has_page_numbers, note_checksum
		FROM books ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("snapshot: load books: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			b          models.Book
			kind, meta string
		)
		if err := rows.Scan(&b.ID, &b.BookPath, &b.NotePath, &b.FileType, &kind, &meta, &b.HasPageNumbers, &b.NoteChecksum); err != nil {
			return nil, fmt.Errorf("snapshot: scan book: %w", err)
		}
		if b.Meta, err = decodeMeta(kind, meta); err != nil {
			return nil, err
		}
		books[b.ID] = &b
		coll.AddBook(&b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	noteRows, err := db.conn.Query(`
		SELECT book_id, highlight_color, page_number, text, annotation, tags,
		       note_path, book_path, book_name, date_created
		FROM notes ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("snapshot: load notes: %w", err)
	}
	defer noteRows.Close()
	for noteRows.Next() {
		var (
			n          models.Note
			annotation sql.NullString
			tags, date string
		)
		if err := noteRows.Scan(&n.BookID, &n.HighlightColor, &n.PageNumber, &n.Text, &annotation, &tags,
			&n.NotePath, &n.BookPath, &n.BookName, &date); err != nil {
			return nil, fmt.Errorf("snapshot: scan note: %w", err)
		}
		if annotation.Valid {
			n.Annotation = &annotation.String
		}
		if err := json.Unmarshal([]byte(tags), &n.Tags); err != nil {
			return nil, fmt.Errorf("snapshot: decode tags: %w", err)
		}
		if n.DateCreated, err = time.Parse(time.RFC3339Nano, date); err != nil {
			return nil, fmt.Errorf("snapshot: parse date_created: %w", err)
		}
		book, ok := books[n.BookID]
		if !ok {
			return nil, fmt.Errorf("snapshot: note references missing book %d", n.BookID)
		}
		coll.AddNotes(book, []*models.Note{&n})
	}
	return coll, noteRows.Err()
}

// NoteChecksums returns the stored checksum of every book's note file,
// keyed by note path.
func (db *DB) NoteChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT note_path, note_checksum FROM books`)
	if err != nil {
		return nil, fmt.Errorf("snapshot: checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

func encodeMeta(m models.Metadata) (string, string, error) {
	var kind string
	switch m.(type) {
	case models.Structured:
		kind = kindStructured
	case models.Fallback:
		kind = kindFallback
	default:
		return "", "", fmt.Errorf("snapshot: unknown metadata %T", m)
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", "", fmt.Errorf("snapshot: encode metadata: %w", err)
	}
	return kind, string(data), nil
}

func decodeMeta(kind, data string) (models.Metadata, error) {
	switch kind {
	case kindStructured:
		var s models.Structured
		if err := json.Unmarshal([]byte(data), &s); err != nil {
			return nil, fmt.Errorf("snapshot: decode metadata: %w", err)
		}
		return s, nil
	case kindFallback:
		var f models.Fallback
		if err := json.Unmarshal([]byte(data), &f); err != nil {
			return nil, fmt.Errorf("snapshot: decode metadata: %w", err)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("snapshot: unknown metadata kind %q", kind)
	}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
