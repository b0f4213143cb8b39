//go:build !sqlite_fts5

package snapshot

import (
	"database/sql"
	"fmt"

	"github.com/starford/pocketnotes/internal/models"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses LIKE over the notes table.
	return nil
}

func ftsInsert(_ *sql.Tx, _ int, _ *models.Note) error { return nil }

func ftsClear(_ *sql.Tx) error { return nil }

// Search performs a LIKE-based search over highlight text, annotations and
// book names (fallback when FTS5 is not compiled in).
func (db *DB) Search(query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT book_id, book_name, page_number, substr(text, 1, 200)
		FROM notes
		WHERE text LIKE ? OR annotation LIKE ? OR book_name LIKE ?
		ORDER BY id
		LIMIT ?
	`, like, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("snapshot: search: %w", err)
	}
	defer rows.Close()

	var out []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.BookID, &h.BookName, &h.PageNumber, &h.Snippet); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
