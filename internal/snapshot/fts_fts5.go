//go:build sqlite_fts5

package snapshot

import (
	"database/sql"
	"fmt"

	"github.com/starford/pocketnotes/internal/models"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS notes_fts USING fts5(
			text,
			annotation,
			book_name,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsInsert(tx *sql.Tx, id int, n *models.Note) error {
	annotation := ""
	if n.Annotation != nil {
		annotation = *n.Annotation
	}
	_, err := tx.Exec(`INSERT INTO notes_fts (rowid, text, annotation, book_name) VALUES (?, ?, ?, ?)`,
		id, n.Text, annotation, n.BookName)
	if err != nil {
		return fmt.Errorf("snapshot: insert fts: %w", err)
	}
	return nil
}

func ftsClear(tx *sql.Tx) error {
	if _, err := tx.Exec(`DELETE FROM notes_fts`); err != nil {
		return fmt.Errorf("snapshot: clear fts: %w", err)
	}
	return nil
}

// Search performs an FTS5 full-text search and returns matching highlights with snippets.
func (db *DB) Search(query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT n.book_id,
		       n.book_name,
		       n.page_number,
		       snippet(notes_fts, 0, '<b>', '</b>', '...', 32)
		FROM notes_fts
		JOIN notes n ON n.id = notes_fts.rowid
		WHERE notes_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
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
