// Package snapshot persists a built collection in SQLite so later runs can
// skip parsing, with optional FTS5 full-text search over highlights.
package snapshot

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS books (
	id               INTEGER PRIMARY KEY,
	book_path        TEXT NOT NULL,
	note_path        TEXT NOT NULL,
	file_type        TEXT NOT NULL DEFAULT '',
	meta_kind        TEXT NOT NULL,
	meta             TEXT NOT NULL DEFAULT '{}',
	has_page_numbers INTEGER NOT NULL DEFAULT 0,
	note_checksum    TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS notes (
	id              INTEGER PRIMARY KEY,
	book_id         INTEGER NOT NULL REFERENCES books(id) ON DELETE CASCADE,
	highlight_color TEXT NOT NULL DEFAULT '',
	page_number     INTEGER NOT NULL DEFAULT -1,
	text            TEXT NOT NULL DEFAULT '',
	annotation      TEXT,
	tags            TEXT NOT NULL DEFAULT '[]',
	note_path       TEXT NOT NULL DEFAULT '',
	book_path       TEXT NOT NULL DEFAULT '',
	book_name       TEXT NOT NULL DEFAULT '',
	date_created    TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_notes_book ON notes(book_id);

CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// DB wraps a sql.DB with snapshot operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("snapshot: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("snapshot: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("snapshot: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("snapshot: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
