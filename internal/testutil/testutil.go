// Package testutil provides shared test fixtures: bookmark exports and library directories.
package testutil

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Block describes one highlight in a generated bookmark export.
type Block struct {
	Color string // raw color class, e.g. "bm-color-yellow"
	Page  string
	Text  string
	Note  *string // nil omits the bm-note element
}

// Ptr returns a pointer to s.
func Ptr(s string) *string { return &s }

// BookmarkHTML renders a bookmark export shaped like the device's: two
// header blocks carrying the book title, followed by one block per highlight.
func BookmarkHTML(title string, blocks ...Block) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>")
	b.WriteString(html.EscapeString(title))
	b.WriteString("</title></head>\n<body>\n")
	fmt.Fprintf(&b, "<div class=\"bookmark bm-title\"><p>%s</p></div>\n", html.EscapeString(title))
	b.WriteString("<div class=\"bookmark bm-author\"><p>exported highlights</p></div>\n")
	for _, blk := range blocks {
		fmt.Fprintf(&b, "<div class=\"bookmark %s\">\n", blk.Color)
		fmt.Fprintf(&b, "<p class=\"bm-page\">%s</p>\n", html.EscapeString(blk.Page))
		fmt.Fprintf(&b, "<div class=\"bm-text\">%s</div>\n", html.EscapeString(blk.Text))
		if blk.Note != nil {
			fmt.Fprintf(&b, "<div class=\"bm-note\">%s</div>\n", html.EscapeString(*blk.Note))
		}
		b.WriteString("</div>\n")
	}
	b.WriteString("</body></html>\n")
	return b.String()
}

// Colors is the default PocketBook color mapping.
func Colors() map[string]string {
	return map[string]string{
		"bm-color-magenta": "key_idea",
		"bm-color-red":     "key_idea",
		"bm-color-yellow":  "standard",
		"bm-color-green":   "look_into",
		"bm-color-cian":    "summary",
		"bm-color-blue":    "summary",
		"bm-color-note":    "none",
	}
}

// WriteFiles creates each file (relative path -> content) under root.
func WriteFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

// Library is a temporary collection layout with books/ and notes/ directories.
type Library struct {
	Root     string
	BooksDir string // relative to Root
	NotesDir string // relative to Root
}

// NewLibrary creates an empty library layout in a temp dir.
func NewLibrary(t *testing.T) *Library {
	t.Helper()
	lib := &Library{Root: t.TempDir(), BooksDir: "books", NotesDir: "notes"}
	for _, d := range []string{lib.BooksDir, lib.NotesDir} {
		if err := os.MkdirAll(filepath.Join(lib.Root, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return lib
}

// AddBook writes a placeholder book file.
func (l *Library) AddBook(t *testing.T, name string) {
	t.Helper()
	WriteFiles(t, l.Root, map[string]string{filepath.Join(l.BooksDir, name): "book:" + name})
}

// AddNotes writes a bookmark export.
func (l *Library) AddNotes(t *testing.T, name, title string, blocks ...Block) {
	t.Helper()
	WriteFiles(t, l.Root, map[string]string{filepath.Join(l.NotesDir, name): BookmarkHTML(title, blocks...)})
}
