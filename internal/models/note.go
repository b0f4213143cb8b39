// Package models defines the domain types for pocketnotes.
package models

import (
	"fmt"
	"strings"
	"time"
)

// UnknownPage marks a highlight whose page number could not be read.
const UnknownPage = -1

// FileRef is a file handle as returned by a directory listing.
type FileRef struct {
	Path   string `json:"path"`
	Stem   string `json:"stem"`   // file name without directory and extension
	Suffix string `json:"suffix"` // extension including the leading dot
}

// Note is a single highlight extracted from a bookmark export.
type Note struct {
	HighlightColor string    `json:"highlight_color"`
	PageNumber     int       `json:"page_number"`
	Text           string    `json:"text"`
	Annotation     *string   `json:"annotation,omitempty"`
	Tags           []string  `json:"tags,omitempty"`
	BookID         int       `json:"book_id"`
	NotePath       string    `json:"note_path"`
	BookPath       string    `json:"book_path"`
	BookName       string    `json:"book_name"`
	DateCreated    time.Time `json:"date_created"`
}

// HasAnnotation reports whether the user wrote a non-empty note on the highlight.
func (n *Note) HasAnnotation() bool {
	return n.Annotation != nil && *n.Annotation != ""
}

// String returns a multi-line dump of the note for debugging.
func (n *Note) String() string {
	annotation := "<none>"
	if n.Annotation != nil {
		annotation = *n.Annotation
	}
	var b strings.Builder
	b.WriteString(strings.Repeat("-_", 35))
	fmt.Fprintf(&b, "\nc: %s pg:%d\ntags: %v\n", n.HighlightColor, n.PageNumber, n.Tags)
	b.WriteString(strings.Repeat("`", 42))
	fmt.Fprintf(&b, "\ntext:\n\t%s\nnote:\n\t%s\n", n.Text, annotation)
	return b.String()
}

// Book pairs a book file with its bookmark export and the notes parsed from it.
type Book struct {
	ID             int      `json:"book_id"`
	BookPath       string   `json:"book_path"`
	NotePath       string   `json:"note_path"`
	FileType       string   `json:"file_type"`
	Meta           Metadata `json:"-"`
	Notes          []*Note  `json:"-"`
	HasPageNumbers bool     `json:"has_page_numbers"`
	NoteChecksum   string   `json:"note_checksum"`
}

// AddNote appends a back-reference to a note owned by the collection.
func (b *Book) AddNote(n *Note) {
	b.Notes = append(b.Notes, n)
}

// DisplayName is the title when metadata was extracted, the raw file stem otherwise.
func (b *Book) DisplayName() string {
	if b.Meta == nil {
		return ""
	}
	return b.Meta.DisplayName()
}

// MetadataExtracted reports whether the file name matched the structured pattern.
func (b *Book) MetadataExtracted() bool {
	_, ok := b.Meta.(Structured)
	return ok
}

// Authors returns the parsed authors, or nil for unstructured names.
func (b *Book) Authors() []string {
	if s, ok := b.Meta.(Structured); ok {
		return s.Authors
	}
	return nil
}

// Publisher returns the parsed publisher, or "" when absent.
func (b *Book) Publisher() string {
	if s, ok := b.Meta.(Structured); ok {
		return s.Publisher
	}
	return ""
}

// Year returns the publication year and whether it is known.
func (b *Book) Year() (int, bool) {
	if s, ok := b.Meta.(Structured); ok {
		return s.Year, true
	}
	return 0, false
}
