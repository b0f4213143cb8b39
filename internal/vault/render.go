// Package vault renders books as Markdown pages and writes them into an
// Obsidian vault.
package vault

import (
	"bytes"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/pocketnotes/internal/apperr"
	"github.com/starford/pocketnotes/internal/models"
)

// FormatObsidian is the only supported export format.
const FormatObsidian = "obsidian"

// Generator marks pages written by pocketnotes in their frontmatter.
const Generator = "pocketnotes"

// Formats lists the supported export formats.
var Formats = []string{FormatObsidian}

// Frontmatter is the YAML block at the top of every generated page.
type Frontmatter struct {
	Generator string   `yaml:"generator"`
	Book      string   `yaml:"book"`
	Authors   []string `yaml:"authors,omitempty"`
	Publisher string   `yaml:"publisher,omitempty"`
	Year      int      `yaml:"year,omitempty"`
	FileType  string   `yaml:"file_type,omitempty"`
	Notes     int      `yaml:"notes"`
}

func checkFormat(format string) error {
	if !slices.Contains(Formats, format) {
		return fmt.Errorf("vault: format %q: %w", format, apperr.ErrUnsupportedFormat)
	}
	return nil
}

// NoteString renders one highlight:
//
//	#<color> [[tag]] ...
//	<text>(pg. <page>)
//	#note
//		<annotation>
//
// The #note block is left out when the highlight has no annotation.
func NoteString(n *models.Note, format string) (string, error) {
	if err := checkFormat(format); err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("#" + n.HighlightColor + " ")
	for _, tag := range n.Tags {
		b.WriteString("[[" + tag + "]] ")
	}
	b.WriteString("\n" + n.Text + "(pg. " + strconv.Itoa(n.PageNumber) + ")\n")
	if n.HasAnnotation() {
		b.WriteString("#note\n\t" + *n.Annotation + "\n")
	}
	return b.String(), nil
}

// BookHeader renders the book info block. Books whose name could not be
// parsed get their display name only.
func BookHeader(bk *models.Book, format string) (string, error) {
	if err := checkFormat(format); err != nil {
		return "", err
	}
	s, ok := bk.Meta.(models.Structured)
	if !ok {
		return bk.DisplayName(), nil
	}
	links := make([]string, len(s.Authors))
	for i, a := range s.Authors {
		links[i] = "[[" + a + "]]"
	}
	return fmt.Sprintf("Authors: %s\nPublisher: %s\nYear: %d\nn_notes: %d",
		strings.Join(links, " "), s.Publisher, s.Year, len(bk.Notes)), nil
}

// RenderBook renders a full vault page: frontmatter, book info and one
// paragraph per note. With sortByPage, notes of books that have page
// numbers are ordered by page; ties keep document order.
func RenderBook(bk *models.Book, format string, sortByPage bool) ([]byte, error) {
	header, err := BookHeader(bk, format)
	if err != nil {
		return nil, err
	}

	fm := Frontmatter{
		Generator: Generator,
		Book:      bk.DisplayName(),
		FileType:  bk.FileType,
		Notes:     len(bk.Notes),
	}
	if s, ok := bk.Meta.(models.Structured); ok {
		fm.Authors = s.Authors
		fm.Publisher = s.Publisher
		fm.Year = s.Year
	}
	meta, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("vault: marshal frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(meta)
	buf.WriteString("---\n\n# Book info\n\n")
	buf.WriteString(header)
	buf.WriteString("\n\n# Notes\n")

	for _, n := range orderedNotes(bk, sortByPage) {
		s, err := NoteString(n, format)
		if err != nil {
			return nil, err
		}
		buf.WriteString("\n")
		buf.WriteString(s)
	}
	return buf.Bytes(), nil
}

func orderedNotes(bk *models.Book, sortByPage bool) []*models.Note {
	notes := slices.Clone(bk.Notes)
	if sortByPage && bk.HasPageNumbers {
		slices.SortStableFunc(notes, func(a, b *models.Note) int {
			return a.PageNumber - b.PageNumber
		})
	}
	return notes
}
