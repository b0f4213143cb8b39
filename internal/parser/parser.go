// Package parser turns PocketBook bookmark exports into notes.
package parser

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/starford/pocketnotes/internal/apperr"
	"github.com/starford/pocketnotes/internal/models"
)

// The first two bookmark blocks of an export carry the book title.
const headerBlocks = 2

const (
	blockSelector      = "body div.bookmark"
	pageSelector       = "p.bm-page"
	textSelector       = "div.bm-text"
	annotationSelector = "div.bm-note"
)

// UnmappedColorError reports a highlight color missing from the color table.
type UnmappedColorError struct {
	Color    string
	NotePath string
	Block    int
}

func (e *UnmappedColorError) Error() string {
	return fmt.Sprintf("parser: %s: block %d: highlight color %q has no semantic mapping", e.NotePath, e.Block, e.Color)
}

func (e *UnmappedColorError) Is(target error) bool {
	return target == apperr.ErrUnmappedColor
}

// Result holds the notes parsed from one export.
type Result struct {
	Notes []*models.Note
	// HasPageNumbers is false when any block lacked an integer page number.
	HasPageNumbers bool
}

// Parser extracts notes using a color mapping and a tag vocabulary.
type Parser struct {
	colors     map[string]string
	vocabulary []string
	now        func() time.Time
}

// New creates a parser. colors maps raw highlight colors to semantic tags.
func New(colors map[string]string, vocabulary []string) *Parser {
	return &Parser{colors: colors, vocabulary: vocabulary, now: time.Now}
}

// Parse reads the export in r and returns one note per highlight block, in
// document order.
func (p *Parser) Parse(r io.Reader, book *models.Book) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parser: read %s: %w", book.NotePath, err)
	}

	res := &Result{HasPageNumbers: true}
	created := p.now()
	var parseErr error

	doc.Find(blockSelector).EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i < headerBlocks {
			return true
		}
		note, ok, err := p.parseBlock(i, s, book, created)
		if err != nil {
			parseErr = err
			return false
		}
		if !ok {
			res.HasPageNumbers = false
		}
		res.Notes = append(res.Notes, note)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return res, nil
}

// parseBlock builds a note from one bookmark block. ok is false when the
// page number could not be read.
func (p *Parser) parseBlock(i int, s *goquery.Selection, book *models.Book, created time.Time) (*models.Note, bool, error) {
	raw := colorToken(s)
	color, mapped := p.colors[raw]
	if !mapped {
		return nil, false, &UnmappedColorError{Color: raw, NotePath: book.NotePath, Block: i}
	}

	page, ok := models.UnknownPage, false
	if n, err := strconv.Atoi(strings.TrimSpace(s.Find(pageSelector).First().Text())); err == nil && n >= 0 {
		page, ok = n, true
	}

	text := cleanText(s.Find(textSelector).First().Text())

	var annotation *string
	if sel := s.Find(annotationSelector).First(); sel.Length() > 0 {
		a := cleanText(sel.Text())
		annotation = &a
	}

	return &models.Note{
		HighlightColor: color,
		PageNumber:     page,
		Text:           text,
		Annotation:     annotation,
		Tags:           InferTags(text, annotation, p.vocabulary),
		BookID:         book.ID,
		NotePath:       book.NotePath,
		BookPath:       book.BookPath,
		BookName:       book.DisplayName(),
		DateCreated:    created,
	}, ok, nil
}

// colorToken returns the second class token of a block ("bookmark bm-color-red").
func colorToken(s *goquery.Selection) string {
	class, _ := s.Attr("class")
	tokens := strings.Fields(class)
	if len(tokens) < 2 {
		return ""
	}
	return tokens[1]
}

// cleanText turns embedded line breaks into single spaces.
func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
