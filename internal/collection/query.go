package collection

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/starford/pocketnotes/internal/apperr"
	"github.com/starford/pocketnotes/internal/models"
)

// ErrUnknownField is returned when a query names a field notes do not have.
var ErrUnknownField = errors.New("unknown field")

// DateLayout is the string form of Note.DateCreated used by queries.
const DateLayout = "2006-01-02 15:04:05.999999"

// Query maps note field names to candidate substrings.
type Query map[string][]string

// accessor returns a field's string form and whether the value is truthy.
type accessor func(n *models.Note) (string, bool)

func str(s string) (string, bool) { return s, s != "" }

func integer(v int) (string, bool) { return strconv.Itoa(v), v != 0 }

var fields = map[string]accessor{
	"highlight_color": func(n *models.Note) (string, bool) { return str(n.HighlightColor) },
	"page_number":     func(n *models.Note) (string, bool) { return integer(n.PageNumber) },
	"text":            func(n *models.Note) (string, bool) { return str(n.Text) },
	"annotation":      annotation,
	"note":            annotation,
	"tags": func(n *models.Note) (string, bool) {
		return strings.Join(n.Tags, " "), len(n.Tags) > 0
	},
	"book_id":   func(n *models.Note) (string, bool) { return integer(n.BookID) },
	"note_path": func(n *models.Note) (string, bool) { return str(n.NotePath) },
	"book_path": func(n *models.Note) (string, bool) { return str(n.BookPath) },
	"book_name": func(n *models.Note) (string, bool) { return str(n.BookName) },
	"date_created": func(n *models.Note) (string, bool) {
		return n.DateCreated.Format(DateLayout), !n.DateCreated.IsZero()
	},
}

func annotation(n *models.Note) (string, bool) {
	if n.Annotation == nil {
		return "", false
	}
	return str(*n.Annotation)
}

// Fields returns the queryable field names, sorted.
func Fields() []string {
	out := make([]string, 0, len(fields))
	for name := range fields {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ParseQuery builds a Query from "field=value" terms. Repeated fields
// accumulate values.
func ParseQuery(terms []string) (Query, error) {
	q := Query{}
	for _, term := range terms {
		field, value, ok := strings.Cut(term, "=")
		if !ok || field == "" {
			return nil, fmt.Errorf("collection: invalid term %q, want field=value", term)
		}
		q[field] = append(q[field], value)
	}
	return q, q.Validate()
}

// Validate rejects field names that notes do not have.
func (q Query) Validate() error {
	for field := range q {
		if _, ok := fields[field]; !ok {
			return fmt.Errorf("collection: %q: %w", field, ErrUnknownField)
		}
	}
	return nil
}

// Where returns the notes for which any queried field holds a truthy value
// containing any of its candidate substrings. Constraints are OR'd across
// fields and values. Results keep collection order and contain each note
// once. It returns apperr.ErrNoResults when nothing matches.
func (c *Collection) Where(q Query) ([]*models.Note, error) {
	var out []*models.Note
	for _, n := range c.Notes {
		if q.matches(n) {
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("collection: query %v: %w", q, apperr.ErrNoResults)
	}
	return out, nil
}

func (q Query) matches(n *models.Note) bool {
	for field, values := range q {
		get, ok := fields[field]
		if !ok {
			continue
		}
		s, truthy := get(n)
		if !truthy {
			continue
		}
		if slices.ContainsFunc(values, func(v string) bool { return strings.Contains(s, v) }) {
			return true
		}
	}
	return false
}
