// Package bookname extracts author, title, year and publisher from book file names.
package bookname

import (
	"strconv"
	"strings"

	"github.com/starford/pocketnotes/internal/models"
)

// Parse reads a stem shaped like "Authors - Title (Year) - Publisher" or
// "Authors - Title - Publisher (Year)". Parsing is positional and
// best-effort: a name without a parenthesised integer year yields a
// Fallback carrying the stem unchanged.
func Parse(stem string) models.Metadata {
	name := strings.ReplaceAll(stem, "_", "")

	authorPart, rest := "", name
	if i := strings.Index(name, "-"); i >= 0 {
		authorPart, rest = name[:i], name[i+1:]
	}

	open := strings.LastIndex(rest, "(")
	if open < 0 {
		return models.Fallback{Name: stem}
	}
	head, inner := rest[:open], rest[open+1:]

	yearText, tail := inner, ""
	if c := strings.Index(inner, ")"); c >= 0 {
		yearText, tail = inner[:c], inner[c+1:]
	}
	year, err := strconv.Atoi(strings.TrimSpace(yearText))
	if err != nil {
		return models.Fallback{Name: stem}
	}

	title, publisher := head, ""
	if t := strings.TrimSpace(tail); strings.HasPrefix(t, "-") {
		publisher = strings.TrimSpace(t[1:])
	} else if h := strings.LastIndex(head, "-"); h >= 0 {
		title, publisher = head[:h], strings.TrimSpace(head[h+1:])
	}

	return models.Structured{
		Authors:   splitAuthors(authorPart),
		Title:     strings.TrimSpace(title),
		Publisher: publisher,
		Year:      year,
	}
}

func splitAuthors(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// FileType returns the book format from a file suffix (".epub_" -> "epub").
func FileType(suffix string) string {
	return strings.ReplaceAll(strings.TrimPrefix(suffix, "."), "_", "")
}
