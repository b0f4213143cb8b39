package vault

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/adrg/frontmatter"

	"github.com/starford/pocketnotes/internal/collection"
	"github.com/starford/pocketnotes/internal/models"
	"github.com/starford/pocketnotes/internal/storage"
)

// ExportStats summarises one export run.
type ExportStats struct {
	Written []string `json:"written"`
	Skipped []string `json:"skipped"`
}

// Writer exports a collection into a vault directory, one page per book.
type Writer struct {
	Store            storage.Provider
	Format           string
	SortByPage       bool
	OverwriteForeign bool
	Logger           *slog.Logger
}

// PageName returns the vault-relative file name for a book's page.
func PageName(bk *models.Book) string {
	name := strings.TrimSpace(bk.DisplayName())
	name = strings.NewReplacer("/", "-", "\\", "-").Replace(name)
	if name == "" {
		name = "book-" + strconv.Itoa(bk.ID)
	}
	return name + ".md"
}

// Export writes every book's page. Existing pages that were not generated
// by pocketnotes are skipped unless OverwriteForeign is set.
func (w *Writer) Export(ctx context.Context, coll *collection.Collection) (ExportStats, error) {
	if err := checkFormat(w.Format); err != nil {
		return ExportStats{}, err
	}

	var stats ExportStats
	for _, bk := range coll.Books {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		page := PageName(bk)

		if !w.OverwriteForeign {
			foreign, err := w.isForeign(page)
			if err != nil {
				return stats, err
			}
			if foreign {
				w.Logger.Warn("vault: skipping page not written by pocketnotes", slog.String("page", page))
				stats.Skipped = append(stats.Skipped, page)
				continue
			}
		}

		data, err := RenderBook(bk, w.Format, w.SortByPage)
		if err != nil {
			return stats, err
		}
		if err := w.Store.Write(page, data); err != nil {
			return stats, fmt.Errorf("vault: write %s: %w", page, err)
		}
		stats.Written = append(stats.Written, page)
		w.Logger.Debug("vault: wrote page", slog.String("page", page), slog.Int("notes", len(bk.Notes)))
	}

	w.Logger.Info("vault: exported",
		slog.Int("written", len(stats.Written)),
		slog.Int("skipped", len(stats.Skipped)))
	return stats, nil
}

// isForeign reports whether page exists without our generator marker.
func (w *Writer) isForeign(page string) (bool, error) {
	ok, err := w.Store.Exists(page)
	if err != nil || !ok {
		return false, err
	}
	data, err := w.Store.Read(page)
	if err != nil {
		return false, err
	}
	fm, ok := ReadFrontmatter(data)
	return !ok || fm.Generator != Generator, nil
}

// ReadFrontmatter parses the YAML frontmatter of a page. ok is false when
// it cannot be parsed.
func ReadFrontmatter(data []byte) (Frontmatter, bool) {
	var fm Frontmatter
	if _, err := frontmatter.Parse(bytes.NewReader(data), &fm); err != nil {
		return Frontmatter{}, false
	}
	return fm, true
}
