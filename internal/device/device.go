// Package device finds a mounted PocketBook reader and copies its books
// and bookmark exports into the local collection.
package device

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/pocketnotes/internal/apperr"
	"github.com/starford/pocketnotes/internal/storage"
)

// Default directories on the reader's volume.
const (
	DefaultName     = "PB741"
	DefaultBooksDir = "Downloads"
	DefaultNotesDir = "Notes"
)

// Device is a mounted reader.
type Device struct {
	Name     string
	Root     string // mount point
	BooksDir string // relative to Root
	NotesDir string // relative to Root
}

// Detect returns the device mounted at explicitPath, or the first
// directory named name under one of mountRoots. It returns
// apperr.ErrNotConnected when neither exists.
func Detect(name, explicitPath string, mountRoots []string) (*Device, error) {
	candidates := []string{explicitPath}
	if explicitPath == "" {
		candidates = candidates[:0]
		for _, root := range mountRoots {
			candidates = append(candidates, filepath.Join(root, name))
		}
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			return &Device{Name: name, Root: c, BooksDir: DefaultBooksDir, NotesDir: DefaultNotesDir}, nil
		}
	}
	return nil, fmt.Errorf("device: %s: %w", name, apperr.ErrNotConnected)
}

// SyncStats counts the files handled by Sync.
type SyncStats struct {
	Copied  int `json:"copied"`
	Skipped int `json:"skipped"`
}

// Sync copies every file in the device's books and notes directories into
// booksRel and notesRel of the local store. Existing local files are
// replaced; a destination that is the source file itself is skipped.
func (d *Device) Sync(ctx context.Context, local *storage.FS, booksRel, notesRel string, logger *slog.Logger) (SyncStats, error) {
	var stats SyncStats
	for _, pair := range [][2]string{{d.BooksDir, booksRel}, {d.NotesDir, notesRel}} {
		if err := d.syncDir(ctx, local, pair[0], pair[1], &stats, logger); err != nil {
			return stats, err
		}
	}
	logger.Info("device: synced",
		slog.String("device", d.Name),
		slog.Int("copied", stats.Copied),
		slog.Int("skipped", stats.Skipped))
	return stats, nil
}

func (d *Device) syncDir(ctx context.Context, local *storage.FS, srcRel, dstRel string, stats *SyncStats, logger *slog.Logger) error {
	srcDir := filepath.Join(d.Root, srcRel)
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return fmt.Errorf("device: list %s: %w", srcDir, err)
	}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		src := filepath.Join(srcDir, e.Name())
		dst := filepath.Join(dstRel, e.Name())

		same, err := sameFile(local, src, dst)
		if err != nil {
			return err
		}
		if same {
			stats.Skipped++
			continue
		}
		if err := local.Import(src, dst); err != nil {
			return fmt.Errorf("device: copy %s: %w", e.Name(), err)
		}
		stats.Copied++
		logger.Debug("device: copied", slog.String("file", dst))
	}
	return nil
}

func sameFile(local *storage.FS, src, dstRel string) (bool, error) {
	dst, err := local.Abs(dstRel)
	if err != nil {
		return false, err
	}
	di, err := os.Stat(dst)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("device: stat %s: %w", dst, err)
	}
	si, err := os.Stat(src)
	if err != nil {
		return false, fmt.Errorf("device: stat %s: %w", src, err)
	}
	return os.SameFile(si, di), nil
}
