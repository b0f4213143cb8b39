package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/starford/pocketnotes/internal/apperr"
	"github.com/starford/pocketnotes/internal/collection"
	"github.com/starford/pocketnotes/internal/device"
	"github.com/starford/pocketnotes/internal/library"
	"github.com/starford/pocketnotes/internal/mcpserver"
)

// Extract copies new files from a connected reader, builds or loads the
// collection, saves the snapshot and exports the vault when one is
// configured.
func Extract(ctx context.Context, opts ...Option) error {
	app, logger, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	c, err := app.open(logger)
	if err != nil {
		return err
	}
	defer c.Close()

	if !app.skipDevice {
		if err := app.syncDevice(ctx, c, logger); err != nil {
			return err
		}
	}

	if err := c.svc.Load(ctx, cfg.Collection.Update); err != nil {
		return fmt.Errorf("load collection: %w", err)
	}
	coll := c.svc.Collection()
	fmt.Fprintf(app.out, "books: %d, notes: %d\n", len(coll.Books), coll.Len())

	if !cfg.Export.Enabled() {
		logger.Info("no vault configured, skipping export")
		return nil
	}
	stats, err := c.svc.Export(ctx)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	fmt.Fprintf(app.out, "exported: %d, skipped: %d\n", len(stats.Written), len(stats.Skipped))
	for _, p := range stats.Skipped {
		fmt.Fprintf(app.out, "  skipped (not generated by pocketnotes): %s\n", p)
	}
	return nil
}

func (a *application) syncDevice(ctx context.Context, c *components, logger *slog.Logger) error {
	cfg := a.config.Device
	d, err := device.Detect(cfg.Name, cfg.Path, cfg.MountRoots)
	if errors.Is(err, apperr.ErrNotConnected) {
		logger.Info("device not connected, using local files", slog.String("device", cfg.Name))
		return nil
	}
	if err != nil {
		return err
	}
	d.BooksDir, d.NotesDir = cfg.BooksDir, cfg.NotesDir

	if _, err := d.Sync(ctx, c.local, a.config.Collection.BooksDir, a.config.Collection.NotesDir, logger); err != nil {
		return fmt.Errorf("sync device: %w", err)
	}
	return nil
}

// Match pairs the local books with their bookmark exports and prints the
// pairs followed by whatever stayed unmatched.
func Match(ctx context.Context, opts ...Option) error {
	app, logger, err := newApplication(opts)
	if err != nil {
		return err
	}

	c, err := app.open(logger)
	if err != nil {
		return err
	}
	defer c.Close()

	res, err := c.builder.Match()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(app.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tBOOK\tNOTES")
	for _, p := range res.Pairs {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", p.ID, p.Book.Path, p.Note.Path)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(res.LeftoverNotes) > 0 {
		fmt.Fprintln(app.out, "\nnotes without a book:")
		for _, f := range res.LeftoverNotes {
			fmt.Fprintf(app.out, "  %s\n", f.Path)
		}
	}
	if len(res.LeftoverBooks) > 0 {
		fmt.Fprintln(app.out, "\nbooks without notes:")
		for _, f := range res.LeftoverBooks {
			fmt.Fprintf(app.out, "  %s\n", f.Path)
		}
	}
	return nil
}

// Query prints the notes matching terms ("field=value", repeated fields
// OR'd). It returns an error wrapping apperr.ErrNoResults when nothing
// matches.
func Query(ctx context.Context, terms []string, verbose bool, opts ...Option) error {
	q, err := collection.ParseQuery(terms)
	if err != nil {
		return err
	}

	app, logger, err := newApplication(opts)
	if err != nil {
		return err
	}

	c, err := app.open(logger)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.svc.Load(ctx, app.config.Collection.Update); err != nil {
		return fmt.Errorf("load collection: %w", err)
	}

	notes, err := c.svc.Query(q)
	if err != nil {
		return err
	}

	if verbose {
		for _, n := range notes {
			fmt.Fprint(app.out, n.String())
		}
		return nil
	}
	out, err := library.NoteStrings(notes, app.config.Export.Format)
	if err != nil {
		return err
	}
	fmt.Fprint(app.out, out)
	return nil
}

// Search prints full-text hits from the saved snapshot.
func Search(ctx context.Context, query string, limit int, opts ...Option) error {
	app, logger, err := newApplication(opts)
	if err != nil {
		return err
	}

	c, err := app.open(logger)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.svc.Load(ctx, app.config.Collection.Update); err != nil {
		return fmt.Errorf("load collection: %w", err)
	}

	hits, err := c.svc.Search(query, limit)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		return fmt.Errorf("search %q: %w", query, apperr.ErrNoResults)
	}

	tw := tabwriter.NewWriter(app.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BOOK\tPAGE\tSNIPPET")
	for _, h := range hits {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", h.BookName, h.PageNumber, h.Snippet)
	}
	return tw.Flush()
}

// ServeMCP loads the collection and serves MCP tools over stdio.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, logger, err := newApplication(opts)
	if err != nil {
		return err
	}

	c, err := app.open(logger)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.svc.Load(ctx, app.config.Collection.Update); err != nil {
		return fmt.Errorf("load collection: %w", err)
	}

	logger.Info("MCP server starting on stdio")
	return mcpserver.New(c.svc).ServeStdio()
}
