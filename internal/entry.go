// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/pocketnotes/internal/api"
	"github.com/starford/pocketnotes/internal/collection"
	"github.com/starford/pocketnotes/internal/library"
	"github.com/starford/pocketnotes/internal/parser"
	"github.com/starford/pocketnotes/internal/snapshot"
	"github.com/starford/pocketnotes/internal/sse"
	"github.com/starford/pocketnotes/internal/storage"
	"github.com/starford/pocketnotes/internal/vault"
	"github.com/starford/pocketnotes/internal/watch"
)

func newApplication(opts []Option) (*application, *slog.Logger, error) {
	app := &application{out: os.Stdout, logOut: os.Stderr}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}

	logger := newLogger(app.config.App, app.logOut)
	slog.SetDefault(logger)
	return app, logger, nil
}

func newLogger(cfg ApplicationConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == LogFormatText {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// components holds what every command shares.
type components struct {
	local   *storage.FS
	snap    *snapshot.DB
	builder *collection.Builder
	svc     *library.Service
}

func (c *components) Close() error {
	return c.snap.Close()
}

// open prepares the local collection directories, the snapshot and, when
// configured, the vault.
func (a *application) open(logger *slog.Logger) (*components, error) {
	cfg := a.config

	for _, dir := range []string{cfg.Collection.BooksDir, cfg.Collection.NotesDir} {
		if err := os.MkdirAll(filepath.Join(cfg.Collection.BaseDir, dir), 0o755); err != nil {
			return nil, fmt.Errorf("create collection dir: %w", err)
		}
	}

	local, err := storage.NewFS(cfg.Collection.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	snap, err := snapshot.Open(cfg.Collection.SnapshotPath())
	if err != nil {
		return nil, fmt.Errorf("init snapshot: %w", err)
	}

	b := &collection.Builder{
		Store:    local,
		BooksDir: cfg.Collection.BooksDir,
		NotesDir: cfg.Collection.NotesDir,
		Parser:   parser.New(cfg.Extract.Colors, cfg.Extract.Tags),
		Logger:   logger,
	}

	var vw *vault.Writer
	if cfg.Export.Enabled() {
		if err := os.MkdirAll(cfg.Export.VaultPath, 0o755); err != nil {
			snap.Close()
			return nil, fmt.Errorf("create vault dir: %w", err)
		}
		vaultFS, err := storage.NewFS(cfg.Export.VaultPath)
		if err != nil {
			snap.Close()
			return nil, fmt.Errorf("init vault storage: %w", err)
		}
		vw = &vault.Writer{
			Store:            vaultFS,
			Format:           cfg.Export.Format,
			SortByPage:       cfg.Export.SortByPage,
			OverwriteForeign: cfg.Export.OverwriteForeign,
			Logger:           logger,
		}
	}

	return &components{
		local:   local,
		snap:    snap,
		builder: b,
		svc:     library.NewService(b, snap, vw, nil, logger),
	}, nil
}

// Run starts the HTTP API, the event stream and the file watcher, and
// blocks until ctx is cancelled or a shutdown signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	app, logger, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("base_dir", cfg.Collection.BaseDir),
		slog.String("snapshot", cfg.Collection.SnapshotPath()),
		slog.String("vault_path", cfg.Export.VaultPath),
		slog.String("log_level", cfg.App.LogLevel.String()))

	c, err := app.open(logger)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.svc.Load(ctx, cfg.Collection.Update); err != nil {
		return fmt.Errorf("load collection: %w", err)
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()
	c.svc.SetNotifier(broker)

	apiRouter := api.NewRouter(c.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Rebuild (and re-export) when the collection directories change.
	g.Go(func() error {
		dirs := []string{
			filepath.Join(c.local.Root(), cfg.Collection.BooksDir),
			filepath.Join(c.local.Root(), cfg.Collection.NotesDir),
		}
		return watch.Watch(gCtx, dirs, watch.DefaultDebounce, logger, func(paths []string) {
			logger.Debug("collection changed", slog.Int("paths", len(paths)))
			rebuilt, err := c.svc.Refresh(gCtx)
			if err != nil {
				logger.Error("refresh failed", slog.String("error", err.Error()))
				return
			}
			if !rebuilt || !cfg.Export.Enabled() {
				return
			}
			if _, err := c.svc.Export(gCtx); err != nil {
				logger.Error("export failed", slog.String("error", err.Error()))
			}
		})
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return context.Canceled
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
