package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/pocketnotes/internal"
	pkgconfig "github.com/starford/pocketnotes/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func extract(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	switch {
	case cmd.Bool("no-update"):
		cfg.Collection.Update = false
	case cmd.Bool("update"):
		cfg.Collection.Update = true
	}
	if v := cmd.String("vault"); v != "" {
		cfg.Export.VaultPath = v
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithSkipDevice(cmd.Bool("skip-device")),
	}

	if err := internal.Extract(ctx, opts...); err != nil {
		return fmt.Errorf("extract error: %w", err)
	}
	return nil
}

func match(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.Match(ctx, internal.WithConfig(cfg))
}

func query(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.Query(ctx, cmd.StringSlice("where"), cmd.Bool("verbose"), internal.WithConfig(cfg))
}

func search(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	q := cmd.Args().First()
	if q == "" {
		return fmt.Errorf("search: query argument is required")
	}
	return internal.Search(ctx, q, int(cmd.Int("limit")), internal.WithConfig(cfg))
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx, internal.WithConfig(cfg))
}

func main() {
	cmd := &cli.Command{
		Name:           "pocketnotes",
		Usage:          "Extract PocketBook highlights into a Markdown vault, with query, search and an HTTP/MCP surface",
		DefaultCommand: "extract",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file (.yaml or .toml)",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "extract",
				Usage:  "Copy files from the reader, build the collection and export the vault",
				Action: extract,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "update", Usage: "Rebuild from the note files"},
					&cli.BoolFlag{Name: "no-update", Usage: "Reuse the saved snapshot when present"},
					&cli.StringFlag{Name: "vault", Usage: "Vault directory (overrides export.vault_path)"},
					&cli.BoolFlag{Name: "skip-device", Usage: "Do not copy from a connected reader"},
				},
			},
			{
				Name:   "match",
				Usage:  "Pair books with bookmark exports and list what stayed unmatched",
				Action: match,
			},
			{
				Name:   "query",
				Usage:  "Print notes whose fields match",
				Action: query,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "where", Aliases: []string{"w"}, Usage: "field=value, repeatable; repeated fields are OR'd", Required: true},
					&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Print every note field"},
				},
			},
			{
				Name:      "search",
				Usage:     "Full-text search over highlights",
				ArgsUsage: "<query>",
				Action:    search,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: 20, Usage: "Maximum number of hits"},
				},
			},
			{
				Name:   "serve",
				Usage:  "Serve the HTTP API and event stream and rebuild on file changes",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: mcp,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
