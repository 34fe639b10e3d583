package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/speeddial/internal"
	"github.com/starford/speeddial/internal/dashboard"
	"github.com/starford/speeddial/internal/mcpserver"
	pkgconfig "github.com/starford/speeddial/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

// openService opens the configured store for a one-shot command. Logs go to
// stderr so stdout stays clean for exported documents and MCP traffic.
func openService(ctx context.Context, cmd *cli.Command) (*dashboard.Service, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	logger, logFile := internal.NewLogger(cfg.App, os.Stderr)
	store, err := internal.OpenStore(cfg.Store)
	if err != nil {
		_ = logFile.Close()
		return nil, nil, fmt.Errorf("init store: %w", err)
	}
	svc := dashboard.NewService(ctx, store, logger)
	return svc, func() {
		_ = store.Close()
		_ = logFile.Close()
	}, nil
}

func exportCmd(ctx context.Context, cmd *cli.Command) error {
	svc, closeFn, err := openService(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	data, err := svc.Export(ctx)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if out := cmd.String("out"); out != "" {
		return os.WriteFile(out, data, 0o644)
	}
	_, err = os.Stdout.Write(append(data, '\n'))
	return err
}

func importCmd(ctx context.Context, cmd *cli.Command) error {
	return importFile(ctx, cmd, cmd.String("format"))
}

func migrateCmd(ctx context.Context, cmd *cli.Command) error {
	return importFile(ctx, cmd, "legacy")
}

func importFile(ctx context.Context, cmd *cli.Command, format string) error {
	path := cmd.Args().First()
	if path == "" {
		return errors.New("a backup file path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	svc, closeFn, err := openService(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	switch format {
	case "native":
		err = svc.ImportNative(ctx, data)
	case "legacy":
		err = svc.ImportLegacy(ctx, data)
	case "", "auto":
		err = svc.Import(ctx, data)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}
	fmt.Fprintf(os.Stderr, "imported %s: %d pages, %d tiles\n", path, len(svc.Pages(ctx)), len(svc.Snapshot(ctx).Tiles))
	return nil
}

func resetCmd(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Bool("yes") {
		return errors.New("reset erases every page, tile and setting; pass --yes to confirm")
	}
	svc, closeFn, err := openService(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeFn()
	return svc.Reset(ctx)
}

func mcpCmd(ctx context.Context, cmd *cli.Command) error {
	svc, closeFn, err := openService(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	var opts []mcpserver.Option
	if cmd.Bool("allow-loopback-fetch") {
		opts = append(opts, mcpserver.WithLoopbackFetch())
	}
	return mcpserver.New(svc, opts...).ServeStdio()
}

func main() {
	cmd := &cli.Command{
		Name:   "speeddial",
		Usage:  "Start-page state server with pages, tiles, settings, import and export",
		Action: run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API (default)",
				Action: run,
			},
			{
				Name:  "export",
				Usage: "Write a backup document",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output file (default stdout)"},
				},
				Action: exportCmd,
			},
			{
				Name:      "import",
				Usage:     "Replace state from a backup document",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Value: "auto", Usage: "auto, native or legacy"},
				},
				Action: importCmd,
			},
			{
				Name:      "migrate",
				Usage:     "Import a legacy groups/dials export",
				ArgsUsage: "<file>",
				Action:    migrateCmd,
			},
			{
				Name:  "reset",
				Usage: "Restore first-run defaults",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Usage: "Confirm the reset"},
				},
				Action: resetCmd,
			},
			{
				Name:  "mcp",
				Usage: "Serve MCP tools over stdio",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "allow-loopback-fetch", Usage: "Allow set_background to fetch private addresses"},
				},
				Action: mcpCmd,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
