package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/neuralnotes/internal"
	pkgconfig "github.com/starford/neuralnotes/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
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

func importFolder(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	folder := cmd.Args().First()
	if folder == "" {
		return fmt.Errorf("folder argument is required")
	}
	return internal.RunImport(ctx, internal.ImportParams{
		Folder:  folder,
		VaultID: cmd.String("vault"),
	}, internal.WithConfig(cfg), internal.WithLogger(stderrLogger(cfg)))
}

func export(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	dir := cmd.Args().First()
	if dir == "" {
		return fmt.Errorf("directory argument is required")
	}
	return internal.RunExport(ctx, cmd.String("vault"), dir,
		internal.WithConfig(cfg), internal.WithLogger(stderrLogger(cfg)))
}

func relink(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunRelink(ctx, cmd.String("vault"),
		internal.WithConfig(cfg), internal.WithLogger(stderrLogger(cfg)))
}

func graph(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := internal.DiscardLogger()
	if path := cmd.String("log-file"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logger = internal.NewLogger(f, cfg.App.LogLevel, cfg.App.LogFormat)
	}
	return internal.RunGraph(ctx, cmd.String("vault"),
		internal.WithConfig(cfg), internal.WithLogger(logger))
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg), internal.WithLogger(stderrLogger(cfg)))
}

// stderrLogger keeps stdout free for command output.
func stderrLogger(cfg *internal.Config) *slog.Logger {
	return internal.NewLogger(os.Stderr, cfg.App.LogLevel, cfg.App.LogFormat)
}

func vaultFlag(required bool) cli.Flag {
	return &cli.StringFlag{
		Name:     "vault",
		Usage:    "Vault ID",
		Required: required,
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "neuralnotes",
		Usage:   "Vaults of linked markdown notes with wikilink resolution and a force-directed graph",
		Version: internal.Version,
		Action:  serve,
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
				Usage:  "Run the HTTP API",
				Action: serve,
			},
			{
				Name:      "import",
				Usage:     "Import a folder of markdown files. Without --vault a new vault is created",
				ArgsUsage: "<folder>",
				Flags:     []cli.Flag{vaultFlag(false)},
				Action:    importFolder,
			},
			{
				Name:      "export",
				Usage:     "Write every note of a vault to a folder",
				ArgsUsage: "<dir>",
				Flags:     []cli.Flag{vaultFlag(true)},
				Action:    export,
			},
			{
				Name:   "relink",
				Usage:  "Re-resolve the wikilinks of every note in a vault",
				Flags:  []cli.Flag{vaultFlag(true)},
				Action: relink,
			},
			{
				Name:  "graph",
				Usage: "Open the interactive graph of a vault in the terminal",
				Flags: []cli.Flag{
					vaultFlag(true),
					&cli.StringFlag{
						Name:  "log-file",
						Usage: "Write logs to this file while the view is open",
					},
				},
				Action: graph,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: mcp,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		stop()
		os.Exit(1)
	}
}
