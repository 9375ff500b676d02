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

	"github.com/nikbrunner/autobm/internal/app"
	"github.com/nikbrunner/autobm/internal/config"
)

func main() {
	cmd := &cli.Command{
		Name:  "autobm",
		Usage: "Bookmark the links you click into a dedicated folder",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "~/.config/autobm/config.yaml",
				Sources:     cli.EnvVars("AUTOBM_CONFIG"),
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			clickCommand(),
			popupCommand(),
			statusCommand(),
			searchCommand(),
			importCommand(),
			exportCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("autobm failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// loadConfig reads the --config file. Without the flag the default
// location is optional.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	path := cmd.String("config")
	required := path != ""
	if !required {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return nil, err
		}
	}
	return config.Load(path, required)
}

// openApp loads configuration and opens the store. Short commands log as
// text to stderr; the server logs JSON to stdout.
func openApp(cmd *cli.Command, server bool) (*app.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	out := os.Stderr
	if server {
		out = os.Stdout
	}
	logger := app.NewLogger(out, cfg.App.LogLevel, server)
	slog.SetDefault(logger)

	return app.Open(cfg, app.WithLogger(logger))
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the coordinator and its message port",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := openApp(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return a.Serve(ctx)
		},
	}
}
