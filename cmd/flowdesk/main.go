package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/soochol/flowdesk/internal/config"
)

var version = "0.1.0"

func main() {
	cmd := &cli.Command{
		Name:    "flowdesk",
		Usage:   "Visual RAG workflow editor backend",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
				Value:   "config.yaml",
				Sources: cli.EnvVars("FLOWDESK_CONFIG"),
			},
		},
		Commands: []*cli.Command{
			newServeCommand(),
			newValidateCommand(),
			newRunCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("flowdesk failed", "err", err)
		os.Exit(1)
	}
}

// loadConfig reads the config named by --config and installs the default
// logger at the configured level.
func loadConfig(command *cli.Command) (*config.Config, error) {
	cfg, err := config.LoadFile(command.String("config"))
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	setupLogger(cfg.Log.Level)
	return cfg, nil
}

func setupLogger(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}
