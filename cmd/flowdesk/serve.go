package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/soochol/flowdesk/internal/api"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP API server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "static",
				Usage: "Directory of a built frontend to serve (overrides server.static_dir)",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			cfg, err := loadConfig(command)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			srv := api.NewServer(a.store, a.chat, a.knowledge, a.history)
			staticDir := cfg.Server.StaticDir
			if dir := command.String("static"); dir != "" {
				staticDir = dir
			}
			if staticDir != "" {
				srv.SetStaticDir(staticDir)
			}

			httpServer := &http.Server{
				Addr:              cfg.Addr(),
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			httpServer.RegisterOnShutdown(srv.CloseStreams)

			errCh := make(chan error, 1)
			go func() {
				slog.Info("starting flowdesk server", "addr", httpServer.Addr,
					"runner", cfg.Runner.BaseURL, "fallback", a.runner.Policy())
				errCh <- httpServer.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server: %w", err)
				}
			case <-ctx.Done():
				slog.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := httpServer.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("shutdown: %w", err)
				}
			}
			return nil
		},
	}
}
