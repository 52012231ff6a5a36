package main

import (
	"context"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"

	"github.com/soochol/flowdesk/internal/config"
	"github.com/soochol/flowdesk/internal/db"
	"github.com/soochol/flowdesk/internal/graph"
	"github.com/soochol/flowdesk/internal/repository"
	"github.com/soochol/flowdesk/internal/runner"
	"github.com/soochol/flowdesk/internal/services"
	"github.com/soochol/flowdesk/internal/storage"
)

// app is the set of components shared by every subcommand.
type app struct {
	store     *graph.Store
	runner    *runner.Orchestrator
	history   *services.ExecutionHistoryService
	chat      *services.ChatService
	knowledge *services.KnowledgeService
	closers   []func() error
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	policy, err := runner.ParseFallbackPolicy(cfg.Runner.Fallback)
	if err != nil {
		return nil, err
	}
	a := &app{
		store: graph.New(
			graph.WithStrictIDs(cfg.Graph.StrictIDs),
			graph.WithStrictEdges(cfg.Graph.StrictEdges),
		),
		runner: runner.New(runner.Config{
			BaseURL:        cfg.Runner.BaseURL,
			Timeout:        cfg.Runner.Timeout,
			Fallback:       policy,
			SimulatedDelay: cfg.Runner.SimulatedDelay,
			UploadDelay:    cfg.Runner.UploadDelay,
		}),
	}

	mem := repository.NewMemoryExecutionRepository(repository.DefaultExecutionCapacity)
	var execRepo repository.ExecutionRepository = mem
	if cfg.Database.URL != "" {
		database, err := db.New(ctx, cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		if err := database.Migrate(ctx); err != nil {
			database.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		a.closers = append(a.closers, database.Close)
		execRepo = repository.NewPersistentExecutionRepository(mem, database)
		slog.Info("execution history backed by postgres")
	}
	a.history = services.NewExecutionHistoryService(execRepo)
	a.history.CleanupOrphaned(ctx)

	var files storage.Storage
	if cfg.Storage.Dir != "" {
		local, err := storage.NewLocalStorage(cfg.Storage.Dir)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open storage: %w", err)
		}
		files = local
	}

	a.chat = services.NewChatService(a.store, a.runner, a.history)
	a.knowledge = services.NewKnowledgeService(a.store, a.runner, files)
	return a, nil
}

// Close waits for background runs and releases the database.
func (a *app) Close() {
	if a.chat != nil {
		a.chat.Wait()
	}
	a.store.Close()
	for _, c := range a.closers {
		if err := c(); err != nil {
			slog.Warn("close failed", "err", err)
		}
	}
}
