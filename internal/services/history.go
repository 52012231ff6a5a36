package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/soochol/flowdesk/internal/repository"
	"github.com/soochol/flowdesk/internal/workflow"
)

// ExecutionHistoryService manages execution records.
type ExecutionHistoryService struct {
	repo repository.ExecutionRepository
}

func NewExecutionHistoryService(repo repository.ExecutionRepository) *ExecutionHistoryService {
	return &ExecutionHistoryService{repo: repo}
}

// Start creates a running execution for query.
func (s *ExecutionHistoryService) Start(ctx context.Context, query string) (*workflow.Execution, error) {
	exec := &workflow.Execution{
		ID:        workflow.GenerateID("exec"),
		Status:    workflow.ExecutionRunning,
		Query:     query,
		CreatedAt: time.Now(),
	}
	if err := s.repo.Create(ctx, exec); err != nil {
		return nil, err
	}
	return exec, nil
}

// Finish stores the final state of exec.
func (s *ExecutionHistoryService) Finish(ctx context.Context, exec *workflow.Execution) error {
	return s.repo.Update(ctx, exec)
}

func (s *ExecutionHistoryService) Get(ctx context.Context, id string) (*workflow.Execution, error) {
	return s.repo.Get(ctx, id)
}

// List returns executions newest first. status filters when non-empty.
func (s *ExecutionHistoryService) List(ctx context.Context, limit, offset int, status workflow.ExecutionStatus) ([]*workflow.Execution, int, error) {
	return s.repo.List(ctx, limit, offset, status)
}

// CleanupOrphaned fails executions a previous process left running.
// Should be called once at server startup.
func (s *ExecutionHistoryService) CleanupOrphaned(ctx context.Context) {
	type orphanCleaner interface {
		MarkOrphanedExecutionsFailed(ctx context.Context) (int64, error)
	}
	c, ok := s.repo.(orphanCleaner)
	if !ok {
		return
	}
	n, err := c.MarkOrphanedExecutionsFailed(ctx)
	if err != nil {
		slog.Warn("failed to clean up orphaned executions", "err", err)
		return
	}
	if n > 0 {
		slog.Info("marked orphaned executions as failed", "count", n)
	}
}
