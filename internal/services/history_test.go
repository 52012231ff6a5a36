package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soochol/flowdesk/internal/repository"
	"github.com/soochol/flowdesk/internal/workflow"
)

type orphanRepo struct {
	*repository.MemoryExecutionRepository
	called bool
}

func (r *orphanRepo) MarkOrphanedExecutionsFailed(context.Context) (int64, error) {
	r.called = true
	return 2, nil
}

func TestExecutionHistory_StartFinish(t *testing.T) {
	ctx := context.Background()
	h := NewExecutionHistoryService(repository.NewMemoryExecutionRepository(0))

	exec, err := h.Start(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, workflow.ExecutionRunning, exec.Status)
	assert.Contains(t, exec.ID, "exec-")

	exec.Complete("hi", false)
	require.NoError(t, h.Finish(ctx, exec))

	list, total, err := h.List(ctx, 10, 0, workflow.ExecutionCompleted)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "hi", list[0].Response)
}

func TestExecutionHistory_CleanupOrphaned(t *testing.T) {
	repo := &orphanRepo{MemoryExecutionRepository: repository.NewMemoryExecutionRepository(0)}
	NewExecutionHistoryService(repo).CleanupOrphaned(context.Background())
	assert.True(t, repo.called)

	// Repositories without cleanup support are left alone.
	NewExecutionHistoryService(repository.NewMemoryExecutionRepository(0)).CleanupOrphaned(context.Background())
}
