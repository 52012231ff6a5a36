package repository

import (
	"context"
	"errors"

	memstore "github.com/soochol/flowdesk/internal/repository/memory"
	"github.com/soochol/flowdesk/internal/workflow"
)

// DefaultExecutionCapacity bounds the in-memory execution history.
const DefaultExecutionCapacity = 1000

// MemoryExecutionRepository keeps executions in memory, evicting the oldest
// once capacity is reached. Records are copied in and out so callers may keep
// mutating their own.
type MemoryExecutionRepository struct {
	store *memstore.Store[*workflow.Execution]
}

func NewMemoryExecutionRepository(capacity int) *MemoryExecutionRepository {
	if capacity <= 0 {
		capacity = DefaultExecutionCapacity
	}
	return &MemoryExecutionRepository{
		store: memstore.NewBounded(func(e *workflow.Execution) string { return e.ID }, capacity),
	}
}

func (r *MemoryExecutionRepository) Create(ctx context.Context, e *workflow.Execution) error {
	return r.store.Set(ctx, copyExecution(e))
}

func (r *MemoryExecutionRepository) Get(ctx context.Context, id string) (*workflow.Execution, error) {
	e, err := r.store.Get(ctx, id)
	if errors.Is(err, memstore.ErrNotFound) {
		return nil, ErrExecutionNotFound
	}
	if err != nil {
		return nil, err
	}
	return copyExecution(e), nil
}

func (r *MemoryExecutionRepository) Update(ctx context.Context, e *workflow.Execution) error {
	if err := r.store.Replace(ctx, copyExecution(e)); errors.Is(err, memstore.ErrNotFound) {
		return ErrExecutionNotFound
	}
	return nil
}

func (r *MemoryExecutionRepository) List(ctx context.Context, limit, offset int, status workflow.ExecutionStatus) ([]*workflow.Execution, int, error) {
	all := r.store.Filter(ctx, func(e *workflow.Execution) bool {
		return status == "" || e.Status == status
	})
	total := len(all)
	page := paginate(all, limit, offset)
	out := make([]*workflow.Execution, len(page))
	for i, e := range page {
		out[i] = copyExecution(e)
	}
	return out, total, nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

func copyExecution(e *workflow.Execution) *workflow.Execution {
	c := *e
	if e.CompletedAt != nil {
		t := *e.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}
