package repository

import (
	"context"
	"log/slog"

	"github.com/soochol/flowdesk/internal/workflow"
)

// ExecutionDB defines the DB-layer methods needed by the persistent
// execution repo. *db.DB satisfies this interface.
type ExecutionDB interface {
	CreateExecution(ctx context.Context, e *workflow.Execution) error
	GetExecution(ctx context.Context, id string) (*workflow.Execution, error)
	UpdateExecution(ctx context.Context, e *workflow.Execution) error
	ListExecutions(ctx context.Context, limit, offset int, status string) ([]*workflow.Execution, int, error)
}

// PersistentExecutionRepository wraps a MemoryExecutionRepository with a
// PostgreSQL backend. Writes go to both stores; a DB failure is logged and
// the record stays in memory. Reads try memory first and fall back to the DB.
type PersistentExecutionRepository struct {
	mem *MemoryExecutionRepository
	db  ExecutionDB
}

func NewPersistentExecutionRepository(mem *MemoryExecutionRepository, db ExecutionDB) *PersistentExecutionRepository {
	return &PersistentExecutionRepository{mem: mem, db: db}
}

func (r *PersistentExecutionRepository) Create(ctx context.Context, e *workflow.Execution) error {
	_ = r.mem.Create(ctx, e)
	if err := r.db.CreateExecution(ctx, e); err != nil {
		slog.Warn("db create execution failed, in-memory only", "err", err)
	}
	return nil
}

func (r *PersistentExecutionRepository) Get(ctx context.Context, id string) (*workflow.Execution, error) {
	e, err := r.mem.Get(ctx, id)
	if err == nil {
		return e, nil
	}
	dbExec, dbErr := r.db.GetExecution(ctx, id)
	if dbErr != nil {
		return nil, err
	}
	_ = r.mem.Create(ctx, dbExec)
	return dbExec, nil
}

func (r *PersistentExecutionRepository) Update(ctx context.Context, e *workflow.Execution) error {
	memErr := r.mem.Update(ctx, e)
	if err := r.db.UpdateExecution(ctx, e); err != nil {
		slog.Warn("db update execution failed, in-memory only", "err", err)
		return memErr
	}
	if memErr != nil {
		_ = r.mem.Create(ctx, e)
	}
	return nil
}

func (r *PersistentExecutionRepository) List(ctx context.Context, limit, offset int, status workflow.ExecutionStatus) ([]*workflow.Execution, int, error) {
	out, total, err := r.db.ListExecutions(ctx, limit, offset, string(status))
	if err == nil {
		return out, total, nil
	}
	slog.Warn("db list executions failed, falling back to in-memory", "err", err)
	return r.mem.List(ctx, limit, offset, status)
}

// MarkOrphanedExecutionsFailed delegates to the database when it supports
// orphan cleanup.
func (r *PersistentExecutionRepository) MarkOrphanedExecutionsFailed(ctx context.Context) (int64, error) {
	type orphanCleaner interface {
		MarkOrphanedExecutionsFailed(ctx context.Context) (int64, error)
	}
	if c, ok := r.db.(orphanCleaner); ok {
		return c.MarkOrphanedExecutionsFailed(ctx)
	}
	return 0, nil
}
