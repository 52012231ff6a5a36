package repository

import (
	"context"
	"errors"

	"github.com/soochol/flowdesk/internal/workflow"
)

// ErrExecutionNotFound is returned when an execution id is unknown.
var ErrExecutionNotFound = errors.New("execution not found")

// ExecutionRepository persists the record of each workflow run.
type ExecutionRepository interface {
	Create(ctx context.Context, e *workflow.Execution) error
	Get(ctx context.Context, id string) (*workflow.Execution, error)
	Update(ctx context.Context, e *workflow.Execution) error
	// List returns executions newest first and the total number matching.
	// An empty status matches all.
	List(ctx context.Context, limit, offset int, status workflow.ExecutionStatus) ([]*workflow.Execution, int, error)
}
