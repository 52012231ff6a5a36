package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/soochol/flowdesk/internal/workflow"
)

const executionColumns = `id, status, query, response, error, simulated, created_at, completed_at`

// CreateExecution inserts a new execution record.
func (d *DB) CreateExecution(ctx context.Context, e *workflow.Execution) error {
	_, err := d.Pool.ExecContext(ctx,
		`INSERT INTO executions (`+executionColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, string(e.Status), e.Query, e.Response, e.Error, e.Simulated, e.CreatedAt, e.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert execution: %w", err)
	}
	return nil
}

// GetExecution returns the execution with the given id.
func (d *DB) GetExecution(ctx context.Context, id string) (*workflow.Execution, error) {
	row := d.Pool.QueryRowContext(ctx,
		`SELECT `+executionColumns+` FROM executions WHERE id = $1`, id)
	e, err := scanExecution(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("execution %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get execution: %w", err)
	}
	return e, nil
}

// UpdateExecution stores the outcome of an execution.
func (d *DB) UpdateExecution(ctx context.Context, e *workflow.Execution) error {
	_, err := d.Pool.ExecContext(ctx,
		`UPDATE executions SET status = $1, response = $2, error = $3, simulated = $4, completed_at = $5
		 WHERE id = $6`,
		string(e.Status), e.Response, e.Error, e.Simulated, e.CompletedAt, e.ID,
	)
	if err != nil {
		return fmt.Errorf("update execution: %w", err)
	}
	return nil
}

// ListExecutions returns executions newest first. An empty status matches
// every execution and a non-positive limit means no limit.
func (d *DB) ListExecutions(ctx context.Context, limit, offset int, status string) ([]*workflow.Execution, int, error) {
	if limit <= 0 {
		limit = math.MaxInt32
	}
	var total int
	if err := d.Pool.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM executions WHERE ($1::text = '' OR status = $1)`, status,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count executions: %w", err)
	}

	rows, err := d.Pool.QueryContext(ctx,
		`SELECT `+executionColumns+` FROM executions
		 WHERE ($1::text = '' OR status = $1)
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		status, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list executions: %w", err)
	}
	defer rows.Close()

	var out []*workflow.Execution
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan execution: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list executions: %w", err)
	}
	return out, total, nil
}

// MarkOrphanedExecutionsFailed fails executions left running by a previous
// process and returns how many were updated.
func (d *DB) MarkOrphanedExecutionsFailed(ctx context.Context) (int64, error) {
	res, err := d.Pool.ExecContext(ctx,
		`UPDATE executions SET status = $1, error = $2, completed_at = NOW() WHERE status = $3`,
		string(workflow.ExecutionError), "interrupted by server restart", string(workflow.ExecutionRunning),
	)
	if err != nil {
		return 0, fmt.Errorf("mark orphaned executions: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExecution(s scanner) (*workflow.Execution, error) {
	var (
		e         workflow.Execution
		status    string
		completed sql.NullTime
	)
	if err := s.Scan(&e.ID, &status, &e.Query, &e.Response, &e.Error, &e.Simulated, &e.CreatedAt, &completed); err != nil {
		return nil, err
	}
	e.Status = workflow.ExecutionStatus(status)
	if completed.Valid {
		t := completed.Time
		e.CompletedAt = &t
	}
	return &e, nil
}
