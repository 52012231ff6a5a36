package workflow

import "time"

// ExecutionStatus is the lifecycle state of an Execution.
type ExecutionStatus string

const (
	ExecutionRunning   ExecutionStatus = "running"
	ExecutionCompleted ExecutionStatus = "completed"
	ExecutionError     ExecutionStatus = "error"
)

// Execution records one run of the workflow against a query.
type Execution struct {
	ID          string          `json:"id"`
	Status      ExecutionStatus `json:"status"`
	Query       string          `json:"query"`
	Response    string          `json:"response,omitempty"`
	Error       string          `json:"error,omitempty"`
	Simulated   bool            `json:"simulated"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// Complete marks the execution completed with the runner's response.
func (e *Execution) Complete(response string, simulated bool) {
	now := time.Now()
	e.Status = ExecutionCompleted
	e.Response = response
	e.Simulated = simulated
	e.CompletedAt = &now
}

// Fail marks the execution as errored.
func (e *Execution) Fail(msg string) {
	now := time.Now()
	e.Status = ExecutionError
	e.Error = msg
	e.CompletedAt = &now
}
