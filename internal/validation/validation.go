// Package validation runs the structural checks a workflow must pass before
// it is sent to the runner.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/soochol/flowdesk/internal/dag"
	"github.com/soochol/flowdesk/internal/workflow"
)

var (
	ErrMissingEntryPoint = errors.New("workflow must have at least one User Query node")
	ErrMissingOutput     = errors.New("workflow must have at least one Output node")
)

// IsValidationError reports whether err blocks execution.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrMissingEntryPoint) || errors.Is(err, ErrMissingOutput)
}

// Code is the machine-readable name of a validation error.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrMissingEntryPoint):
		return "missing_entry_point"
	case errors.Is(err, ErrMissingOutput):
		return "missing_output"
	}
	return ""
}

type AdvisoryCode string

const (
	AdvisoryDisconnected AdvisoryCode = "disconnected_nodes"
	AdvisoryDangling     AdvisoryCode = "dangling_edges"
	AdvisoryCycle        AdvisoryCode = "cycle"
	AdvisoryDuplicateIDs AdvisoryCode = "duplicate_ids"
)

// Advisory is a non-fatal finding. Execution still proceeds.
type Advisory struct {
	Code    AdvisoryCode `json:"code"`
	Message string       `json:"message"`
	IDs     []string     `json:"ids,omitempty"`
}

// Report is the outcome of a successful validation.
type Report struct {
	Valid      bool       `json:"valid"`
	Advisories []Advisory `json:"advisories,omitempty"`
}

// Validate checks nodes and edges. The first failing rule wins: no User
// Query node, then no Output node. Otherwise the graph is valid and the
// report carries advisories about disconnected nodes, dangling edges,
// repeated ids and cycles.
func Validate(nodes []workflow.Node, edges []workflow.Edge) (Report, error) {
	if workflow.CountKind(nodes, workflow.KindUserQuery) == 0 {
		return Report{}, ErrMissingEntryPoint
	}
	if workflow.CountKind(nodes, workflow.KindOutput) == 0 {
		return Report{}, ErrMissingOutput
	}

	d := dag.Build(workflow.Snapshot{Nodes: nodes, Edges: edges})
	report := Report{Valid: true}

	if len(nodes) > 1 {
		if ids := d.Isolated(edges); len(ids) > 0 {
			report.Advisories = append(report.Advisories, Advisory{
				Code:    AdvisoryDisconnected,
				Message: fmt.Sprintf("some nodes are not connected: %s", strings.Join(ids, ", ")),
				IDs:     ids,
			})
		}
	}
	if dangling := d.DanglingEdges(); len(dangling) > 0 {
		ids := make([]string, len(dangling))
		for i, e := range dangling {
			ids[i] = e.ID
		}
		report.Advisories = append(report.Advisories, Advisory{
			Code:    AdvisoryDangling,
			Message: fmt.Sprintf("edges reference missing nodes: %s", strings.Join(ids, ", ")),
			IDs:     ids,
		})
	}
	if dups := d.DuplicateIDs(); len(dups) > 0 {
		report.Advisories = append(report.Advisories, Advisory{
			Code:    AdvisoryDuplicateIDs,
			Message: fmt.Sprintf("node ids used more than once: %s", strings.Join(dups, ", ")),
			IDs:     dups,
		})
	}
	if d.HasCycle() {
		report.Advisories = append(report.Advisories, Advisory{
			Code:    AdvisoryCycle,
			Message: "workflow graph contains a cycle",
		})
	}
	return report, nil
}

// Has reports whether the report carries an advisory with code.
func (r Report) Has(code AdvisoryCode) bool {
	for _, a := range r.Advisories {
		if a.Code == code {
			return true
		}
	}
	return false
}
