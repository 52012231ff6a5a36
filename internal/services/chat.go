// Package services holds the operations the API and CLI drive: sending a
// query through the workflow, ingesting knowledge base documents and
// keeping execution history.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/soochol/flowdesk/internal/graph"
	"github.com/soochol/flowdesk/internal/runner"
	"github.com/soochol/flowdesk/internal/validation"
	"github.com/soochol/flowdesk/internal/workflow"
)

var (
	ErrEmptyQuery        = errors.New("query is empty")
	ErrExecutionInFlight = errors.New("an execution is already in progress")
)

// EmptyResponseText replaces an empty runner response in the transcript.
const EmptyResponseText = "Workflow completed successfully!"

// Runner executes a workflow snapshot. *runner.Orchestrator satisfies it.
type Runner interface {
	Run(ctx context.Context, query string, snap workflow.Snapshot) (*runner.Result, error)
}

// ChatService turns user queries into workflow executions and records both
// sides of the exchange in the store's transcript. At most one execution
// is in flight; the store's executing flag is the gate.
type ChatService struct {
	store   *graph.Store
	runner  Runner
	history *ExecutionHistoryService
	wg      sync.WaitGroup
}

func NewChatService(store *graph.Store, r Runner, history *ExecutionHistoryService) *ChatService {
	return &ChatService{store: store, runner: r, history: history}
}

// Begin claims the executing flag, validates the current graph, appends the
// user's message and opens an execution record. On error nothing is
// appended and the flag is left as it was found.
func (s *ChatService) Begin(ctx context.Context, query string) (*workflow.Execution, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if !s.store.TryBeginExecution() {
		return nil, ErrExecutionInFlight
	}

	snap := s.store.Snapshot()
	report, err := validation.Validate(snap.Nodes, snap.Edges)
	if err != nil {
		s.store.SetIsExecuting(false)
		return nil, err
	}
	for _, a := range report.Advisories {
		slog.Warn("workflow advisory", "code", a.Code, "message", a.Message, "ids", a.IDs)
	}

	exec, err := s.history.Start(ctx, query)
	if err != nil {
		s.store.SetIsExecuting(false)
		return nil, fmt.Errorf("start execution: %w", err)
	}
	s.store.AddChatMessage(workflow.NewChatMessage(workflow.RoleUser, query))
	s.store.SetExecution(exec)
	return exec, nil
}

// Complete runs exec against the current graph and appends the assistant's
// reply. Failures, including panics in the runner, become an "Error: ..."
// reply. The executing flag is always cleared.
func (s *ChatService) Complete(ctx context.Context, exec *workflow.Execution) workflow.ChatMessage {
	defer s.store.SetIsExecuting(false)

	var msg workflow.ChatMessage
	res, err := s.run(ctx, exec.Query)
	if err != nil {
		slog.Error("workflow execution failed", "execution", exec.ID, "err", err)
		exec.Fail(err.Error())
		msg = workflow.NewChatMessage(workflow.RoleAssistant, "Error: "+err.Error())
	} else {
		text := res.Response
		if text == "" {
			text = EmptyResponseText
		}
		slog.Info("workflow execution completed", "execution", exec.ID, "runner_execution", res.ExecutionID, "simulated", res.Simulated)
		exec.Complete(text, res.Simulated)
		msg = workflow.NewChatMessage(workflow.RoleAssistant, text)
	}

	s.store.AddChatMessage(msg)
	s.store.SetExecution(exec)
	if err := s.history.Finish(context.WithoutCancel(ctx), exec); err != nil {
		slog.Warn("failed to store execution result", "execution", exec.ID, "err", err)
	}
	return msg
}

func (s *ChatService) run(ctx context.Context, query string) (res *runner.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("runner panic: %v", r)
		}
	}()
	res, err = s.runner.Run(ctx, query, s.store.Snapshot())
	if err == nil && res == nil {
		err = errors.New("runner returned no result")
	}
	return res, err
}

// Send runs query to completion and returns the assistant's reply. Once
// begun, the run ignores cancellation of ctx.
func (s *ChatService) Send(ctx context.Context, query string) (workflow.ChatMessage, *workflow.Execution, error) {
	exec, err := s.Begin(ctx, query)
	if err != nil {
		return workflow.ChatMessage{}, nil, err
	}
	msg := s.Complete(context.WithoutCancel(ctx), exec)
	return msg, exec, nil
}

// SendAsync starts query and completes it in the background, detached from
// the caller's context. The returned execution is a copy taken at start.
func (s *ChatService) SendAsync(ctx context.Context, query string) (*workflow.Execution, error) {
	exec, err := s.Begin(ctx, query)
	if err != nil {
		return nil, err
	}
	started := *exec
	bg := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Complete(bg, exec)
	}()
	return &started, nil
}

// Wait blocks until every background execution has finished.
func (s *ChatService) Wait() {
	s.wg.Wait()
}
