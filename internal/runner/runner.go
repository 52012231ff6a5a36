// Package runner sends workflow snapshots to the external execution runner
// and, when the runner is unavailable, answers with a deterministic local
// simulation so the editor keeps working offline.
package runner

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/soochol/flowdesk/internal/workflow"
)

const (
	DefaultBaseURL        = "http://localhost:8000"
	DefaultSimulatedDelay = 2 * time.Second
	DefaultUploadDelay    = 1500 * time.Millisecond
)

// Config controls how the orchestrator reaches the runner.
type Config struct {
	BaseURL string
	// Timeout bounds each runner request. Zero leaves it to the HTTP
	// client, which never times out.
	Timeout        time.Duration
	Fallback       FallbackPolicy
	SimulatedDelay time.Duration
	UploadDelay    time.Duration
}

// Result is the normalized outcome of a run, real or simulated.
type Result struct {
	Success     bool           `json:"success"`
	Response    string         `json:"response"`
	ExecutionID string         `json:"execution_id"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Simulated   bool           `json:"simulated"`
}

// UploadRequest is a knowledge-base document to hand to the runner.
type UploadRequest struct {
	Filename          string
	Content           []byte
	EmbeddingProvider workflow.EmbeddingProvider
	APIKey            string
}

// UploadResult is the runner's acknowledgement of an uploaded document.
type UploadResult struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	DocumentID string `json:"document_id"`
	TextLength int    `json:"text_length,omitempty"`
	ChunkCount int    `json:"chunk_count,omitempty"`
	Simulated  bool   `json:"simulated"`
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithHTTPClient replaces the HTTP client used to reach the runner.
func WithHTTPClient(c *http.Client) Option {
	return func(o *Orchestrator) { o.client.httpClient = c }
}

// Orchestrator issues run and upload requests. It holds no lock: callers
// are responsible for not starting two runs at once.
type Orchestrator struct {
	client         *client
	policy         FallbackPolicy
	simulatedDelay time.Duration
	uploadDelay    time.Duration
}

func New(cfg Config, opts ...Option) *Orchestrator {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Fallback == "" {
		cfg.Fallback = FallbackAlways
	}
	o := &Orchestrator{
		client: &client{
			baseURL:    cfg.BaseURL,
			httpClient: &http.Client{Timeout: cfg.Timeout},
		},
		policy:         cfg.Fallback,
		simulatedDelay: cfg.SimulatedDelay,
		uploadDelay:    cfg.UploadDelay,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Policy returns the fallback policy in effect.
func (o *Orchestrator) Policy() FallbackPolicy { return o.policy }

// Run sends query and snap to the runner. Failures covered by the fallback
// policy are replaced with a simulated result; others are returned as
// *TransportError or *RemoteError.
func (o *Orchestrator) Run(ctx context.Context, query string, snap workflow.Snapshot) (*Result, error) {
	resp, err := o.client.runWorkflow(ctx, query, snap)
	if err == nil {
		res := &Result{
			Success:     resp.Success == nil || *resp.Success,
			Response:    resp.Response,
			ExecutionID: resp.ExecutionID,
			Metadata:    resp.Metadata,
		}
		if res.ExecutionID == "" {
			res.ExecutionID = workflow.GenerateID("exec")
		}
		return res, nil
	}
	if !o.policy.ShouldFallback(err) {
		return nil, err
	}

	slog.Info("runner not available, using simulated response", "err", err, "policy", o.policy)
	if err := sleep(ctx, o.simulatedDelay); err != nil {
		return nil, err
	}
	return Simulate(query, snap), nil
}

// Upload forwards a knowledge-base PDF to the runner, falling back to a
// synthesized acknowledgement under the same policy as Run.
func (o *Orchestrator) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	resp, err := o.client.uploadPDF(ctx, req)
	if err == nil {
		return &UploadResult{
			Success:    resp.Success == nil || *resp.Success,
			Message:    resp.Message,
			DocumentID: resp.DocumentID,
			TextLength: resp.TextLength,
			ChunkCount: resp.ChunkCount,
		}, nil
	}
	if !o.policy.ShouldFallback(err) {
		return nil, err
	}

	slog.Info("runner upload not available, using simulated acknowledgement", "err", err, "file", req.Filename)
	if err := sleep(ctx, o.uploadDelay); err != nil {
		return nil, err
	}
	return SimulateUpload(req), nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
