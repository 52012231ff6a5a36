package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/soochol/flowdesk/internal/workflow"
)

const maxErrorBody = 4 << 10

// client speaks the runner's HTTP protocol. It does no fallback.
type client struct {
	baseURL    string
	httpClient *http.Client
}

type runRequest struct {
	Query string          `json:"query"`
	Nodes []workflow.Node `json:"nodes"`
	Edges []workflow.Edge `json:"edges"`
}

type runResponse struct {
	Success     *bool          `json:"success"`
	Response    string         `json:"response"`
	ExecutionID string         `json:"execution_id"`
	Metadata    map[string]any `json:"metadata"`
}

func (c *client) runWorkflow(ctx context.Context, query string, snap workflow.Snapshot) (*runResponse, error) {
	req := runRequest{Query: query, Nodes: snap.Nodes, Edges: snap.Edges}
	if req.Nodes == nil {
		req.Nodes = []workflow.Node{}
	}
	if req.Edges == nil {
		req.Edges = []workflow.Edge{}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/run_workflow"), bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Op: "run_workflow", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var out runResponse
	if err := c.do(httpReq, "run_workflow", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type uploadResponse struct {
	Success    *bool  `json:"success"`
	Message    string `json:"message"`
	DocumentID string `json:"document_id"`
	TextLength int    `json:"text_length"`
	ChunkCount int    `json:"chunk_count"`
}

func (c *client) uploadPDF(ctx context.Context, req UploadRequest) (*uploadResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", req.Filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := fw.Write(req.Content); err != nil {
		return nil, fmt.Errorf("write form file: %w", err)
	}
	if err := mw.WriteField("embedding_provider", string(req.EmbeddingProvider)); err != nil {
		return nil, fmt.Errorf("write form field: %w", err)
	}
	if err := mw.WriteField("api_key", req.APIKey); err != nil {
		return nil, fmt.Errorf("write form field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/upload_pdf"), &buf)
	if err != nil {
		return nil, &TransportError{Op: "upload_pdf", Err: err}
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	var out uploadResponse
	if err := c.do(httpReq, "upload_pdf", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) do(req *http.Request, op string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &RemoteError{Op: op, StatusCode: resp.StatusCode, Detail: remoteDetail(detail)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &RemoteError{Op: op, StatusCode: resp.StatusCode, Detail: fmt.Sprintf("decode response: %v", err)}
	}
	return nil
}

func (c *client) url(path string) string {
	return strings.TrimRight(c.baseURL, "/") + path
}

// remoteDetail pulls the "detail" field out of a FastAPI-style error body,
// falling back to the raw text.
func remoteDetail(body []byte) string {
	var e struct {
		Detail any `json:"detail"`
	}
	if json.Unmarshal(body, &e) == nil && e.Detail != nil {
		if s, ok := e.Detail.(string); ok {
			return s
		}
		b, _ := json.Marshal(e.Detail)
		return string(b)
	}
	return strings.TrimSpace(string(body))
}
