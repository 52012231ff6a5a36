package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/soochol/flowdesk/internal/extract"
	"github.com/soochol/flowdesk/internal/graph"
	"github.com/soochol/flowdesk/internal/runner"
	"github.com/soochol/flowdesk/internal/storage"
	"github.com/soochol/flowdesk/internal/workflow"
)

var (
	ErrUnsupportedFile    = errors.New("only PDF files are supported")
	ErrEmptyFile          = errors.New("file is empty")
	ErrStorageUnavailable = errors.New("file storage not configured")
)

// Uploader forwards documents to the runner. *runner.Orchestrator
// satisfies it.
type Uploader interface {
	Upload(ctx context.Context, req runner.UploadRequest) (*runner.UploadResult, error)
}

// IngestRequest is a document uploaded for a knowledge base node. Empty
// EmbeddingProvider and APIKey are taken from the node's config when NodeID
// names a knowledge base node.
type IngestRequest struct {
	NodeID            string
	Filename          string
	ContentType       string
	Data              []byte
	EmbeddingProvider workflow.EmbeddingProvider
	APIKey            string
}

// IngestResult reports what happened to an uploaded document.
type IngestResult struct {
	File        *storage.FileInfo    `json:"file,omitempty"`
	Upload      *runner.UploadResult `json:"upload"`
	Preview     string               `json:"preview,omitempty"`
	NodeUpdated bool                 `json:"node_updated"`
}

// KnowledgeService stores knowledge base documents and hands them to the
// runner for embedding.
type KnowledgeService struct {
	store    *graph.Store
	uploader Uploader
	files    storage.Storage
}

// NewKnowledgeService wires the service. files may be nil, in which case
// uploads are forwarded but not kept.
func NewKnowledgeService(store *graph.Store, uploader Uploader, files storage.Storage) *KnowledgeService {
	return &KnowledgeService{store: store, uploader: uploader, files: files}
}

// Ingest accepts a PDF, keeps a copy with a text preview, forwards it to
// the runner and points the knowledge base node at it.
func (s *KnowledgeService) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	if !isPDF(req.Filename, req.ContentType) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, req.Filename)
	}
	if len(req.Data) == 0 {
		return nil, ErrEmptyFile
	}

	kb, isKB := s.knowledgeBase(req.NodeID)
	if req.EmbeddingProvider == "" {
		req.EmbeddingProvider = kb.EmbeddingProvider
	}
	if req.EmbeddingProvider == "" {
		req.EmbeddingProvider = workflow.EmbeddingOpenAI
	}
	if req.APIKey == "" {
		req.APIKey = kb.APIKey
	}
	if !req.EmbeddingProvider.Valid() {
		return nil, fmt.Errorf("%w: embeddingProvider: must be one of openai, cohere, gemini", workflow.ErrInvalidConfig)
	}

	var (
		file    *storage.FileInfo
		preview string
		upload  *runner.UploadResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		text, err := extract.Extract("application/pdf", bytes.NewReader(req.Data))
		if err != nil {
			slog.Warn("pdf text extraction failed", "file", req.Filename, "err", err)
		}
		preview = extract.Preview(text, extract.MaxPreview)

		if s.files == nil {
			return nil
		}
		info, err := s.files.Save(gctx, req.Filename, "application/pdf", bytes.NewReader(req.Data))
		if err != nil {
			return fmt.Errorf("store upload: %w", err)
		}
		file = info
		return nil
	})
	g.Go(func() error {
		res, err := s.uploader.Upload(gctx, runner.UploadRequest{
			Filename:          req.Filename,
			Content:           req.Data,
			EmbeddingProvider: req.EmbeddingProvider,
			APIKey:            req.APIKey,
		})
		if err != nil {
			return fmt.Errorf("forward upload: %w", err)
		}
		upload = res
		return nil
	})
	if err := g.Wait(); err != nil {
		s.discard(file)
		return nil, err
	}

	out := &IngestResult{Upload: upload, Preview: preview}
	if file != nil {
		file.NodeID = req.NodeID
		file.DocumentID = upload.DocumentID
		file.PreviewText = preview
		if err := s.files.UpdateInfo(ctx, file); err != nil {
			slog.Warn("failed to update file info", "id", file.ID, "err", err)
		}
		out.File = file
	}

	if isKB {
		err := s.store.UpdateNode(req.NodeID, graph.NodePatch{Config: map[string]any{
			"fileName":          req.Filename,
			"embeddingProvider": string(req.EmbeddingProvider),
		}})
		if err != nil {
			s.discard(file)
			return nil, err
		}
		out.NodeUpdated = true
	} else if req.NodeID != "" {
		slog.Warn("upload target is not a knowledge base node", "node", req.NodeID)
	}
	return out, nil
}

// discard removes a stored upload whose ingestion failed.
func (s *KnowledgeService) discard(file *storage.FileInfo) {
	if file == nil {
		return
	}
	if err := s.files.Delete(context.Background(), file.ID); err != nil {
		slog.Warn("failed to remove upload after ingest error", "id", file.ID, "err", err)
	}
}

// Files lists stored uploads, oldest first.
func (s *KnowledgeService) Files(ctx context.Context) ([]storage.FileInfo, error) {
	if s.files == nil {
		return nil, ErrStorageUnavailable
	}
	return s.files.List(ctx)
}

func (s *KnowledgeService) knowledgeBase(nodeID string) (workflow.KnowledgeBaseConfig, bool) {
	if nodeID == "" {
		return workflow.KnowledgeBaseConfig{}, false
	}
	n, ok := s.store.Node(nodeID)
	if !ok || n.Kind != workflow.KindKnowledgeBase {
		return workflow.KnowledgeBaseConfig{}, false
	}
	cfg, _ := workflow.ConfigAs[workflow.KnowledgeBaseConfig](n.Data.Config)
	return cfg, true
}

func isPDF(filename, contentType string) bool {
	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return true
	}
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "application/pdf"
}

// Open returns a stored upload. The caller closes the reader.
func (s *KnowledgeService) Open(ctx context.Context, id string) (*storage.FileInfo, io.ReadCloser, error) {
	if s.files == nil {
		return nil, nil, ErrStorageUnavailable
	}
	return s.files.Get(ctx, id)
}

// Delete removes a stored upload. Knowledge base nodes that reference it
// keep their fileName.
func (s *KnowledgeService) Delete(ctx context.Context, id string) error {
	if s.files == nil {
		return ErrStorageUnavailable
	}
	return s.files.Delete(ctx, id)
}
