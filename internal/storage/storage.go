// Package storage keeps the documents uploaded to knowledge base nodes.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var ErrNotFound = errors.New("file not found")

// FileInfo describes a stored upload.
type FileInfo struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Path        string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	// NodeID is the knowledge base node the file was uploaded for, if any.
	NodeID      string `json:"node_id,omitempty"`
	DocumentID  string `json:"document_id,omitempty"`
	PreviewText string `json:"preview_text,omitempty"`
}

// Storage is implemented by upload backends.
type Storage interface {
	// Save stores the content of r under a generated id.
	Save(ctx context.Context, filename, contentType string, r io.Reader) (*FileInfo, error)
	// Get opens a stored file. The caller closes the reader.
	Get(ctx context.Context, id string) (*FileInfo, io.ReadCloser, error)
	Delete(ctx context.Context, id string) error
	// List returns stored files, oldest first.
	List(ctx context.Context) ([]FileInfo, error)
	// UpdateInfo replaces the metadata of an existing file.
	UpdateInfo(ctx context.Context, info *FileInfo) error
}
