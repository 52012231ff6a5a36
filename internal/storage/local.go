package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/soochol/flowdesk/internal/workflow"
)

// LocalStorage writes uploads into a directory. Metadata lives in memory
// only; files left from a previous process are not listed.
type LocalStorage struct {
	dir   string
	mu    sync.RWMutex
	files map[string]*FileInfo
}

func NewLocalStorage(dir string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &LocalStorage{dir: dir, files: make(map[string]*FileInfo)}, nil
}

func (s *LocalStorage) Save(ctx context.Context, filename, contentType string, r io.Reader) (*FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id := workflow.GenerateID("file")
	name := id + strings.ToLower(filepath.Ext(filename))
	full := filepath.Join(s.dir, name)

	f, err := os.Create(full)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(full)
		return nil, fmt.Errorf("write file: %w", err)
	}

	info := &FileInfo{
		ID:          id,
		Filename:    filepath.Base(filename),
		ContentType: contentType,
		Size:        n,
		Path:        name,
		CreatedAt:   time.Now().UTC(),
	}
	s.mu.Lock()
	s.files[id] = info
	s.mu.Unlock()

	out := *info
	return &out, nil
}

func (s *LocalStorage) Get(_ context.Context, id string) (*FileInfo, io.ReadCloser, error) {
	s.mu.RLock()
	info, ok := s.files[id]
	s.mu.RUnlock()
	if !ok {
		return nil, nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	f, err := os.Open(filepath.Join(s.dir, info.Path))
	if err != nil {
		return nil, nil, fmt.Errorf("open file: %w", err)
	}
	out := *info
	return &out, f, nil
}

func (s *LocalStorage) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	info, ok := s.files[id]
	delete(s.files, id)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err := os.Remove(filepath.Join(s.dir, info.Path)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

func (s *LocalStorage) List(_ context.Context) ([]FileInfo, error) {
	s.mu.RLock()
	out := make([]FileInfo, 0, len(s.files))
	for _, info := range s.files {
		out = append(out, *info)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b FileInfo) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *LocalStorage) UpdateInfo(_ context.Context, info *FileInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.files[info.ID]
	if !ok {
		return fmt.Errorf("%s: %w", info.ID, ErrNotFound)
	}
	next := *info
	next.Path = cur.Path
	s.files[info.ID] = &next
	return nil
}
