package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/soochol/flowdesk/internal/services"
	"github.com/soochol/flowdesk/internal/workflow"
)

const maxUploadSize = 50 << 20 // 50MB

// uploadKnowledge accepts a multipart form with "file" and optional
// "node_id", "embedding_provider" and "api_key" fields.
func (s *Server) uploadKnowledge(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		badRequest(w, r, "file too large (max 50MB)")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		badRequest(w, r, "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		handleError(w, r, fmt.Errorf("read upload: %w", err))
		return
	}

	res, err := s.knowledge.Ingest(r.Context(), services.IngestRequest{
		NodeID:            r.FormValue("node_id"),
		Filename:          header.Filename,
		ContentType:       header.Header.Get("Content-Type"),
		Data:              data,
		EmbeddingProvider: workflow.EmbeddingProvider(strings.TrimSpace(r.FormValue("embedding_provider"))),
		APIKey:            r.FormValue("api_key"),
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) listFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.knowledge.Files(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, files)
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	info, rc, err := s.knowledge.Open(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	defer rc.Close()

	escaped := strings.ReplaceAll(info.Filename, `"`, `\"`)
	w.Header().Set("Content-Type", info.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, escaped))
	if _, err := io.Copy(w, rc); err != nil {
		slog.Warn("serveFile: copy interrupted", "id", id, "err", err)
	}
}

func (s *Server) deleteFile(w http.ResponseWriter, r *http.Request) {
	if err := s.knowledge.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
