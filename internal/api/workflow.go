package api

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/soochol/flowdesk/internal/codec"
)

func (s *Server) exportWorkflow(w http.ResponseWriter, r *http.Request) {
	format, err := codec.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		badRequest(w, r, err.Error())
		return
	}

	now := s.now()
	var buf bytes.Buffer
	if err := codec.Encode(&buf, codec.Serialize(s.store.Snapshot(), now), format); err != nil {
		handleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, codec.Filename(now, format)))
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Warn("export: write interrupted", "err", err)
	}
}

type importResponse struct {
	Applied  bool           `json:"applied"`
	Document codec.Document `json:"document"`
}

// importWorkflow parses an uploaded document. The graph is only replaced
// when ?apply=true.
func (s *Server) importWorkflow(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		badRequest(w, r, "document too large (max 10MB)")
		return
	}
	doc, err := codec.Deserialize(data)
	if err != nil {
		handleError(w, r, err)
		return
	}

	apply, _ := strconv.ParseBool(r.URL.Query().Get("apply"))
	if apply {
		if err := s.store.Replace(doc.Snapshot()); err != nil {
			handleError(w, r, err)
			return
		}
		slog.Info("workflow imported", "nodes", len(doc.Nodes), "edges", len(doc.Edges))
	}
	writeJSON(w, http.StatusOK, importResponse{Applied: apply, Document: doc})
}
