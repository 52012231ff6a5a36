package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/moogar0880/problems"

	"github.com/soochol/flowdesk/internal/codec"
	"github.com/soochol/flowdesk/internal/graph"
	"github.com/soochol/flowdesk/internal/repository"
	"github.com/soochol/flowdesk/internal/runner"
	"github.com/soochol/flowdesk/internal/services"
	"github.com/soochol/flowdesk/internal/storage"
	"github.com/soochol/flowdesk/internal/validation"
	"github.com/soochol/flowdesk/internal/workflow"
)

const problemContentType = "application/problem+json"

func writeProblem(w http.ResponseWriter, r *http.Request, status int, typ, detail string) {
	problem := problems.NewStatusProblem(status).
		WithInstance(r.URL.Path).
		WithType(typ).
		WithDetail(detail)

	w.Header().Set("Content-Type", problemContentType)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(problem)
}

func badRequest(w http.ResponseWriter, r *http.Request, detail string) {
	writeProblem(w, r, http.StatusBadRequest, "bad_request", detail)
}

func notFound(w http.ResponseWriter, r *http.Request, detail string) {
	writeProblem(w, r, http.StatusNotFound, "not_found", detail)
}

// handleError maps domain errors to problem responses.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case validation.IsValidationError(err):
		writeProblem(w, r, http.StatusUnprocessableEntity, validation.Code(err), err.Error())
	case errors.Is(err, workflow.ErrInvalidConfig):
		writeProblem(w, r, http.StatusUnprocessableEntity, "invalid_config", err.Error())
	case errors.Is(err, graph.ErrDanglingEdge):
		writeProblem(w, r, http.StatusUnprocessableEntity, "dangling_edge", err.Error())
	case errors.Is(err, graph.ErrDuplicateID):
		writeProblem(w, r, http.StatusConflict, "duplicate_id", err.Error())
	case errors.Is(err, services.ErrExecutionInFlight):
		writeProblem(w, r, http.StatusConflict, "execution_in_flight", err.Error())
	case errors.Is(err, services.ErrEmptyQuery):
		writeProblem(w, r, http.StatusBadRequest, "empty_query", err.Error())
	case errors.Is(err, codec.ErrMalformedDocument):
		writeProblem(w, r, http.StatusBadRequest, "malformed_document", err.Error())
	case errors.Is(err, services.ErrUnsupportedFile), errors.Is(err, services.ErrEmptyFile):
		writeProblem(w, r, http.StatusBadRequest, "unsupported_file", err.Error())
	case errors.Is(err, services.ErrStorageUnavailable):
		writeProblem(w, r, http.StatusServiceUnavailable, "storage_unavailable", err.Error())
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, repository.ErrExecutionNotFound):
		notFound(w, r, err.Error())
	case runner.IsRemoteError(err), runner.IsTransportError(err):
		writeProblem(w, r, http.StatusBadGateway, "runner_error", err.Error())
	default:
		slog.Error("request failed", "path", r.URL.Path, "err", err)
		writeProblem(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
