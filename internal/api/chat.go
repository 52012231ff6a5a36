package api

import (
	"net/http"
	"strconv"

	"github.com/soochol/flowdesk/internal/validation"
	"github.com/soochol/flowdesk/internal/workflow"
)

func (s *Server) getTranscript(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(s.store.Transcript()))
}

type sendChatRequest struct {
	Query string `json:"query"`
}

type sendChatResponse struct {
	Execution *workflow.Execution   `json:"execution"`
	Message   *workflow.ChatMessage `json:"message,omitempty"`
}

// sendChat starts a run for the query. By default it returns 202 as soon
// as the run is accepted; ?wait=true blocks until the reply is appended.
func (s *Server) sendChat(w http.ResponseWriter, r *http.Request) {
	var req sendChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, r, "invalid JSON body")
		return
	}

	wait, _ := strconv.ParseBool(r.URL.Query().Get("wait"))
	if wait {
		msg, exec, err := s.chat.Send(r.Context(), req.Query)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, sendChatResponse{Execution: exec, Message: &msg})
		return
	}

	exec, err := s.chat.SendAsync(r.Context(), req.Query)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, sendChatResponse{Execution: exec})
}

func (s *Server) clearChat(w http.ResponseWriter, r *http.Request) {
	s.store.ClearChat()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) validateGraph(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	report, err := validation.Validate(snap.Nodes, snap.Edges)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
