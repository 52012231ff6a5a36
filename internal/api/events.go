package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/soochol/flowdesk/internal/graph"
)

// streamEvents pushes store change events as server-sent events until the
// client disconnects or the server closes its streams. Slow clients lose
// events rather than block the store.
func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeProblem(w, r, http.StatusInternalServerError, "internal_error", "streaming not supported")
		return
	}

	events := s.store.Events().Channel(r.Context(), 64)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			writeSSEEvent(w, ev)
			flusher.Flush()
		case <-s.done:
			return
		}
	}
}

func writeSSEEvent(w http.ResponseWriter, ev graph.Event) {
	data, _ := json.Marshal(ev)
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
}
