// Package api is the HTTP surface the browser editor talks to.
package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/soochol/flowdesk/internal/graph"
	"github.com/soochol/flowdesk/internal/services"
)

const maxJSONBody = 10 << 20 // 10MB

type Server struct {
	store     *graph.Store
	chat      *services.ChatService
	knowledge *services.KnowledgeService
	history   *services.ExecutionHistoryService
	staticDir string
	now       func() time.Time

	done      chan struct{}
	closeOnce sync.Once
}

func NewServer(store *graph.Store, chat *services.ChatService, knowledge *services.KnowledgeService, history *services.ExecutionHistoryService) *Server {
	return &Server{
		store:     store,
		chat:      chat,
		knowledge: knowledge,
		history:   history,
		now:       time.Now,
		done:      make(chan struct{}),
	}
}

// CloseStreams ends every open event stream. http.Server.Shutdown does not
// cancel request contexts, so register this with RegisterOnShutdown.
func (s *Server) CloseStreams() {
	s.closeOnce.Do(func() { close(s.done) })
}

// SetStaticDir serves the built editor frontend from dir for every path
// outside /api.
func (s *Server) SetStaticDir(dir string) {
	s.staticDir = dir
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowedHeaders:   []string{"Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
	}))
	r.Route("/api", func(r chi.Router) {
		r.Get("/graph", s.getGraph)
		r.Route("/nodes", func(r chi.Router) {
			r.Post("/", s.addNode)
			r.Put("/", s.setNodes)
			r.Patch("/{id}", s.updateNode)
			r.Delete("/{id}", s.removeNode)
		})
		r.Route("/edges", func(r chi.Router) {
			r.Post("/", s.addEdge)
			r.Put("/", s.setEdges)
			r.Delete("/{id}", s.removeEdge)
		})
		r.Get("/selection", s.getSelection)
		r.Put("/selection", s.setSelection)
		r.Route("/chat", func(r chi.Router) {
			r.Get("/", s.getTranscript)
			r.Post("/", s.sendChat)
			r.Delete("/", s.clearChat)
		})
		r.Post("/validate", s.validateGraph)
		r.Get("/workflow/export", s.exportWorkflow)
		r.Post("/workflow/import", s.importWorkflow)
		r.Route("/knowledge", func(r chi.Router) {
			r.Post("/upload", s.uploadKnowledge)
			r.Get("/files", s.listFiles)
			r.Get("/files/{id}", s.serveFile)
			r.Delete("/files/{id}", s.deleteFile)
		})
		r.Get("/node-types", s.listNodeTypes)
		r.Get("/executions", s.listExecutions)
		r.Get("/executions/{id}", s.getExecution)
		r.Get("/events", s.streamEvents)
	})

	if s.staticDir != "" {
		r.Handle("/*", StaticHandler(s.staticDir))
	}
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a size-limited JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	return json.NewDecoder(r.Body).Decode(v)
}
