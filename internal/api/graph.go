package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/soochol/flowdesk/internal/graph"
	"github.com/soochol/flowdesk/internal/workflow"
)

type graphResponse struct {
	Nodes          []workflow.Node     `json:"nodes"`
	Edges          []workflow.Edge     `json:"edges"`
	SelectedNodeID string              `json:"selectedNodeId,omitempty"`
	IsExecuting    bool                `json:"isExecuting"`
	Execution      *workflow.Execution `json:"execution,omitempty"`
}

func (s *Server) getGraph(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	resp := graphResponse{
		Nodes:       nonNil(snap.Nodes),
		Edges:       nonNil(snap.Edges),
		IsExecuting: s.store.IsExecuting(),
		Execution:   s.store.CurrentExecution(),
	}
	if n, ok := s.store.SelectedNode(); ok {
		resp.SelectedNodeID = n.ID
	}
	writeJSON(w, http.StatusOK, resp)
}

type addNodeRequest struct {
	ID       string            `json:"id"`
	Type     workflow.NodeKind `json:"type"`
	Position workflow.Position `json:"position"`
	Label    *string           `json:"label"`
	Config   map[string]any    `json:"config"`
}

func (s *Server) addNode(w http.ResponseWriter, r *http.Request) {
	var req addNodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, r, "invalid JSON body")
		return
	}
	if !req.Type.Valid() {
		writeProblem(w, r, http.StatusUnprocessableEntity, "unknown_node_type", fmt.Sprintf("unknown node type %q", req.Type))
		return
	}
	if req.ID == "" {
		req.ID = workflow.GenerateID(string(req.Type))
	}

	node := workflow.NewNode(req.ID, req.Type, req.Position)
	if req.Label != nil {
		node.Data.Label = *req.Label
	}
	if req.Config != nil {
		cfg, err := workflow.MergeConfig(node.Kind, node.Data.Config, req.Config)
		if err == nil {
			err = workflow.ValidateConfig(cfg)
		}
		if err != nil {
			handleError(w, r, err)
			return
		}
		node.Data.Config = cfg
	}
	if err := s.store.AddNode(node); err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, node)
}

func (s *Server) setNodes(w http.ResponseWriter, r *http.Request) {
	var nodes []workflow.Node
	if err := decodeJSON(w, r, &nodes); err != nil {
		if errors.Is(err, workflow.ErrInvalidConfig) {
			handleError(w, r, err)
			return
		}
		badRequest(w, r, "invalid JSON body")
		return
	}
	for _, n := range nodes {
		if err := workflow.ValidateConfig(n.Data.Config); err != nil {
			handleError(w, r, fmt.Errorf("node %s: %w", n.ID, err))
			return
		}
	}
	if err := s.store.SetNodes(nodes); err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(s.store.Snapshot().Nodes))
}

func (s *Server) updateNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.store.Node(id); !ok {
		notFound(w, r, fmt.Sprintf("node %s not found", id))
		return
	}
	var patch graph.NodePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		badRequest(w, r, "invalid JSON body")
		return
	}
	if err := s.store.UpdateNode(id, patch); err != nil {
		handleError(w, r, err)
		return
	}
	n, ok := s.store.Node(id)
	if !ok {
		notFound(w, r, fmt.Sprintf("node %s not found", id))
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) removeNode(w http.ResponseWriter, r *http.Request) {
	s.store.RemoveNode(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) addEdge(w http.ResponseWriter, r *http.Request) {
	var edge workflow.Edge
	if err := decodeJSON(w, r, &edge); err != nil {
		badRequest(w, r, "invalid JSON body")
		return
	}
	if edge.Source == "" || edge.Target == "" {
		badRequest(w, r, "source and target are required")
		return
	}
	if edge.ID == "" {
		edge.ID = workflow.GenerateID("edge")
	}
	if err := s.store.AddEdge(edge); err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, edge)
}

func (s *Server) setEdges(w http.ResponseWriter, r *http.Request) {
	var edges []workflow.Edge
	if err := decodeJSON(w, r, &edges); err != nil {
		badRequest(w, r, "invalid JSON body")
		return
	}
	if err := s.store.SetEdges(edges); err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(s.store.Snapshot().Edges))
}

func (s *Server) removeEdge(w http.ResponseWriter, r *http.Request) {
	s.store.RemoveEdge(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

type selectionBody struct {
	NodeID string         `json:"nodeId"`
	Node   *workflow.Node `json:"node,omitempty"`
}

func (s *Server) getSelection(w http.ResponseWriter, r *http.Request) {
	var resp selectionBody
	if n, ok := s.store.SelectedNode(); ok {
		resp.NodeID = n.ID
		resp.Node = &n
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) setSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionBody
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, r, "invalid JSON body")
		return
	}
	if !s.store.SetSelectedNode(req.NodeID) {
		notFound(w, r, fmt.Sprintf("node %s not found", req.NodeID))
		return
	}
	s.getSelection(w, r)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
