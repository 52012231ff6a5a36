// Package graph owns the editor's canonical workflow graph: nodes, edges,
// selection, chat transcript and the in-flight execution flag.
package graph

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/soochol/flowdesk/internal/workflow"
)

var (
	// ErrDuplicateID is returned in strict mode when a node or edge id is
	// already present.
	ErrDuplicateID = errors.New("duplicate id")
	// ErrDanglingEdge is returned in strict-edge mode when an edge endpoint
	// names a node that is not in the graph.
	ErrDanglingEdge = errors.New("edge references unknown node")
)

// NodePatch is a partial update of a node's data. Nil Label leaves the
// label alone; Config keys are merged field by field.
type NodePatch struct {
	Label  *string        `json:"label,omitempty"`
	Config map[string]any `json:"config,omitempty"`
}

// Option configures a Store.
type Option func(*Store)

// WithStrictIDs rejects nodes and edges whose id already exists.
func WithStrictIDs(strict bool) Option {
	return func(s *Store) { s.strictIDs = strict }
}

// WithStrictEdges rejects edges whose endpoints are not present.
func WithStrictEdges(strict bool) Option {
	return func(s *Store) { s.strictEdges = strict }
}

// WithEventBus publishes mutations on bus instead of a private one.
func WithEventBus(bus *EventBus) Option {
	return func(s *Store) { s.bus = bus }
}

// Store is the in-memory workflow graph. All mutations are serialized by a
// single mutex and visible to readers as soon as they return. Events are
// published after the lock is released.
type Store struct {
	mu          sync.RWMutex
	nodes       []workflow.Node
	edges       []workflow.Edge
	selectedID  string
	chat        []workflow.ChatMessage
	execution   *workflow.Execution
	isExecuting bool

	strictIDs   bool
	strictEdges bool
	bus         *EventBus
}

// New returns an empty store. Ids are strict and edges lenient unless
// overridden.
func New(opts ...Option) *Store {
	s := &Store{strictIDs: true}
	for _, opt := range opts {
		opt(s)
	}
	if s.bus == nil {
		s.bus = NewEventBus()
	}
	return s
}

// Events exposes the store's event bus.
func (s *Store) Events() *EventBus { return s.bus }

// Close drops all event subscribers.
func (s *Store) Close() {
	s.bus.Reset()
}

func (s *Store) emit(t EventType, id string) {
	s.bus.Publish(Event{Type: t, ID: id, Timestamp: time.Now()})
}

func (s *Store) indexOfNode(id string) int {
	return slices.IndexFunc(s.nodes, func(n workflow.Node) bool { return n.ID == id })
}

func (s *Store) indexOfEdge(id string) int {
	return slices.IndexFunc(s.edges, func(e workflow.Edge) bool { return e.ID == id })
}

// AddNode appends node. A nil config is replaced by the kind default.
func (s *Store) AddNode(node workflow.Node) error {
	if node.Data.Config == nil {
		node.Data.Config = workflow.DefaultConfig(node.Kind)
	}
	if node.Data.Label == "" {
		node.Data.Label = node.Kind.DefaultLabel()
	}

	s.mu.Lock()
	if s.strictIDs && s.indexOfNode(node.ID) >= 0 {
		s.mu.Unlock()
		return fmt.Errorf("node %s: %w", node.ID, ErrDuplicateID)
	}
	s.nodes = append(s.nodes, node)
	s.mu.Unlock()

	s.emit(EventNodeAdded, node.ID)
	return nil
}

// UpdateNode applies patch to the node with id. Missing nodes are a no-op.
func (s *Store) UpdateNode(id string, patch NodePatch) error {
	s.mu.Lock()
	i := s.indexOfNode(id)
	if i < 0 {
		s.mu.Unlock()
		return nil
	}
	n := s.nodes[i]
	if patch.Config != nil {
		cfg, err := workflow.MergeConfig(n.Kind, n.Data.Config, patch.Config)
		if err == nil {
			err = workflow.ValidateConfig(cfg)
		}
		if err != nil {
			s.mu.Unlock()
			return fmt.Errorf("update node %s: %w", id, err)
		}
		n.Data.Config = cfg
	}
	if patch.Label != nil {
		n.Data.Label = *patch.Label
	}
	s.nodes[i] = n
	s.mu.Unlock()

	s.emit(EventNodeUpdated, id)
	return nil
}

// RemoveNode deletes the node and every edge touching it, and clears the
// selection if it pointed at the node.
func (s *Store) RemoveNode(id string) {
	s.mu.Lock()
	s.nodes = slices.DeleteFunc(s.nodes, func(n workflow.Node) bool { return n.ID == id })
	s.edges = slices.DeleteFunc(s.edges, func(e workflow.Edge) bool { return e.Source == id || e.Target == id })
	selectionCleared := s.selectedID == id && id != ""
	if selectionCleared {
		s.selectedID = ""
	}
	s.mu.Unlock()

	s.emit(EventNodeRemoved, id)
	if selectionCleared {
		s.emit(EventSelectionChanged, "")
	}
}

// AddEdge appends edge.
func (s *Store) AddEdge(edge workflow.Edge) error {
	s.mu.Lock()
	if s.strictIDs && s.indexOfEdge(edge.ID) >= 0 {
		s.mu.Unlock()
		return fmt.Errorf("edge %s: %w", edge.ID, ErrDuplicateID)
	}
	if s.strictEdges {
		for _, end := range []string{edge.Source, edge.Target} {
			if s.indexOfNode(end) < 0 {
				s.mu.Unlock()
				return fmt.Errorf("edge %s: %w: %s", edge.ID, ErrDanglingEdge, end)
			}
		}
	}
	s.edges = append(s.edges, edge)
	s.mu.Unlock()

	s.emit(EventEdgeAdded, edge.ID)
	return nil
}

func (s *Store) RemoveEdge(id string) {
	s.mu.Lock()
	s.edges = slices.DeleteFunc(s.edges, func(e workflow.Edge) bool { return e.ID == id })
	s.mu.Unlock()

	s.emit(EventEdgeRemoved, id)
}

// SetSelectedNode selects the node with id; "" clears the selection. An
// unknown id leaves the selection unchanged and returns false.
func (s *Store) SetSelectedNode(id string) bool {
	s.mu.Lock()
	if id != "" && s.indexOfNode(id) < 0 {
		s.mu.Unlock()
		return false
	}
	s.selectedID = id
	s.mu.Unlock()

	s.emit(EventSelectionChanged, id)
	return true
}

func (s *Store) SelectedNode() (workflow.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selectedID == "" {
		return workflow.Node{}, false
	}
	i := s.indexOfNode(s.selectedID)
	if i < 0 {
		return workflow.Node{}, false
	}
	return workflow.CloneNodes(s.nodes[i : i+1])[0], true
}

func (s *Store) Node(id string) (workflow.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOfNode(id)
	if i < 0 {
		return workflow.Node{}, false
	}
	return workflow.CloneNodes(s.nodes[i : i+1])[0], true
}

// AddChatMessage appends msg to the transcript.
func (s *Store) AddChatMessage(msg workflow.ChatMessage) {
	s.mu.Lock()
	s.chat = append(s.chat, msg)
	s.mu.Unlock()

	s.emit(EventChatAppended, msg.ID)
}

// ClearChat empties the transcript.
func (s *Store) ClearChat() {
	s.mu.Lock()
	s.chat = nil
	s.mu.Unlock()

	s.emit(EventChatCleared, "")
}

// Transcript returns a copy of the chat transcript in append order.
func (s *Store) Transcript() []workflow.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.chat)
}

// SetNodes replaces every node. The selection is cleared when the selected
// node is not among them. In strict mode repeated ids are rejected and the
// store is left unchanged.
func (s *Store) SetNodes(nodes []workflow.Node) error {
	if err := s.checkNodeIDs(nodes); err != nil {
		return err
	}
	s.mu.Lock()
	s.nodes = workflow.CloneNodes(nodes)
	selectionCleared := s.selectedID != "" && s.indexOfNode(s.selectedID) < 0
	if selectionCleared {
		s.selectedID = ""
	}
	s.mu.Unlock()

	s.emit(EventNodesReplaced, "")
	if selectionCleared {
		s.emit(EventSelectionChanged, "")
	}
	return nil
}

// SetEdges replaces every edge, subject to the same checks as AddEdge.
func (s *Store) SetEdges(edges []workflow.Edge) error {
	if err := s.checkEdgeIDs(edges); err != nil {
		return err
	}
	s.mu.Lock()
	if err := s.checkEndpoints(edges, s.nodes); err != nil {
		s.mu.Unlock()
		return err
	}
	s.edges = workflow.CloneEdges(edges)
	s.mu.Unlock()

	s.emit(EventEdgesReplaced, "")
	return nil
}

// Replace swaps in a whole snapshot, clearing the selection. The snapshot
// is checked as a whole; on error nothing changes.
func (s *Store) Replace(snap workflow.Snapshot) error {
	if err := s.checkNodeIDs(snap.Nodes); err != nil {
		return err
	}
	if err := s.checkEdgeIDs(snap.Edges); err != nil {
		return err
	}
	if err := s.checkEndpoints(snap.Edges, snap.Nodes); err != nil {
		return err
	}
	snap = snap.Clone()
	s.mu.Lock()
	s.nodes = snap.Nodes
	s.edges = snap.Edges
	s.selectedID = ""
	s.mu.Unlock()

	s.emit(EventGraphReplaced, "")
	return nil
}

func (s *Store) checkNodeIDs(nodes []workflow.Node) error {
	if !s.strictIDs {
		return nil
	}
	seen := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("node %s: %w", n.ID, ErrDuplicateID)
		}
		seen[n.ID] = struct{}{}
	}
	return nil
}

func (s *Store) checkEdgeIDs(edges []workflow.Edge) error {
	if !s.strictIDs {
		return nil
	}
	seen := make(map[string]struct{}, len(edges))
	for _, e := range edges {
		if _, dup := seen[e.ID]; dup {
			return fmt.Errorf("edge %s: %w", e.ID, ErrDuplicateID)
		}
		seen[e.ID] = struct{}{}
	}
	return nil
}

// checkEndpoints reports the first edge naming a node outside nodes. It
// only applies in strict-edge mode.
func (s *Store) checkEndpoints(edges []workflow.Edge, nodes []workflow.Node) error {
	if !s.strictEdges {
		return nil
	}
	ids := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		ids[n.ID] = struct{}{}
	}
	for _, e := range edges {
		for _, end := range []string{e.Source, e.Target} {
			if _, ok := ids[end]; !ok {
				return fmt.Errorf("edge %s: %w: %s", e.ID, ErrDanglingEdge, end)
			}
		}
	}
	return nil
}

// Snapshot returns a deep copy of the current nodes and edges.
func (s *Store) Snapshot() workflow.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return workflow.Snapshot{
		Nodes: workflow.CloneNodes(s.nodes),
		Edges: workflow.CloneEdges(s.edges),
	}
}

// SetIsExecuting sets the advisory in-flight flag.
func (s *Store) SetIsExecuting(executing bool) {
	s.mu.Lock()
	s.isExecuting = executing
	s.mu.Unlock()

	s.emit(EventExecutionChanged, "")
}

func (s *Store) IsExecuting() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isExecuting
}

// TryBeginExecution sets the in-flight flag if it is clear and reports
// whether it did.
func (s *Store) TryBeginExecution() bool {
	s.mu.Lock()
	if s.isExecuting {
		s.mu.Unlock()
		return false
	}
	s.isExecuting = true
	s.mu.Unlock()

	s.emit(EventExecutionChanged, "")
	return true
}

// SetExecution records the current (or most recent) execution.
func (s *Store) SetExecution(exec *workflow.Execution) {
	var id string
	s.mu.Lock()
	if exec != nil {
		cp := *exec
		s.execution = &cp
		id = exec.ID
	} else {
		s.execution = nil
	}
	s.mu.Unlock()

	s.emit(EventExecutionChanged, id)
}

func (s *Store) CurrentExecution() *workflow.Execution {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.execution == nil {
		return nil
	}
	cp := *s.execution
	return &cp
}
