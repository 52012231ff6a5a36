// Package workflow defines the editor's graph domain: nodes, edges, the
// per-kind configuration union, chat transcript entries and executions.
package workflow

// NodeKind is the closed set of pipeline stages a node can represent.
type NodeKind string

const (
	KindUserQuery     NodeKind = "userQuery"
	KindKnowledgeBase NodeKind = "knowledgeBase"
	KindLLMEngine     NodeKind = "llmEngine"
	KindOutput        NodeKind = "output"
)

// Kinds lists every node kind in palette order.
var Kinds = []NodeKind{KindUserQuery, KindKnowledgeBase, KindLLMEngine, KindOutput}

// Valid reports whether k is one of the known node kinds.
func (k NodeKind) Valid() bool {
	switch k {
	case KindUserQuery, KindKnowledgeBase, KindLLMEngine, KindOutput:
		return true
	}
	return false
}

// DefaultLabel is the label a freshly dropped node of this kind receives.
func (k NodeKind) DefaultLabel() string {
	switch k {
	case KindUserQuery:
		return "User Query"
	case KindKnowledgeBase:
		return "Knowledge Base"
	case KindLLMEngine:
		return "LLM Engine"
	case KindOutput:
		return "Output"
	}
	return string(k)
}

// Description is the palette blurb shown next to the kind.
func (k NodeKind) Description() string {
	switch k {
	case KindUserQuery:
		return "Entry point for user input"
	case KindKnowledgeBase:
		return "Upload and process PDFs"
	case KindLLMEngine:
		return "AI language model processing"
	case KindOutput:
		return "Display final results"
	}
	return ""
}

// Position is a canvas coordinate. It has no effect on execution.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// NodeData is the user-editable part of a node.
type NodeData struct {
	Label  string
	Config NodeConfig
}

// Node is a vertex in the workflow graph.
type Node struct {
	ID       string
	Kind     NodeKind
	Position Position
	Data     NodeData
}

// NewNode builds a node of the given kind with its default label and config.
func NewNode(id string, kind NodeKind, pos Position) Node {
	return Node{
		ID:       id,
		Kind:     kind,
		Position: pos,
		Data: NodeData{
			Label:  kind.DefaultLabel(),
			Config: DefaultConfig(kind),
		},
	}
}

// Edge is a directed connection from one node's output to another's input.
type Edge struct {
	ID     string `json:"id" yaml:"id"`
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
	Type   string `json:"type,omitempty" yaml:"type,omitempty"`
}

// Snapshot is the full set of nodes and edges at a point in time.
type Snapshot struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Clone returns a copy of s that shares no slices or maps with it.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{Nodes: CloneNodes(s.Nodes), Edges: CloneEdges(s.Edges)}
}

// CloneNodes copies nodes, including their config records.
func CloneNodes(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		n.Data.Config = cloneConfig(n.Data.Config)
		out[i] = n
	}
	return out
}

// CloneEdges copies edges.
func CloneEdges(edges []Edge) []Edge {
	if edges == nil {
		return nil
	}
	out := make([]Edge, len(edges))
	copy(out, edges)
	return out
}

// FirstOfKind returns the first node of kind in array order.
func FirstOfKind(nodes []Node, kind NodeKind) (Node, bool) {
	for _, n := range nodes {
		if n.Kind == kind {
			return n, true
		}
	}
	return Node{}, false
}

// CountKind returns how many nodes have the given kind.
func CountKind(nodes []Node, kind NodeKind) int {
	c := 0
	for _, n := range nodes {
		if n.Kind == kind {
			c++
		}
	}
	return c
}
