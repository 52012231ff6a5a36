// Package dag builds a dependency view of a workflow snapshot for
// structural checks and execution ordering.
package dag

import (
	"errors"
	"sort"

	"github.com/soochol/flowdesk/internal/workflow"
)

// ErrCycle is returned by TopologicalOrder when the graph is not acyclic.
var ErrCycle = errors.New("cycle detected in workflow graph")

type DAG struct {
	nodes      map[string]*workflow.Node
	order      []string // node ids in snapshot order
	children   map[string][]string
	parents    map[string][]string
	dangling   []workflow.Edge
	duplicates []string
	topoOrder  []string
	cyclic     bool
}

// Build indexes snap. Edges with an unknown endpoint are set aside as
// dangling; repeated node ids keep their first occurrence.
func Build(snap workflow.Snapshot) *DAG {
	d := &DAG{
		nodes:    make(map[string]*workflow.Node),
		children: make(map[string][]string),
		parents:  make(map[string][]string),
	}

	for i := range snap.Nodes {
		n := &snap.Nodes[i]
		if _, exists := d.nodes[n.ID]; exists {
			d.duplicates = append(d.duplicates, n.ID)
			continue
		}
		d.nodes[n.ID] = n
		d.order = append(d.order, n.ID)
	}

	for _, e := range snap.Edges {
		_, okFrom := d.nodes[e.Source]
		_, okTo := d.nodes[e.Target]
		if !okFrom || !okTo {
			d.dangling = append(d.dangling, e)
			continue
		}
		d.children[e.Source] = append(d.children[e.Source], e.Target)
		d.parents[e.Target] = append(d.parents[e.Target], e.Source)
	}

	d.topoOrder, d.cyclic = d.topoSort()
	return d
}

func (d *DAG) topoSort() ([]string, bool) {
	inDegree := make(map[string]int, len(d.nodes))
	for id := range d.nodes {
		inDegree[id] = 0
	}
	for _, children := range d.children {
		for _, c := range children {
			inDegree[c]++
		}
	}
	var queue []string
	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)
	var order []string
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)
		for _, c := range d.children[node] {
			inDegree[c]--
			if inDegree[c] == 0 {
				queue = append(queue, c)
			}
		}
		sort.Strings(queue)
	}
	return order, len(order) != len(d.nodes)
}

// TopologicalOrder returns node ids so that every edge points forward.
func (d *DAG) TopologicalOrder() ([]string, error) {
	if d.cyclic {
		return nil, ErrCycle
	}
	return d.topoOrder, nil
}

func (d *DAG) HasCycle() bool                 { return d.cyclic }
func (d *DAG) Children(nodeID string) []string { return d.children[nodeID] }
func (d *DAG) Parents(nodeID string) []string  { return d.parents[nodeID] }
func (d *DAG) Node(id string) *workflow.Node   { return d.nodes[id] }
func (d *DAG) DanglingEdges() []workflow.Edge  { return d.dangling }
func (d *DAG) DuplicateIDs() []string          { return d.duplicates }

// Roots returns nodes without parents, in snapshot order.
func (d *DAG) Roots() []string {
	var roots []string
	for _, id := range d.order {
		if len(d.parents[id]) == 0 {
			roots = append(roots, id)
		}
	}
	return roots
}

// Isolated returns nodes that no edge touches, dangling edges included, in
// snapshot order.
func (d *DAG) Isolated(edges []workflow.Edge) []string {
	touched := make(map[string]bool, len(edges)*2)
	for _, e := range edges {
		touched[e.Source] = true
		touched[e.Target] = true
	}
	var out []string
	for _, id := range d.order {
		if !touched[id] {
			out = append(out, id)
		}
	}
	return out
}
