package dag

import (
	"errors"
	"testing"

	"github.com/soochol/flowdesk/internal/workflow"
)

func snap(ids []string, edges ...[2]string) workflow.Snapshot {
	s := workflow.Snapshot{}
	for _, id := range ids {
		s.Nodes = append(s.Nodes, workflow.Node{ID: id})
	}
	for i, e := range edges {
		s.Edges = append(s.Edges, workflow.Edge{ID: string(rune('a' + i)), Source: e[0], Target: e[1]})
	}
	return s
}

func TestBuildDAG(t *testing.T) {
	d := Build(snap([]string{"a", "b", "c"}, [2]string{"a", "b"}, [2]string{"b", "c"}))
	order, err := d.TopologicalOrder()
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	if len(order) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(order))
	}
	idx := map[string]int{}
	for i, id := range order {
		idx[id] = i
	}
	if idx["a"] >= idx["b"] || idx["b"] >= idx["c"] {
		t.Fatalf("wrong order: %v", order)
	}
	if roots := d.Roots(); len(roots) != 1 || roots[0] != "a" {
		t.Errorf("roots: got %v, want [a]", roots)
	}
}

func TestBuildDAGCycleDetection(t *testing.T) {
	d := Build(snap([]string{"a", "b"}, [2]string{"a", "b"}, [2]string{"b", "a"}))
	if !d.HasCycle() {
		t.Fatal("expected cycle")
	}
	if _, err := d.TopologicalOrder(); !errors.Is(err, ErrCycle) {
		t.Fatalf("err: got %v, want ErrCycle", err)
	}
}

func TestBuildDAGDanglingAndDuplicates(t *testing.T) {
	s := snap([]string{"a", "b", "a"}, [2]string{"a", "ghost"}, [2]string{"a", "b"})
	d := Build(s)
	if got := d.DanglingEdges(); len(got) != 1 || got[0].Target != "ghost" {
		t.Errorf("dangling: got %v", got)
	}
	if got := d.DuplicateIDs(); len(got) != 1 || got[0] != "a" {
		t.Errorf("duplicates: got %v", got)
	}
	if d.HasCycle() {
		t.Error("dangling edge must not count as a cycle")
	}
}

func TestIsolated(t *testing.T) {
	s := snap([]string{"a", "b", "c"}, [2]string{"a", "b"})
	d := Build(s)
	if got := d.Isolated(s.Edges); len(got) != 1 || got[0] != "c" {
		t.Errorf("isolated: got %v, want [c]", got)
	}
}
