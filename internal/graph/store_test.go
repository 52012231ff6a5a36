package graph

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/soochol/flowdesk/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(id string, kind workflow.NodeKind) workflow.Node {
	return workflow.NewNode(id, kind, workflow.Position{})
}

func edge(id, from, to string) workflow.Edge {
	return workflow.Edge{ID: id, Source: from, Target: to}
}

func TestStore_AddNodeFillsDefaults(t *testing.T) {
	s := New()
	require.NoError(t, s.AddNode(workflow.Node{ID: "l1", Kind: workflow.KindLLMEngine}))

	n, ok := s.Node("l1")
	require.True(t, ok)
	assert.Equal(t, "LLM Engine", n.Data.Label)
	assert.Equal(t, workflow.DefaultConfig(workflow.KindLLMEngine), n.Data.Config)
}

func TestStore_DuplicateIDs(t *testing.T) {
	t.Run("strict", func(t *testing.T) {
		s := New()
		require.NoError(t, s.AddNode(node("a", workflow.KindOutput)))
		assert.ErrorIs(t, s.AddNode(node("a", workflow.KindOutput)), ErrDuplicateID)

		require.NoError(t, s.AddEdge(edge("e", "a", "a")))
		assert.ErrorIs(t, s.AddEdge(edge("e", "a", "a")), ErrDuplicateID)
		assert.Len(t, s.Snapshot().Nodes, 1)
	})
	t.Run("lenient", func(t *testing.T) {
		s := New(WithStrictIDs(false))
		require.NoError(t, s.AddNode(node("a", workflow.KindOutput)))
		require.NoError(t, s.AddNode(node("a", workflow.KindOutput)))
		assert.Len(t, s.Snapshot().Nodes, 2)
	})
}

func TestStore_StrictEdges(t *testing.T) {
	s := New(WithStrictEdges(true))
	require.NoError(t, s.AddNode(node("a", workflow.KindUserQuery)))
	assert.ErrorIs(t, s.AddEdge(edge("e1", "a", "ghost")), ErrDanglingEdge)

	lenient := New()
	assert.NoError(t, lenient.AddEdge(edge("e1", "a", "ghost")))
}

func TestStore_UpdateNodeMergesConfig(t *testing.T) {
	s := New()
	require.NoError(t, s.AddNode(node("l1", workflow.KindLLMEngine)))

	require.NoError(t, s.UpdateNode("l1", NodePatch{Config: map[string]any{"model": "gpt-4.1"}}))

	n, _ := s.Node("l1")
	cfg := n.Data.Config.(workflow.LLMEngineConfig)
	assert.Equal(t, "gpt-4.1", cfg.Model)
	assert.Equal(t, workflow.ProviderOpenAI, cfg.Provider)
	assert.Equal(t, 0.7, cfg.Temperature)
	assert.Equal(t, 1000, cfg.MaxTokens)
	assert.Equal(t, "LLM Engine", n.Data.Label)
}

func TestStore_UpdateNodeLabelOnly(t *testing.T) {
	s := New()
	require.NoError(t, s.AddNode(node("o1", workflow.KindOutput)))
	label := "Answer"
	require.NoError(t, s.UpdateNode("o1", NodePatch{Label: &label}))

	n, _ := s.Node("o1")
	assert.Equal(t, "Answer", n.Data.Label)
	assert.Equal(t, workflow.DefaultConfig(workflow.KindOutput), n.Data.Config)
}

func TestStore_UpdateNodeMissingIsNoop(t *testing.T) {
	s := New()
	assert.NoError(t, s.UpdateNode("nope", NodePatch{Config: map[string]any{"x": 1}}))
	assert.Empty(t, s.Snapshot().Nodes)
}

func TestStore_UpdateNodeRejectsInvalidConfig(t *testing.T) {
	s := New()
	require.NoError(t, s.AddNode(node("l1", workflow.KindLLMEngine)))

	err := s.UpdateNode("l1", NodePatch{Config: map[string]any{"temperature": 3}})
	assert.ErrorIs(t, err, workflow.ErrInvalidConfig)

	n, _ := s.Node("l1")
	assert.Equal(t, 0.7, n.Data.Config.(workflow.LLMEngineConfig).Temperature)
}

func TestStore_RemoveNodeCascades(t *testing.T) {
	s := New()
	for _, id := range []string{"u1", "l1", "o1"} {
		require.NoError(t, s.AddNode(node(id, workflow.KindLLMEngine)))
	}
	require.NoError(t, s.AddEdge(edge("e1", "u1", "l1")))
	require.NoError(t, s.AddEdge(edge("e2", "l1", "o1")))
	require.NoError(t, s.AddEdge(edge("e3", "u1", "o1")))
	require.True(t, s.SetSelectedNode("l1"))

	s.RemoveNode("l1")

	snap := s.Snapshot()
	assert.Len(t, snap.Nodes, 2)
	assert.Equal(t, []workflow.Edge{edge("e3", "u1", "o1")}, snap.Edges)
	_, selected := s.SelectedNode()
	assert.False(t, selected)
}

func TestStore_RemoveNodeLeavesNoTouchingEdges(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		s := New(WithStrictIDs(false))
		ids := make([]string, 1+rng.Intn(6))
		for i := range ids {
			ids[i] = fmt.Sprintf("n%d", i)
			require.NoError(t, s.AddNode(node(ids[i], workflow.KindOutput)))
		}
		for e := 0; e < rng.Intn(12); e++ {
			require.NoError(t, s.AddEdge(edge(fmt.Sprintf("e%d", e), ids[rng.Intn(len(ids))], ids[rng.Intn(len(ids))])))
		}
		victim := ids[rng.Intn(len(ids))]
		s.RemoveNode(victim)
		for _, e := range s.Snapshot().Edges {
			assert.NotEqual(t, victim, e.Source)
			assert.NotEqual(t, victim, e.Target)
		}
	}
}

func TestStore_Selection(t *testing.T) {
	s := New()
	require.NoError(t, s.AddNode(node("a", workflow.KindUserQuery)))
	require.NoError(t, s.AddNode(node("b", workflow.KindOutput)))

	assert.True(t, s.SetSelectedNode("a"))
	assert.True(t, s.SetSelectedNode("b"))
	n, ok := s.SelectedNode()
	require.True(t, ok)
	assert.Equal(t, "b", n.ID)

	assert.False(t, s.SetSelectedNode("ghost"))
	n, _ = s.SelectedNode()
	assert.Equal(t, "b", n.ID)

	assert.True(t, s.SetSelectedNode(""))
	_, ok = s.SelectedNode()
	assert.False(t, ok)
}

func TestStore_SetNodesDropsStaleSelection(t *testing.T) {
	s := New()
	require.NoError(t, s.AddNode(node("a", workflow.KindUserQuery)))
	s.SetSelectedNode("a")

	require.NoError(t, s.SetNodes([]workflow.Node{node("b", workflow.KindOutput)}))

	_, ok := s.SelectedNode()
	assert.False(t, ok)
	assert.Equal(t, "b", s.Snapshot().Nodes[0].ID)
}

func TestStore_ChatTranscript(t *testing.T) {
	s := New()
	for i := 0; i < 3; i++ {
		s.AddChatMessage(workflow.NewChatMessage(workflow.RoleUser, fmt.Sprint(i)))
	}
	require.Len(t, s.Transcript(), 3)

	s.ClearChat()
	assert.Empty(t, s.Transcript())

	s.AddChatMessage(workflow.NewChatMessage(workflow.RoleAssistant, "fresh"))
	got := s.Transcript()
	require.Len(t, got, 1)
	assert.Equal(t, "fresh", got[0].Content)
}

func TestStore_SnapshotIsDetached(t *testing.T) {
	s := New()
	require.NoError(t, s.AddNode(node("a", workflow.KindUserQuery)))
	snap := s.Snapshot()
	snap.Nodes[0].Data.Label = "mutated"

	n, _ := s.Node("a")
	assert.Equal(t, "User Query", n.Data.Label)
}

func TestStore_TryBeginExecution(t *testing.T) {
	s := New()
	assert.True(t, s.TryBeginExecution())
	assert.True(t, s.IsExecuting())
	assert.False(t, s.TryBeginExecution())
	s.SetIsExecuting(false)
	assert.True(t, s.TryBeginExecution())
}

func TestStore_EmitsEvents(t *testing.T) {
	s := New()
	var got []EventType
	s.Events().Subscribe(func(e Event) { got = append(got, e.Type) })

	require.NoError(t, s.AddNode(node("a", workflow.KindUserQuery)))
	s.SetSelectedNode("a")
	s.RemoveNode("a")

	assert.Equal(t, []EventType{EventNodeAdded, EventSelectionChanged, EventNodeRemoved, EventSelectionChanged}, got)
}

func TestStore_SubscriberMayReadStore(t *testing.T) {
	s := New()
	var seen int
	s.Events().Subscribe(func(e Event) { seen = len(s.Snapshot().Nodes) })
	require.NoError(t, s.AddNode(node("a", workflow.KindUserQuery)))
	assert.Equal(t, 1, seen)
}

func TestStore_Replace(t *testing.T) {
	s := New()
	require.NoError(t, s.AddNode(node("old", workflow.KindUserQuery)))
	s.SetSelectedNode("old")

	require.NoError(t, s.Replace(workflow.Snapshot{
		Nodes: []workflow.Node{node("u", workflow.KindUserQuery), node("o", workflow.KindOutput)},
		Edges: []workflow.Edge{edge("e", "u", "o")},
	}))

	snap := s.Snapshot()
	assert.Len(t, snap.Nodes, 2)
	assert.Len(t, snap.Edges, 1)
	_, ok := s.SelectedNode()
	assert.False(t, ok)
}

func TestStore_BulkReplaceRejectsDuplicateIDs(t *testing.T) {
	s := New()
	require.NoError(t, s.AddNode(node("keep", workflow.KindUserQuery)))

	err := s.SetNodes([]workflow.Node{node("a", workflow.KindUserQuery), node("a", workflow.KindOutput)})
	assert.ErrorIs(t, err, ErrDuplicateID)
	require.Len(t, s.Snapshot().Nodes, 1)
	assert.Equal(t, "keep", s.Snapshot().Nodes[0].ID)

	assert.ErrorIs(t, s.SetEdges([]workflow.Edge{edge("e", "keep", "keep"), edge("e", "keep", "keep")}), ErrDuplicateID)
	assert.Empty(t, s.Snapshot().Edges)

	err = s.Replace(workflow.Snapshot{Nodes: []workflow.Node{node("x", workflow.KindUserQuery), node("x", workflow.KindOutput)}})
	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.Equal(t, "keep", s.Snapshot().Nodes[0].ID)

	lenient := New(WithStrictIDs(false))
	require.NoError(t, lenient.SetNodes([]workflow.Node{node("a", workflow.KindUserQuery), node("a", workflow.KindOutput)}))
	assert.Len(t, lenient.Snapshot().Nodes, 2)
}

func TestStore_BulkReplaceStrictEdges(t *testing.T) {
	s := New(WithStrictEdges(true))
	require.NoError(t, s.AddNode(node("u", workflow.KindUserQuery)))

	assert.ErrorIs(t, s.SetEdges([]workflow.Edge{edge("e", "u", "ghost")}), ErrDanglingEdge)
	assert.Empty(t, s.Snapshot().Edges)

	err := s.Replace(workflow.Snapshot{
		Nodes: []workflow.Node{node("x", workflow.KindUserQuery)},
		Edges: []workflow.Edge{edge("e", "x", "ghost")},
	})
	assert.ErrorIs(t, err, ErrDanglingEdge)
	assert.Equal(t, "u", s.Snapshot().Nodes[0].ID)

	lenient := New()
	require.NoError(t, lenient.SetEdges([]workflow.Edge{edge("e", "u", "ghost")}))
	assert.Len(t, lenient.Snapshot().Edges, 1)
}
