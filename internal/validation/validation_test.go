package validation

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/soochol/flowdesk/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func n(id string, kind workflow.NodeKind) workflow.Node {
	return workflow.NewNode(id, kind, workflow.Position{})
}

func e(id, from, to string) workflow.Edge {
	return workflow.Edge{ID: id, Source: from, Target: to}
}

func TestValidate_EmptyGraph(t *testing.T) {
	_, err := Validate(nil, nil)
	assert.ErrorIs(t, err, ErrMissingEntryPoint)
	assert.True(t, IsValidationError(err))
	assert.Equal(t, "missing_entry_point", Code(err))
}

func TestValidate_MissingOutput(t *testing.T) {
	_, err := Validate([]workflow.Node{n("u1", workflow.KindUserQuery)}, nil)
	assert.ErrorIs(t, err, ErrMissingOutput)
	assert.Equal(t, "missing_output", Code(err))
}

func TestValidate_EntryPointCheckedFirst(t *testing.T) {
	_, err := Validate([]workflow.Node{n("l1", workflow.KindLLMEngine)}, nil)
	assert.ErrorIs(t, err, ErrMissingEntryPoint)
}

func TestValidate_NoEntryPointRegardlessOfEdges(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	others := []workflow.NodeKind{workflow.KindKnowledgeBase, workflow.KindLLMEngine, workflow.KindOutput}
	for round := 0; round < 50; round++ {
		var nodes []workflow.Node
		for i := 0; i < rng.Intn(5); i++ {
			nodes = append(nodes, n(fmt.Sprintf("n%d", i), others[rng.Intn(len(others))]))
		}
		var edges []workflow.Edge
		for i := 0; i < rng.Intn(6); i++ {
			edges = append(edges, e(fmt.Sprintf("e%d", i), fmt.Sprintf("n%d", rng.Intn(6)), fmt.Sprintf("n%d", rng.Intn(6))))
		}
		_, err := Validate(nodes, edges)
		assert.ErrorIs(t, err, ErrMissingEntryPoint)
	}
}

func TestValidate_ValidWithArbitraryEdges(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for round := 0; round < 50; round++ {
		nodes := []workflow.Node{n("u", workflow.KindUserQuery), n("o", workflow.KindOutput)}
		for i := 0; i < rng.Intn(4); i++ {
			nodes = append(nodes, n(fmt.Sprintf("x%d", i), workflow.KindLLMEngine))
		}
		var edges []workflow.Edge
		for i := 0; i < rng.Intn(8); i++ {
			edges = append(edges, e(fmt.Sprintf("e%d", i), fmt.Sprintf("x%d", rng.Intn(5)), "o"))
		}
		report, err := Validate(nodes, edges)
		require.NoError(t, err)
		assert.True(t, report.Valid)
	}
}

func TestValidate_DisconnectedIsAdvisory(t *testing.T) {
	report, err := Validate([]workflow.Node{n("u1", workflow.KindUserQuery), n("o1", workflow.KindOutput)}, nil)
	require.NoError(t, err)
	assert.True(t, report.Valid)
	require.True(t, report.Has(AdvisoryDisconnected))
	assert.Equal(t, []string{"u1", "o1"}, report.Advisories[0].IDs)
}

func TestValidate_ConnectedHasNoAdvisories(t *testing.T) {
	nodes := []workflow.Node{n("u1", workflow.KindUserQuery), n("l1", workflow.KindLLMEngine), n("o1", workflow.KindOutput)}
	edges := []workflow.Edge{e("e1", "u1", "l1"), e("e2", "l1", "o1")}
	report, err := Validate(nodes, edges)
	require.NoError(t, err)
	assert.Empty(t, report.Advisories)
}

func TestValidate_SingleEdgeCoversBothNodes(t *testing.T) {
	nodes := []workflow.Node{n("u1", workflow.KindUserQuery), n("o1", workflow.KindOutput)}
	report, err := Validate(nodes, []workflow.Edge{e("e1", "u1", "o1")})
	require.NoError(t, err)
	assert.False(t, report.Has(AdvisoryDisconnected))
}

func TestValidate_DanglingAndCycleAdvisories(t *testing.T) {
	nodes := []workflow.Node{n("u1", workflow.KindUserQuery), n("o1", workflow.KindOutput)}
	edges := []workflow.Edge{e("e1", "u1", "o1"), e("e2", "o1", "u1"), e("e3", "u1", "gone")}
	report, err := Validate(nodes, edges)
	require.NoError(t, err)
	assert.True(t, report.Valid)
	assert.True(t, report.Has(AdvisoryDangling))
	assert.True(t, report.Has(AdvisoryCycle))
}

func TestValidate_DuplicateIDsAdvisory(t *testing.T) {
	nodes := []workflow.Node{n("u1", workflow.KindUserQuery), n("u1", workflow.KindOutput)}
	report, err := Validate(nodes, []workflow.Edge{e("e1", "u1", "u1")})
	require.NoError(t, err)
	assert.True(t, report.Has(AdvisoryDuplicateIDs))
}
