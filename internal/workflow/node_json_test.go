package workflow

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeJSON_WireShape(t *testing.T) {
	n := NewNode("llm-1", KindLLMEngine, Position{X: 10, Y: 20})
	b, err := json.Marshal(n)
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(b, &wire))
	assert.Equal(t, "llm-1", wire["id"])
	assert.Equal(t, "llmEngine", wire["type"])
	assert.Equal(t, map[string]any{"x": 10.0, "y": 20.0}, wire["position"])

	data := wire["data"].(map[string]any)
	assert.Equal(t, "LLM Engine", data["label"])
	cfg := data["config"].(map[string]any)
	assert.Equal(t, "openai", cfg["provider"])
	assert.Equal(t, "gpt-4o", cfg["model"])
}

func TestNodeJSON_RoundTrip(t *testing.T) {
	nodes := []Node{
		NewNode("u1", KindUserQuery, Position{}),
		{ID: "kb", Kind: KindKnowledgeBase, Data: NodeData{Label: "", Config: KnowledgeBaseConfig{FileName: "a.pdf"}}},
		{ID: "o", Kind: KindOutput, Position: Position{X: -3.5}, Data: NodeData{Label: "Answer", Config: OutputConfig{DisplayFormat: DisplayText}}},
	}
	b, err := json.Marshal(nodes)
	require.NoError(t, err)

	var got []Node
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, nodes, got)
}

func TestNodeJSON_MissingDataUsesDefaults(t *testing.T) {
	var n Node
	require.NoError(t, json.Unmarshal([]byte(`{"id":"o1","type":"output"}`), &n))
	assert.Equal(t, "Output", n.Data.Label)
	assert.Equal(t, OutputConfig{DisplayFormat: DisplayChat}, n.Data.Config)
}

func TestNodeJSON_NullConfig(t *testing.T) {
	var n Node
	require.NoError(t, json.Unmarshal([]byte(`{"id":"q","type":"userQuery","data":{"label":"Ask","config":null}}`), &n))
	assert.Equal(t, "Ask", n.Data.Label)
	assert.Equal(t, DefaultConfig(KindUserQuery), n.Data.Config)
}

func TestCloneNodes_DetachesGenericConfig(t *testing.T) {
	nodes := []Node{{ID: "x", Kind: "custom", Data: NodeData{Config: GenericConfig{"a": 1}}}}
	clone := CloneNodes(nodes)
	clone[0].Data.Config.(GenericConfig)["a"] = 2
	assert.Equal(t, 1, nodes[0].Data.Config.(GenericConfig)["a"])
}
