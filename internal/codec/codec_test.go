package codec

import (
	"bytes"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soochol/flowdesk/internal/workflow"
)

func sampleSnapshot() workflow.Snapshot {
	kb := workflow.NewNode("kb-1", workflow.KindKnowledgeBase, workflow.Position{X: 100, Y: 200})
	kb.Data.Config = workflow.KnowledgeBaseConfig{FileName: "handbook.pdf", EmbeddingProvider: workflow.EmbeddingGemini}
	return workflow.Snapshot{
		Nodes: []workflow.Node{
			workflow.NewNode("uq-1", workflow.KindUserQuery, workflow.Position{X: 0, Y: 0}),
			kb,
			workflow.NewNode("llm-1", workflow.KindLLMEngine, workflow.Position{X: 250.5, Y: 80}),
			workflow.NewNode("out-1", workflow.KindOutput, workflow.Position{X: 500, Y: 0}),
		},
		Edges: []workflow.Edge{
			{ID: "e1", Source: "uq-1", Target: "llm-1"},
			{ID: "e2", Source: "kb-1", Target: "llm-1", Type: "smoothstep"},
			{ID: "e3", Source: "llm-1", Target: "out-1"},
		},
	}
}

func TestSerialize_Timestamp(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 30, 0, 0, time.FixedZone("KST", 9*3600))
	doc := Serialize(workflow.Snapshot{}, at)

	assert.Equal(t, "2024-03-01T03:30:00Z", doc.Timestamp)
	assert.NotNil(t, doc.Nodes)
	assert.NotNil(t, doc.Edges)
}

func TestEncode_JSONShape(t *testing.T) {
	doc := Serialize(sampleSnapshot(), time.Unix(0, 0))
	out, err := Marshal(doc, FormatJSON)
	require.NoError(t, err)

	s := string(out)
	assert.True(t, strings.HasPrefix(s, "{\n  \"nodes\": ["), s)
	assert.Contains(t, s, `"type": "knowledgeBase"`)
	assert.Contains(t, s, `"fileName": "handbook.pdf"`)
	assert.Contains(t, s, `"label": "LLM Engine"`)
	assert.Contains(t, s, `"timestamp": "1970-01-01T00:00:00Z"`)
}

func TestEncode_YAMLUsesWireNames(t *testing.T) {
	doc := Serialize(sampleSnapshot(), time.Unix(0, 0))
	out, err := Marshal(doc, FormatYAML)
	require.NoError(t, err)

	s := string(out)
	assert.Contains(t, s, "embeddingProvider: gemini")
	assert.Contains(t, s, "type: userQuery")
	assert.NotContains(t, s, "EmbeddingProvider")
}

func TestEncode_UnknownFormat(t *testing.T) {
	err := Encode(&bytes.Buffer{}, Document{}, Format("xml"))
	assert.Error(t, err)
}

func TestRoundTrip(t *testing.T) {
	for _, f := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(f), func(t *testing.T) {
			snap := sampleSnapshot()
			out, err := Marshal(Serialize(snap, time.Now()), f)
			require.NoError(t, err)

			doc, err := Deserialize(out)
			require.NoError(t, err)
			assert.Equal(t, snap, doc.Snapshot())
		})
	}
}

func TestRoundTrip_Random(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		snap := randomSnapshot(rng)
		for _, f := range []Format{FormatJSON, FormatYAML} {
			out, err := Marshal(Serialize(snap, time.Now()), f)
			require.NoError(t, err)
			doc, err := Deserialize(out)
			require.NoError(t, err, "iteration %d format %s", i, f)
			require.Equal(t, snap, doc.Snapshot(), "iteration %d format %s", i, f)
		}
	}
}

func randomSnapshot(rng *rand.Rand) workflow.Snapshot {
	n := rng.Intn(8)
	nodes := make([]workflow.Node, 0, n)
	for i := 0; i < n; i++ {
		kind := workflow.Kinds[rng.Intn(len(workflow.Kinds))]
		pos := workflow.Position{X: float64(rng.Intn(2000)) / 4, Y: float64(rng.Intn(2000)) / 4}
		node := workflow.NewNode(fmt.Sprintf("n%d", i), kind, pos)
		if kind == workflow.KindLLMEngine {
			node.Data.Config = workflow.LLMEngineConfig{
				Provider:    workflow.ProviderGroq,
				Model:       "mixtral",
				Temperature: float64(rng.Intn(11)) / 10,
				MaxTokens:   rng.Intn(4000),
			}
		}
		if rng.Intn(3) == 0 {
			node.Data.Label = fmt.Sprintf("step %d", i)
		}
		nodes = append(nodes, node)
	}
	edges := make([]workflow.Edge, 0)
	m := rng.Intn(10)
	for i := 0; n > 0 && i < m; i++ {
		edges = append(edges, workflow.Edge{
			ID:     fmt.Sprintf("e%d", i),
			Source: fmt.Sprintf("n%d", rng.Intn(n)),
			Target: fmt.Sprintf("n%d", rng.Intn(n+1)),
		})
	}
	return workflow.Snapshot{Nodes: nodes, Edges: edges}
}

func TestDeserialize_DefaultsForAbsentFields(t *testing.T) {
	doc, err := Deserialize([]byte(`{"nodes":[{"id":"a","type":"llmEngine"}],"edges":[]}`))
	require.NoError(t, err)
	require.Len(t, doc.Nodes, 1)

	n := doc.Nodes[0]
	assert.Equal(t, "LLM Engine", n.Data.Label)
	assert.Equal(t, workflow.DefaultConfig(workflow.KindLLMEngine), n.Data.Config)
	assert.Empty(t, doc.Timestamp)
}

func TestDeserialize_YAML(t *testing.T) {
	in := `
nodes:
  - id: q
    type: userQuery
    data:
      config:
        query: hello
  - id: o
    type: output
edges:
  - id: e
    source: q
    target: o
`
	doc, err := Deserialize([]byte(in))
	require.NoError(t, err)
	require.Len(t, doc.Nodes, 2)
	cfg, ok := workflow.ConfigAs[workflow.UserQueryConfig](doc.Nodes[0].Data.Config)
	require.True(t, ok)
	assert.Equal(t, "hello", cfg.Query)
	assert.Equal(t, "Enter your question...", cfg.Placeholder)
	assert.Equal(t, "q", doc.Edges[0].Source)
}

func TestDeserialize_Malformed(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", "  "},
		{"not json", "{nodes: ["},
		{"scalar", "hello"},
		{"array", "[]"},
		{"missing edges", `{"nodes":[]}`},
		{"nodes not array", `{"nodes":{},"edges":[]}`},
		{"node without id", `{"nodes":[{"type":"output"}],"edges":[]}`},
		{"unknown kind", `{"nodes":[{"id":"a","type":"webhook"}],"edges":[]}`},
		{"edge without target", `{"nodes":[],"edges":[{"id":"e","source":"a"}]}`},
		{"config wrong type", `{"nodes":[{"id":"a","type":"llmEngine","data":{"config":{"temperature":"hot"}}}],"edges":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Deserialize([]byte(tt.in))
			assert.ErrorIs(t, err, ErrMalformedDocument)
		})
	}
}

func TestFilename(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	assert.Equal(t, "workflow-1700000000123.json", Filename(at, FormatJSON))
	assert.Equal(t, "workflow-1700000000123.yaml", Filename(at, FormatYAML))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ParseFormat("YML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = ParseFormat("toml")
	assert.Error(t, err)
}
