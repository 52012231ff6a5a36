package api

import (
	"net/http"

	"github.com/soochol/flowdesk/internal/workflow"
)

type nodeTypeInfo struct {
	Type          workflow.NodeKind                 `json:"type"`
	Label         string                            `json:"label"`
	Description   string                            `json:"description"`
	DefaultConfig workflow.NodeConfig               `json:"defaultConfig"`
	Fields        []string                          `json:"fields"`
	Models        map[workflow.LLMProvider][]string `json:"models,omitempty"`
	Embeddings    []workflow.EmbeddingProvider      `json:"embeddingProviders,omitempty"`
}

// listNodeTypes describes the palette: every kind with its defaults and the
// choices its config form offers.
func (s *Server) listNodeTypes(w http.ResponseWriter, r *http.Request) {
	out := make([]nodeTypeInfo, 0, len(workflow.Kinds))
	for _, k := range workflow.Kinds {
		info := nodeTypeInfo{
			Type:          k,
			Label:         k.DefaultLabel(),
			Description:   k.Description(),
			DefaultConfig: workflow.DefaultConfig(k),
			Fields:        workflow.Fields(k),
		}
		switch k {
		case workflow.KindLLMEngine:
			info.Models = make(map[workflow.LLMProvider][]string, len(workflow.LLMProviders))
			for _, p := range workflow.LLMProviders {
				info.Models[p] = workflow.KnownModels(p)
			}
		case workflow.KindKnowledgeBase:
			info.Embeddings = workflow.EmbeddingProviders
		}
		out = append(out, info)
	}
	writeJSON(w, http.StatusOK, out)
}
