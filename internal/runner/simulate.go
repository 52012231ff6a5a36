package runner

import (
	"fmt"
	"strings"

	"github.com/soochol/flowdesk/internal/dag"
	"github.com/soochol/flowdesk/internal/workflow"
)

// Simulate builds the offline answer for query. It echoes the query and
// names the first knowledge base file and the first LLM engine's provider
// and model, in snapshot order.
func Simulate(query string, snap workflow.Snapshot) *Result {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Simulated response for query: \"%s\"", query)

	if kb, ok := workflow.FirstOfKind(snap.Nodes, workflow.KindKnowledgeBase); ok {
		if cfg, ok := workflow.ConfigAs[workflow.KnowledgeBaseConfig](kb.Data.Config); ok && cfg.FileName != "" {
			fmt.Fprintf(&sb, "\n\nKnowledge from %s has been processed.", cfg.FileName)
		}
	}
	if llm, ok := workflow.FirstOfKind(snap.Nodes, workflow.KindLLMEngine); ok {
		if cfg, ok := workflow.ConfigAs[workflow.LLMEngineConfig](llm.Data.Config); ok && cfg.Provider != "" {
			engine := strings.TrimSpace(string(cfg.Provider) + " " + cfg.Model)
			fmt.Fprintf(&sb, "\n\nProcessed using %s.", engine)
		}
	}

	meta := map[string]any{
		"node_count": len(snap.Nodes),
		"edge_count": len(snap.Edges),
	}
	if order, err := dag.Build(snap).TopologicalOrder(); err == nil {
		meta["execution_order"] = order
	}

	return &Result{
		Success:     true,
		Response:    sb.String(),
		ExecutionID: workflow.GenerateID("sim"),
		Metadata:    meta,
		Simulated:   true,
	}
}

// SimulateUpload acknowledges a document the runner never saw.
func SimulateUpload(req UploadRequest) *UploadResult {
	return &UploadResult{
		Success:    true,
		Message:    fmt.Sprintf("PDF \"%s\" processed successfully with %s", req.Filename, req.EmbeddingProvider),
		DocumentID: workflow.GenerateID("sim-doc"),
		Simulated:  true,
	}
}
