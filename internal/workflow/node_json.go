package workflow

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type nodeJSON struct {
	ID       string   `json:"id"`
	Type     NodeKind `json:"type"`
	Position Position `json:"position"`
	Data     dataJSON `json:"data"`
}

type dataJSON struct {
	Label  *string         `json:"label,omitempty"`
	Config json.RawMessage `json:"config,omitempty"`
}

// MarshalJSON writes the node in the editor's wire shape:
// {"id","type","position":{"x","y"},"data":{"label","config"}}.
func (n Node) MarshalJSON() ([]byte, error) {
	label := n.Data.Label
	out := nodeJSON{
		ID:       n.ID,
		Type:     n.Kind,
		Position: n.Position,
		Data:     dataJSON{Label: &label},
	}
	if n.Data.Config != nil {
		raw, err := json.Marshal(n.Data.Config)
		if err != nil {
			return nil, fmt.Errorf("marshal config of node %s: %w", n.ID, err)
		}
		out.Data.Config = raw
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the wire shape. A missing label or missing config
// fields fall back to the defaults of the node's kind.
func (n *Node) UnmarshalJSON(b []byte) error {
	var in nodeJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	raw := in.Data.Config
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		raw = nil
	}
	cfg, err := DecodeConfig(in.Type, raw)
	if err != nil {
		return fmt.Errorf("node %s: %w", in.ID, err)
	}
	label := in.Type.DefaultLabel()
	if in.Data.Label != nil {
		label = *in.Data.Label
	}
	*n = Node{
		ID:       in.ID,
		Kind:     in.Type,
		Position: in.Position,
		Data:     NodeData{Label: label, Config: cfg},
	}
	return nil
}
