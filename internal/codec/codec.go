// Package codec reads and writes the workflow interchange document that the
// editor downloads and uploads: {"nodes": [...], "edges": [...], "timestamp"}.
package codec

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/soochol/flowdesk/internal/workflow"
)

// ErrMalformedDocument is returned for input that cannot be parsed or does
// not have the interchange document's shape.
var ErrMalformedDocument = errors.New("malformed workflow document")

//go:embed schema.json
var schemaJSON []byte

var documentSchema = mustSchema()

func mustSchema() *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	if err != nil {
		panic(fmt.Sprintf("codec: invalid embedded schema: %v", err))
	}
	return s
}

// Format selects the encoding of a document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat maps a user-supplied name to a Format. Empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown document format %q", s)
}

// ContentType returns the MIME type to serve a document with.
func (f Format) ContentType() string {
	if f == FormatYAML {
		return "application/yaml"
	}
	return "application/json"
}

// Document is the interchange form of a workflow.
type Document struct {
	Nodes     []workflow.Node `json:"nodes"`
	Edges     []workflow.Edge `json:"edges"`
	Timestamp string          `json:"timestamp,omitempty"`
}

// Snapshot returns the nodes and edges of the document.
func (d Document) Snapshot() workflow.Snapshot {
	return workflow.Snapshot{Nodes: d.Nodes, Edges: d.Edges}
}

// Serialize captures snap as a document stamped with at.
func Serialize(snap workflow.Snapshot, at time.Time) Document {
	snap = snap.Clone()
	doc := Document{
		Nodes:     snap.Nodes,
		Edges:     snap.Edges,
		Timestamp: at.UTC().Format(time.RFC3339Nano),
	}
	if doc.Nodes == nil {
		doc.Nodes = []workflow.Node{}
	}
	if doc.Edges == nil {
		doc.Edges = []workflow.Edge{}
	}
	return doc
}

// Encode writes doc to w in the given format. JSON is indented by two
// spaces.
func Encode(w io.Writer, doc Document, format Format) error {
	switch format {
	case "", FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	case FormatYAML:
		// Go through the JSON form so node configs keep their wire names.
		raw, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		var tree map[string]any
		if err := json.Unmarshal(raw, &tree); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(tree); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown document format %q", format)
}

// Marshal is Encode into a byte slice.
func Marshal(doc Document, format Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, doc, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Deserialize parses a JSON or YAML document and checks it against the
// document schema. Node fields that are absent take their kind's defaults.
func Deserialize(data []byte) (Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Document{}, fmt.Errorf("%w: empty input", ErrMalformedDocument)
	}

	tree, err := decodeTree(data)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	result, err := documentSchema.Validate(gojsonschema.NewGoLoader(tree))
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if !result.Valid() {
		var msgs []string
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return Document{}, fmt.Errorf("%w: %s", ErrMalformedDocument, strings.Join(msgs, "; "))
	}

	raw, err := json.Marshal(tree)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if doc.Nodes == nil {
		doc.Nodes = []workflow.Node{}
	}
	if doc.Edges == nil {
		doc.Edges = []workflow.Edge{}
	}
	return doc, nil
}

func decodeTree(data []byte) (any, error) {
	var tree any
	trimmed := bytes.TrimSpace(data)
	if trimmed[0] == '{' || trimmed[0] == '[' {
		err := json.Unmarshal(trimmed, &tree)
		return tree, err
	}
	err := yaml.Unmarshal(trimmed, &tree)
	return tree, err
}

// Filename is the download name for a document written at at.
func Filename(at time.Time, format Format) string {
	ext := "json"
	if format == FormatYAML {
		ext = "yaml"
	}
	return fmt.Sprintf("workflow-%d.%s", at.UnixMilli(), ext)
}
