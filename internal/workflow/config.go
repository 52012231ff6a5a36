package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
)

// ErrInvalidConfig is returned when a config record or patch does not fit
// the schema of its node kind.
var ErrInvalidConfig = errors.New("invalid node config")

// EmbeddingProvider names the service that embeds knowledge base documents.
type EmbeddingProvider string

const (
	EmbeddingOpenAI EmbeddingProvider = "openai"
	EmbeddingCohere EmbeddingProvider = "cohere"
	EmbeddingGemini EmbeddingProvider = "gemini"
)

// EmbeddingProviders lists the supported embedding providers.
var EmbeddingProviders = []EmbeddingProvider{EmbeddingOpenAI, EmbeddingCohere, EmbeddingGemini}

// Valid reports whether p is a supported embedding provider.
func (p EmbeddingProvider) Valid() bool {
	switch p {
	case EmbeddingOpenAI, EmbeddingCohere, EmbeddingGemini:
		return true
	}
	return false
}

// LLMProvider names the vendor behind an LLM engine node.
type LLMProvider string

const (
	ProviderOpenAI    LLMProvider = "openai"
	ProviderGemini    LLMProvider = "gemini"
	ProviderGroq      LLMProvider = "groq"
	ProviderCohere    LLMProvider = "cohere"
	ProviderAnthropic LLMProvider = "anthropic"
)

// LLMProviders lists the providers offered by the LLM engine form.
var LLMProviders = []LLMProvider{ProviderOpenAI, ProviderGemini, ProviderGroq, ProviderCohere, ProviderAnthropic}

// DisplayFormat is how an output node presents the reply.
type DisplayFormat string

const (
	DisplayChat DisplayFormat = "chat"
	DisplayText DisplayFormat = "text"
)

// NodeConfig is the kind-specific configuration record of a node. The set
// of implementations is closed: one struct per NodeKind plus GenericConfig
// for kinds this build does not know.
type NodeConfig interface {
	configKind() NodeKind
}

// UserQueryConfig configures the entry point of the workflow.
type UserQueryConfig struct {
	Placeholder string `json:"placeholder"`
	Query       string `json:"query"`
}

// KnowledgeBaseConfig names the uploaded document and how it is embedded.
type KnowledgeBaseConfig struct {
	FileName          string            `json:"fileName"`
	EmbeddingProvider EmbeddingProvider `json:"embeddingProvider" validate:"omitempty,oneof=openai cohere gemini"`
	APIKey            string            `json:"apiKey"`
}

// LLMEngineConfig selects the model and sampling settings.
type LLMEngineConfig struct {
	Provider     LLMProvider `json:"provider" validate:"omitempty,oneof=openai gemini groq cohere anthropic"`
	Model        string      `json:"model"`
	APIKey       string      `json:"apiKey"`
	Temperature  float64     `json:"temperature" validate:"min=0,max=1"`
	MaxTokens    int         `json:"maxTokens" validate:"gte=0"` // 0 = unset
	SystemPrompt string      `json:"systemPrompt"`
}

// OutputConfig configures the terminal node.
type OutputConfig struct {
	DisplayFormat DisplayFormat `json:"displayFormat" validate:"omitempty,oneof=chat text"`
}

// GenericConfig holds the raw record of a node whose kind is unknown.
type GenericConfig map[string]any

func (UserQueryConfig) configKind() NodeKind     { return KindUserQuery }
func (KnowledgeBaseConfig) configKind() NodeKind { return KindKnowledgeBase }
func (LLMEngineConfig) configKind() NodeKind     { return KindLLMEngine }
func (OutputConfig) configKind() NodeKind        { return KindOutput }
func (GenericConfig) configKind() NodeKind       { return "" }

// DefaultConfig returns the config a new node of kind starts with.
// Unknown kinds get an empty record.
func DefaultConfig(kind NodeKind) NodeConfig {
	switch kind {
	case KindUserQuery:
		return UserQueryConfig{Placeholder: "Enter your question..."}
	case KindKnowledgeBase:
		return KnowledgeBaseConfig{EmbeddingProvider: EmbeddingOpenAI}
	case KindLLMEngine:
		return LLMEngineConfig{
			Provider:    ProviderOpenAI,
			Model:       "gpt-4o",
			Temperature: 0.7,
			MaxTokens:   1000,
		}
	case KindOutput:
		return OutputConfig{DisplayFormat: DisplayChat}
	}
	return GenericConfig{}
}

// Fields lists the config field names recognized for kind.
func Fields(kind NodeKind) []string {
	switch kind {
	case KindUserQuery:
		return []string{"placeholder", "query"}
	case KindKnowledgeBase:
		return []string{"fileName", "embeddingProvider", "apiKey"}
	case KindLLMEngine:
		return []string{"provider", "model", "apiKey", "temperature", "maxTokens", "systemPrompt"}
	case KindOutput:
		return []string{"displayFormat"}
	}
	return nil
}

var knownModels = map[LLMProvider][]string{
	ProviderOpenAI:    {"gpt-4o", "gpt-4.1", "o1-mini"},
	ProviderGemini:    {"gemini-2.5-pro", "gemini-2.0-flash"},
	ProviderGroq:      {"mixtral"},
	ProviderCohere:    {"command-r"},
	ProviderAnthropic: {"claude-sonnet"},
}

// KnownModels returns the models the editor offers for provider. The model
// field itself is free text.
func KnownModels(provider LLMProvider) []string {
	return append([]string(nil), knownModels[provider]...)
}

// DecodeConfig decodes raw onto the default config of kind, so fields absent
// from raw keep their kind default. Empty or null raw yields the default.
func DecodeConfig(kind NodeKind, raw []byte) (NodeConfig, error) {
	var (
		cfg NodeConfig
		err error
	)
	switch d := DefaultConfig(kind).(type) {
	case UserQueryConfig:
		cfg, err = overlay(d, raw)
	case KnowledgeBaseConfig:
		cfg, err = overlay(d, raw)
	case LLMEngineConfig:
		cfg, err = overlay(d, raw)
	case OutputConfig:
		cfg, err = overlay(d, raw)
	default:
		g := GenericConfig{}
		if len(raw) > 0 {
			err = json.Unmarshal(raw, &g)
		}
		if g == nil {
			g = GenericConfig{}
		}
		cfg = g
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, kind, err)
	}
	return cfg, nil
}

func overlay[T NodeConfig](base T, raw []byte) (NodeConfig, error) {
	if len(raw) == 0 {
		return base, nil
	}
	if err := json.Unmarshal(raw, &base); err != nil {
		return nil, err
	}
	return base, nil
}

// MergeConfig shallow-merges patch into cfg: keys present in patch replace
// the corresponding fields, everything else is kept. Keys the kind does not
// recognize are dropped.
func MergeConfig(kind NodeKind, cfg NodeConfig, patch map[string]any) (NodeConfig, error) {
	fields := map[string]any{}
	if cfg != nil {
		b, err := json.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		if err := json.Unmarshal(b, &fields); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	maps.Copy(fields, patch)
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return DecodeConfig(kind, raw)
}

// ConfigAs returns cfg as the concrete variant T.
func ConfigAs[T NodeConfig](cfg NodeConfig) (T, bool) {
	v, ok := cfg.(T)
	return v, ok
}

func cloneConfig(cfg NodeConfig) NodeConfig {
	if g, ok := cfg.(GenericConfig); ok {
		return maps.Clone(g)
	}
	return cfg
}
