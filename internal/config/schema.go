// Package config handles YAML configuration loading, environment variable
// expansion, and structural validation for memorymate.
package config

import "time"

// Supported model provider kinds.
const (
	ProviderOpenAICompatible = "openai_compatible"
	ProviderAnthropic        = "anthropic"
)

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	Model   ModelConfig   `yaml:"model"`
	Storage StorageConfig `yaml:"storage"`
	Memory  MemoryConfig  `yaml:"memory"`
	Agent   AgentConfig   `yaml:"agent"`
	Gateway GatewayConfig `yaml:"gateway"`
}

// ModelConfig selects and configures the LLM backend.
type ModelConfig struct {
	// Provider is the backend kind: "openai_compatible" or "anthropic".
	Provider string `yaml:"provider"`

	// ID is the model identifier passed to the backend
	// (e.g. "gpt-4o-mini" or "claude-sonnet-4-20250514").
	ID string `yaml:"id"`

	// BaseURL overrides the backend endpoint. Required for
	// openai_compatible, optional for anthropic.
	BaseURL string `yaml:"base_url,omitempty"`

	// APIKey authenticates against the backend. Usually set via
	// ${OPENAI_API_KEY} or ${ANTHROPIC_API_KEY} expansion.
	APIKey string `yaml:"api_key,omitempty"`

	MaxTokens int `yaml:"max_tokens,omitempty"`

	// Temperature is optional; nil leaves the backend default in place.
	// An explicit 0 is a valid setting.
	Temperature *float64 `yaml:"temperature,omitempty"`

	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// StorageConfig locates the on-disk databases.
type StorageConfig struct {
	// DataDir holds agent_storage.db and agent_memory.db.
	DataDir string `yaml:"data_dir"`
}

// MemoryConfig controls the memory and summary pipeline.
type MemoryConfig struct {
	// CreateUserMemories enables extraction of durable user facts.
	CreateUserMemories bool `yaml:"create_user_memories"`

	// UpdateAfterRun refreshes memories after every exchange.
	UpdateAfterRun bool `yaml:"update_after_run"`

	// CreateSessionSummary maintains a rolling per-session summary.
	CreateSessionSummary bool `yaml:"create_session_summary"`

	// HistoryResponses is how many prior turns are replayed into the
	// prompt and shown on resume.
	HistoryResponses int `yaml:"history_responses,omitempty"`
}

// AgentConfig shapes the assistant's persona.
type AgentConfig struct {
	// Description is prepended to the system prompt.
	Description string `yaml:"description,omitempty"`
}

// GatewayConfig configures the optional HTTP gateway.
type GatewayConfig struct {
	// Listen is the bind address (e.g. "127.0.0.1:8421").
	Listen string `yaml:"listen,omitempty"`

	// AllowedOrigin restricts browser WebSocket connections.
	AllowedOrigin string `yaml:"allowed_origin,omitempty"`
}

// Defaults applied by Load for fields left unset.
const (
	DefaultDataDir          = "data"
	DefaultHistoryResponses = 10
	DefaultListen           = "127.0.0.1:8421"
	DefaultTimeout          = 120 * time.Second
)

// applyDefaults fills unset fields in place.
func (c *Config) applyDefaults() {
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = DefaultDataDir
	}
	if c.Memory.HistoryResponses <= 0 {
		c.Memory.HistoryResponses = DefaultHistoryResponses
	}
	if c.Gateway.Listen == "" {
		c.Gateway.Listen = DefaultListen
	}
	if c.Model.Timeout <= 0 {
		c.Model.Timeout = DefaultTimeout
	}
}
