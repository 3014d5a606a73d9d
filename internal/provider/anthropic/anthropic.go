// Package anthropic implements a provider backed by the Anthropic Messages
// API, using the official Go SDK for completions and streaming.
package anthropic

import (
	"context"
	"errors"
	"log/slog"
	"os"

	sdkanthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"memorymate/internal/provider"
)

// defaultMaxTokens bounds responses when the config does not set a limit.
// The Messages API requires max_tokens on every request.
const defaultMaxTokens = 4096

// Config holds the configuration for the Anthropic provider.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	// Temperature, when non-nil, applies to requests that do not set
	// their own.
	Temperature *float64
}

// defaults sets default values for unset fields.
func (c *Config) defaults() {
	if c.MaxTokens == 0 {
		c.MaxTokens = defaultMaxTokens
	}
}

// Client is a provider.Provider backed by the Anthropic Messages API.
type Client struct {
	config Config
	client *sdkanthropic.Client
	logger *slog.Logger
}

// New creates a Client from the given config. The API key falls back to the
// ANTHROPIC_API_KEY environment variable when not set in the config.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	cfg.defaults()
	if cfg.Model == "" {
		return nil, errors.New("anthropic: model must not be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		if envKey, ok := os.LookupEnv("ANTHROPIC_API_KEY"); ok {
			apiKey = envKey
		}
	}
	if apiKey == "" {
		return nil, errors.New("anthropic: api_key is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	client := sdkanthropic.NewClient(opts...)
	return &Client{
		config: cfg,
		client: &client,
		logger: logger,
	}, nil
}

// Complete sends a synchronous completion request to the Anthropic Messages API.
func (c *Client) Complete(ctx context.Context, req provider.CompletionRequest) (provider.CompletionResponse, error) {
	params := convertRequest(req, &c.config)

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return provider.CompletionResponse{}, mapError(err)
	}

	return convertResponse(msg), nil
}

// ModelName implements provider.Provider.
func (c *Client) ModelName() string {
	return c.config.Model
}

// Interface guard.
var _ provider.Provider = (*Client)(nil)
