// Package provider defines the LLM provider abstraction used by the agent:
// a synchronous completion call, a streaming variant, and the message and
// chunk types shared by all provider implementations.
package provider

import "context"

// Provider is the interface implemented by LLM backends.
type Provider interface {
	// Complete sends a completion request and blocks until the full
	// response is available.
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)

	// Stream sends a completion request and returns a channel of response
	// chunks. The channel is closed when the stream ends. Initial connection
	// errors are returned directly; mid-stream errors arrive via
	// StreamChunk.Err as the final chunk before close.
	Stream(ctx context.Context, req CompletionRequest) (<-chan StreamChunk, error)

	// ModelName returns the configured model identifier.
	ModelName() string
}
