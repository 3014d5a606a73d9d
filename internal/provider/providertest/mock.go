// Package providertest provides test helpers for the provider package.
package providertest

import (
	"context"
	"sync"

	"memorymate/internal/provider"
)

// MockProvider is a configurable test double for provider.Provider.
// Set the Func fields to control behavior. Unset funcs panic on call.
// All methods are safe for concurrent use.
type MockProvider struct {
	CompleteFunc  func(ctx context.Context, req provider.CompletionRequest) (provider.CompletionResponse, error)
	StreamFunc    func(ctx context.Context, req provider.CompletionRequest) (<-chan provider.StreamChunk, error)
	ModelNameFunc func() string

	mu            sync.Mutex
	CompleteCalls int
	StreamCalls   int
}

// Complete delegates to CompleteFunc and tracks call count.
func (m *MockProvider) Complete(ctx context.Context, req provider.CompletionRequest) (provider.CompletionResponse, error) {
	m.mu.Lock()
	m.CompleteCalls++
	m.mu.Unlock()
	return m.CompleteFunc(ctx, req)
}

// Stream delegates to StreamFunc and tracks call count.
func (m *MockProvider) Stream(ctx context.Context, req provider.CompletionRequest) (<-chan provider.StreamChunk, error) {
	m.mu.Lock()
	m.StreamCalls++
	m.mu.Unlock()
	return m.StreamFunc(ctx, req)
}

// ModelName delegates to ModelNameFunc, defaulting to "mock".
func (m *MockProvider) ModelName() string {
	if m.ModelNameFunc == nil {
		return "mock"
	}
	return m.ModelNameFunc()
}

// StreamText returns a StreamFunc that emits the given fragments as content
// chunks and closes the channel.
func StreamText(fragments ...string) func(context.Context, provider.CompletionRequest) (<-chan provider.StreamChunk, error) {
	return func(_ context.Context, _ provider.CompletionRequest) (<-chan provider.StreamChunk, error) {
		ch := make(chan provider.StreamChunk, len(fragments)+1)
		for _, f := range fragments {
			ch <- provider.StreamChunk{Content: f}
		}
		ch <- provider.StreamChunk{FinishReason: provider.FinishReasonStop}
		close(ch)
		return ch, nil
	}
}

// Interface guard.
var _ provider.Provider = (*MockProvider)(nil)
