package anthropic

import (
	"context"

	sdkanthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"memorymate/internal/provider"
)

// streamBufferSize matches the buffer used by the OpenAI-compatible provider.
const streamBufferSize = 16

// Stream sends a streaming completion request and returns a channel of StreamChunks.
// The channel is closed when the stream ends or an error occurs.
// Initial connection errors are returned directly; mid-stream errors arrive via StreamChunk.Err.
func (c *Client) Stream(ctx context.Context, req provider.CompletionRequest) (<-chan provider.StreamChunk, error) {
	params := convertRequest(req, &c.config)

	stream := c.client.Messages.NewStreaming(ctx, params)

	// Consume the first event synchronously to surface initial connection
	// errors (auth, network, 4xx) directly to the caller, as required by
	// the Provider interface contract.
	if !stream.Next() {
		err := stream.Err()
		_ = stream.Close() //nolint:errcheck // best-effort close
		if err != nil {
			return nil, mapError(err)
		}
		// Stream ended without error or events — return an empty closed channel.
		ch := make(chan provider.StreamChunk)
		close(ch)
		return ch, nil
	}

	firstEvent := stream.Current()

	ch := make(chan provider.StreamChunk, streamBufferSize)

	go func() {
		defer close(ch)
		defer func() { _ = stream.Close() }() //nolint:errcheck // best-effort close

		c.consumeStreamWithFirst(ctx, stream, firstEvent, ch)
	}()

	return ch, nil
}

// streamState tracks accumulated state across SSE events for a single stream.
type streamState struct {
	// inputTokens captured from MessageStartEvent.
	inputTokens int64
}

// consumeStreamWithFirst processes the already-consumed first event, then
// continues consuming the rest of the stream.
func (c *Client) consumeStreamWithFirst(
	ctx context.Context,
	stream *ssestream.Stream[sdkanthropic.MessageStreamEventUnion],
	firstEvent sdkanthropic.MessageStreamEventUnion,
	ch chan<- provider.StreamChunk,
) {
	var state streamState

	c.processEvent(ctx, &state, firstEvent, ch)

	for stream.Next() {
		if ctx.Err() != nil {
			return
		}
		c.processEvent(ctx, &state, stream.Current(), ch)
	}

	if err := stream.Err(); err != nil {
		emit(ctx, ch, provider.StreamChunk{Err: mapError(err)})
	}
}

// processEvent dispatches a single SSE event to the appropriate handler.
func (c *Client) processEvent(
	ctx context.Context,
	state *streamState,
	event sdkanthropic.MessageStreamEventUnion,
	ch chan<- provider.StreamChunk,
) {
	switch ev := event.AsAny().(type) {
	case sdkanthropic.MessageStartEvent:
		state.inputTokens = ev.Message.Usage.InputTokens

	case sdkanthropic.ContentBlockDeltaEvent:
		if delta, ok := ev.Delta.AsAny().(sdkanthropic.TextDelta); ok && delta.Text != "" {
			emit(ctx, ch, provider.StreamChunk{Content: delta.Text})
		}

	case sdkanthropic.MessageDeltaEvent:
		chunk := provider.StreamChunk{
			FinishReason: convertStopReason(sdkanthropic.StopReason(ev.Delta.StopReason)),
			Usage: &provider.TokenUsage{
				PromptTokens:     int(state.inputTokens),
				CompletionTokens: int(ev.Usage.OutputTokens),
				TotalTokens:      int(state.inputTokens + ev.Usage.OutputTokens),
			},
		}
		emit(ctx, ch, chunk)
	}
}

// emit sends a chunk unless the context is cancelled.
func emit(ctx context.Context, ch chan<- provider.StreamChunk, chunk provider.StreamChunk) {
	select {
	case ch <- chunk:
	case <-ctx.Done():
	}
}
