package agent

import (
	"context"

	"memorymate/internal/provider"
)

// Chunk is one piece of a streaming agent run.
type Chunk struct {
	Content string
	Err     error
}

// runBufferSize matches the provider stream buffer.
const runBufferSize = 16

// Run sends one user message and returns a channel of response chunks. The
// channel is closed when the run completes. A mid-stream fault arrives as a
// Chunk with Err set; whatever text accumulated before the fault is still
// persisted, so partial progress survives.
//
// After the stream ends the exchange is appended to the session log and,
// when enabled, memories and the session summary are refreshed. Those
// updates are best-effort: a failure is logged, never surfaced.
func (a *Agent) Run(ctx context.Context, text string) <-chan Chunk {
	out := make(chan Chunk, runBufferSize)

	go func() {
		defer close(out)

		stream, err := a.provider.Stream(ctx, provider.CompletionRequest{
			Messages: a.promptMessages(ctx, text),
		})
		if err != nil {
			out <- Chunk{Err: err}
			return
		}

		var assistant string
		var streamErr error

		for chunk := range stream {
			if chunk.Err != nil {
				streamErr = chunk.Err
				break
			}
			if chunk.Content != "" {
				assistant += chunk.Content
				select {
				case out <- Chunk{Content: chunk.Content}:
				case <-ctx.Done():
					streamErr = ctx.Err()
				}
			}
			if streamErr != nil {
				break
			}
		}

		if streamErr != nil {
			// Drain the remaining chunks so the provider goroutine can
			// close the response body.
			go func() {
				for range stream {
				}
			}()
		}

		a.persistExchange(ctx, text, assistant)

		if streamErr != nil {
			out <- Chunk{Err: streamErr}
		}
	}()

	return out
}

// persistExchange appends the user turn and whatever assistant text
// accumulated, then refreshes memories and the summary.
func (a *Agent) persistExchange(ctx context.Context, userText, assistantText string) {
	// Detach from the run's cancellation: a cancelled stream must not also
	// lose the partial exchange.
	persistCtx := context.WithoutCancel(ctx)

	msgs := []provider.Message{
		{Role: provider.RoleUser, Content: userText},
	}
	if assistantText != "" {
		msgs = append(msgs, provider.Message{Role: provider.RoleAssistant, Content: assistantText})
	}

	if err := a.storage.AppendMessages(persistCtx, a.sessionID, a.userID, msgs...); err != nil {
		a.logger.Warn("could not persist exchange", "session_id", a.sessionID, "error", err)
	}

	if a.createMemories {
		if err := a.manager.Update(persistCtx, a.userID, userText, assistantText); err != nil {
			a.logger.Warn("memory update failed", "user_id", a.userID, "error", err)
		}
	}

	if a.createSummary {
		a.refreshSummary(persistCtx)
	}
}

// refreshSummary regenerates the session summary from the persisted log.
func (a *Agent) refreshSummary(ctx context.Context) {
	history, err := a.storage.Messages(ctx, a.sessionID)
	if err != nil || len(history) == 0 {
		if err != nil {
			a.logger.Warn("could not load history for summary", "session_id", a.sessionID, "error", err)
		}
		return
	}

	summary, err := a.summarizer.Summarize(ctx, history)
	if err != nil {
		a.logger.Warn("summary refresh failed", "session_id", a.sessionID, "error", err)
		return
	}

	if err := a.memory.SetSummary(ctx, a.sessionID, a.userID, summary); err != nil {
		a.logger.Warn("could not store summary", "session_id", a.sessionID, "error", err)
	}
}
