package session

import (
	"context"

	"memorymate/internal/provider"
)

// Submit sends one user message through the active session's agent. The user
// turn is appended to the in-memory history before the agent is invoked, so
// it is visible ahead of the first response fragment. onDelta, when non-nil,
// is called for each streamed fragment as it arrives.
//
// If the stream is interrupted mid-response, whatever text accumulated is
// still appended as the assistant turn — partial progress is kept, not
// rolled back — and the fault is returned for surfacing as a warning.
func (c *Controller) Submit(ctx context.Context, text string, onDelta func(string)) (provider.Message, error) {
	if c.state != StateActive || c.agent == nil {
		return provider.Message{}, ErrNoSession
	}

	c.turns = append(c.turns, provider.Message{
		Role:    provider.RoleUser,
		Content: text,
	})

	var assistant string
	var runErr error

	for chunk := range c.agent.Run(ctx, text) {
		if chunk.Err != nil {
			runErr = chunk.Err
			continue
		}
		if chunk.Content != "" {
			assistant += chunk.Content
			if onDelta != nil {
				onDelta(chunk.Content)
			}
		}
	}

	// A run that never produced anything and failed outright gets no
	// assistant turn; an interrupted run keeps its partial text.
	if assistant == "" && runErr != nil {
		return provider.Message{}, runErr
	}

	turn := provider.Message{
		Role:    provider.RoleAssistant,
		Content: assistant,
	}
	c.turns = append(c.turns, turn)

	return turn, runErr
}
