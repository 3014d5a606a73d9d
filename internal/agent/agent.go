// Package agent ties a user and a session to the LLM provider and the two
// persistent stores. An Agent owns the write path for its session: it builds
// the prompt from persisted history, memories, and the session summary,
// streams the model response, persists the exchange, and refreshes memories
// and the summary after each run.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"memorymate/internal/memory"
	"memorymate/internal/provider"
)

// defaultHistoryLimit is the number of persisted messages included in the
// prompt for a resumed session.
const defaultHistoryLimit = 10

// SessionStore is the slice of the session store the agent needs.
type SessionStore interface {
	Messages(ctx context.Context, sessionID string) ([]provider.Message, error)
	AppendMessages(ctx context.Context, sessionID, userID string, msgs ...provider.Message) error
}

// Options configures a new Agent.
type Options struct {
	// UserID owns the session and its memories. Required.
	UserID string

	// SessionID resumes an existing session. When empty a fresh id is
	// allocated.
	SessionID string

	// Description is the system prompt describing the assistant's persona.
	Description string

	// HistoryLimit caps how many persisted messages are added to the prompt.
	// Zero means defaultHistoryLimit.
	HistoryLimit int

	Provider provider.Provider
	Storage  SessionStore
	Memory   *memory.Store

	// CreateMemories enables memory extraction after each run.
	CreateMemories bool

	// CreateSummary enables summary refresh after each run.
	CreateSummary bool

	Logger *slog.Logger
}

// Agent is a handle on one user's active session.
type Agent struct {
	userID       string
	sessionID    string
	description  string
	historyLimit int

	provider   provider.Provider
	storage    SessionStore
	memory     *memory.Store
	manager    *memory.Manager
	summarizer *memory.Summarizer

	createMemories bool
	createSummary  bool

	logger *slog.Logger
}

// New constructs an Agent. Construction fails when the provider, stores, or
// user id are missing; callers treat this as fatal.
func New(opts Options) (*Agent, error) {
	if opts.UserID == "" {
		return nil, errors.New("agent: user id is required")
	}
	if opts.Provider == nil {
		return nil, errors.New("agent: provider is required")
	}
	if opts.Storage == nil {
		return nil, errors.New("agent: session store is required")
	}
	if opts.Memory == nil {
		return nil, errors.New("agent: memory store is required")
	}

	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	historyLimit := opts.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Agent{
		userID:         opts.UserID,
		sessionID:      sessionID,
		description:    opts.Description,
		historyLimit:   historyLimit,
		provider:       opts.Provider,
		storage:        opts.Storage,
		memory:         opts.Memory,
		manager:        memory.NewManager(opts.Provider, opts.Memory),
		summarizer:     memory.NewSummarizer(opts.Provider),
		createMemories: opts.CreateMemories,
		createSummary:  opts.CreateSummary,
		logger:         logger,
	}, nil
}

// SessionID returns the id of the session this agent is bound to.
func (a *Agent) SessionID() string {
	return a.sessionID
}

// UserID returns the user owning this agent's session.
func (a *Agent) UserID() string {
	return a.userID
}

// Memories returns the user's stored memories. A storage fault degrades to
// an empty list with a warning.
func (a *Agent) Memories(ctx context.Context) []memory.Memory {
	memories, err := a.memory.MemoriesForUser(ctx, a.userID)
	if err != nil {
		a.logger.Warn("could not load memories", "user_id", a.userID, "error", err)
		return nil
	}
	return memories
}

// Summary returns the session's stored summary, or an empty string. A
// storage fault degrades to empty with a warning.
func (a *Agent) Summary(ctx context.Context) string {
	summary, err := a.memory.Summary(ctx, a.sessionID)
	if err != nil {
		a.logger.Warn("could not load summary", "session_id", a.sessionID, "error", err)
		return ""
	}
	return summary
}

// systemPrompt assembles the system message from the persona description,
// the user's memories, and the session summary.
func (a *Agent) systemPrompt(ctx context.Context) string {
	var b strings.Builder

	if a.description != "" {
		b.WriteString(a.description)
	}

	if memories := a.Memories(ctx); len(memories) > 0 {
		b.WriteString("\n\nWhat you know about the user:\n")
		for _, m := range memories {
			fmt.Fprintf(&b, "- %s\n", m.Text)
		}
	}

	if summary := a.Summary(ctx); summary != "" {
		b.WriteString("\nSummary of the conversation so far:\n")
		b.WriteString(summary)
	}

	return strings.TrimSpace(b.String())
}

// promptMessages builds the full message list for one run: system prompt,
// the most recent persisted history, and the new user message.
func (a *Agent) promptMessages(ctx context.Context, userText string) []provider.Message {
	var msgs []provider.Message

	if sys := a.systemPrompt(ctx); sys != "" {
		msgs = append(msgs, provider.Message{Role: provider.RoleSystem, Content: sys})
	}

	history, err := a.storage.Messages(ctx, a.sessionID)
	if err != nil {
		// Degrade to an empty history; the run itself still proceeds.
		a.logger.Warn("could not load session history", "session_id", a.sessionID, "error", err)
		history = nil
	}
	if len(history) > a.historyLimit {
		history = history[len(history)-a.historyLimit:]
	}
	msgs = append(msgs, history...)

	return append(msgs, provider.Message{Role: provider.RoleUser, Content: userText})
}
