// Package session owns the chat session lifecycle: logging a user in,
// resuming their most recent session or creating a fresh one, keeping the
// bounded in-memory view of the turn history, driving chat turns through
// the agent, and clearing or logging out again.
//
// All mutable state lives on the Controller; operations are driven by one
// interactive caller at a time and the type is not safe for concurrent use.
// Callers that serve multiple goroutines (the HTTP gateway) serialize access
// themselves.
package session

import (
	"context"
	"errors"
	"log/slog"

	"memorymate/internal/agent"
	"memorymate/internal/memory"
	"memorymate/internal/provider"
)

// State identifies where the controller is in the session lifecycle.
type State string

// Lifecycle states.
const (
	StateLoggedOut State = "logged_out"
	StateResuming  State = "resuming"
	StateActive    State = "active"
	StateCleared   State = "cleared"
)

// Sentinel errors for lifecycle misuse.
var (
	// ErrEmptyUsername is returned by Login for a blank username.
	ErrEmptyUsername = errors.New("session: username must not be empty")

	// ErrNoSession is returned when an operation requires an active session.
	ErrNoSession = errors.New("session: no active session")
)

// defaultHistoryLimit bounds the in-memory turn history rebuilt on resume.
const defaultHistoryLimit = 10

// Store is the read-only slice of the session store the controller needs.
// Faults from either method are degraded to empty results at the controller
// boundary, never propagated to callers.
type Store interface {
	// SessionsForUser returns session ids most-recent-first.
	SessionsForUser(ctx context.Context, userID string) ([]string, error)

	// Messages returns the persisted turn log for a session.
	Messages(ctx context.Context, sessionID string) ([]provider.Message, error)
}

// AgentFactory constructs an agent bound to a user and session. An empty
// sessionID allocates a fresh session. A factory error is fatal to the
// operation that triggered it.
type AgentFactory func(ctx context.Context, userID, sessionID string) (*agent.Agent, error)

// Controller holds the single active session for the process.
type Controller struct {
	store        Store
	factory      AgentFactory
	logger       *slog.Logger
	historyLimit int

	state  State
	userID string
	agent  *agent.Agent
	turns  []provider.Message
}

// Option customizes a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithHistoryLimit overrides the number of turns rebuilt on resume.
func WithHistoryLimit(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.historyLimit = n
		}
	}
}

// NewController creates a Controller in the logged-out state.
func NewController(store Store, factory AgentFactory, opts ...Option) *Controller {
	c := &Controller{
		store:        store,
		factory:      factory,
		logger:       slog.Default(),
		historyLimit: defaultHistoryLimit,
		state:        StateLoggedOut,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	return c.state
}

// UserID returns the logged-in user, or an empty string.
func (c *Controller) UserID() string {
	return c.userID
}

// SessionID returns the active session id, or an empty string.
func (c *Controller) SessionID() string {
	if c.agent == nil {
		return ""
	}
	return c.agent.SessionID()
}

// Turns returns the in-memory turn history. The returned slice is the
// controller's own view; callers must not mutate it.
func (c *Controller) Turns() []provider.Message {
	return c.turns
}

// Memories returns the active user's stored memories, empty when no session
// is active or on a degraded read.
func (c *Controller) Memories(ctx context.Context) []memory.Memory {
	if c.agent == nil {
		return nil
	}
	return c.agent.Memories(ctx)
}

// Summary returns the active session's summary, empty when no session is
// active or on a degraded read.
func (c *Controller) Summary(ctx context.Context) string {
	if c.agent == nil {
		return ""
	}
	return c.agent.Summary(ctx)
}
