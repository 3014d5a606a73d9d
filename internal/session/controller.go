package session

import (
	"context"
	"strings"

	"memorymate/internal/provider"
)

// Login makes userID the active user, resuming their most recent session or
// creating a fresh one. Logging in again while the same user is already
// active is a no-op; a new session is never created in that case.
//
// Agent construction failure is returned to the caller and leaves the
// controller logged out; every storage fault along the way degrades to the
// "no sessions found" path instead of failing the login.
func (c *Controller) Login(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrEmptyUsername
	}

	// Idempotence: re-entering for the already-active user must not create
	// a second session or re-resume.
	if c.state == StateActive && c.userID == userID && c.agent != nil {
		return nil
	}

	// Switching users starts from a clean slate.
	if c.state != StateLoggedOut {
		c.Logout()
	}

	c.userID = userID
	if err := c.resumeOrCreate(ctx); err != nil {
		c.userID = ""
		c.state = StateLoggedOut
		return err
	}
	return nil
}

// Clear discards the in-memory history and the current session reference,
// then starts a brand-new session for the same user. The old session's rows
// stay in storage unreferenced.
func (c *Controller) Clear(ctx context.Context) error {
	if c.state != StateActive || c.agent == nil {
		return ErrNoSession
	}

	c.turns = nil
	c.agent = nil
	c.state = StateCleared

	// Deliberately skip the resume lookup: the just-cleared session is still
	// the user's most recent row, so resuming would reselect it. Clearing
	// always allocates a fresh session id.
	a, err := c.factory(ctx, c.userID, "")
	if err != nil {
		return err
	}

	c.agent = a
	c.state = StateActive
	return nil
}

// Logout discards the user identity, session reference, and in-memory turns.
// Nothing in storage is touched; a later login finds the sessions again.
func (c *Controller) Logout() {
	c.userID = ""
	c.agent = nil
	c.turns = nil
	c.state = StateLoggedOut
}

// resumeOrCreate looks up the user's sessions and either resumes the most
// recent one or creates a new one.
func (c *Controller) resumeOrCreate(ctx context.Context) error {
	ids := c.listSessions(ctx, c.userID)

	if len(ids) == 0 {
		a, err := c.factory(ctx, c.userID, "")
		if err != nil {
			return err
		}
		c.agent = a
		c.turns = nil
		c.state = StateActive
		c.logger.Info("created new session", "user_id", c.userID, "session_id", a.SessionID())
		return nil
	}

	c.state = StateResuming
	a, err := c.factory(ctx, c.userID, ids[0])
	if err != nil {
		c.state = StateLoggedOut
		return err
	}

	c.agent = a
	c.turns = c.reconcile(ctx, ids[0])
	c.state = StateActive
	c.logger.Info("resumed session",
		"user_id", c.userID,
		"session_id", ids[0],
		"turns", len(c.turns),
	)
	return nil
}

// listSessions adapts the store lookup to the lifecycle's needs: any fault
// is reported as a warning and degraded to "no sessions found", so a broken
// store never blocks login.
func (c *Controller) listSessions(ctx context.Context, userID string) []string {
	ids, err := c.store.SessionsForUser(ctx, userID)
	if err != nil {
		c.logger.Warn("session lookup failed, continuing with none",
			"user_id", userID, "error", err)
		return nil
	}
	return ids
}

// reconcile rebuilds the display history for a resumed session: the last
// historyLimit persisted turns in original order. A missing or unparseable
// log degrades to an empty history with a warning.
func (c *Controller) reconcile(ctx context.Context, sessionID string) []provider.Message {
	msgs, err := c.store.Messages(ctx, sessionID)
	if err != nil {
		c.logger.Warn("could not load previous messages",
			"session_id", sessionID, "error", err)
		return nil
	}

	if len(msgs) > c.historyLimit {
		msgs = msgs[len(msgs)-c.historyLimit:]
	}
	return msgs
}
