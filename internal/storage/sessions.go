package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"memorymate/internal/provider"
)

// SessionsForUser returns the session ids owned by userID, most recent first.
// Ties in created_at are broken by session_id so the order is deterministic
// within a single query.
func (s *Store) SessionsForUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id
		FROM agent_sessions
		WHERE user_id = ?
		ORDER BY created_at DESC, session_id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: list sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("storage: scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: list sessions rows: %w", err)
	}

	return ids, nil
}

// Messages returns the persisted message log for a session in original order.
// A session with no row or an empty log yields an empty slice. A row whose
// log cannot be parsed yields an error; callers decide whether to degrade.
func (s *Store) Messages(ctx context.Context, sessionID string) ([]provider.Message, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT messages FROM agent_sessions WHERE session_id = ?",
		sessionID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read messages: %w", err)
	}

	if raw == "" {
		return nil, nil
	}

	var msgs []provider.Message
	if err := json.Unmarshal([]byte(raw), &msgs); err != nil {
		return nil, fmt.Errorf("storage: parse message log for %s: %w", sessionID, err)
	}

	return msgs, nil
}

// AppendMessages appends messages to a session's persisted log, creating the
// session row on first write. The read-modify-write runs inside a transaction
// so two appends cannot interleave.
func (s *Store) AppendMessages(ctx context.Context, sessionID, userID string, msgs ...provider.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: begin append: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var raw string
	err = tx.QueryRowContext(ctx,
		"SELECT messages FROM agent_sessions WHERE session_id = ?",
		sessionID,
	).Scan(&raw)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO agent_sessions (session_id, user_id) VALUES (?, ?)",
			sessionID, userID,
		); err != nil {
			return fmt.Errorf("storage: create session: %w", err)
		}
		raw = "[]"
	case err != nil:
		return fmt.Errorf("storage: read message log: %w", err)
	}

	var log []provider.Message
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &log); err != nil {
			// A corrupt log should not make the session permanently
			// unwritable; start a fresh log and report what happened.
			s.logger.Warn("discarding unparseable message log",
				"session_id", sessionID, "error", err)
			log = nil
		}
	}

	log = append(log, msgs...)
	encoded, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("storage: marshal message log: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE agent_sessions
		SET messages = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%fZ','now')
		WHERE session_id = ?`,
		string(encoded), sessionID,
	); err != nil {
		return fmt.Errorf("storage: write message log: %w", err)
	}

	return tx.Commit()
}
