package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MemoriesForUser returns all memories for a user, oldest first. Rows
// inserted in the same instant share created_at, so rowid breaks the tie
// in insertion order.
func (s *Store) MemoriesForUser(ctx context.Context, userID string) ([]Memory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, memory, created_at
		FROM agent_memory
		WHERE user_id = ?
		ORDER BY created_at ASC, rowid ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("memory: list memories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var memories []Memory
	for rows.Next() {
		var m Memory
		var created string
		if err := rows.Scan(&m.ID, &m.UserID, &m.Text, &created); err != nil {
			return nil, fmt.Errorf("memory: scan memory: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			m.CreatedAt = t
		}
		memories = append(memories, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("memory: list memories rows: %w", err)
	}

	return memories, nil
}

// AddMemories stores new memory entries for a user. Each entry gets a
// generated id.
func (s *Store) AddMemories(ctx context.Context, userID string, texts []string) error {
	for _, text := range texts {
		if text == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx,
			"INSERT INTO agent_memory (id, user_id, memory) VALUES (?, ?, ?)",
			uuid.NewString(), userID, text,
		); err != nil {
			return fmt.Errorf("memory: add memory: %w", err)
		}
	}
	return nil
}

// Summary returns the stored summary for a session, or an empty string when
// none exists.
func (s *Store) Summary(ctx context.Context, sessionID string) (string, error) {
	var summary string
	err := s.db.QueryRowContext(ctx,
		"SELECT summary FROM session_summaries WHERE session_id = ?",
		sessionID,
	).Scan(&summary)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("memory: read summary: %w", err)
	}
	return summary, nil
}

// SetSummary stores a session summary, replacing any previous one.
func (s *Store) SetSummary(ctx context.Context, sessionID, userID, summary string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO session_summaries (session_id, user_id, summary, updated_at)
		VALUES (?, ?, ?, strftime('%Y-%m-%dT%H:%M:%fZ','now'))`,
		sessionID, userID, summary,
	)
	if err != nil {
		return fmt.Errorf("memory: set summary: %w", err)
	}
	return nil
}
