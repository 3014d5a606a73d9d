package gateway

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"memorymate/internal/agent"
	"memorymate/internal/memory"
	"memorymate/internal/provider"
	"memorymate/internal/provider/providertest"
	"memorymate/internal/session"
	"memorymate/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore is an in-memory session.Store for handler tests.
type memStore struct {
	sessions map[string][]string
	logs     map[string][]provider.Message
}

func (m *memStore) SessionsForUser(_ context.Context, userID string) ([]string, error) {
	return m.sessions[userID], nil
}

func (m *memStore) Messages(_ context.Context, sessionID string) ([]provider.Message, error) {
	return m.logs[sessionID], nil
}

// newTestGateway builds a Gateway over a controller whose agents run
// against a mock provider and throwaway databases.
func newTestGateway(t *testing.T, p provider.Provider, store session.Store) *Gateway {
	t.Helper()

	if p == nil {
		p = &providertest.MockProvider{StreamFunc: providertest.StreamText("ok")}
	}
	if store == nil {
		store = &memStore{}
	}

	dir := t.TempDir()
	sessions, err := storage.Open(filepath.Join(dir, "agent_storage.db"), testLogger())
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { _ = sessions.Close() })

	memories, err := memory.Open(filepath.Join(dir, "agent_memory.db"), testLogger())
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	t.Cleanup(func() { _ = memories.Close() })

	factory := func(_ context.Context, userID, sessionID string) (*agent.Agent, error) {
		return agent.New(agent.Options{
			UserID:    userID,
			SessionID: sessionID,
			Provider:  p,
			Storage:   sessions,
			Memory:    memories,
			Logger:    testLogger(),
		})
	}

	ctrl := session.NewController(store, factory, session.WithLogger(testLogger()))

	g, err := New(Options{
		Listen:     "127.0.0.1:0",
		Controller: ctrl,
		Logger:     testLogger(),
	})
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}
	return g
}
