package memory

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"memorymate/internal/provider"
	"memorymate/internal/provider/providertest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "data", "agent_memory.db"),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAddAndListMemories(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.AddMemories(ctx, "alice", []string{"likes espresso", "lives in Lisbon"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.AddMemories(ctx, "bob", []string{"prefers tea"}); err != nil {
		t.Fatalf("add bob: %v", err)
	}

	memories, err := s.MemoriesForUser(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(memories) != 2 {
		t.Fatalf("got %d memories, want 2", len(memories))
	}
	for _, m := range memories {
		if m.UserID != "alice" {
			t.Errorf("memory %q belongs to %q", m.Text, m.UserID)
		}
		if m.ID == "" {
			t.Error("memory id not assigned")
		}
	}
}

func TestMemoriesListedInInsertionOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Many inserts land within the same millisecond and share created_at;
	// the listing order must still match insertion order.
	want := []string{
		"likes espresso", "lives in Lisbon", "has two cats",
		"plays chess", "allergic to peanuts", "speaks Portuguese",
		"works remotely", "runs marathons",
	}
	if err := s.AddMemories(ctx, "alice", want[:4]); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.AddMemories(ctx, "alice", want[4:]); err != nil {
		t.Fatalf("add: %v", err)
	}

	memories, err := s.MemoriesForUser(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(memories) != len(want) {
		t.Fatalf("got %d memories, want %d", len(memories), len(want))
	}
	for i, m := range memories {
		if m.Text != want[i] {
			t.Errorf("memories[%d] = %q, want %q", i, m.Text, want[i])
		}
	}
}

func TestMemoriesForUnknownUser(t *testing.T) {
	s := newTestStore(t)

	memories, err := s.MemoriesForUser(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(memories) != 0 {
		t.Errorf("got %d memories, want 0", len(memories))
	}
}

func TestSummaryRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	got, err := s.Summary(ctx, "s1")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if got != "" {
		t.Errorf("summary = %q, want empty before set", got)
	}

	if err := s.SetSummary(ctx, "s1", "alice", "talked about coffee"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.SetSummary(ctx, "s1", "alice", "talked about coffee and tea"); err != nil {
		t.Fatalf("replace: %v", err)
	}

	got, err = s.Summary(ctx, "s1")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if got != "talked about coffee and tea" {
		t.Errorf("summary = %q", got)
	}
}

func TestClassifier(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		want   bool
	}{
		{"yes", "yes", true},
		{"yes with trailing text", "Yes, it mentions a preference.", true},
		{"no", "no", false},
		{"garbage", "maybe", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &providertest.MockProvider{
				CompleteFunc: func(_ context.Context, _ provider.CompletionRequest) (provider.CompletionResponse, error) {
					return provider.CompletionResponse{Content: tt.answer}, nil
				},
			}

			got, err := NewClassifier(mock).ShouldRemember(context.Background(), "I love espresso")
			if err != nil {
				t.Fatalf("classify: %v", err)
			}
			if got != tt.want {
				t.Errorf("ShouldRemember = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestManagerUpdateStoresFacts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	calls := 0
	mock := &providertest.MockProvider{
		CompleteFunc: func(_ context.Context, _ provider.CompletionRequest) (provider.CompletionResponse, error) {
			calls++
			if calls == 1 {
				return provider.CompletionResponse{Content: "yes"}, nil
			}
			return provider.CompletionResponse{Content: "- likes espresso\n- lives in Lisbon"}, nil
		},
	}

	m := NewManager(mock, s)
	if err := m.Update(ctx, "alice", "I love espresso, I live in Lisbon", "Noted!"); err != nil {
		t.Fatalf("update: %v", err)
	}

	memories, err := s.MemoriesForUser(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(memories) != 2 {
		t.Fatalf("got %d memories, want 2", len(memories))
	}
	if memories[0].Text != "likes espresso" {
		t.Errorf("memories[0] = %q", memories[0].Text)
	}
}

func TestManagerUpdateSkipsNotMemorable(t *testing.T) {
	s := newTestStore(t)

	mock := &providertest.MockProvider{
		CompleteFunc: func(_ context.Context, _ provider.CompletionRequest) (provider.CompletionResponse, error) {
			return provider.CompletionResponse{Content: "no"}, nil
		},
	}

	m := NewManager(mock, s)
	if err := m.Update(context.Background(), "alice", "what's the weather", "Sunny."); err != nil {
		t.Fatalf("update: %v", err)
	}

	if mock.CompleteCalls != 1 {
		t.Errorf("CompleteCalls = %d, want 1 (no extraction after negative classification)", mock.CompleteCalls)
	}
}

func TestParseExtractedFacts(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"none", "NONE", nil},
		{"empty", "", nil},
		{"bullets", "- a\n* b\n1. c", []string{"a", "b", "c"}},
		{"blank lines", "a\n\n\nb", []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseExtractedFacts(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("got[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSummarizer(t *testing.T) {
	var prompt string
	mock := &providertest.MockProvider{
		CompleteFunc: func(_ context.Context, req provider.CompletionRequest) (provider.CompletionResponse, error) {
			prompt = req.Messages[0].Content
			return provider.CompletionResponse{Content: "  The user asked about coffee.  "}, nil
		},
	}

	got, err := NewSummarizer(mock).Summarize(context.Background(), []provider.Message{
		{Role: provider.RoleUser, Content: "tell me about coffee"},
		{Role: provider.RoleAssistant, Content: "Coffee is a brewed drink."},
	})
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if got != "The user asked about coffee." {
		t.Errorf("summary = %q", got)
	}
	if !strings.Contains(prompt, "tell me about coffee") || !strings.Contains(prompt, "brewed drink") {
		t.Errorf("prompt missing transcript: %q", prompt)
	}
}
