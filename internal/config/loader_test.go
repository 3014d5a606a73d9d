package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "memorymate.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_API_KEY", "sk-test")

	path := writeConfig(t, `
version: "1"
model:
  provider: openai_compatible
  id: gpt-4o-mini
  base_url: ${TEST_BASE_URL:-http://localhost:11434/v1}
  api_key: ${TEST_API_KEY}
  temperature: 0.7
storage:
  data_dir: /tmp/mate
memory:
  create_user_memories: true
  create_session_summary: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Model.APIKey != "sk-test" {
		t.Errorf("api_key = %q, want expanded env value", cfg.Model.APIKey)
	}
	if cfg.Model.BaseURL != "http://localhost:11434/v1" {
		t.Errorf("base_url = %q, want the default", cfg.Model.BaseURL)
	}
	if !cfg.Memory.CreateUserMemories || !cfg.Memory.CreateSessionSummary {
		t.Error("memory flags not parsed")
	}
	if cfg.Model.Temperature == nil || *cfg.Model.Temperature != 0.7 {
		t.Errorf("temperature = %v, want 0.7", cfg.Model.Temperature)
	}

	// Defaults fill what the file leaves out.
	if cfg.Memory.HistoryResponses != DefaultHistoryResponses {
		t.Errorf("history_responses = %d, want %d", cfg.Memory.HistoryResponses, DefaultHistoryResponses)
	}
	if cfg.Gateway.Listen != DefaultListen {
		t.Errorf("gateway.listen = %q, want %q", cfg.Gateway.Listen, DefaultListen)
	}
	if cfg.Model.Timeout != 120*time.Second {
		t.Errorf("timeout = %v, want default", cfg.Model.Timeout)
	}
}

func TestLoadUnresolvedVariable(t *testing.T) {
	path := writeConfig(t, `
version: "1"
model:
  provider: anthropic
  id: claude-sonnet-4-20250514
  api_key: ${DEFINITELY_NOT_SET_9Z}
storage:
  data_dir: data
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for unresolved variable")
	}
	if !strings.Contains(err.Error(), "DEFINITELY_NOT_SET_9Z") {
		t.Errorf("error should name the variable: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestDatabasePaths(t *testing.T) {
	cfg := &Config{Storage: StorageConfig{DataDir: "/var/lib/mate"}}
	if got := cfg.SessionDBPath(); got != filepath.Join("/var/lib/mate", "agent_storage.db") {
		t.Errorf("session db path = %q", got)
	}
	if got := cfg.MemoryDBPath(); got != filepath.Join("/var/lib/mate", "agent_memory.db") {
		t.Errorf("memory db path = %q", got)
	}
}
