package config

import (
	"os"
	"path/filepath"
)

// Database file names under storage.data_dir.
const (
	SessionDBFile = "agent_storage.db"
	MemoryDBFile  = "agent_memory.db"
)

// SessionDBPath returns the session database location.
func (c *Config) SessionDBPath() string {
	return filepath.Join(c.Storage.DataDir, SessionDBFile)
}

// MemoryDBPath returns the memory database location.
func (c *Config) MemoryDBPath() string {
	return filepath.Join(c.Storage.DataDir, MemoryDBFile)
}

// ResolvePath picks the configuration file to load. An explicit path wins;
// otherwise the MEMORYMATE_CONFIG environment variable, then
// ./memorymate.yaml, then ~/.config/memorymate/config.yaml. The first
// candidate that exists is returned; with no match the local default is
// returned so the caller's open error names a sensible path.
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv("MEMORYMATE_CONFIG"); env != "" {
		return env
	}

	candidates := []string{"memorymate.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "memorymate", "config.yaml"))
	}

	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return candidates[0]
}
