package session

import (
	"fmt"
	"strings"

	"memorymate/internal/memory"
)

// Placeholders shown when no memories or summary exist yet.
const (
	NoMemoriesPlaceholder = "No memories created yet"
	NoSummaryPlaceholder  = "No summary available yet"
)

// FormatMemories renders a memory list as a display fragment. Empty input
// maps to the placeholder, never an error.
func FormatMemories(memories []memory.Memory) string {
	if len(memories) == 0 {
		return NoMemoriesPlaceholder
	}

	var b strings.Builder
	for i, m := range memories {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "- %s", m.Text)
	}
	return b.String()
}

// FormatSummary renders a session summary as a display fragment. An absent
// summary maps to the placeholder.
func FormatSummary(summary string) string {
	if strings.TrimSpace(summary) == "" {
		return NoSummaryPlaceholder
	}
	return summary
}
