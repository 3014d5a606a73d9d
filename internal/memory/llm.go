package memory

import (
	"context"
	"fmt"
	"strings"

	"memorymate/internal/provider"
)

const classifierPrompt = `Does the following message contain information worth remembering about the user
(preferences, personal details, decisions, goals)? Answer with exactly "yes" or "no".

Message: %s

Answer:`

const extractionPrompt = `Analyze the following exchange and extract important facts about the user.
Return one fact per line. If there are no facts worth remembering, return "NONE".
Only extract factual information (preferences, personal details, decisions, goals).

User: %s
Assistant: %s

Facts:`

const summaryPrompt = `Summarize the following conversation in a short paragraph. Capture what the
user wanted and what was concluded. Write in the third person.

%s

Summary:`

// Classifier decides whether a user message carries information worth
// remembering before the manager is asked to extract anything.
type Classifier struct {
	provider provider.Provider
}

// NewClassifier creates a Classifier backed by the given provider.
func NewClassifier(p provider.Provider) *Classifier {
	return &Classifier{provider: p}
}

// ShouldRemember asks the model whether the message contains memorable
// information.
func (c *Classifier) ShouldRemember(ctx context.Context, userText string) (bool, error) {
	resp, err := c.provider.Complete(ctx, provider.CompletionRequest{
		Messages: []provider.Message{
			{Role: provider.RoleUser, Content: fmt.Sprintf(classifierPrompt, userText)},
		},
	})
	if err != nil {
		return false, fmt.Errorf("memory: classification failed: %w", err)
	}

	answer := strings.ToLower(strings.TrimSpace(resp.Content))
	return strings.HasPrefix(answer, "yes"), nil
}

// Manager extracts memory entries from exchanges and stores them.
type Manager struct {
	provider   provider.Provider
	classifier *Classifier
	store      *Store
}

// NewManager creates a Manager that classifies, extracts, and stores memories.
func NewManager(p provider.Provider, store *Store) *Manager {
	return &Manager{
		provider:   p,
		classifier: NewClassifier(p),
		store:      store,
	}
}

// Update analyzes one user/assistant exchange and stores any extracted
// memories for the user. A message classified as not memorable is skipped
// without calling the extractor.
func (m *Manager) Update(ctx context.Context, userID, userText, assistantText string) error {
	remember, err := m.classifier.ShouldRemember(ctx, userText)
	if err != nil {
		return err
	}
	if !remember {
		return nil
	}

	resp, err := m.provider.Complete(ctx, provider.CompletionRequest{
		Messages: []provider.Message{
			{Role: provider.RoleUser, Content: fmt.Sprintf(extractionPrompt, userText, assistantText)},
		},
	})
	if err != nil {
		return fmt.Errorf("memory: extraction failed: %w", err)
	}

	facts := parseExtractedFacts(resp.Content)
	if len(facts) == 0 {
		return nil
	}

	return m.store.AddMemories(ctx, userID, facts)
}

// Summarizer condenses a session's turns into one summary blob.
type Summarizer struct {
	provider provider.Provider
}

// NewSummarizer creates a Summarizer backed by the given provider.
func NewSummarizer(p provider.Provider) *Summarizer {
	return &Summarizer{provider: p}
}

// Summarize produces a summary of the given turns.
func (s *Summarizer) Summarize(ctx context.Context, turns []provider.Message) (string, error) {
	var transcript strings.Builder
	for _, t := range turns {
		fmt.Fprintf(&transcript, "%s: %s\n", t.Role, t.Content)
	}

	resp, err := s.provider.Complete(ctx, provider.CompletionRequest{
		Messages: []provider.Message{
			{Role: provider.RoleUser, Content: fmt.Sprintf(summaryPrompt, transcript.String())},
		},
	})
	if err != nil {
		return "", fmt.Errorf("memory: summarization failed: %w", err)
	}

	return strings.TrimSpace(resp.Content), nil
}

// parseExtractedFacts parses the extractor response into memory texts.
func parseExtractedFacts(response string) []string {
	response = strings.TrimSpace(response)
	if response == "" || response == "NONE" {
		return nil
	}

	var facts []string
	for _, line := range strings.Split(response, "\n") {
		line = trimBullet(strings.TrimSpace(line))
		if line == "" || line == "NONE" {
			continue
		}
		facts = append(facts, line)
	}
	return facts
}

// trimBullet removes leading bullet markers ("- ", "* ", "1. ", etc.).
func trimBullet(s string) string {
	if len(s) == 0 {
		return s
	}
	// "- " or "* "
	if len(s) >= 2 && (s[0] == '-' || s[0] == '*') && s[1] == ' ' {
		return strings.TrimSpace(s[2:])
	}
	// "1. " style numbered lists
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i > 0 && i+1 < len(s) && s[i] == '.' && s[i+1] == ' ' {
		return strings.TrimSpace(s[i+2:])
	}
	return s
}
