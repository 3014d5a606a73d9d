package main

import (
	"context"
	"fmt"
	"log/slog"

	"memorymate/internal/agent"
	"memorymate/internal/config"
	"memorymate/internal/memory"
	"memorymate/internal/provider"
	"memorymate/internal/provider/anthropic"
	"memorymate/internal/provider/openaicompat"
	"memorymate/internal/session"
	"memorymate/internal/storage"
)

// App bundles the wired application: both databases, the model backend,
// and the session controller the front ends drive.
type App struct {
	Controller *session.Controller

	sessions *storage.Store
	memories *memory.Store
}

// Close releases the database handles.
func (a *App) Close() {
	_ = a.sessions.Close()
	_ = a.memories.Close()
}

// buildApp opens the databases, constructs the model backend, and wires
// the controller with an agent factory over them.
func buildApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	sessions, err := storage.Open(cfg.SessionDBPath(), logger)
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}

	memories, err := memory.Open(cfg.MemoryDBPath(), logger)
	if err != nil {
		_ = sessions.Close()
		return nil, fmt.Errorf("opening memory store: %w", err)
	}

	backend, err := buildProvider(cfg, logger)
	if err != nil {
		_ = sessions.Close()
		_ = memories.Close()
		return nil, err
	}

	createMemories := cfg.Memory.CreateUserMemories && cfg.Memory.UpdateAfterRun

	factory := func(_ context.Context, userID, sessionID string) (*agent.Agent, error) {
		return agent.New(agent.Options{
			UserID:         userID,
			SessionID:      sessionID,
			Description:    cfg.Agent.Description,
			HistoryLimit:   cfg.Memory.HistoryResponses,
			Provider:       backend,
			Storage:        sessions,
			Memory:         memories,
			CreateMemories: createMemories,
			CreateSummary:  cfg.Memory.CreateSessionSummary,
			Logger:         logger,
		})
	}

	ctrl := session.NewController(sessions, factory,
		session.WithLogger(logger),
		session.WithHistoryLimit(cfg.Memory.HistoryResponses),
	)

	return &App{
		Controller: ctrl,
		sessions:   sessions,
		memories:   memories,
	}, nil
}

// buildProvider constructs the model backend selected by the config.
func buildProvider(cfg *config.Config, logger *slog.Logger) (provider.Provider, error) {
	switch cfg.Model.Provider {
	case config.ProviderOpenAICompatible:
		return openaicompat.New(openaicompat.Config{
			BaseURL:     cfg.Model.BaseURL,
			APIKey:      cfg.Model.APIKey,
			Model:       cfg.Model.ID,
			MaxTokens:   cfg.Model.MaxTokens,
			Temperature: cfg.Model.Temperature,
			Timeout:     cfg.Model.Timeout,
		}, logger)

	case config.ProviderAnthropic:
		return anthropic.New(anthropic.Config{
			APIKey:      cfg.Model.APIKey,
			BaseURL:     cfg.Model.BaseURL,
			Model:       cfg.Model.ID,
			MaxTokens:   cfg.Model.MaxTokens,
			Temperature: cfg.Model.Temperature,
		}, logger)

	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Model.Provider)
	}
}
