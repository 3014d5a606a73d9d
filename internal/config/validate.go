package config

import (
	"errors"
	"fmt"
)

// Validate checks the structural validity of a Config.
// It verifies the version field, the model selection, and the gateway
// settings, collecting every problem into a single joined error.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	errs = append(errs, validateModel(&cfg.Model)...)

	if cfg.Storage.DataDir == "" {
		errs = append(errs, errors.New("config: storage.data_dir is required"))
	}

	if cfg.Memory.HistoryResponses < 0 {
		errs = append(errs, fmt.Errorf("config: memory.history_responses must not be negative (got %d)", cfg.Memory.HistoryResponses))
	}

	return errors.Join(errs...)
}

func validateModel(m *ModelConfig) []error {
	var errs []error

	switch m.Provider {
	case "":
		errs = append(errs, errors.New("config: model.provider is required"))
	case ProviderOpenAICompatible:
		if m.BaseURL == "" {
			errs = append(errs, errors.New("config: model.base_url is required for openai_compatible"))
		}
	case ProviderAnthropic:
		// BaseURL optional; the SDK defaults to the public endpoint.
	default:
		errs = append(errs, fmt.Errorf(
			"config: unknown model.provider %q (supported: %q, %q)",
			m.Provider, ProviderOpenAICompatible, ProviderAnthropic,
		))
	}

	if m.ID == "" {
		errs = append(errs, errors.New("config: model.id is required"))
	}
	if m.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("config: model.max_tokens must not be negative (got %d)", m.MaxTokens))
	}
	if m.Temperature != nil && (*m.Temperature < 0 || *m.Temperature > 2) {
		errs = append(errs, fmt.Errorf("config: model.temperature must be between 0 and 2 (got %g)", *m.Temperature))
	}

	return errs
}
