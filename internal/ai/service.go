package ai

import (
	"context"
	"fmt"

	"fitgauge/internal/config"
	"fitgauge/internal/errors"
)

// Service handles narrative generation for the analysis pipeline
type Service struct {
	Provider NarrativeProvider // Exported for access from server package
	config   config.AIConfig
	logger   *errors.Logger
}

// NewService creates a new narrative service instance
func NewService(cfg config.AIConfig, logger *errors.Logger) (*Service, error) {
	logger.Debug("Initializing narrative service",
		"provider", cfg.Provider,
		"model", cfg.Model,
		"temperature", cfg.Temperature,
		"timeout", cfg.Timeout,
		"max_retries", cfg.MaxRetries,
		"use_system_prompts", cfg.UseSystemPrompts)

	var provider NarrativeProvider
	var err error

	switch cfg.Provider {
	case "gemini":
		provider, err = NewGeminiProvider(cfg, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported narrative provider: %s", cfg.Provider), nil)
	}

	if err != nil {
		return nil, errors.NewProviderError(errors.ErrCodeProviderFailed,
			"Failed to create narrative provider", err)
	}

	return &Service{
		Provider: provider,
		config:   cfg,
		logger:   logger,
	}, nil
}

// GetModelInfo returns information about the narrative model for health checks
func (s *Service) GetModelInfo(ctx context.Context) any {
	return s.Provider.GetModelInfo(ctx)
}
