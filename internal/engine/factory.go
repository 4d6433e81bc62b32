package engine

import (
	"context"
	"fmt"

	"Picture-Story/server/internal/config"
	"Picture-Story/server/internal/interfaces"
	"Picture-Story/server/internal/prompts"
)

// NewStoryGenerator builds the generator for the configured provider
func NewStoryGenerator(ctx context.Context, cfg config.GenerationConfig) (interfaces.StoryGenerator, error) {
	builder := prompts.NewStoryPromptBuilder(cfg.Nationality)

	switch cfg.Provider {
	case config.ProviderGemini, "":
		client, err := NewGeminiClient(ctx, cfg.APIKey, cfg.Model, builder)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.ProviderOpenAI:
		client, err := NewOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Timeout.Std(), builder)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown generation provider %q", cfg.Provider)
	}
}
