package llm

import (
	"context"
	"fmt"

	"passive-genius/internal/config"
)

// Client is a TextGenerator that owns resources.
type Client interface {
	TextGenerator
	Closer
}

// NewFromConfig builds the text generator selected by AI_PROVIDER.
func NewFromConfig(ctx context.Context, cfg *config.Config) (Client, error) {
	switch cfg.AIProvider {
	case config.ProviderGemini:
		return NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	case config.ProviderGroq:
		return NewGroqClient(cfg.GroqAPIKey, cfg.GroqModel), nil
	default:
		return nil, fmt.Errorf("unsupported AI provider %q", cfg.AIProvider)
	}
}
