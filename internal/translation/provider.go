package translation

import (
	"context"
	"fmt"
)

// BackendConfig selects and configures a backend
type BackendConfig struct {
	Provider string // "openai", "deepseek" or "gemini"
	APIKey   string
	BaseURL  string // OpenAI-compatible providers only
	Model    string
}

// NewBackend creates the backend named by config.Provider
func NewBackend(ctx context.Context, config BackendConfig) (Backend, error) {
	switch config.Provider {
	case "openai":
		return NewOpenAIBackend(config.APIKey, config.BaseURL, config.Model), nil
	case "deepseek", "":
		return NewDeepSeekBackend(config.APIKey, config.BaseURL, config.Model), nil
	case "gemini":
		return NewGeminiBackend(ctx, config.APIKey, config.Model)
	default:
		return nil, fmt.Errorf("unknown translation provider: %s", config.Provider)
	}
}

// ModelOf returns the model b talks to, or "" when b does not expose one
func ModelOf(b Backend) string {
	if m, ok := b.(interface{ Model() string }); ok {
		return m.Model()
	}
	return ""
}
