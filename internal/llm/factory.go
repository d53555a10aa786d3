package llm

import (
	"fmt"
	"strings"

	"github.com/simonyos/geochat/internal/config"
)

// Providers lists the backends New understands
var Providers = []string{"openai", "anthropic", "openrouter", "ollama", "litellm"}

// New builds the provider called name from configuration. Empty name and
// model fall back to the configured values.
func New(cfg *config.Config, name, model string) (Provider, error) {
	if name == "" {
		name = cfg.Provider
	}
	if model == "" {
		model = cfg.Model
	}

	switch strings.ToLower(name) {
	case "openai", "":
		if cfg.OpenAIKey == "" && cfg.BaseURL == "" {
			return nil, fmt.Errorf("openai: %w (use 'geochat config set openai <key>' or set OPENAI_API_KEY)", ErrMissingAPIKey)
		}
		return NewOpenAI(cfg.OpenAIKey, model, cfg.BaseURL), nil
	case "anthropic", "claude":
		return NewAnthropic(cfg.AnthropicKey, model, cfg.BaseURL), nil
	case "openrouter":
		if cfg.OpenRouterKey == "" {
			return nil, fmt.Errorf("openrouter: %w (use 'geochat config set openrouter <key>' or set OPENROUTER_API_KEY)", ErrMissingAPIKey)
		}
		return NewOpenRouter(cfg.OpenRouterKey, model), nil
	case "ollama":
		return NewOllama(model, cfg.BaseURL), nil
	case "litellm":
		return NewLiteLLM(cfg.OpenAIKey, model, cfg.BaseURL), nil
	}
	return nil, fmt.Errorf("unknown provider %q (supported: %s)", name, strings.Join(Providers, ", "))
}
