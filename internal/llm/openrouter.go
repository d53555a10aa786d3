package llm

import "github.com/openai/openai-go/v3/option"

const (
	openRouterBaseURL = "https://openrouter.ai/api/v1"
	ollamaBaseURL     = "http://localhost:11434/v1"
	liteLLMBaseURL    = "http://localhost:4000"
)

// NewOpenRouter creates an OpenAI-compatible provider pointed at OpenRouter
func NewOpenRouter(apiKey, model string) *OpenAI {
	if model == "" {
		model = "openai/gpt-4o-mini"
	}
	p := NewOpenAI(apiKey, model, openRouterBaseURL,
		option.WithHeader("HTTP-Referer", "https://github.com/simonyos/geochat"),
		option.WithHeader("X-Title", "geochat"),
	)
	p.label = "openrouter"
	return p
}

// NewOllama creates a provider for a local Ollama server. Ollama ignores the
// API key but the client requires a non-empty one.
func NewOllama(model, baseURL string) *OpenAI {
	if baseURL == "" {
		baseURL = ollamaBaseURL
	}
	if model == "" {
		model = "llama3.1"
	}
	p := NewOpenAI("ollama", model, baseURL)
	p.label = "ollama"
	return p
}

// NewLiteLLM creates a provider for a LiteLLM proxy. The proxy's master key
// goes in apiKey; an empty key is sent as a placeholder.
func NewLiteLLM(apiKey, model, baseURL string) *OpenAI {
	if baseURL == "" {
		baseURL = liteLLMBaseURL
	}
	if apiKey == "" {
		apiKey = "litellm"
	}
	p := NewOpenAI(apiKey, model, baseURL)
	p.label = "litellm"
	return p
}
