package ai

import "fmt"

// Config holds AI provider configuration
type Config struct {
	Provider ProviderType // "gemini", "ollama" or "auto"

	// Gemini config
	GeminiAPIKey string

	// Ollama config
	OllamaBaseURL string // e.g., "http://localhost:11434"
	OllamaModel   string // e.g., "llama3", "mistral"
}

// NewSummarizer creates a Summarizer based on the config.
// This is the factory function - switch AI provider by changing config.Provider
func NewSummarizer(cfg Config) (Summarizer, error) {
	switch cfg.Provider {
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for Gemini provider")
		}
		return NewGeminiSummarizer(cfg.GeminiAPIKey), nil

	case ProviderOllama:
		return NewOllamaService(cfg.OllamaBaseURL, cfg.OllamaModel), nil

	default:
		// Auto mode: fallback chain when Gemini is configured, plain Ollama otherwise
		ollama := NewOllamaService(cfg.OllamaBaseURL, cfg.OllamaModel)
		if cfg.GeminiAPIKey != "" {
			return NewFallbackService(NewGeminiSummarizer(cfg.GeminiAPIKey), ollama), nil
		}
		return ollama, nil
	}
}
