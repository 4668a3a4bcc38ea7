package llm

import (
	"fmt"

	"github.com/zombor/recibos/internal/extraction"
)

// Provider is a FieldExtractor holding resources that must be released
type Provider interface {
	extraction.FieldExtractor
	// Close releases the provider's resources
	Close() error
}

// Config selects and configures a provider
type Config struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
}

// New creates the provider named in cfg. An empty or "none" provider returns nil, nil.
func New(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "", "none":
		return nil, nil
	case "groq", "openai":
		return NewGroq(cfg.APIKey, cfg.BaseURL, cfg.Model)
	case "gemini":
		return NewGemini(cfg.APIKey, cfg.Model)
	case "ollama":
		return NewOllama(cfg.BaseURL, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}
