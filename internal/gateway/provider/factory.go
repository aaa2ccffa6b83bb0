package provider

import (
	"fmt"

	"sqlchat/internal/config"
	"sqlchat/internal/logger"
	"sqlchat/internal/pkg/circuit"
)

// New builds the configured provider wrapped in a circuit breaker.
func New(cfg config.LLMConfig) (ModelProvider, error) {
	var inner ModelProvider
	switch cfg.Provider {
	case "ollama":
		inner = NewOllamaClient(cfg.APIURL, cfg.Model, cfg.Timeout(), cfg.MaxRetries, cfg.Headers)
	case "openai":
		inner = NewOpenAIClient(cfg.APIURL, cfg.APIKey, cfg.Model, cfg.Timeout(), cfg.MaxRetries, cfg.Headers)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	logger.Infof("llm provider %s model=%s url=%s", inner.ID(), inner.Model(), cfg.APIURL)
	if cfg.BreakerThreshold <= 0 {
		return inner, nil
	}
	breaker := circuit.New("llm:"+inner.ID(), cfg.BreakerThreshold, cfg.BreakerCooldown())
	return NewGuarded(inner, breaker), nil
}
