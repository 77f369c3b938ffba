package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"health-profiler/internal/config"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

const (
	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultOpenAIModel = "gpt-4.1-mini"
)

// NewFromConfig construye el cliente segun LLM_PROVIDER. El adaptador no guarda estado de sesion:
// puede construirse por llamada o reutilizarse.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger) (LLMClient, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.LLMProvider)) {
	case "", ProviderGemini:
		return NewGeminiClient(ctx, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMMaxRetries, logger)
	case ProviderOpenAI:
		return NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMMaxRetries, logger), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.LLMProvider)
	}
}
