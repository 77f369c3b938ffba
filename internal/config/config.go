package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort        string        `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LLMProvider     string        `env:"LLM_PROVIDER" envDefault:"gemini"`
	LLMAPIKey       string        `env:"LLM_API_KEY,required,notEmpty"`
	LLMBaseURL      string        `env:"LLM_BASE_URL" envDefault:"https://api.openai.com/v1"`
	LLMModel        string        `env:"LLM_MODEL"`
	LLMTimeout      time.Duration `env:"LLM_TIMEOUT" envDefault:"60s"`
	LLMMaxRetries   int           `env:"LLM_MAX_RETRIES" envDefault:"1"`
	MaxImageBytes   int64         `env:"MAX_IMAGE_BYTES" envDefault:"5242880"`
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
	RateLimitMax    int           `env:"RATE_LIMIT_MAX" envDefault:"10"`
	RedisAddr       string        `env:"REDIS_ADDR"`
	RedisPassword   string        `env:"REDIS_PASSWORD"`
	RedisDB         int           `env:"REDIS_DB" envDefault:"0"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
