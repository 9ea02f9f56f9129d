package config

import (
	"log/slog"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds runtime configuration shared by the CLI, gateway and worker.
type Config struct {
	// Server
	Port         int    `env:"PORT" envDefault:"8080"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile      string `env:"LOG_FILE"`       // CLI only; empty logs to stderr
	LogErrorFile string `env:"LOG_ERROR_FILE"` // CLI only; extra copy of error records

	// Request limits
	MaxRequestSize int64 `env:"MAX_REQUEST_SIZE" envDefault:"1048576"` // 1MB in bytes

	// LLM
	LLMProvider   string        `env:"LLM_PROVIDER" envDefault:"openai"` // "openai" (only supported provider)
	OpenAIKey     string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string        `env:"OPENAI_BASE_URL"`
	LLMModel      string        `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	LLMTimeout    time.Duration `env:"LLM_TIMEOUT" envDefault:"30s"` // per attempt

	// Retry
	MaxRetries  int           `env:"MAX_RETRIES" envDefault:"3"`
	BackoffBase time.Duration `env:"BACKOFF_BASE" envDefault:"2s"`

	// Cache
	CacheProvider string `env:"CACHE_PROVIDER" envDefault:"memory"` // "memory" (process lifetime) or "redis"
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	// Queue
	QueueURL string `env:"QUEUE_URL"`

	// Parsing
	StripCodeFences bool `env:"STRIP_CODE_FENCES" envDefault:"false"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}
