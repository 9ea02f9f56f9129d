package app

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/openai/openai-go/v3"

	"smart-qa/internal/assistant"
	"smart-qa/internal/cache"
	"smart-qa/internal/config"
	"smart-qa/internal/llm"
	"smart-qa/internal/logger"
	"smart-qa/internal/queue"
	"smart-qa/internal/retry"
)

// Deps bundles common runtime dependencies for the binaries.
type Deps struct {
	Config    config.Config
	Log       *slog.Logger
	Cache     cache.Store
	LLM       llm.Provider
	Assistant assistant.Service
	Queue     queue.Queue

	closers []func() error
}

// Build loads env, config, and shared components; logs go to stdout.
func Build() (Deps, error) {
	cfg, err := loadConfig()
	if err != nil {
		return Deps{}, err
	}
	return build(cfg, logger.New(cfg.LogLevel), nil)
}

// BuildCLI is Build for the interactive CLI. Logs go to LOG_FILE when set,
// otherwise stderr, keeping stdout for the conversation; LOG_ERROR_FILE
// additionally receives error records. A non-empty logLevel overrides
// LOG_LEVEL.
func BuildCLI(logLevel string) (Deps, error) {
	cfg, err := loadConfig()
	if err != nil {
		return Deps{}, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	log, closers, err := cliLogger(cfg)
	if err != nil {
		return Deps{}, err
	}
	return build(cfg, log, closers)
}

func cliLogger(cfg config.Config) (*slog.Logger, []func() error, error) {
	var (
		w       io.Writer = os.Stderr
		closers []func() error
	)
	closeAll := func() {
		for _, c := range closers {
			_ = c()
		}
	}
	if cfg.LogFile != "" {
		f, err := openLogFile(cfg.LogFile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w = f
		closers = append(closers, f.Close)
	}
	if cfg.LogErrorFile == "" {
		return logger.NewWithWriter(cfg.LogLevel, w), closers, nil
	}
	ef, err := openLogFile(cfg.LogErrorFile)
	if err != nil {
		closeAll()
		return nil, nil, fmt.Errorf("failed to open error log file: %w", err)
	}
	closers = append(closers, ef.Close)
	return logger.NewSplit(cfg.LogLevel, w, ef), closers, nil
}

func openLogFile(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

// BuildWorker is Build plus the NATS queue.
func BuildWorker() (Deps, error) {
	deps, err := Build()
	if err != nil {
		return Deps{}, err
	}
	q, err := buildQueue(deps.Config, deps.Log)
	if err != nil {
		deps.Close()
		return Deps{}, fmt.Errorf("failed to initialize queue: %w", err)
	}
	deps.Queue = q
	deps.closers = append(deps.closers, q.Close)
	return deps, nil
}

// Close releases connections in reverse order of creation.
func (d Deps) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		errs = append(errs, d.closers[i]())
	}
	return errors.Join(errs...)
}

func loadConfig() (config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config.Config{}, fmt.Errorf("failed to load environment variables: %w", err)
	}
	return config.Load(), nil
}

func build(cfg config.Config, log *slog.Logger, closers []func() error) (Deps, error) {
	deps := Deps{Config: cfg, Log: log, closers: closers}

	store, err := buildCache(cfg, log)
	if err != nil {
		deps.Close()
		return Deps{}, fmt.Errorf("failed to initialize cache: %w", err)
	}
	deps.closers = append(deps.closers, store.Close)

	provider, err := buildLLM(cfg, log)
	if err != nil {
		deps.Close()
		return Deps{}, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	deps.Cache = store
	deps.LLM = provider
	deps.Assistant = assistant.New(provider, store, log, assistant.Options{
		Retry: retry.Policy{
			MaxAttempts: cfg.MaxRetries,
			Base:        cfg.BackoffBase,
		},
		StripCodeFences: cfg.StripCodeFences,
	})
	return deps, nil
}

func buildCache(cfg config.Config, log *slog.Logger) (cache.Store, error) {
	switch cfg.CacheProvider {
	case "memory", "":
		log.Debug("using in-memory cache")
		return cache.NewMemoryStore(), nil
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("REDIS_ADDR is required when CACHE_PROVIDER=redis")
		}
		rc, err := cache.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, err
		}
		log.Info("using Redis cache", "addr", cfg.RedisAddr)
		return rc, nil
	default:
		return nil, fmt.Errorf("invalid CACHE_PROVIDER: %s (valid options: memory, redis)", cfg.CacheProvider)
	}
}

func buildLLM(cfg config.Config, log *slog.Logger) (llm.Provider, error) {
	switch cfg.LLMProvider {
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
		provider, err := llm.NewOpenAIProvider(cfg.OpenAIKey, openai.ChatModel(cfg.LLMModel), cfg.OpenAIBaseURL, cfg.LLMTimeout)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI client: %w", err)
		}
		log.Debug("using OpenAI LLM client", "model", cfg.LLMModel)
		return provider, nil
	default:
		return nil, fmt.Errorf("invalid LLM_PROVIDER: %s (valid option: openai)", cfg.LLMProvider)
	}
}

func buildQueue(cfg config.Config, log *slog.Logger) (queue.Queue, error) {
	if cfg.QueueURL == "" {
		return nil, fmt.Errorf("QUEUE_URL is required for the worker")
	}
	nc, err := nats.Connect(cfg.QueueURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	log.Info("using NATS queue")
	return queue.NewNATS(log, nc), nil
}
