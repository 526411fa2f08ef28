package cfg

import (
	"errors"
	"flag"
	"fmt"
	"time"
)

// Cache backends accepted by -cache-backend.
const (
	CacheMemory   = "memory"
	CacheRedis    = "redis"
	CachePostgres = "postgres"
)

// Config holds the application settings. It follows the same
// RegisterFlags/Validate shape as the go-core packages.
type Config struct {
	DrainSeconds          int
	ShutdownBudgetSeconds int
	APIPort               int

	ClaudeAPIKey string
	ClaudeModel  string
	LLMTimeout   time.Duration
	LLMMaxTokens int

	CacheBackend    string
	CacheMaxEntries int
	RedisURL        string
	DatabaseURL     string

	SingleFlight            bool
	OverrideConfidenceScale float64

	APIToken        string
	SlackWebhookURL string
}

// RegisterFlags binds Config fields to the given FlagSet with defaults inline
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.DrainSeconds, "drain-seconds", 60, "seconds to wait for in-flight requests to drain before shutdown (1..300)")
	fs.IntVar(&c.ShutdownBudgetSeconds, "shutdown-budget-seconds", 90, "total seconds for component shutdown after drain (1..300)")
	fs.IntVar(&c.APIPort, "http-port", 8080, "API listen TCP port (1..65535)")

	// an empty key is accepted here; classification requests fail with 503 until it is set
	fs.StringVar(&c.ClaudeAPIKey, "claude-api-key", "", "API key for the Claude LLM provider")
	fs.StringVar(&c.ClaudeModel, "claude-model", "claude-sonnet-4-20250514", "Claude model to use")
	fs.DurationVar(&c.LLMTimeout, "llm-timeout", 10*time.Second, "deadline for a single classification call (1ms..5m)")
	fs.IntVar(&c.LLMMaxTokens, "llm-max-tokens", 512, "max output tokens per classification (1..8192)")

	fs.StringVar(&c.CacheBackend, "cache-backend", CacheMemory, "result cache backend: memory, redis or postgres")
	fs.IntVar(&c.CacheMaxEntries, "cache-max-entries", 0, "LRU bound for the memory cache (0 = unbounded)")
	fs.StringVar(&c.RedisURL, "redis-url", "", "Redis URL, required when cache-backend=redis")
	fs.StringVar(&c.DatabaseURL, "database-url", "", "PostgreSQL connection URL, required when cache-backend=postgres")

	fs.BoolVar(&c.SingleFlight, "single-flight", true, "collapse concurrent classifications of the same text into one model call")
	fs.Float64Var(&c.OverrideConfidenceScale, "override-confidence-scale", 1.0, "confidence multiplier when the subcategory overrides the stated urgency (0..1]")

	fs.StringVar(&c.APIToken, "api-token", "", "bearer token required on the API (empty = no auth)")
	fs.StringVar(&c.SlackWebhookURL, "slack-webhook-url", "", "Slack webhook URL for High urgency notifications")
}

// Validate checks all configuration fields for correctness.
// It returns an error if any field is invalid, or nil if all fields are valid.
func (c *Config) Validate() error {
	var errs []error

	// Drain and shutdown budgets
	if c.DrainSeconds <= 0 || c.DrainSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid DRAIN_SECONDS %d (must be 1..300)", c.DrainSeconds))
	}
	if c.ShutdownBudgetSeconds <= 0 || c.ShutdownBudgetSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid SHUTDOWN_BUDGET_SECONDS %d (must be 1..300)", c.ShutdownBudgetSeconds))
	}
	if c.ShutdownBudgetSeconds <= c.DrainSeconds {
		errs = append(errs, fmt.Errorf("SHUTDOWN_BUDGET_SECONDS %d must be greater than DRAIN_SECONDS %d", c.ShutdownBudgetSeconds, c.DrainSeconds))
	}

	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.APIPort))
	}

	if c.ClaudeModel == "" {
		errs = append(errs, errors.New("CLAUDE_MODEL is required"))
	}
	if c.LLMTimeout < time.Millisecond || c.LLMTimeout > 5*time.Minute {
		errs = append(errs, fmt.Errorf("invalid LLM_TIMEOUT %s (must be 1ms..5m)", c.LLMTimeout))
	}
	if c.LLMMaxTokens <= 0 || c.LLMMaxTokens > 8192 {
		errs = append(errs, fmt.Errorf("invalid LLM_MAX_TOKENS %d (must be 1..8192)", c.LLMMaxTokens))
	}

	switch c.CacheBackend {
	case CacheMemory:
	case CacheRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required when CACHE_BACKEND=redis"))
		}
	case CachePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when CACHE_BACKEND=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid CACHE_BACKEND %q (must be memory, redis or postgres)", c.CacheBackend))
	}
	if c.CacheMaxEntries < 0 {
		errs = append(errs, fmt.Errorf("invalid CACHE_MAX_ENTRIES %d (must be >= 0)", c.CacheMaxEntries))
	}

	// also rejects NaN
	if !(c.OverrideConfidenceScale > 0 && c.OverrideConfidenceScale <= 1) {
		errs = append(errs, fmt.Errorf("invalid OVERRIDE_CONFIDENCE_SCALE %v (must be in (0,1])", c.OverrideConfidenceScale))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
