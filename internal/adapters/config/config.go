package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"ossy/pkg/errors"
)

type Config struct {
	App           AppConfig
	HTTP          HTTPConfig
	DexScreener   DexScreenerConfig
	Screener      ScreenerConfig
	AI            AIConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	ErrorTracking ErrorTrackingConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"ossy"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	Version  string `envconfig:"APP_VERSION" default:"dev"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

type HTTPConfig struct {
	Addr            string        `envconfig:"HTTP_ADDR" default:":8080"`
	ReadTimeout     time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"2m"`
	ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
	// RunTimeout bounds one agent run (model calls plus screening)
	RunTimeout time.Duration `envconfig:"HTTP_RUN_TIMEOUT" default:"90s"`
}

type DexScreenerConfig struct {
	BaseURL        string        `envconfig:"DEXSCREENER_BASE_URL" default:"https://api.dexscreener.com"`
	UserAgent      string        `envconfig:"DEXSCREENER_USER_AGENT" default:"ossy/1.0"`
	RequestTimeout time.Duration `envconfig:"DEXSCREENER_REQUEST_TIMEOUT" default:"10s"`
	BoostsRPM      int           `envconfig:"DEXSCREENER_BOOSTS_RPM" default:"60"`
	PairsRPM       int           `envconfig:"DEXSCREENER_PAIRS_RPM" default:"300"`
}

type ScreenerConfig struct {
	MaxCandidates int           `envconfig:"SCREENER_MAX_CANDIDATES" default:"20"`
	Concurrency   int           `envconfig:"SCREENER_CONCURRENCY" default:"20"`
	JitterMax     time.Duration `envconfig:"SCREENER_JITTER_MAX" default:"200ms"`
	FetchTimeout  time.Duration `envconfig:"SCREENER_FETCH_TIMEOUT" default:"10s"`
	// RunTimeout bounds one filterTokens call, candidate list and details included
	RunTimeout time.Duration `envconfig:"SCREENER_RUN_TIMEOUT" default:"45s"`
}

type AIConfig struct {
	OpenAIKey       string `envconfig:"OPENAI_API_KEY"`
	DeepSeekKey     string `envconfig:"DEEPSEEK_API_KEY"`
	GeminiKey       string `envconfig:"GEMINI_API_KEY"`
	DefaultProvider string `envconfig:"DEFAULT_AI_PROVIDER" default:"gemini"`
	// Model overrides the provider's default model when set
	Model       string  `envconfig:"AI_MODEL"`
	Temperature float64 `envconfig:"AI_TEMPERATURE" default:"0.2"`
	MaxTokens   int     `envconfig:"AI_MAX_TOKENS" default:"2048"`

	// Base URL overrides, used for proxies and tests
	GeminiBaseURL   string `envconfig:"GEMINI_BASE_URL"`
	OpenAIBaseURL   string `envconfig:"OPENAI_BASE_URL"`
	DeepSeekBaseURL string `envconfig:"DEEPSEEK_BASE_URL" default:"https://api.deepseek.com/v1"`

	RequestTimeout time.Duration `envconfig:"AI_REQUEST_TIMEOUT" default:"60s"`

	// PromptsDir replaces the embedded prompt templates with the ones on disk
	PromptsDir string `envconfig:"AI_PROMPTS_DIR"`

	RateLimit AIRateLimitConfig
}

// AIRateLimitConfig holds per-provider request budgets
type AIRateLimitConfig struct {
	Enabled bool `envconfig:"AI_RATE_LIMIT_ENABLED" default:"true"`
	// Distributed switches to the Redis token bucket when Redis is configured
	Distributed bool `envconfig:"AI_RATE_LIMIT_DISTRIBUTED" default:"false"`
	GeminiRPM   int  `envconfig:"AI_RATE_LIMIT_GEMINI_RPM" default:"15"`
	OpenAIRPM   int  `envconfig:"AI_RATE_LIMIT_OPENAI_RPM" default:"500"`
	DeepSeekRPM int  `envconfig:"AI_RATE_LIMIT_DEEPSEEK_RPM" default:"60"`
}

// HasLLM reports whether any model provider key is configured
func (c AIConfig) HasLLM() bool {
	return c.GeminiKey != "" || c.OpenAIKey != "" || c.DeepSeekKey != ""
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// Enabled reports whether a Redis host is configured
func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type KafkaConfig struct {
	Brokers []string `envconfig:"KAFKA_BROKERS"`
	Topic   string   `envconfig:"KAFKA_TOPIC" default:"ossy.screening.events"`
}

// Enabled reports whether at least one broker is configured
func (c KafkaConfig) Enabled() bool {
	for _, b := range c.Brokers {
		if strings.TrimSpace(b) != "" {
			return true
		}
	}
	return false
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	Provider    string `envconfig:"ERROR_TRACKING_PROVIDER" default:"sentry"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the pipeline cannot run with
func (c *Config) Validate() error {
	if c.Screener.MaxCandidates <= 0 {
		return errors.NewValidationError("SCREENER_MAX_CANDIDATES", "must be positive", c.Screener.MaxCandidates)
	}
	if c.Screener.Concurrency <= 0 {
		return errors.NewValidationError("SCREENER_CONCURRENCY", "must be positive", c.Screener.Concurrency)
	}
	if c.Screener.JitterMax < 0 {
		return errors.NewValidationError("SCREENER_JITTER_MAX", "must not be negative", c.Screener.JitterMax)
	}
	if c.DexScreener.BoostsRPM <= 0 || c.DexScreener.PairsRPM <= 0 {
		return errors.NewValidationError("DEXSCREENER_*_RPM", "must be positive", fmt.Sprintf("%d/%d", c.DexScreener.BoostsRPM, c.DexScreener.PairsRPM))
	}
	switch c.AI.DefaultProvider {
	case "gemini", "openai", "deepseek":
	default:
		return errors.NewValidationError("DEFAULT_AI_PROVIDER", "unknown provider", c.AI.DefaultProvider)
	}
	return nil
}
