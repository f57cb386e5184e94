// Package config defines configuration parsing and helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"dev"`
	Port   int    `env:"PORT" envDefault:"8080"`

	// LLM provider (OpenAI-compatible chat completions API)
	OpenRouterAPIKey  string        `env:"OPENROUTER_API_KEY"`
	OpenRouterBaseURL string        `env:"OPENROUTER_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	OpenRouterModel   string        `env:"OPENROUTER_MODEL" envDefault:"openai/gpt-4o-mini"`
	OpenRouterReferer string        `env:"OPENROUTER_REFERER"`
	OpenRouterTitle   string        `env:"OPENROUTER_TITLE" envDefault:"CV Ranking Engine"`
	AITimeout         time.Duration `env:"AI_TIMEOUT" envDefault:"120s"`
	// MaxPromptTokens bounds the document portion of the prompt; longer
	// documents are truncated before the call.
	MaxPromptTokens int `env:"MAX_PROMPT_TOKENS" envDefault:"6000"`

	// TikaURL specifies the base URL for the Apache Tika server used for text extraction.
	// When empty, the local PDF extractor is used instead.
	TikaURL string `env:"TIKA_URL"`

	// External index
	ElasticURL   string `env:"ELASTIC_URL" envDefault:"http://localhost:9200"`
	ElasticIndex string `env:"ELASTIC_INDEX" envDefault:"cv_profiles"`

	// Optional Redis cache backend; empty selects the in-memory store.
	RedisAddr        string        `env:"REDIS_ADDR"`
	AnalysisCacheTTL time.Duration `env:"ANALYSIS_CACHE_TTL" envDefault:"24h"`

	// Analysis pipeline. MaxConcurrentAnalyses bounds simultaneous LLM calls
	// (tune for the provider's rate limits, not local CPU); the batch size is
	// deliberately smaller to bound burst load.
	MaxConcurrentAnalyses int           `env:"MAX_CONCURRENT_ANALYSES" envDefault:"3"`
	AnalysisBatchSize     int           `env:"ANALYSIS_BATCH_SIZE" envDefault:"2"`
	AnalysisBatchPause    time.Duration `env:"ANALYSIS_BATCH_PAUSE" envDefault:"1s"`

	// Search
	SearchFetchSize  int `env:"SEARCH_FETCH_SIZE" envDefault:"50"`
	SearchResultSize int `env:"SEARCH_RESULT_SIZE" envDefault:"5"`

	// HTTP surface
	CORSAllowOrigins      string        `env:"CORS_ALLOW_ORIGINS" envDefault:"*"`
	RateLimitPerMin       int           `env:"RATE_LIMIT_PER_MIN" envDefault:"30"`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	HTTPReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	HTTPWriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"120s"`
	HTTPIdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`

	// Observability
	OTLPEndpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	OTELServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"cv-ranking-engine"`

	// AI Backoff Configuration
	AIBackoffMaxElapsedTime  time.Duration `env:"AI_BACKOFF_MAX_ELAPSED_TIME" envDefault:"180s"`
	AIBackoffInitialInterval time.Duration `env:"AI_BACKOFF_INITIAL_INTERVAL" envDefault:"2s"`
	AIBackoffMaxInterval     time.Duration `env:"AI_BACKOFF_MAX_INTERVAL" envDefault:"20s"`
	AIBackoffMultiplier      float64       `env:"AI_BACKOFF_MULTIPLIER" envDefault:"1.5"`
}

// Load parses environment variables into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("op=config.Load: %w", err)
	}
	return cfg, nil
}

// IsDev reports whether the app is running in development mode.
func (c Config) IsDev() bool { return strings.ToLower(c.AppEnv) == "dev" }

// IsProd reports whether the app is running in production mode.
func (c Config) IsProd() bool { return strings.ToLower(c.AppEnv) == "prod" }

// IsTest reports whether the app is running in test mode.
func (c Config) IsTest() bool { return strings.ToLower(c.AppEnv) == "test" }

// GetAIBackoffConfig returns backoff configuration appropriate for the current
// environment. Test environments use much shorter intervals.
func (c Config) GetAIBackoffConfig() (maxElapsedTime, initialInterval, maxInterval time.Duration, multiplier float64) {
	if c.IsTest() {
		return 5 * time.Second, 100 * time.Millisecond, 1 * time.Second, 2.0
	}
	return c.AIBackoffMaxElapsedTime, c.AIBackoffInitialInterval, c.AIBackoffMaxInterval, c.AIBackoffMultiplier
}
