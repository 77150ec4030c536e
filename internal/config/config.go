package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	// Optional pgvector-backed snippet index; in-memory when unset
	DatabaseURL string `envconfig:"DATABASE_URL"`

	OpenAIAPIKey  string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL"`
	LLMModel      string `envconfig:"LLM_MODEL" default:"gpt-4o-mini"`
	EmbedModel    string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-ada-002"`

	DataDir string `envconfig:"DATA_DIR" default:"data"`

	StageTimeout        time.Duration `envconfig:"STAGE_TIMEOUT" default:"10s"`
	TopK                int           `envconfig:"TOP_K" default:"3"`
	ConfidenceThreshold float64       `envconfig:"CONFIDENCE_THRESHOLD" default:"0.6"`
	FallbackConfidence  float64       `envconfig:"FALLBACK_CONFIDENCE" default:"0.5"`
	MaxPromptChars      int           `envconfig:"MAX_PROMPT_CHARS" default:"6000"`

	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("DESKWISE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// Validate rejects values the pipeline cannot operate with
func (c *Config) Validate() error {
	if c.TopK <= 0 {
		return fmt.Errorf("top_k must be positive, got %d", c.TopK)
	}
	if c.StageTimeout <= 0 {
		return fmt.Errorf("stage timeout must be positive, got %s", c.StageTimeout)
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence threshold must be in [0,1], got %g", c.ConfidenceThreshold)
	}
	if c.FallbackConfidence < 0 || c.FallbackConfidence > 1 {
		return fmt.Errorf("fallback confidence must be in [0,1], got %g", c.FallbackConfidence)
	}
	if c.MaxPromptChars <= 0 {
		return fmt.Errorf("max prompt chars must be positive, got %d", c.MaxPromptChars)
	}
	return nil
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}
