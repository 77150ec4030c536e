package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_WithEnvVars(t *testing.T) {
	os.Setenv("DESKWISE_PORT", "9090")
	os.Setenv("DESKWISE_DEBUG", "true")
	os.Setenv("DESKWISE_OPENAI_API_KEY", "sk-test")
	os.Setenv("DESKWISE_STAGE_TIMEOUT", "2s")
	os.Setenv("DESKWISE_TOP_K", "5")
	os.Setenv("DESKWISE_CONFIDENCE_THRESHOLD", "0.75")
	defer func() {
		os.Unsetenv("DESKWISE_PORT")
		os.Unsetenv("DESKWISE_DEBUG")
		os.Unsetenv("DESKWISE_OPENAI_API_KEY")
		os.Unsetenv("DESKWISE_STAGE_TIMEOUT")
		os.Unsetenv("DESKWISE_TOP_K")
		os.Unsetenv("DESKWISE_CONFIDENCE_THRESHOLD")
	}()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "sk-test", cfg.OpenAIAPIKey)
	assert.Equal(t, 2*time.Second, cfg.StageTimeout)
	assert.Equal(t, 5, cfg.TopK)
	assert.Equal(t, 0.75, cfg.ConfidenceThreshold)
	assert.True(t, cfg.HasOpenAI())
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.False(t, cfg.Debug)
	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, 10*time.Second, cfg.StageTimeout)
	assert.Equal(t, 3, cfg.TopK)
	assert.Equal(t, 0.6, cfg.ConfidenceThreshold)
	assert.Equal(t, 0.5, cfg.FallbackConfidence)
	assert.Equal(t, 6000, cfg.MaxPromptChars)
	assert.Equal(t, "gpt-4o-mini", cfg.LLMModel)
	assert.False(t, cfg.HasDatabase())
}

func TestValidate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"ZeroTopK", func(c *Config) { c.TopK = 0 }},
		{"NegativeTimeout", func(c *Config) { c.StageTimeout = -time.Second }},
		{"ThresholdAboveOne", func(c *Config) { c.ConfidenceThreshold = 1.2 }},
		{"NegativeFallbackConfidence", func(c *Config) { c.FallbackConfidence = -0.1 }},
		{"ZeroPromptBudget", func(c *Config) { c.MaxPromptChars = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
