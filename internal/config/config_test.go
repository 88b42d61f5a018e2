// File: internal/config/config_test.go
package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/refine-cli/internal/config"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	config.SetDefaults(v)

	cfg, err := config.NewConfigFromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "console", cfg.Logger.Format)
	assert.Equal(t, 15, cfg.Gate.LargeFunctionThreshold)
	assert.Equal(t, 30, cfg.Gate.MinConstructLength)

	// The reference scoring configuration is fixed.
	assert.InDelta(t, 0.45, cfg.Optimizer.WeightConfidence, 1e-9)
	assert.InDelta(t, 0.35, cfg.Optimizer.WeightSimilarity, 1e-9)
	assert.InDelta(t, 0.20, cfg.Optimizer.WeightRisk, 1e-9)
	assert.InDelta(t, 0.72, cfg.Optimizer.SimilarityTarget, 1e-9)
	assert.Empty(t, cfg.Optimizer.Backends)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
logger:
  level: debug
  format: json
optimizer:
  backends:
    - id: llama
      display_name: LLaMA 3.3 70B
      provider: openai
      model: llama-3.3-70b-versatile
      endpoint: https://api.groq.com/openai/v1
    - id: gemini-flash
      display_name: Gemini 2.0 Flash
      provider: gemini
      model: gemini-2.0-flash
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Format)
	require.Len(t, cfg.Optimizer.Backends, 2)
	assert.Equal(t, "llama", cfg.Optimizer.Backends[0].ID)
	assert.Equal(t, "gemini", cfg.Optimizer.Backends[1].Provider)
}

func TestValidateRejectsBadBackends(t *testing.T) {
	v := viper.New()
	config.SetDefaults(v)
	cfg, err := config.NewConfigFromViper(v)
	require.NoError(t, err)

	cfg.Optimizer.Backends = []config.BackendConfig{{ID: "x", Provider: "anthropic"}}
	assert.Error(t, cfg.Validate())

	cfg.Optimizer.Backends = []config.BackendConfig{
		{ID: "x", Provider: "openai"},
		{ID: "x", Provider: "gemini"},
	}
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}
