package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	HTTP struct {
		Port string `yaml:"port" env:"SAMPLE_HTTP_PORT"`
	} `yaml:"http"`
	Scoring struct {
		PriceCeiling float64 `yaml:"priceCeiling"`
		Limit        int     `yaml:"limit"`
	} `yaml:"scoring"`
	Origins []string `yaml:"origins" env:"SAMPLE_ORIGINS"`
	Debug   bool     `yaml:"debug" env:"SAMPLE_DEBUG"`
	Skip    string   `env:"-"`
}

func TestLoadConfigFromFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  port: "3000"
scoring:
  priceCeiling: 20
  limit: 3
origins: ["http://a"]
`), 0o600))

	t.Setenv("SAMPLE_HTTP_PORT", "8088")
	t.Setenv("SCORING_LIMIT", "5")
	t.Setenv("SAMPLE_ORIGINS", "http://x, http://y,")
	t.Setenv("SAMPLE_DEBUG", "true")
	t.Setenv("SKIP", "ignored")

	var cfg sample
	require.NoError(t, LoadConfigFrom(path, &cfg))

	assert.Equal(t, "8088", cfg.HTTP.Port)
	assert.Equal(t, 20.0, cfg.Scoring.PriceCeiling)
	assert.Equal(t, 5, cfg.Scoring.Limit)
	assert.Equal(t, []string{"http://x", "http://y"}, cfg.Origins)
	assert.True(t, cfg.Debug)
	assert.Empty(t, cfg.Skip)
}

func TestLoadConfigRejectsBadTargets(t *testing.T) {
	require.Error(t, LoadConfigFrom("", nil))

	var notStruct int
	require.Error(t, LoadConfigFrom("", &notStruct))

	var cfg sample
	require.Error(t, LoadConfigFrom(filepath.Join(t.TempDir(), "missing.yaml"), &cfg))
}

func TestLoadConfigReportsParseErrors(t *testing.T) {
	t.Setenv("SCORING_LIMIT", "three")

	var cfg sample
	err := LoadConfigFrom("", &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SCORING_LIMIT")
}
