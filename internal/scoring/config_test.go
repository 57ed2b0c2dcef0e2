package scoring

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scoring.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.InDelta(t, 1.0, cfg.Weights.Sum(), 1e-9)
	assert.Equal(t, 85.0, cfg.Thresholds.Green)
}

func TestLoadShippedConfig(t *testing.T) {
	path := "../../configs/scoring.yaml"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("config file not found")
	}

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigPartialOverride(t *testing.T) {
	path := writeYAML(t, `
penalties:
  high_alert: 8
thresholds:
  amber: 65
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 8.0, cfg.Penalties.HighAlert)
	assert.Equal(t, 65.0, cfg.Thresholds.Amber)
	// untouched fields keep defaults
	assert.Equal(t, 2.0, cfg.Penalties.MediumAlert)
	assert.Equal(t, 0.30, cfg.Weights.Material)
}

func TestLoadConfigRejectsUnknownField(t *testing.T) {
	path := writeYAML(t, `
weights:
  materials: 0.30
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "materials")
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"weights do not sum to one", func(c *Config) { c.Weights.Alerts = 0.25 }, "weights"},
		{"zero weight", func(c *Config) { c.Weights.Menu = 0; c.Weights.Material = 0.55 }, "weights.menu"},
		{"negative penalty", func(c *Config) { c.Penalties.LowAlert = -1 }, "penalties.low_alert"},
		{"amber above green", func(c *Config) { c.Thresholds.Amber = 90 }, "thresholds"},
		{"green above 100", func(c *Config) { c.Thresholds.Green = 101 }, "thresholds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var ve ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestHashDeterministic(t *testing.T) {
	h1, err := Hash(DefaultConfig())
	require.NoError(t, err)
	h2, err := Hash(DefaultConfig())
	require.NoError(t, err)

	assert.Len(t, h1, 64)
	assert.Equal(t, h1, h2)

	cfg := DefaultConfig()
	cfg.Penalties.LowAlert = 2
	h3, err := Hash(cfg)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}

func TestEngineConfigHash(t *testing.T) {
	want, err := Hash(DefaultConfig())
	require.NoError(t, err)

	e := NewEngine(DefaultConfig(), nil)
	assert.Equal(t, want, e.ConfigHash())

	cfg := DefaultConfig()
	cfg.Thresholds.Green = 90
	assert.NotEqual(t, want, NewEngine(cfg, nil).ConfigHash())
}
