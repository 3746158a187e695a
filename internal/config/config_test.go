package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aleister1102/snapcrawl/internal/common/errorwrapper"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultGlobalConfig(t *testing.T) {
	cfg := NewDefaultGlobalConfig()

	assert.Equal(t, DefaultCrawlerMaxDepth, cfg.CrawlerConfig.MaxDepth)
	assert.Equal(t, DefaultCrawlerMaxPages, cfg.CrawlerConfig.MaxPages)
	assert.Equal(t, time.Second, cfg.QuiescenceConfig.IdleThreshold())
	assert.Equal(t, 250*time.Millisecond, cfg.QuiescenceConfig.PollInterval())
	assert.Equal(t, 120, cfg.QuiescenceConfig.MaxAttempts)
	assert.Equal(t, 60*time.Second, cfg.CrawlerConfig.RenderTimeout())
	assert.Empty(t, cfg.DeliveryConfig.Endpoint)
	assert.False(t, cfg.DeliveryConfig.RelayAvailable())
	assert.Contains(t, cfg.StorageConfig.OutputDir, AppName)
	require.NoError(t, ValidateConfig(cfg))
}

func TestLoadGlobalConfig_NonExistentFile(t *testing.T) {
	cfg, err := LoadGlobalConfig("/nonexistent/config.json", zerolog.Nop())

	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config file does not exist")
}

func TestLoadGlobalConfig_YAMLFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	configData := `
crawler_config:
  start_url: https://app.example.com/dashboard
  max_depth: 1
  max_pages: 10
  inter_visit_delay_ms: 0
  allowlist:
    - app.example.com
    - /^.*\.example\.com$/
quiescence_config:
  idle_threshold_ms: 500
delivery_config:
  endpoint: https://sink.example.net/ingest
  relay:
    enabled: true
    proxy_url: http://127.0.0.1:8080
storage_config:
  output_dir: /tmp/snaps
`
	require.NoError(t, os.WriteFile(configFile, []byte(configData), 0644))

	cfg, err := LoadGlobalConfig(configFile, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, "https://app.example.com/dashboard", cfg.CrawlerConfig.StartURL)
	assert.Equal(t, 1, cfg.CrawlerConfig.MaxDepth)
	assert.Equal(t, 10, cfg.CrawlerConfig.MaxPages)
	assert.Equal(t, time.Duration(0), cfg.CrawlerConfig.InterVisitDelay())
	assert.Equal(t, []string{"app.example.com", `/^.*\.example\.com$/`}, cfg.CrawlerConfig.Allowlist)
	assert.Equal(t, 500*time.Millisecond, cfg.QuiescenceConfig.IdleThreshold())
	// untouched fields keep defaults
	assert.Equal(t, DefaultQuiescencePollIntervalMs, cfg.QuiescenceConfig.PollIntervalMs)
	assert.True(t, cfg.DeliveryConfig.RelayAvailable())
	assert.Equal(t, "/tmp/snaps", cfg.StorageConfig.OutputDir)
	require.NoError(t, ValidateConfig(cfg))
}

func TestLoadGlobalConfig_JSONFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.json")
	configData := `{
		"crawler_config": {"max_depth": 3, "max_pages": 5},
		"log_config": {"log_level": "debug", "log_format": "json"}
	}`
	require.NoError(t, os.WriteFile(configFile, []byte(configData), 0644))

	cfg, err := LoadGlobalConfig(configFile, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.CrawlerConfig.MaxDepth)
	assert.Equal(t, 5, cfg.CrawlerConfig.MaxPages)
	assert.Equal(t, "debug", cfg.LogConfig.LogLevel)
	assert.Equal(t, "json", cfg.LogConfig.LogFormat)
}

func TestLoadGlobalConfig_InvalidYAML(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("crawler_config: [unterminated"), 0644))

	_, err := LoadGlobalConfig(configFile, zerolog.Nop())
	assert.Error(t, err)
}

func TestValidateConfig_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *GlobalConfig)
		field  string
	}{
		{
			name:   "zero page budget",
			mutate: func(cfg *GlobalConfig) { cfg.CrawlerConfig.MaxPages = 0 },
			field:  "CrawlerConfig.MaxPages",
		},
		{
			name:   "negative depth",
			mutate: func(cfg *GlobalConfig) { cfg.CrawlerConfig.MaxDepth = -1 },
			field:  "CrawlerConfig.MaxDepth",
		},
		{
			name:   "bad log level",
			mutate: func(cfg *GlobalConfig) { cfg.LogConfig.LogLevel = "loud" },
			field:  "LogConfig.LogLevel",
		},
		{
			name:   "bad endpoint",
			mutate: func(cfg *GlobalConfig) { cfg.DeliveryConfig.Endpoint = "not a url" },
			field:  "DeliveryConfig.Endpoint",
		},
		{
			name:   "unknown codec",
			mutate: func(cfg *GlobalConfig) { cfg.StorageConfig.CompressionCodec = "lz77" },
			field:  "StorageConfig.CompressionCodec",
		},
		{
			name:   "zero poll attempts",
			mutate: func(cfg *GlobalConfig) { cfg.QuiescenceConfig.MaxAttempts = 0 },
			field:  "QuiescenceConfig.MaxAttempts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultGlobalConfig()
			tt.mutate(cfg)

			err := ValidateConfig(cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, errorwrapper.ErrInvalidConfiguration)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestGetConfigPath_EnvOverride(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("{}"), 0644))
	t.Setenv(ConfigPathEnv, configFile)

	assert.Equal(t, configFile, GetConfigPath(""))
}
