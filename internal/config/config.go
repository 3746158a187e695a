package config

import (
	"encoding/json"
	"path/filepath"

	"github.com/aleister1102/snapcrawl/internal/common/errorwrapper"
	"github.com/aleister1102/snapcrawl/internal/common/filemanager"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// maxConfigFileSize bounds the config file read
const maxConfigFileSize = 10 * 1024 * 1024

// GlobalConfig contains all configuration sections for the application
type GlobalConfig struct {
	CrawlerConfig         CrawlerConfig         `json:"crawler_config,omitempty" yaml:"crawler_config,omitempty"`
	QuiescenceConfig      QuiescenceConfig      `json:"quiescence_config,omitempty" yaml:"quiescence_config,omitempty"`
	DeliveryConfig        DeliveryConfig        `json:"delivery_config,omitempty" yaml:"delivery_config,omitempty"`
	StorageConfig         StorageConfig         `json:"storage_config,omitempty" yaml:"storage_config,omitempty"`
	HeadlessBrowserConfig HeadlessBrowserConfig `json:"headless_browser_config,omitempty" yaml:"headless_browser_config,omitempty"`
	ResourceLimiterConfig ResourceLimiterConfig `json:"resource_limiter_config,omitempty" yaml:"resource_limiter_config,omitempty"`
	LogConfig             LogConfig             `json:"log_config,omitempty" yaml:"log_config,omitempty"`
}

// NewDefaultGlobalConfig creates a new GlobalConfig with default values
func NewDefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		CrawlerConfig:         NewDefaultCrawlerConfig(),
		QuiescenceConfig:      NewDefaultQuiescenceConfig(),
		DeliveryConfig:        NewDefaultDeliveryConfig(),
		StorageConfig:         NewDefaultStorageConfig(),
		HeadlessBrowserConfig: NewDefaultHeadlessBrowserConfig(),
		ResourceLimiterConfig: NewDefaultResourceLimiterConfig(),
		LogConfig:             NewDefaultLogConfig(),
	}
}

// LoadGlobalConfig loads the configuration from a file or default locations.
// It supports both JSON and YAML; YAML is used for .yaml and .yml files.
// Fields missing from the file keep their defaults.
func LoadGlobalConfig(providedPath string, logger zerolog.Logger) (*GlobalConfig, error) {
	cfg := NewDefaultGlobalConfig()
	fileManager := filemanager.NewFileManager(logger)

	if providedPath != "" && !fileManager.FileExists(providedPath) {
		return nil, errorwrapper.NewValidationError("config_file", providedPath, "config file does not exist")
	}

	filePath := GetConfigPath(providedPath)
	if filePath == "" {
		logger.Debug().Msg("No config file found, using defaults")
		return cfg, nil
	}

	opts := filemanager.DefaultFileReadOptions()
	opts.MaxSize = maxConfigFileSize
	data, err := fileManager.ReadFile(filePath, opts)
	if err != nil {
		return nil, errorwrapper.WrapError(err, "failed to load config file content")
	}

	if err := parseConfigContent(data, filePath, cfg); err != nil {
		return nil, errorwrapper.WrapError(err, "failed to parse config content")
	}

	logger.Info().Str("path", filePath).Msg("Configuration loaded")
	return cfg, nil
}

// parseConfigContent parses the config content based on file extension
func parseConfigContent(data []byte, filePath string, cfg *GlobalConfig) error {
	if isYAMLFile(filepath.Ext(filePath)) {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return errorwrapper.NewError("failed to unmarshal YAML from '%s': %w", filePath, err)
		}
		return nil
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return errorwrapper.NewError("failed to unmarshal JSON from '%s': %w", filePath, err)
	}
	return nil
}

func isYAMLFile(ext string) bool {
	return ext == ".yaml" || ext == ".yml"
}
