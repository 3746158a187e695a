package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// StorageConfig holds local persistence settings
type StorageConfig struct {
	OutputDir        string `json:"output_dir,omitempty" yaml:"output_dir,omitempty" validate:"required"`
	LedgerPath       string `json:"ledger_path,omitempty" yaml:"ledger_path,omitempty"`
	ManifestDir      string `json:"manifest_dir,omitempty" yaml:"manifest_dir,omitempty"`
	CompressionCodec string `json:"compression_codec,omitempty" yaml:"compression_codec,omitempty" validate:"omitempty,codec"`
}

// NewDefaultStorageConfig stores captures under the XDG data home
func NewDefaultStorageConfig() StorageConfig {
	return StorageConfig{
		OutputDir:        filepath.Join(DataDir(), DefaultStorageCapturesDir),
		CompressionCodec: DefaultStorageCompressionCodec,
	}
}

// DataDir returns the application data directory
func DataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// ConfigDir returns the application config directory
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}
