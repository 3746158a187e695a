package datastore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aleister1102/snapcrawl/internal/models"
	"github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog"
)

// ManifestWriter writes one Parquet file per session listing every visited page
type ManifestWriter struct {
	dir    string
	codec  string
	logger zerolog.Logger
}

// NewManifestWriter creates a writer storing manifests under dir
func NewManifestWriter(dir, codec string, logger zerolog.Logger) *ManifestWriter {
	return &ManifestWriter{
		dir:    dir,
		codec:  codec,
		logger: logger.With().Str("component", "ManifestWriter").Logger(),
	}
}

// Write stores records as <dir>/<sessionID>.parquet and returns the path
func (mw *ManifestWriter) Write(sessionID string, records []models.VisitRecord) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("session id is required")
	}
	if err := os.MkdirAll(mw.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create manifest directory '%s': %w", mw.dir, err)
	}

	filePath := filepath.Join(mw.dir, sessionID+".parquet")
	file, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create manifest file '%s': %w", filePath, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			mw.logger.Error().Err(closeErr).Str("path", filePath).Msg("Failed to close manifest file")
		}
	}()

	writer := parquet.NewGenericWriter[models.VisitRecord](file, compressionOption(mw.codec))
	if _, err := writer.Write(records); err != nil {
		return "", fmt.Errorf("writing manifest records to '%s': %w", filePath, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("closing manifest writer for '%s': %w", filePath, err)
	}

	mw.logger.Info().Str("path", filePath).Int("records", len(records)).Msg("Session manifest written")
	return filePath, nil
}

// ReadManifest loads every record from a manifest file
func ReadManifest(filePath string) ([]models.VisitRecord, error) {
	osFile, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest '%s': %w", filePath, err)
	}
	defer osFile.Close()

	stat, err := osFile.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat manifest '%s': %w", filePath, err)
	}
	if stat.Size() == 0 {
		return []models.VisitRecord{}, nil
	}

	pqFile, err := parquet.OpenFile(osFile, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file '%s': %w", filePath, err)
	}

	reader := parquet.NewReader(pqFile)
	defer reader.Close()

	records := make([]models.VisitRecord, 0, pqFile.NumRows())
	for {
		var record models.VisitRecord
		if err := reader.Read(&record); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("error reading record from manifest '%s': %w", filePath, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func compressionOption(codec string) parquet.WriterOption {
	switch strings.ToLower(codec) {
	case "gzip":
		return parquet.Compression(&parquet.Gzip)
	case "snappy":
		return parquet.Compression(&parquet.Snappy)
	case "none", "uncompressed":
		return parquet.Compression(&parquet.Uncompressed)
	default:
		return parquet.Compression(&parquet.Zstd)
	}
}
