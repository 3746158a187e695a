package datastore

import (
	"path/filepath"
	"testing"

	"github.com/aleister1102/snapcrawl/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifestWriter_RoundTrip(t *testing.T) {
	errText := "render timeout"
	records := []models.VisitRecord{
		{SessionID: "s1", Seq: 1, URL: "https://a.example.com/", Depth: 0, Settled: true, PollAttempts: 3, Channel: "direct", VisitedAtMs: 1700000000000},
		{SessionID: "s1", Seq: 2, URL: "https://a.example.com/x", Depth: 1, Channel: "failed", Error: &errText, VisitedAtMs: 1700000001000},
	}

	for _, codec := range []string{"zstd", "snappy", "gzip", "none"} {
		t.Run(codec, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "manifests")
			writer := NewManifestWriter(dir, codec, zerolog.Nop())

			path, err := writer.Write("s1", records)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, "s1.parquet"), path)

			loaded, err := ReadManifest(path)
			require.NoError(t, err)
			require.Len(t, loaded, 2)
			assert.Equal(t, records[0], loaded[0])
			assert.Equal(t, "https://a.example.com/x", loaded[1].URL)
			require.NotNil(t, loaded[1].Error)
			assert.Equal(t, errText, *loaded[1].Error)
		})
	}
}

func TestManifestWriter_RequiresSessionID(t *testing.T) {
	_, err := NewManifestWriter(t.TempDir(), "zstd", zerolog.Nop()).Write("", nil)
	assert.Error(t, err)
}
