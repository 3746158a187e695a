package delivery

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/aleister1102/snapcrawl/internal/common/errorwrapper"
	"github.com/aleister1102/snapcrawl/internal/common/filemanager"
	"github.com/aleister1102/snapcrawl/internal/models"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ArtifactStore persists a payload as NNNN.html and NNNN.png under a per-session directory
type ArtifactStore struct {
	outputDir   string
	timeout     time.Duration
	fileManager *filemanager.FileManager
	logger      zerolog.Logger
}

// NewArtifactStore creates a store rooted at outputDir. timeout bounds each
// Persist call; zero leaves writes unbounded.
func NewArtifactStore(outputDir string, timeout time.Duration, logger zerolog.Logger) *ArtifactStore {
	storeLogger := logger.With().Str("component", "ArtifactStore").Logger()
	return &ArtifactStore{
		outputDir:   outputDir,
		timeout:     timeout,
		fileManager: filemanager.NewFileManager(storeLogger),
		logger:      storeLogger,
	}
}

// Stem returns the shared file name stem for seq
func Stem(seq int) string {
	return fmt.Sprintf("%04d", seq)
}

// SessionDir returns the directory holding the artifacts of sessionID
func (s *ArtifactStore) SessionDir(sessionID string) string {
	if sessionID == "" {
		return s.outputDir
	}
	return filepath.Join(s.outputDir, sessionID)
}

// Persist writes both artifacts concurrently under the session directory.
// Each write is attempted even when the other fails; the returned paths are
// the files actually on disk. Cancellation of ctx does not abort the writes,
// only the store timeout does.
func (s *ArtifactStore) Persist(ctx context.Context, sessionID string, seq int, payload *models.CapturePayload) ([]string, error) {
	png, err := payload.PNG()
	if err != nil {
		return nil, errorwrapper.WrapError(err, "failed to decode screenshot")
	}

	dir := s.SessionDir(sessionID)
	stem := Stem(seq)
	artifacts := []struct {
		path string
		data []byte
	}{
		{path: filepath.Join(dir, stem+".html"), data: []byte(payload.HTML)},
		{path: filepath.Join(dir, stem+".png"), data: png},
	}

	opts := filemanager.DefaultFileWriteOptions()
	opts.Context = context.WithoutCancel(ctx)
	opts.Timeout = s.timeout

	errs := make([]error, len(artifacts))
	var group errgroup.Group
	for i, artifact := range artifacts {
		i, artifact := i, artifact
		group.Go(func() error {
			if err := s.fileManager.WriteFile(artifact.path, artifact.data, opts); err != nil {
				s.logger.Error().Err(err).Str("path", artifact.path).Msg("Failed to persist artifact")
				errs[i] = err
			}
			return nil
		})
	}
	_ = group.Wait()

	written := make([]string, 0, len(artifacts))
	for i, artifact := range artifacts {
		if errs[i] == nil {
			written = append(written, artifact.path)
		}
	}
	return written, errors.Join(errs...)
}
