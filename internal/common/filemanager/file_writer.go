package filemanager

import (
	"context"
	"fmt"
	"os"

	"github.com/aleister1102/snapcrawl/internal/common/errorwrapper"
	"github.com/rs/zerolog"
)

// FileWriter handles file writing operations
type FileWriter struct {
	logger zerolog.Logger
}

// NewFileWriter creates a new FileWriter instance
func NewFileWriter(logger zerolog.Logger) *FileWriter {
	return &FileWriter{
		logger: logger.With().Str("component", "FileWriter").Logger(),
	}
}

// WriteFile writes data to path, giving up when opts.Context is done or opts.Timeout elapses.
// A write that is given up on leaves no file at path.
func (fw *FileWriter) WriteFile(path string, data []byte, opts FileWriteOptions) error {
	ctx, cancel := fw.setupContextWithTimeout(opts)
	if cancel != nil {
		defer cancel()
	}

	if err := ctx.Err(); err != nil {
		return errorwrapper.WrapError(err, "file write operation cancelled")
	}

	done := make(chan error, 1)
	go func() {
		done <- fw.performFileWrite(path, data, opts)
	}()

	select {
	case <-ctx.Done():
		// The write may still land; wait for it and remove the file so a
		// reported failure never leaves an artifact behind.
		<-done
		if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
			fw.logger.Error().Err(removeErr).Str("path", path).Msg("Failed to remove file after cancelled write")
		}
		fw.logger.Warn().Str("path", path).Msg("File write cancelled due to context timeout")
		return errorwrapper.WrapError(ctx.Err(), "file write operation cancelled")
	case err := <-done:
		if err != nil {
			return errorwrapper.WrapError(err, fmt.Sprintf("failed to write file: %s", path))
		}
	}

	fw.logger.Debug().Str("path", path).Int("bytes", len(data)).Msg("File written successfully")
	return nil
}

func (fw *FileWriter) setupContextWithTimeout(opts FileWriteOptions) (context.Context, context.CancelFunc) {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Timeout > 0 {
		return context.WithTimeout(ctx, opts.Timeout)
	}
	return ctx, nil
}

func (fw *FileWriter) performFileWrite(path string, data []byte, opts FileWriteOptions) error {
	perm := opts.Permissions
	if perm == 0 {
		perm = 0644
	}
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fw.logger.Error().Err(closeErr).Str("path", path).Msg("Failed to close file after writing")
		}
	}()

	_, err = file.Write(data)
	return err
}
