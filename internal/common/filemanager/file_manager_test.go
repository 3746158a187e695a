package filemanager

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFile_CreatesParentDirs(t *testing.T) {
	fm := NewFileManager(zerolog.Nop())
	path := filepath.Join(t.TempDir(), "nested", "dir", "0001.html")

	require.NoError(t, fm.WriteFile(path, []byte("<html></html>"), DefaultFileWriteOptions()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(data))
}

func TestWriteFile_CancelledLeavesNoFile(t *testing.T) {
	fm := NewFileManager(zerolog.Nop())
	path := filepath.Join(t.TempDir(), "0001.png")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	opts := DefaultFileWriteOptions()
	opts.Context = ctx

	err := fm.WriteFile(path, []byte("png"), opts)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, fm.FileExists(path))
}

func TestWriteFile_OutcomeMatchesDisk(t *testing.T) {
	fm := NewFileManager(zerolog.Nop())
	dir := t.TempDir()
	data := make([]byte, 4<<20)

	for i := 0; i < 20; i++ {
		path := filepath.Join(dir, "artifact.bin")
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(i)*50*time.Microsecond)
		opts := DefaultFileWriteOptions()
		opts.Context = ctx

		err := fm.WriteFile(path, data, opts)
		cancel()
		assert.Equal(t, err == nil, fm.FileExists(path), "attempt %d", i)
		_ = os.Remove(path)
	}
}

func TestReadFile_MaxSize(t *testing.T) {
	fm := NewFileManager(zerolog.Nop())
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0644))

	_, err := fm.ReadFile(path, FileReadOptions{MaxSize: 4})
	assert.Error(t, err)

	data, err := fm.ReadFile(path, DefaultFileReadOptions())
	require.NoError(t, err)
	assert.Len(t, data, 10)
}

func TestEnsureDirectory_RejectsFile(t *testing.T) {
	fm := NewFileManager(zerolog.Nop())
	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	assert.Error(t, fm.EnsureDirectory(path, 0755))
	assert.True(t, fm.FileExists(path))
}
