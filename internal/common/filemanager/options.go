package filemanager

import (
	"context"
	"io/fs"
	"time"
)

// FileReadOptions controls how files are read
type FileReadOptions struct {
	MaxSize int64
}

// DefaultFileReadOptions returns read options with no size limit
func DefaultFileReadOptions() FileReadOptions {
	return FileReadOptions{}
}

// FileWriteOptions controls how files are written
type FileWriteOptions struct {
	Context     context.Context
	Timeout     time.Duration
	Permissions fs.FileMode
	CreateDirs  bool
}

// DefaultFileWriteOptions returns write options used for capture artifacts
func DefaultFileWriteOptions() FileWriteOptions {
	return FileWriteOptions{
		Context:     context.Background(),
		Permissions: 0644,
		CreateDirs:  true,
	}
}
