package storage

import (
	"context"
	"fmt"
	"io"
	"time"
)

// FileInfo represents metadata about an archive file
type FileInfo struct {
	Path        string
	Name        string
	Dir         string
	Size        int64
	ModTime     time.Time
	Permissions uint32
}

// Backend defines the filesystem operations used by reconciliation
type Backend interface {
	// List returns the archives directly inside dir, sorted by name.
	// It fails with *DirectoryUnreadableError if dir cannot be listed.
	List(ctx context.Context, dir string) ([]FileInfo, error)

	// Read opens a file for reading, without bandwidth throttling
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Stat returns file metadata
	Stat(ctx context.Context, path string) (*FileInfo, error)

	// Copy installs src into dstDir under the same name, preserving
	// content, permissions and modification time. The target is replaced
	// atomically and the transfer honours the bandwidth limit. It returns
	// the number of bytes written.
	Copy(ctx context.Context, src, dstDir string) (int64, error)

	// Delete removes a single file
	Delete(ctx context.Context, path string) error

	// Move relocates path into dir, creating dir if needed, and returns the
	// new path. An existing file in dir is never overwritten.
	Move(ctx context.Context, path, dir string) (string, error)

	// Close releases any resources held by the backend
	Close() error
}

// DirectoryUnreadableError is returned when a directory is missing or inaccessible
type DirectoryUnreadableError struct {
	Path string
	Err  error
}

func (e *DirectoryUnreadableError) Error() string {
	return fmt.Sprintf("directory unreadable: %s: %v", e.Path, e.Err)
}

func (e *DirectoryUnreadableError) Unwrap() error {
	return e.Err
}
