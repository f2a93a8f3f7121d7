package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sdejongh/modsync/pkg/ratelimit"
)

const defaultBufferSize = 65536

// LocalOptions configures a Local backend
type LocalOptions struct {
	// Filter selects archives when listing. Nil selects .jar files.
	Filter *Filter
	// BufferSize is the copy buffer size
	BufferSize int
	// Limiter throttles copies, nil for unlimited
	Limiter *ratelimit.Limiter
}

// Local is a filesystem-based storage backend
type Local struct {
	filter     *Filter
	bufferSize int
	limiter    *ratelimit.Limiter
}

// NewLocal creates a new local filesystem backend
func NewLocal(opts LocalOptions) (*Local, error) {
	filter := opts.Filter
	if filter == nil {
		var err error
		filter, err = NewFilter(DefaultExtension, nil)
		if err != nil {
			return nil, err
		}
	}

	bufferSize := opts.BufferSize
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}

	return &Local{
		filter:     filter,
		bufferSize: bufferSize,
		limiter:    opts.Limiter,
	}, nil
}

// List returns the archives directly inside dir.
// os.ReadDir already sorts by name; the sort below keeps that explicit.
func (l *Local) List(ctx context.Context, dir string) ([]FileInfo, error) {
	if dir == "" {
		return nil, &DirectoryUnreadableError{Path: dir, Err: errors.New("no directory configured")}
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, &DirectoryUnreadableError{Path: dir, Err: err}
	}
	if !info.IsDir() {
		return nil, &DirectoryUnreadableError{Path: dir, Err: errors.New("not a directory")}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &DirectoryUnreadableError{Path: dir, Err: err}
	}

	var files []FileInfo
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if !entry.Type().IsRegular() || !l.filter.Match(entry.Name()) {
			continue
		}

		fi, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info
			continue
		}

		files = append(files, FileInfo{
			Path:        filepath.Join(dir, entry.Name()),
			Name:        entry.Name(),
			Dir:         dir,
			Size:        fi.Size(),
			ModTime:     fi.ModTime(),
			Permissions: uint32(fi.Mode().Perm()),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})

	return files, nil
}

// Read opens a file for reading. Reads are not throttled; only Copy is.
func (l *Local) Read(ctx context.Context, path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Stat returns file metadata
func (l *Local) Stat(ctx context.Context, path string) (*FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	return &FileInfo{
		Path:        path,
		Name:        filepath.Base(path),
		Dir:         filepath.Dir(path),
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		Permissions: uint32(info.Mode().Perm()),
	}, nil
}

// Copy writes src into dstDir through a temp file renamed into place, so the
// target is either the old file or the complete new one.
func (l *Local) Copy(ctx context.Context, src, dstDir string) (int64, error) {
	srcInfo, err := l.Stat(ctx, src)
	if err != nil {
		return 0, err
	}

	file, err := l.Read(ctx, src)
	if err != nil {
		return 0, err
	}
	reader := ratelimit.NewReadCloser(ctx, file, l.limiter)
	defer reader.Close()

	tmp, err := os.CreateTemp(dstDir, ".modsync-*.tmp")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	written, err := io.CopyBuffer(tmp, reader, make([]byte, l.bufferSize))
	if err != nil {
		return written, fmt.Errorf("failed to write file: %w", err)
	}
	if written != srcInfo.Size {
		return written, fmt.Errorf("incomplete write: expected %d bytes, wrote %d", srcInfo.Size, written)
	}

	if err := tmp.Sync(); err != nil {
		return written, fmt.Errorf("failed to flush file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return written, fmt.Errorf("failed to close file: %w", err)
	}

	if srcInfo.Permissions != 0 {
		if err := os.Chmod(tmpPath, os.FileMode(srcInfo.Permissions)); err != nil {
			return written, fmt.Errorf("failed to set permissions: %w", err)
		}
	}
	if err := os.Chtimes(tmpPath, srcInfo.ModTime, srcInfo.ModTime); err != nil {
		return written, fmt.Errorf("failed to set modification time: %w", err)
	}

	dst := filepath.Join(dstDir, srcInfo.Name)
	if err := os.Rename(tmpPath, dst); err != nil {
		return written, fmt.Errorf("failed to move file into place: %w", err)
	}
	committed = true

	return written, nil
}

// Delete removes a single file
func (l *Local) Delete(ctx context.Context, path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete: %w", err)
	}
	return nil
}

// Move relocates path into dir without overwriting anything already there.
// Colliding names get a numeric suffix before the extension.
func (l *Local) Move(ctx context.Context, path, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	target, err := freePath(dir, filepath.Base(path))
	if err != nil {
		return "", err
	}

	if err := os.Rename(path, target); err != nil {
		return "", fmt.Errorf("failed to move file: %w", err)
	}

	return target, nil
}

// Close releases resources (no-op for local filesystem)
func (l *Local) Close() error {
	return nil
}

// freePath returns a path in dir for name that does not exist yet
func freePath(dir, name string) (string, error) {
	candidate := filepath.Join(dir, name)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for i := 1; ; i++ {
		_, err := os.Lstat(candidate)
		if errors.Is(err, os.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check existence: %w", err)
		}
		if i > 1000 {
			return "", fmt.Errorf("no free name for %s in %s", name, dir)
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s.%d%s", stem, i, ext))
	}
}
