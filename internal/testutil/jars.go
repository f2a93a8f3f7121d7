// Package testutil builds mod archives and directory layouts for tests.
package testutil

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// ModJar describes an archive to write
type ModJar struct {
	// ID is written as the descriptor id. Ignored when Descriptor is set.
	ID string
	// Descriptor overrides the whole descriptor body
	Descriptor string
	// NoDescriptor omits the descriptor entry entirely
	NoDescriptor bool
	// Payload is extra content so that different versions differ in bytes
	Payload string
	// ModTime is applied to the archive after writing, when non-zero
	ModTime time.Time
}

// TempDir creates a temporary directory removed when the test ends
func TempDir(t *testing.T, pattern string) string {
	t.Helper()

	dir, err := os.MkdirTemp("", pattern)
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

// MkdirAll creates dir and its parents and returns it
func MkdirAll(t *testing.T, dir string) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	return dir
}

// WriteJar writes a jar named name into dir and returns its path
func WriteJar(t *testing.T, dir, name string, jar ModJar) string {
	t.Helper()

	path := filepath.Join(dir, name)
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create jar: %v", err)
	}

	zw := zip.NewWriter(file)
	if !jar.NoDescriptor {
		body := jar.Descriptor
		if body == "" {
			body = fmt.Sprintf("{\n  \"schemaVersion\": 1,\n  \"id\": %q,\n  \"version\": \"1.0.0\"\n}\n", jar.ID)
		}
		w, err := zw.Create("fabric.mod.json")
		if err != nil {
			t.Fatalf("failed to create descriptor entry: %v", err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("failed to write descriptor: %v", err)
		}
	}

	w, err := zw.Create("payload.txt")
	if err != nil {
		t.Fatalf("failed to create payload entry: %v", err)
	}
	if _, err := w.Write([]byte(jar.Payload + name)); err != nil {
		t.Fatalf("failed to write payload: %v", err)
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("failed to finish jar: %v", err)
	}
	if err := file.Close(); err != nil {
		t.Fatalf("failed to close jar: %v", err)
	}

	if !jar.ModTime.IsZero() {
		if err := os.Chtimes(path, jar.ModTime, jar.ModTime); err != nil {
			t.Fatalf("failed to set jar mtime: %v", err)
		}
	}

	return path
}

// WriteFile writes a plain file into dir and returns its path
func WriteFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	return path
}

// ReadFile returns the content of path, failing the test on error
func ReadFile(t *testing.T, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return data
}

// Exists reports whether path exists
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
