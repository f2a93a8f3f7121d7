package storage

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultExtension is the archive extension of mods
const DefaultExtension = ".jar"

// Filter selects which directory entries are archives
type Filter struct {
	extension string
	exclude   []string
}

// NewFilter creates a filter for the given extension and exclude globs.
// The extension comparison ignores case; globs are matched against the file name.
func NewFilter(extension string, exclude []string) (*Filter, error) {
	if extension == "" {
		extension = DefaultExtension
	}
	if !strings.HasPrefix(extension, ".") {
		extension = "." + extension
	}

	patterns := make([]string, 0, len(exclude))
	for _, pattern := range exclude {
		if pattern == "" {
			continue
		}
		pattern = filepath.ToSlash(pattern)
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern: %q", pattern)
		}
		patterns = append(patterns, pattern)
	}

	return &Filter{extension: strings.ToLower(extension), exclude: patterns}, nil
}

// Extension returns the normalized archive extension
func (f *Filter) Extension() string {
	return f.extension
}

// Match reports whether a file name is an archive that should be scanned
func (f *Filter) Match(name string) bool {
	if !strings.EqualFold(filepath.Ext(name), f.extension) {
		return false
	}
	return !f.Excluded(name)
}

// Excluded reports whether the name matches an exclude glob
func (f *Filter) Excluded(name string) bool {
	for _, pattern := range f.exclude {
		if matched, err := doublestar.Match(pattern, name); err == nil && matched {
			return true
		}
	}
	return false
}
