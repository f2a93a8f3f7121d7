package platform

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// NormalizePath normalizes a path for the current platform
func NormalizePath(path string) string {
	normalized := filepath.Clean(path)

	// On Windows, ensure UNC paths are preserved
	if runtime.GOOS == "windows" {
		if strings.HasPrefix(path, "\\\\") && !strings.HasPrefix(normalized, "\\\\") {
			normalized = "\\\\" + normalized
		}
	}

	return normalized
}

// IsUNCPath checks if a path is a UNC path (Windows network share)
func IsUNCPath(path string) bool {
	if runtime.GOOS != "windows" {
		return false
	}
	return strings.HasPrefix(path, "\\\\") || strings.HasPrefix(path, "//")
}

// IsAbsolute checks if a path is absolute
func IsAbsolute(path string) bool {
	if IsUNCPath(path) {
		return true
	}
	return filepath.IsAbs(path)
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", &PathError{Path: path, Message: "cannot expand home directory: " + err.Error()}
	}
	return filepath.Join(home, path[1:]), nil
}

// Resolve expands ~ and makes path absolute relative to base.
// An empty base resolves against the working directory.
func Resolve(base, path string) (string, error) {
	if err := ValidatePath(path); err != nil {
		return "", err
	}

	expanded, err := ExpandHome(path)
	if err != nil {
		return "", err
	}

	if !IsAbsolute(expanded) {
		if base == "" {
			abs, err := filepath.Abs(expanded)
			if err != nil {
				return "", &PathError{Path: path, Message: err.Error()}
			}
			return abs, nil
		}
		expanded = filepath.Join(base, expanded)
	}

	return NormalizePath(expanded), nil
}

// SamePath reports whether a and b name the same location. Both paths are
// compared textually after normalization, then by file identity when they exist.
func SamePath(a, b string) bool {
	na, nb := NormalizePath(a), NormalizePath(b)
	if runtime.GOOS == "windows" {
		if strings.EqualFold(na, nb) {
			return true
		}
	} else if na == nb {
		return true
	}

	ia, err := os.Stat(na)
	if err != nil {
		return false
	}
	ib, err := os.Stat(nb)
	if err != nil {
		return false
	}
	return os.SameFile(ia, ib)
}

// ValidatePath checks if a path is valid for the current platform
func ValidatePath(path string) error {
	if path == "" {
		return &PathError{Path: path, Message: "path is empty"}
	}

	// Check for invalid characters based on OS
	if runtime.GOOS == "windows" {
		rest := path
		if len(rest) >= 2 && rest[1] == ':' {
			rest = rest[2:]
		}
		invalidChars := []string{"<", ">", ":", "\"", "|", "?", "*"}
		for _, char := range invalidChars {
			if strings.Contains(rest, char) && !IsUNCPath(path) {
				return &PathError{Path: path, Message: "path contains invalid character: " + char}
			}
		}
	}

	return nil
}

// PathError represents a path validation error
type PathError struct {
	Path    string
	Message string
}

func (e *PathError) Error() string {
	return "invalid path '" + e.Path + "': " + e.Message
}
