package identity

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why an identity could not be read
type ErrorKind string

const (
	// KindNotAnArchive means the file could not be opened as a zip container
	KindNotAnArchive ErrorKind = "not-an-archive"
	// KindMissingDescriptor means the container has no descriptor entry
	KindMissingDescriptor ErrorKind = "missing-descriptor"
	// KindMalformedDescriptor means the descriptor is not a JSON object
	KindMalformedDescriptor ErrorKind = "malformed-descriptor"
	// KindMissingIDField means the descriptor has no usable id
	KindMissingIDField ErrorKind = "missing-id"
)

// IdentityError is returned when an archive's identity cannot be read
type IdentityError struct {
	Path string
	Kind ErrorKind
	Err  error
}

func (e *IdentityError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *IdentityError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of an identity error, or "" if err is not one
func KindOf(err error) ErrorKind {
	var ie *IdentityError
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return ""
}
