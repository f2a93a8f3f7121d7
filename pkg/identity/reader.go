// Package identity reads the mod id embedded in an archive's descriptor.
package identity

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sdejongh/modsync/pkg/models"
)

const (
	// DefaultDescriptor is the descriptor entry of Fabric mods
	DefaultDescriptor = "fabric.mod.json"

	// maxDescriptorSize bounds how much of the descriptor entry is read
	maxDescriptorSize = 1 << 20
)

// Reader resolves an archive to its identifier
type Reader interface {
	// Identify returns the archive's identifier or an *IdentityError
	Identify(path string) (models.Identifier, error)
}

// ReaderFunc adapts a function to the Reader interface
type ReaderFunc func(path string) (models.Identifier, error)

// Identify calls f(path)
func (f ReaderFunc) Identify(path string) (models.Identifier, error) {
	return f(path)
}

// ZipReader reads identities from zip containers (jar files)
type ZipReader struct {
	descriptor string
}

// NewZipReader creates a reader looking for the given descriptor entry.
// An empty name selects DefaultDescriptor.
func NewZipReader(descriptor string) *ZipReader {
	if descriptor == "" {
		descriptor = DefaultDescriptor
	}
	return &ZipReader{descriptor: descriptor}
}

// Descriptor returns the entry name this reader looks for
func (r *ZipReader) Descriptor() string {
	return r.descriptor
}

// Identify opens the archive at path and returns the id field of its descriptor
func (r *ZipReader) Identify(path string) (models.Identifier, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return "", &IdentityError{Path: path, Kind: KindNotAnArchive, Err: err}
	}
	defer archive.Close()

	var entry *zip.File
	for _, f := range archive.File {
		if f.Name == r.descriptor {
			entry = f
			break
		}
	}
	if entry == nil {
		return "", &IdentityError{
			Path: path,
			Kind: KindMissingDescriptor,
			Err:  fmt.Errorf("no %s entry", r.descriptor),
		}
	}

	rc, err := entry.Open()
	if err != nil {
		return "", &IdentityError{Path: path, Kind: KindMalformedDescriptor, Err: err}
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxDescriptorSize+1))
	if err != nil {
		return "", &IdentityError{Path: path, Kind: KindMalformedDescriptor, Err: err}
	}
	if len(data) > maxDescriptorSize {
		return "", &IdentityError{
			Path: path,
			Kind: KindMalformedDescriptor,
			Err:  fmt.Errorf("descriptor larger than %d bytes", maxDescriptorSize),
		}
	}

	id, err := ParseDescriptor(data)
	if err != nil {
		var ie *IdentityError
		if errors.As(err, &ie) {
			ie.Path = path
			return "", ie
		}
		return "", &IdentityError{Path: path, Kind: KindMalformedDescriptor, Err: err}
	}
	return id, nil
}

// ParseDescriptor extracts the id field from descriptor JSON.
// Raw control characters inside string literals and a leading byte order mark
// are tolerated; anything structurally invalid is not.
func ParseDescriptor(data []byte) (models.Identifier, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(escapeControlChars(data), &fields); err != nil {
		return "", &IdentityError{Kind: KindMalformedDescriptor, Err: err}
	}
	if fields == nil {
		return "", &IdentityError{Kind: KindMalformedDescriptor, Err: errors.New("descriptor is not a JSON object")}
	}

	raw, ok := fields["id"]
	if !ok {
		return "", &IdentityError{Kind: KindMissingIDField, Err: errors.New(`no "id" field`)}
	}

	var id string
	if err := json.Unmarshal(raw, &id); err != nil {
		return "", &IdentityError{Kind: KindMissingIDField, Err: fmt.Errorf(`"id" is not a string: %s`, raw)}
	}
	if strings.TrimSpace(id) == "" {
		return "", &IdentityError{Kind: KindMissingIDField, Err: errors.New(`"id" is empty`)}
	}

	return models.Identifier(id), nil
}

// escapeControlChars rewrites raw control characters found inside JSON
// string literals as escape sequences. Mod authors routinely put literal
// newlines and tabs in description fields.
func escapeControlChars(data []byte) []byte {
	var out bytes.Buffer
	out.Grow(len(data))

	inString := false
	escaped := false
	for _, b := range data {
		if !inString {
			if b == '"' {
				inString = true
			}
			out.WriteByte(b)
			continue
		}

		switch {
		case escaped:
			escaped = false
			out.WriteByte(b)
		case b == '\\':
			escaped = true
			out.WriteByte(b)
		case b == '"':
			inString = false
			out.WriteByte(b)
		case b == '\n':
			out.WriteString(`\n`)
		case b == '\r':
			out.WriteString(`\r`)
		case b == '\t':
			out.WriteString(`\t`)
		case b < 0x20:
			fmt.Fprintf(&out, `\u%04x`, b)
		default:
			out.WriteByte(b)
		}
	}

	return out.Bytes()
}
