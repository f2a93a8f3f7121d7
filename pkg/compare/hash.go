package compare

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"time"

	"github.com/sdejongh/modsync/pkg/models"
	"github.com/sdejongh/modsync/pkg/storage"
)

// Partial hashing configuration
const (
	// Minimum file size to enable partial hashing (1MB)
	partialHashThreshold = 1 * 1024 * 1024
	// Size of partial hash to compute (256KB)
	partialHashSize = 256 * 1024
)

// digestKey identifies one version of a file on disk
type digestKey struct {
	path    string
	size    int64
	modTime time.Time
}

// HashComparator compares archive content by SHA-256 digest.
// Canonical digests are cached because every tracked directory is compared
// against the same canonical files.
type HashComparator struct {
	backend           storage.Backend
	buffer            []byte
	enablePartialHash bool
	cache             map[digestKey]string
}

// NewHashComparator creates a new hash-based comparator
func NewHashComparator(backend storage.Backend, bufferSize int) *HashComparator {
	if bufferSize < 4096 {
		bufferSize = 4096
	}
	return &HashComparator{
		backend:           backend,
		buffer:            make([]byte, bufferSize),
		enablePartialHash: true,
		cache:             make(map[digestKey]string),
	}
}

// SetPartialHashEnabled enables or disables partial hashing optimization
func (c *HashComparator) SetPartialHashEnabled(enabled bool) {
	c.enablePartialHash = enabled
}

// Compare compares the tracked archive and canonical copy by content
func (c *HashComparator) Compare(ctx context.Context, archive *models.ScannedArchive, canonical *models.CanonicalEntry) (*Comparison, error) {
	result := &Comparison{
		ArchivePath:   archive.Path,
		CanonicalPath: canonical.Path,
	}

	if archive.Size != canonical.Size {
		result.Result = Different
		result.Reason = fmt.Sprintf("size differs from canonical %s (%d vs %d bytes)", canonical.FileName, archive.Size, canonical.Size)
		return result, nil
	}

	if c.enablePartialHash && archive.Size >= partialHashThreshold {
		archivePartial, err := c.computeHash(ctx, archive.Path, partialHashSize)
		if err != nil {
			return nil, fmt.Errorf("failed to hash archive: %w", err)
		}
		canonicalPartial, err := c.computeHash(ctx, canonical.Path, partialHashSize)
		if err != nil {
			return nil, fmt.Errorf("failed to hash canonical: %w", err)
		}
		if archivePartial != canonicalPartial {
			result.Result = Different
			result.Reason = "partial hash differs from canonical " + canonical.FileName
			return result, nil
		}
	}

	archiveHash, err := c.computeHash(ctx, archive.Path, -1)
	if err != nil {
		return nil, fmt.Errorf("failed to hash archive: %w", err)
	}
	canonicalHash, err := c.canonicalHash(ctx, canonical)
	if err != nil {
		return nil, fmt.Errorf("failed to hash canonical: %w", err)
	}

	if archiveHash != canonicalHash {
		result.Result = Different
		result.Reason = "content hash differs from canonical " + canonical.FileName
		return result, nil
	}

	result.Result = Same
	result.Reason = "content hash matches canonical"
	return result, nil
}

func (c *HashComparator) canonicalHash(ctx context.Context, canonical *models.CanonicalEntry) (string, error) {
	key := digestKey{path: canonical.Path, size: canonical.Size, modTime: canonical.ModTime}
	if sum, ok := c.cache[key]; ok {
		return sum, nil
	}

	sum, err := c.computeHash(ctx, canonical.Path, -1)
	if err != nil {
		return "", err
	}
	c.cache[key] = sum
	return sum, nil
}

// computeHash hashes the first limit bytes of path, or all of it when limit < 0
func (c *HashComparator) computeHash(ctx context.Context, path string, limit int64) (string, error) {
	reader, err := c.backend.Read(ctx, path)
	if err != nil {
		return "", err
	}
	defer reader.Close()

	var src io.Reader = reader
	if limit >= 0 {
		src = io.LimitReader(reader, limit)
	}

	hasher := sha256.New()
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		n, err := src.Read(c.buffer)
		if n > 0 {
			hasher.Write(c.buffer[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
	}

	return fmt.Sprintf("%x", hasher.Sum(nil)), nil
}

// Name returns the comparator name
func (c *HashComparator) Name() string {
	return string(models.CurrencyHash)
}
