package compare

import (
	"context"
	"fmt"

	"github.com/sdejongh/modsync/pkg/models"
	"github.com/sdejongh/modsync/pkg/storage"
)

// Result represents the outcome of a currency test
type Result string

const (
	// Same indicates the tracked archive already is the canonical release
	Same Result = "same"
	// Different indicates the tracked archive is outdated
	Different Result = "different"
)

// Comparison holds the result of comparing a tracked archive with its canonical copy
type Comparison struct {
	ArchivePath   string
	CanonicalPath string
	Result        Result
	Reason        string
}

// Current reports whether the comparison found the archive up to date
func (c *Comparison) Current() bool {
	return c.Result == Same
}

// Comparator decides whether a tracked archive is current.
// Modification times are never an input.
type Comparator interface {
	// Compare compares a tracked archive with the canonical entry for its identity
	Compare(ctx context.Context, archive *models.ScannedArchive, canonical *models.CanonicalEntry) (*Comparison, error)

	// Name returns the name of the currency method
	Name() string
}

// New returns the comparator for a currency method
func New(method models.CurrencyMethod, backend storage.Backend, bufferSize int) (Comparator, error) {
	switch method {
	case models.CurrencyName, "":
		return NewNameComparator(), nil
	case models.CurrencyHash:
		return NewHashComparator(backend, bufferSize), nil
	default:
		return nil, fmt.Errorf("unsupported currency method: %s (use: name, hash)", method)
	}
}
