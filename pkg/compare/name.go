package compare

import (
	"context"

	"github.com/sdejongh/modsync/pkg/models"
)

// NameComparator treats an archive as current when its file name equals the canonical one
type NameComparator struct{}

// NewNameComparator creates a new file name comparator
func NewNameComparator() *NameComparator {
	return &NameComparator{}
}

// Compare compares file names only; modification times are ignored
func (c *NameComparator) Compare(ctx context.Context, archive *models.ScannedArchive, canonical *models.CanonicalEntry) (*Comparison, error) {
	if archive.FileName != canonical.FileName {
		return &Comparison{
			ArchivePath:   archive.Path,
			CanonicalPath: canonical.Path,
			Result:        Different,
			Reason:        "file name differs from canonical " + canonical.FileName,
		}, nil
	}

	return &Comparison{
		ArchivePath:   archive.Path,
		CanonicalPath: canonical.Path,
		Result:        Same,
		Reason:        "file name matches canonical",
	}, nil
}

// Name returns the comparator name
func (c *NameComparator) Name() string {
	return string(models.CurrencyName)
}
