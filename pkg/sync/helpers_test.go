package sync

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sdejongh/modsync/internal/testutil"
	"github.com/sdejongh/modsync/pkg/compare"
	"github.com/sdejongh/modsync/pkg/identity"
	"github.com/sdejongh/modsync/pkg/models"
	"github.com/sdejongh/modsync/pkg/report"
	"github.com/sdejongh/modsync/pkg/storage"
)

// TestHelper provides a canonical directory, tracked directories and the
// collaborators needed to reconcile them
type TestHelper struct {
	t       *testing.T
	root    string
	backend *storage.Local
	reader  identity.Reader
	sink    *report.Collector
}

// NewTestHelper creates a new test helper rooted in a temporary directory
func NewTestHelper(t *testing.T) *TestHelper {
	t.Helper()

	backend, err := storage.NewLocal(storage.LocalOptions{})
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}

	return &TestHelper{
		t:       t,
		root:    testutil.TempDir(t, "modsync-sync-test-*"),
		backend: backend,
		reader:  identity.NewZipReader(""),
		sink:    report.NewCollector(),
	}
}

// Dir creates a directory under the helper root
func (h *TestHelper) Dir(parts ...string) string {
	h.t.Helper()
	return testutil.MkdirAll(h.t, filepath.Join(append([]string{h.root}, parts...)...))
}

// Jar writes a mod archive with the given id
func (h *TestHelper) Jar(dir, name, id string) string {
	h.t.Helper()
	return testutil.WriteJar(h.t, dir, name, testutil.ModJar{ID: id})
}

// JarAt writes a mod archive with the given id and modification time
func (h *TestHelper) JarAt(dir, name, id string, modTime time.Time) string {
	h.t.Helper()
	return testutil.WriteJar(h.t, dir, name, testutil.ModJar{ID: id, ModTime: modTime})
}

// Operation returns a valid run operation over groups
func (h *TestHelper) Operation(groups ...models.VersionGroup) *models.RunOperation {
	return &models.RunOperation{
		ID:          "test-run",
		Groups:      groups,
		Currency:    models.CurrencyName,
		Extension:   storage.DefaultExtension,
		Descriptor:  identity.DefaultDescriptor,
		DisabledDir: DefaultDisabledDir,
		BufferSize:  65536,
		CreatedAt:   time.Now(),
	}
}

// Run reconciles op with the name comparator and returns the report
func (h *TestHelper) Run(ctx context.Context, op *models.RunOperation) *models.RunReport {
	h.t.Helper()

	comparator, err := compare.New(op.Currency, h.backend, op.BufferSize)
	if err != nil {
		h.t.Fatalf("failed to create comparator: %v", err)
	}

	engine := NewEngine(h.backend, h.reader, comparator, nil, h.sink, nil, op)
	rep, err := engine.Run(ctx)
	if err != nil {
		h.t.Fatalf("Run failed: %v", err)
	}
	return rep
}

// Decisions returns the decision kinds of a report keyed by archive path
func Decisions(rep *models.RunReport) map[string]models.DecisionKind {
	out := make(map[string]models.DecisionKind, len(rep.Operations))
	for _, op := range rep.Operations {
		out[op.Archive.Path] = op.Decision.Kind
	}
	return out
}

// Names lists the file names directly inside dir
func (h *TestHelper) Names(dir string) []string {
	h.t.Helper()

	files, err := h.backend.List(context.Background(), dir)
	if err != nil {
		h.t.Fatalf("failed to list %s: %v", dir, err)
	}
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	return names
}
