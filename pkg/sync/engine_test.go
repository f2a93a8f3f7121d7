package sync

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sdejongh/modsync/internal/testutil"
	"github.com/sdejongh/modsync/pkg/compare"
	"github.com/sdejongh/modsync/pkg/models"
	"github.com/sdejongh/modsync/pkg/output"
)

func TestEngine_ReplaceOutdated(t *testing.T) {
	h := NewTestHelper(t)
	canon := h.Dir("canonical")
	tracked := h.Dir("instance", "mods")

	h.Jar(canon, "mod-a-v2.jar", "mod-a")
	h.Jar(tracked, "mod-a-v1.jar", "mod-a")

	rep := h.Run(context.Background(), h.Operation(models.VersionGroup{
		Name: "1.20", CanonicalDir: canon, TrackedDirs: []string{tracked},
	}))

	if rep.Status != models.StatusSuccess {
		t.Errorf("Expected success, got %s (%+v)", rep.Status, rep.Errors)
	}
	if rep.Stats.ArchivesReplaced != 1 || rep.Stats.ArchivesDeleted != 1 {
		t.Errorf("Unexpected stats: %+v", rep.Stats)
	}

	names := h.Names(tracked)
	if len(names) != 1 || names[0] != "mod-a-v2.jar" {
		t.Fatalf("Expected only mod-a-v2.jar in tracked dir, got %v", names)
	}
	if !bytes.Equal(testutil.ReadFile(t, filepath.Join(tracked, "mod-a-v2.jar")), testutil.ReadFile(t, filepath.Join(canon, "mod-a-v2.jar"))) {
		t.Error("Installed archive differs from canonical")
	}
}

func TestEngine_Idempotent(t *testing.T) {
	h := NewTestHelper(t)
	canon := h.Dir("canonical")
	a := h.Dir("a")
	b := h.Dir("b")

	h.Jar(canon, "sodium-0.5.jar", "sodium")
	h.Jar(canon, "lithium-0.12.jar", "lithium")
	h.Jar(a, "sodium-0.4.jar", "sodium")
	h.Jar(a, "lithium-0.12.jar", "lithium")
	h.Jar(b, "lithium-0.10.jar", "lithium")
	h.Jar(b, "iris-1.6.jar", "iris")

	op := h.Operation(models.VersionGroup{Name: "1.20", CanonicalDir: canon, TrackedDirs: []string{a, b}})

	first := h.Run(context.Background(), op)
	if first.Stats.ArchivesReplaced != 2 {
		t.Fatalf("Expected 2 replacements on first run, got %d", first.Stats.ArchivesReplaced)
	}

	second := h.Run(context.Background(), op)
	for _, o := range second.Operations {
		if o.Decision.Kind == models.DecisionReplace {
			t.Errorf("Second run should not replace anything, got %s", o.Archive.Path)
		}
	}
	if second.Stats.ArchivesCurrent != 3 || second.Stats.ArchivesUnmatched != 1 {
		t.Errorf("Unexpected second run stats: %+v", second.Stats)
	}
}

func TestEngine_MissingCanonical(t *testing.T) {
	h := NewTestHelper(t)
	tracked := h.Dir("tracked")
	h.Jar(tracked, "sodium-0.5.jar", "sodium")
	h.Jar(tracked, "iris-1.6.jar", "iris")

	for _, canon := range []string{filepath.Join(h.root, "missing"), h.Dir("empty")} {
		t.Run(filepath.Base(canon), func(t *testing.T) {
			h.sink.Reset()
			rep := h.Run(context.Background(), h.Operation(models.VersionGroup{
				Name: "1.20", CanonicalDir: canon, TrackedDirs: []string{tracked},
			}))

			for path, kind := range Decisions(rep) {
				if kind != models.DecisionUnmatched {
					t.Errorf("%s: expected unmatched, got %s", path, kind)
				}
			}
			if rep.Stats.ArchivesUnmatched != 2 {
				t.Errorf("Expected 2 unmatched archives, got %d", rep.Stats.ArchivesUnmatched)
			}
			if len(h.Names(tracked)) != 2 {
				t.Error("Tracked directory must be untouched")
			}
		})
	}
}

func TestEngine_IdentityFailure(t *testing.T) {
	h := NewTestHelper(t)
	canon := h.Dir("canonical")
	tracked := h.Dir("tracked")

	h.Jar(canon, "sodium-0.5.jar", "sodium")
	bad := testutil.WriteJar(t, tracked, "sodium-0.4.jar", testutil.ModJar{NoDescriptor: true})
	before := testutil.ReadFile(t, bad)

	rep := h.Run(context.Background(), h.Operation(models.VersionGroup{
		Name: "1.20", CanonicalDir: canon, TrackedDirs: []string{tracked},
	}))

	if Decisions(rep)[bad] != models.DecisionUnmatched {
		t.Errorf("Expected unmatched for unidentifiable archive")
	}

	reports := 0
	for _, m := range h.sink.Messages() {
		if m.Path == bad {
			reports++
		}
	}
	if reports != 1 {
		t.Errorf("Expected exactly one report for %s, got %d", bad, reports)
	}
	if !bytes.Equal(before, testutil.ReadFile(t, bad)) || len(h.Names(tracked)) != 1 {
		t.Error("Unidentifiable archive must not be touched")
	}
	if rep.Status != models.StatusPartial {
		t.Errorf("Expected partial status, got %s", rep.Status)
	}
}

func TestEngine_DuplicateCanonical(t *testing.T) {
	h := NewTestHelper(t)
	canon := h.Dir("canonical")
	tracked := h.Dir("tracked")

	h.JarAt(canon, "sodium-0.5.jar", "sodium", time.Now().Add(-time.Hour))
	h.JarAt(canon, "sodium-0.6.jar", "sodium", time.Now())
	h.Jar(tracked, "sodium-0.4.jar", "sodium")

	rep := h.Run(context.Background(), h.Operation(models.VersionGroup{
		Name: "1.20", CanonicalDir: canon, TrackedDirs: []string{tracked},
	}))

	if rep.Stats.DuplicateCanonicals != 1 || rep.Stats.CanonicalIndexed != 0 {
		t.Errorf("Unexpected canonical stats: %+v", rep.Stats)
	}
	if len(rep.Warnings) != 1 {
		t.Fatalf("Expected exactly one warning, got %+v", rep.Warnings)
	}
	w := rep.Warnings[0].Text
	if !strings.Contains(w, "sodium-0.5.jar") || !strings.Contains(w, "sodium-0.6.jar") {
		t.Errorf("Warning should name both files, got %q", w)
	}
	if Decisions(rep)[filepath.Join(tracked, "sodium-0.4.jar")] != models.DecisionUnmatched {
		t.Error("Archive with a duplicated identity should be unmatched")
	}
}

func TestEngine_SameNameDifferentModTime(t *testing.T) {
	h := NewTestHelper(t)
	canon := h.Dir("canonical")
	tracked := h.Dir("tracked")

	h.JarAt(canon, "sodium-0.5.jar", "sodium", time.Now())
	old := h.JarAt(tracked, "sodium-0.5.jar", "sodium", time.Now().Add(-240*time.Hour))

	rep := h.Run(context.Background(), h.Operation(models.VersionGroup{
		Name: "1.20", CanonicalDir: canon, TrackedDirs: []string{tracked},
	}))

	if Decisions(rep)[old] != models.DecisionCurrent {
		t.Errorf("Expected current, got %s", Decisions(rep)[old])
	}
}

func TestEngine_TwoGroups(t *testing.T) {
	h := NewTestHelper(t)
	canon120 := h.Dir("canonical", "1.20")
	tracked120 := h.Dir("servers", "a", "mods")
	tracked119 := h.Dir("servers", "b", "mods")

	h.Jar(canon120, "mod-a-v2.jar", "mod-a")
	h.Jar(tracked120, "mod-a-v1.jar", "mod-a")
	h.Jar(tracked119, "mod-a-v0.jar", "mod-a")

	rep := h.Run(context.Background(), h.Operation(
		models.VersionGroup{Name: "1.20", CanonicalDir: canon120, TrackedDirs: []string{tracked120}},
		models.VersionGroup{Name: "1.19", CanonicalDir: filepath.Join(h.root, "canonical", "1.19"), TrackedDirs: []string{tracked119}},
	))

	if len(rep.Groups) != 2 || rep.Stats.GroupsProcessed != 2 {
		t.Fatalf("Expected 2 groups processed, got %+v", rep.Groups)
	}
	if rep.Groups[0].Replaced != 1 {
		t.Errorf("Expected 1 replacement in 1.20, got %d", rep.Groups[0].Replaced)
	}
	if rep.Groups[1].Unmatched != 1 || rep.Groups[1].Replaced != 0 {
		t.Errorf("Expected 1.19 archive unmatched, got %+v", rep.Groups[1])
	}
	if names := h.Names(tracked119); len(names) != 1 || names[0] != "mod-a-v0.jar" {
		t.Errorf("1.19 tracked directory must be untouched, got %v", names)
	}
	if len(rep.Errors) != 1 || rep.Errors[0].Group != "1.19" {
		t.Errorf("Expected one error for the 1.19 canonical directory, got %+v", rep.Errors)
	}
}

func TestEngine_DisableMode(t *testing.T) {
	h := NewTestHelper(t)
	canon := h.Dir("canonical")
	tracked := h.Dir("tracked")

	h.Jar(canon, "mod-a-v2.jar", "mod-a")
	h.Jar(tracked, "mod-a-v1.jar", "mod-a")

	group := models.VersionGroup{Name: "1.20", CanonicalDir: canon, TrackedDirs: []string{tracked}, DisableOutdated: true}
	rep := h.Run(context.Background(), h.Operation(group))

	if rep.Stats.ArchivesDisabled != 1 || rep.Stats.ArchivesDeleted != 0 {
		t.Errorf("Unexpected stats: %+v", rep.Stats)
	}
	if !testutil.Exists(filepath.Join(tracked, DefaultDisabledDir, "mod-a-v1.jar")) {
		t.Error("Outdated archive should be in the disabled directory")
	}

	// The disabled directory is not a tracked directory, so a second run is clean
	second := h.Run(context.Background(), h.Operation(group))
	if second.Stats.ArchivesScanned != 1 || second.Stats.ArchivesCurrent != 1 {
		t.Errorf("Unexpected second run stats: %+v", second.Stats)
	}
}

func TestEngine_DryRun(t *testing.T) {
	h := NewTestHelper(t)
	canon := h.Dir("canonical")
	tracked := h.Dir("tracked")

	h.Jar(canon, "mod-a-v2.jar", "mod-a")
	h.Jar(tracked, "mod-a-v1.jar", "mod-a")

	op := h.Operation(models.VersionGroup{Name: "1.20", CanonicalDir: canon, TrackedDirs: []string{tracked}})
	op.DryRun = true
	rep := h.Run(context.Background(), op)

	if rep.Stats.ArchivesReplaced != 1 || rep.Stats.BytesCopied != 0 {
		t.Errorf("Unexpected dry run stats: %+v", rep.Stats)
	}
	if names := h.Names(tracked); len(names) != 1 || names[0] != "mod-a-v1.jar" {
		t.Errorf("Dry run must not touch the tracked dir, got %v", names)
	}
}

func TestEngine_HashCurrency(t *testing.T) {
	h := NewTestHelper(t)
	canon := h.Dir("canonical")
	tracked := h.Dir("tracked")

	testutil.WriteJar(t, canon, "sodium-0.5.jar", testutil.ModJar{ID: "sodium", Payload: "rebuilt"})
	stale := testutil.WriteJar(t, tracked, "sodium-0.5.jar", testutil.ModJar{ID: "sodium", Payload: "original"})

	op := h.Operation(models.VersionGroup{Name: "1.20", CanonicalDir: canon, TrackedDirs: []string{tracked}})
	op.Currency = models.CurrencyHash
	rep := h.Run(context.Background(), op)

	if Decisions(rep)[stale] != models.DecisionReplace {
		t.Fatalf("Expected same-name rebuilt archive to be replaced in hash mode")
	}
	if !bytes.Equal(testutil.ReadFile(t, stale), testutil.ReadFile(t, filepath.Join(canon, "sodium-0.5.jar"))) {
		t.Error("Tracked archive should now match canonical content")
	}
}

func TestEngine_Cancelled(t *testing.T) {
	h := NewTestHelper(t)
	canon := h.Dir("canonical")
	tracked := h.Dir("tracked")

	h.Jar(canon, "mod-a-v2.jar", "mod-a")
	h.Jar(tracked, "mod-a-v1.jar", "mod-a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep := h.Run(ctx, h.Operation(models.VersionGroup{Name: "1.20", CanonicalDir: canon, TrackedDirs: []string{tracked}}))
	if rep.Status != models.StatusCancelled || rep.Status.ExitCode() != 3 {
		t.Errorf("Expected cancelled status, got %s", rep.Status)
	}
	if len(rep.Operations) != 0 || !testutil.Exists(filepath.Join(tracked, "mod-a-v1.jar")) {
		t.Error("Cancelled run must not process archives")
	}
}

func TestEngine_InvalidOperation(t *testing.T) {
	h := NewTestHelper(t)
	op := h.Operation(models.VersionGroup{Name: "1.20"}, models.VersionGroup{Name: "1.20"})

	comparator, _ := compare.New(models.CurrencyName, h.backend, 0)
	if _, err := NewEngine(h.backend, h.reader, comparator, nil, nil, nil, op).Run(context.Background()); err == nil {
		t.Error("Expected error for duplicate group names")
	}
}

func TestEngine_FormatterOutput(t *testing.T) {
	h := NewTestHelper(t)
	canon := h.Dir("canonical")
	tracked := h.Dir("tracked")

	h.Jar(canon, "mod-a-v2.jar", "mod-a")
	h.Jar(tracked, "mod-a-v1.jar", "mod-a")

	op := h.Operation(models.VersionGroup{Name: "1.20", CanonicalDir: canon, TrackedDirs: []string{tracked}})
	comparator, _ := compare.New(op.Currency, h.backend, op.BufferSize)

	var buf bytes.Buffer
	engine := NewEngine(h.backend, h.reader, comparator, output.NewHumanFormatter(), nil, nil, op)
	engine.Output = &buf
	if _, err := engine.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"1.20", "mod-a-v1.jar -> mod-a-v2.jar", "Status: success"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
}
