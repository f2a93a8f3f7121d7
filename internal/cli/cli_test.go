package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sdejongh/modsync/internal/testutil"
)

// execute runs the root command with args and returns its output
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	globalFlags = GlobalFlags{}
	syncFlags = SyncFlags{}
	identifyJSON = false

	var buf bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

// setup writes a config with one group: canonical holds mod-a-v2, tracked holds mod-a-v1
func setup(t *testing.T) (configPath, canonical, tracked string) {
	t.Helper()

	root := testutil.TempDir(t, "modsync-cli-*")
	canonical = testutil.MkdirAll(t, filepath.Join(root, "canonical"))
	tracked = testutil.MkdirAll(t, filepath.Join(root, "server", "mods"))
	testutil.WriteJar(t, canonical, "mod-a-v2.jar", testutil.ModJar{ID: "mod-a"})
	testutil.WriteJar(t, tracked, "mod-a-v1.jar", testutil.ModJar{ID: "mod-a"})

	configPath = filepath.Join(root, "modsync.yaml")
	content := "groups:\n  - name: \"1.20\"\n    canonical: canonical\n    tracked: [server/mods]\noutput:\n  progress: false\n"
	testutil.WriteFile(t, root, "modsync.yaml", []byte(content))
	return configPath, canonical, tracked
}

func TestSyncCommand(t *testing.T) {
	cfg, _, tracked := setup(t)

	out, err := execute(t, "sync", "--config", cfg)
	if err != nil {
		t.Fatalf("sync failed: %v\n%s", err, out)
	}
	if !testutil.Exists(filepath.Join(tracked, "mod-a-v2.jar")) || testutil.Exists(filepath.Join(tracked, "mod-a-v1.jar")) {
		t.Errorf("Expected mod-a-v1.jar replaced by mod-a-v2.jar, output:\n%s", out)
	}
	if !strings.Contains(out, "Status: success") {
		t.Errorf("Expected success summary, got:\n%s", out)
	}
}

func TestSyncCommand_Disable(t *testing.T) {
	cfg, _, tracked := setup(t)

	if out, err := execute(t, "sync", "--config", cfg, "--disable", "-q"); err != nil {
		t.Fatalf("sync failed: %v\n%s", err, out)
	}
	if !testutil.Exists(filepath.Join(tracked, "DISABLED", "mod-a-v1.jar")) {
		t.Error("Expected outdated archive in DISABLED")
	}
}

func TestPlanCommand(t *testing.T) {
	cfg, _, tracked := setup(t)

	out, err := execute(t, "plan", "--config", cfg, "--output", "json")
	if err != nil {
		t.Fatalf("plan failed: %v\n%s", err, out)
	}
	if !testutil.Exists(filepath.Join(tracked, "mod-a-v1.jar")) {
		t.Error("plan must not change the filesystem")
	}

	var data struct {
		DryRun  bool `json:"dry_run"`
		Changes []struct {
			Path string `json:"path"`
		} `json:"changes"`
	}
	if err := json.Unmarshal([]byte(out), &data); err != nil {
		t.Fatalf("Output is not JSON: %v\n%s", err, out)
	}
	if !data.DryRun || len(data.Changes) != 1 {
		t.Errorf("Unexpected plan: %+v", data)
	}
}

func TestSyncCommand_PartialExitCode(t *testing.T) {
	cfg, _, tracked := setup(t)
	testutil.WriteFile(t, tracked, "broken.jar", []byte("not a zip"))

	_, err := execute(t, "sync", "--config", cfg, "-q")
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 1 {
		t.Fatalf("Expected exit code 1, got %v", err)
	}
	if !testutil.Exists(filepath.Join(tracked, "broken.jar")) {
		t.Error("Unidentifiable archive must be left alone")
	}
}

func TestSyncCommand_GroupWithoutCanonical(t *testing.T) {
	cfg, _, tracked := setup(t)
	root := filepath.Dir(cfg)
	legacy := testutil.MkdirAll(t, filepath.Join(root, "legacy", "mods"))
	testutil.WriteJar(t, legacy, "mod-a-v0.jar", testutil.ModJar{ID: "mod-a"})
	testutil.WriteJar(t, legacy, "mod-b-v1.jar", testutil.ModJar{ID: "mod-b"})

	content := "groups:\n" +
		"  - name: \"1.20\"\n    canonical: canonical\n    tracked: [server/mods]\n" +
		"  - name: \"1.19\"\n    tracked: [legacy/mods]\n" +
		"output:\n  format: json\n  progress: false\n"
	testutil.WriteFile(t, root, "modsync.yaml", []byte(content))

	out, err := execute(t, "sync", "--config", cfg)
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 1 {
		t.Fatalf("Expected exit code 1, got %v\n%s", err, out)
	}

	if !testutil.Exists(filepath.Join(tracked, "mod-a-v2.jar")) || testutil.Exists(filepath.Join(tracked, "mod-a-v1.jar")) {
		t.Error("Group with a canonical directory should still be reconciled")
	}
	for _, name := range []string{"mod-a-v0.jar", "mod-b-v1.jar"} {
		if !testutil.Exists(filepath.Join(legacy, name)) {
			t.Errorf("%s must be left alone", name)
		}
	}

	var doc struct {
		Groups []struct {
			Name      string `json:"name"`
			Replaced  int    `json:"replaced"`
			Unmatched int    `json:"unmatched"`
		} `json:"groups"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("Invalid JSON output: %v\n%s", err, out)
	}
	if len(doc.Groups) != 2 {
		t.Fatalf("Expected 2 groups, got %+v", doc.Groups)
	}
	if doc.Groups[0].Replaced != 1 {
		t.Errorf("Expected 1 replacement in 1.20, got %+v", doc.Groups[0])
	}
	if doc.Groups[1].Unmatched != 2 || doc.Groups[1].Replaced != 0 {
		t.Errorf("Expected both 1.19 archives unmatched, got %+v", doc.Groups[1])
	}
}

func TestSyncCommand_Report(t *testing.T) {
	cfg, _, tracked := setup(t)
	reportPath := filepath.Join(filepath.Dir(tracked), "report.json")

	if out, err := execute(t, "sync", "--config", cfg, "-q", "--report", reportPath, "--report-format", "json"); err != nil {
		t.Fatalf("sync failed: %v\n%s", err, out)
	}

	raw := testutil.ReadFile(t, reportPath)
	if !bytes.Contains(raw, []byte(`"status": "success"`)) {
		t.Errorf("Unexpected report:\n%s", raw)
	}
}

func TestSyncCommand_Errors(t *testing.T) {
	cfg, _, _ := setup(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown group", []string{"sync", "--config", cfg, "--group", "1.7.10"}, "unknown group"},
		{"bad currency", []string{"sync", "--config", cfg, "--currency", "timestamp"}, "sync.currency"},
		{"bad bandwidth", []string{"sync", "--config", cfg, "--bandwidth", "fast"}, "bandwidth"},
		{"missing config", []string{"sync", "--config", filepath.Join(filepath.Dir(cfg), "nope.yaml")}, "failed to load config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestIdentifyCommand(t *testing.T) {
	cfg, canonical, tracked := setup(t)
	broken := testutil.WriteFile(t, tracked, "broken.jar", []byte("not a zip"))

	out, err := execute(t, "identify", "--config", cfg, canonical)
	if err != nil {
		t.Fatalf("identify failed: %v", err)
	}
	if !strings.Contains(out, "mod-a-v2.jar") || !strings.Contains(out, "mod-a") {
		t.Errorf("Unexpected output:\n%s", out)
	}

	out, err = execute(t, "identify", "--config", cfg, "--json", broken)
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 1 {
		t.Fatalf("Expected exit code 1 for unidentifiable archive, got %v", err)
	}
	var results []identifyResult
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("Output is not JSON: %v\n%s", err, out)
	}
	if len(results) != 1 || results[0].Kind != "not-an-archive" {
		t.Errorf("Unexpected results: %+v", results)
	}
}

func TestConfigCommands(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"config.yaml", "config.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)

			out, err := execute(t, "config", "init", path)
			if err != nil {
				t.Fatalf("config init failed: %v", err)
			}
			if !strings.Contains(out, path) {
				t.Errorf("Expected created path in output, got:\n%s", out)
			}

			if _, err := execute(t, "config", "init", path); err == nil {
				t.Error("Expected error when the file exists")
			}
			if _, err := execute(t, "config", "init", "--force", path); err != nil {
				t.Errorf("--force should overwrite: %v", err)
			}

			out, err = execute(t, "config", "show", "--config", path)
			if err != nil {
				t.Fatalf("config show failed: %v", err)
			}
			if !strings.Contains(out, "1.20.1") || !strings.Contains(out, "Resolved version groups") {
				t.Errorf("Unexpected config show output:\n%s", out)
			}
		})
	}

	if _, err := os.Stat(filepath.Join(dir, "config.toml")); err != nil {
		t.Errorf("TOML config not written: %v", err)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version", "--short")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != Version {
		t.Errorf("Expected %s, got %q", Version, out)
	}
}
