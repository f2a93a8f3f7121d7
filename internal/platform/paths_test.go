package platform

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestResolve(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	base := t.TempDir()

	tests := []struct {
		name    string
		base    string
		path    string
		want    string
		wantErr bool
	}{
		{"absolute", base, "/srv/mods", filepath.Clean("/srv/mods"), false},
		{"relative to base", base, "mods/1.20", filepath.Join(base, "mods", "1.20"), false},
		{"cleaned", base, "mods/../mods/./1.20/", filepath.Join(base, "mods", "1.20"), false},
		{"home", base, "~/mods", filepath.Join(home, "mods"), false},
		{"empty", base, "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.base, tt.path)
			if tt.wantErr {
				var pathErr *PathError
				if !errors.As(err, &pathErr) {
					t.Fatalf("Expected PathError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}

	t.Run("relative without base", func(t *testing.T) {
		got, err := Resolve("", "mods")
		if err != nil {
			t.Fatal(err)
		}
		if !filepath.IsAbs(got) {
			t.Errorf("Expected absolute path, got %s", got)
		}
	})
}

func TestSamePath(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "mods")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}

	if !SamePath(sub, sub+string(filepath.Separator)) {
		t.Error("Trailing separator should not matter")
	}
	if !SamePath(sub, filepath.Join(dir, "x", "..", "mods")) {
		t.Error("Equivalent paths should match")
	}
	if SamePath(sub, dir) {
		t.Error("Different directories should not match")
	}

	link := filepath.Join(dir, "link")
	if err := os.Symlink(sub, link); err == nil {
		if !SamePath(sub, link) {
			t.Error("Symlink to the same directory should match")
		}
	}
}

func TestExpandHome(t *testing.T) {
	for _, p := range []string{"/abs", "rel/~", "~user/x"} {
		got, err := ExpandHome(p)
		if err != nil || got != p {
			t.Errorf("ExpandHome(%q) = %q, %v; want unchanged", p, got, err)
		}
	}
}
