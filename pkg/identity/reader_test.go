package identity

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sdejongh/modsync/internal/testutil"
	"github.com/sdejongh/modsync/pkg/models"
)

func TestZipReaderIdentify(t *testing.T) {
	dir := testutil.TempDir(t, "modsync-identity-test-*")
	reader := NewZipReader("")

	t.Run("ValidArchive", func(t *testing.T) {
		path := testutil.WriteJar(t, dir, "sodium-0.5.3.jar", testutil.ModJar{ID: "sodium"})

		id, err := reader.Identify(path)
		if err != nil {
			t.Fatalf("Identify() error = %v", err)
		}
		if id != "sodium" {
			t.Errorf("Identify() = %q, want sodium", id)
		}
	})

	t.Run("IdentifierIsCaseSensitive", func(t *testing.T) {
		path := testutil.WriteJar(t, dir, "Mixed.jar", testutil.ModJar{ID: "ModMenu"})

		id, err := reader.Identify(path)
		if err != nil {
			t.Fatalf("Identify() error = %v", err)
		}
		if id != "ModMenu" {
			t.Errorf("Identify() = %q, want ModMenu", id)
		}
	})

	t.Run("NotAnArchive", func(t *testing.T) {
		path := testutil.WriteFile(t, dir, "broken.jar", []byte("definitely not a zip"))

		_, err := reader.Identify(path)
		assertKind(t, err, KindNotAnArchive)
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := reader.Identify(filepath.Join(dir, "absent.jar"))
		assertKind(t, err, KindNotAnArchive)
	})

	t.Run("MissingDescriptor", func(t *testing.T) {
		path := testutil.WriteJar(t, dir, "library.jar", testutil.ModJar{NoDescriptor: true})

		_, err := reader.Identify(path)
		assertKind(t, err, KindMissingDescriptor)
	})

	t.Run("DescriptorNameIsCaseSensitive", func(t *testing.T) {
		path := filepath.Join(dir, "upper.jar")
		writeRawJar(t, path, "FABRIC.MOD.JSON", `{"id": "upper"}`)

		_, err := reader.Identify(path)
		assertKind(t, err, KindMissingDescriptor)
	})

	t.Run("NestedDescriptorIgnored", func(t *testing.T) {
		path := filepath.Join(dir, "nested.jar")
		writeRawJar(t, path, "META-INF/jars/fabric.mod.json", `{"id": "nested"}`)

		_, err := reader.Identify(path)
		assertKind(t, err, KindMissingDescriptor)
	})

	t.Run("MalformedDescriptor", func(t *testing.T) {
		path := testutil.WriteJar(t, dir, "malformed.jar", testutil.ModJar{Descriptor: `{"id": "x",`})

		_, err := reader.Identify(path)
		assertKind(t, err, KindMalformedDescriptor)
	})

	t.Run("MissingID", func(t *testing.T) {
		path := testutil.WriteJar(t, dir, "noid.jar", testutil.ModJar{Descriptor: `{"name": "No Id"}`})

		_, err := reader.Identify(path)
		assertKind(t, err, KindMissingIDField)
	})

	t.Run("ErrorCarriesPath", func(t *testing.T) {
		path := testutil.WriteJar(t, dir, "noid2.jar", testutil.ModJar{Descriptor: `{}`})

		_, err := reader.Identify(path)
		var ie *IdentityError
		if !errors.As(err, &ie) {
			t.Fatalf("error type = %T, want *IdentityError", err)
		}
		if ie.Path != path {
			t.Errorf("IdentityError.Path = %q, want %q", ie.Path, path)
		}
	})

	t.Run("CustomDescriptor", func(t *testing.T) {
		path := filepath.Join(dir, "quilt.jar")
		writeRawJar(t, path, "quilt.mod.json", `{"id": "qsl"}`)

		id, err := NewZipReader("quilt.mod.json").Identify(path)
		if err != nil {
			t.Fatalf("Identify() error = %v", err)
		}
		if id != "qsl" {
			t.Errorf("Identify() = %q, want qsl", id)
		}
	})
}

func TestParseDescriptor(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    models.Identifier
		errKind ErrorKind
	}{
		{"Simple", `{"id":"lithium"}`, "lithium", ""},
		{"ExtraWhitespace", "\n\n  {  \"id\"  :   \"lithium\"  }  \n\n\n", "lithium", ""},
		{"ByteOrderMark", "\xef\xbb\xbf{\"id\":\"lithium\"}", "lithium", ""},
		{"RawNewlineInString", "{\"id\":\"lithium\",\"description\":\"line one\nline two\"}", "lithium", ""},
		{"RawTabInString", "{\"description\":\"a\tb\",\"id\":\"lithium\"}", "lithium", ""},
		{"EscapedQuoteInString", `{"description":"say \"hi\"","id":"lithium"}`, "lithium", ""},
		{"DuplicateIDLastWins", `{"id":"old","id":"new"}`, "new", ""},
		{"TrailingComma", `{"id":"lithium",}`, "", KindMalformedDescriptor},
		{"Array", `["lithium"]`, "", KindMalformedDescriptor},
		{"Null", `null`, "", KindMalformedDescriptor},
		{"Empty", ``, "", KindMalformedDescriptor},
		{"NoID", `{"name":"Lithium"}`, "", KindMissingIDField},
		{"NumericID", `{"id":42}`, "", KindMissingIDField},
		{"BlankID", `{"id":"  "}`, "", KindMissingIDField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDescriptor([]byte(tt.input))
			if tt.errKind != "" {
				assertKind(t, err, tt.errKind)
				return
			}
			if err != nil {
				t.Fatalf("ParseDescriptor() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseDescriptor() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReaderFunc(t *testing.T) {
	var r Reader = ReaderFunc(func(path string) (models.Identifier, error) {
		return models.Identifier(filepath.Base(path)), nil
	})

	id, err := r.Identify("/mods/fake.jar")
	if err != nil {
		t.Fatalf("Identify() error = %v", err)
	}
	if id != "fake.jar" {
		t.Errorf("Identify() = %q, want fake.jar", id)
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(errors.New("plain")); got != "" {
		t.Errorf("KindOf(plain) = %q, want empty", got)
	}
	if got := KindOf(&IdentityError{Kind: KindMissingIDField}); got != KindMissingIDField {
		t.Errorf("KindOf() = %q, want %q", got, KindMissingIDField)
	}
}

func assertKind(t *testing.T, err error, want ErrorKind) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := KindOf(err); got != want {
		t.Errorf("error kind = %q, want %q (err: %v)", got, want, err)
	}
}

func writeRawJar(t *testing.T, path, entry, body string) {
	t.Helper()

	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create jar: %v", err)
	}
	defer file.Close()

	zw := zip.NewWriter(file)
	w, err := zw.Create(entry)
	if err != nil {
		t.Fatalf("failed to create entry: %v", err)
	}
	if _, err := w.Write([]byte(body)); err != nil {
		t.Fatalf("failed to write entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
}
