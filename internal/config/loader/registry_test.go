package loader

import (
	"errors"
	"io/fs"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestDefaultRegistry_Extensions(t *testing.T) {
	r := DefaultRegistry()

	want := []string{"cfg", "conf", "ini", "json", "toml", "yaml", "yml"}
	if got := r.Extensions(); !reflect.DeepEqual(got, want) {
		t.Errorf("Extensions() = %v, want %v", got, want)
	}

	l, ok := r.Lookup(".YML")
	if !ok {
		t.Fatal("Lookup(.YML) should find the YAML loader")
	}
	if _, isYAML := l.(*YAMLLoader); !isYAML {
		t.Errorf("Lookup(.YML) = %T, want *YAMLLoader", l)
	}
}

func TestRegistry_LoadSource(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeFile(t, tmpDir, "app.yml", "a: 1\n")

	src, err := DefaultRegistry().LoadSource(path)
	if err != nil {
		t.Fatalf("LoadSource() error = %v", err)
	}
	if src.Origin != path {
		t.Errorf("Origin = %q, want %q", src.Origin, path)
	}
	if src.Format != "yaml" {
		t.Errorf("Format = %q, want yaml", src.Format)
	}
	if !reflect.DeepEqual(src.Data, map[string]any{"a": int64(1)}) {
		t.Errorf("Data = %#v", src.Data)
	}
}

func TestRegistry_LoadFailures(t *testing.T) {
	tmpDir := t.TempDir()
	noExt := writeFile(t, tmpDir, "config", "a: 1")
	unknown := writeFile(t, tmpDir, "config.xml", "<a/>")
	broken := writeFile(t, tmpDir, "broken.json", "{")
	orphan := writeFile(t, tmpDir, "orphan.ini", "k = v\n[s]\nx = 1\n")

	tests := []struct {
		name   string
		path   string
		reason Reason
	}{
		{"missing", filepath.Join(tmpDir, "missing.yaml"), ReasonNotFound},
		{"directory", tmpDir, ReasonNotAFile},
		{"no extension", noExt, ReasonNoExtension},
		{"unsupported extension", unknown, ReasonUnsupportedExtension},
		{"parse error", broken, ReasonParse},
		{"ini key before section", orphan, ReasonParse},
	}

	r := DefaultRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Load(tt.path)
			if !errors.Is(err, ErrUnreadableSource) {
				t.Fatalf("Load() error = %v, want ErrUnreadableSource", err)
			}

			var uerr *UnreadableSourceError
			if !errors.As(err, &uerr) {
				t.Fatalf("error is %T", err)
			}
			if uerr.Reason != tt.reason {
				t.Errorf("Reason = %q, want %q", uerr.Reason, tt.reason)
			}
			if uerr.Path != tt.path {
				t.Errorf("Path = %q, want %q", uerr.Path, tt.path)
			}
		})
	}
}

func TestRegistry_NotFoundUnwraps(t *testing.T) {
	_, err := DefaultRegistry().Load(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("error = %v, should unwrap to fs.ErrNotExist", err)
	}
}

type stubLoader struct {
	data any
}

func (s stubLoader) Load(string) (any, error) { return s.data, nil }

func TestRegistry_Register(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeFile(t, tmpDir, "app.props", "ignored")

	r := NewRegistry(nil)
	r.Register(".props", stubLoader{data: map[string]any{"stub": true}})

	src, err := r.LoadSource(path)
	if err != nil {
		t.Fatalf("LoadSource() error = %v", err)
	}
	if src.Format != "props" {
		t.Errorf("Format = %q, want extension fallback 'props'", src.Format)
	}
	if !reflect.DeepEqual(src.Data, map[string]any{"stub": true}) {
		t.Errorf("Data = %#v", src.Data)
	}
}

func TestRegistry_LoadReader(t *testing.T) {
	r := DefaultRegistry()

	src, err := r.LoadReader("-", ".TOML", strings.NewReader("[db]\nport = 5432\n"))
	if err != nil {
		t.Fatalf("LoadReader() error = %v", err)
	}
	if src.Origin != "-" || src.Format != "toml" {
		t.Errorf("source = %q (%s), want - (toml)", src.Origin, src.Format)
	}
	if !reflect.DeepEqual(src.Data, map[string]any{"db": map[string]any{"port": int64(5432)}}) {
		t.Errorf("Data = %#v", src.Data)
	}

	r.Register("props", stubLoader{})

	tests := []struct {
		name   string
		ext    string
		doc    string
		reason Reason
	}{
		{"unsupported extension", "xml", "<a/>", ReasonUnsupportedExtension},
		{"loader without reader support", "props", "a=1", ReasonRead},
		{"parse error", "json", "{", ReasonParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.LoadReader("-", tt.ext, strings.NewReader(tt.doc))
			var uerr *UnreadableSourceError
			if !errors.As(err, &uerr) {
				t.Fatalf("LoadReader() error = %v, want *UnreadableSourceError", err)
			}
			if uerr.Reason != tt.reason || uerr.Path != "-" {
				t.Errorf("error = %q at %q, want %q at -", uerr.Reason, uerr.Path, tt.reason)
			}
		})
	}
}

func TestExpand(t *testing.T) {
	tmpDir := t.TempDir()
	b := writeFile(t, tmpDir, "b.yaml", "")
	a := writeFile(t, tmpDir, "a.yaml", "")
	writeFile(t, tmpDir, "c.json", "{}")
	literal := filepath.Join(tmpDir, "missing.yaml")

	paths, failures := Expand(DefaultFS(), []string{
		filepath.Join(tmpDir, "*.yaml"),
		literal,
		filepath.Join(tmpDir, "*.none"),
		filepath.Join(tmpDir, "[.yaml"),
	})

	want := []string{a, b, literal}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("paths = %v, want %v", paths, want)
	}

	if len(failures) != 1 {
		t.Fatalf("failures = %v, want 1 malformed pattern", failures)
	}
	var uerr *UnreadableSourceError
	if !errors.As(failures[0], &uerr) || uerr.Reason != ReasonPattern {
		t.Errorf("failure = %v, want ReasonPattern", failures[0])
	}
}

func TestExpand_PreservesPatternOrder(t *testing.T) {
	tmpDir := t.TempDir()
	a := writeFile(t, tmpDir, "a.yaml", "")
	z := writeFile(t, tmpDir, "z.yaml", "")

	paths, _ := Expand(DefaultFS(), []string{z, filepath.Join(tmpDir, "a.*"), z})

	want := []string{z, a, z}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("paths = %v, want %v", paths, want)
	}
}
