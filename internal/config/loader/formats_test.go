package loader

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestYAMLLoader_Load(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeFile(t, tmpDir, "app.yaml", `
server:
  host: localhost
  port: 8080
  ratio: 0.5
  tls: true
tags: [a, b]
empty:
1: numeric key
`)

	got, err := NewYAMLLoader().Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := map[string]any{
		"server": map[string]any{
			"host":  "localhost",
			"port":  int64(8080),
			"ratio": 0.5,
			"tls":   true,
		},
		"tags":  []any{"a", "b"},
		"empty": nil,
		"1":     "numeric key",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Load() = %#v, want %#v", got, want)
	}
}

func TestYAMLLoader_Empty(t *testing.T) {
	got, err := NewYAMLLoader().LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadFromReader() error = %v", err)
	}
	if !reflect.DeepEqual(got, map[string]any{}) {
		t.Errorf("empty document = %#v, want empty mapping", got)
	}
}

func TestYAMLLoader_ParseError(t *testing.T) {
	_, err := NewYAMLLoader().LoadFromReader(strings.NewReader("a: [1, 2\nb: c"))

	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
	if perr.Path != "<reader>" {
		t.Errorf("Path = %q, want <reader>", perr.Path)
	}
}

func TestJSONLoader_Load(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeFile(t, tmpDir, "app.json", `{
  "a": 1,
  "b": {"x": 1.5, "y": 2e3, "z": -7},
  "c": [true, false, null, "s"],
  "d": {}
}`)

	got, err := NewJSONLoader().Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := map[string]any{
		"a": int64(1),
		"b": map[string]any{"x": 1.5, "y": float64(2000), "z": int64(-7)},
		"c": []any{true, false, nil, "s"},
		"d": map[string]any{},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Load() = %#v, want %#v", got, want)
	}
}

func TestJSONLoader_Invalid(t *testing.T) {
	for _, doc := range []string{"", "{", `{"a": }`, "[1,]"} {
		_, err := NewJSONLoader().LoadFromReader(strings.NewReader(doc))
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Errorf("LoadFromReader(%q) error = %v, want *ParseError", doc, err)
		}
	}
}

func TestJSONLoader_NullDocument(t *testing.T) {
	got, err := NewJSONLoader().LoadFromReader(strings.NewReader("null"))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, map[string]any{}) {
		t.Errorf("null document = %#v, want empty mapping", got)
	}
}

func TestINILoader_Load(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeFile(t, tmpDir, "app.ini", `
[DEFAULT]
timeout = 30

[database]
Host = db.local
port = 5432

[cache]
enabled = yes
timeout = 5
`)

	got, err := NewINILoader().Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := map[string]any{
		"DEFAULT": map[string]any{"timeout": "30"},
		"database": map[string]any{
			"host":    "db.local",
			"port":    "5432",
			"timeout": "30",
		},
		"cache": map[string]any{
			"enabled": "yes",
			"timeout": "5",
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Load() = %#v, want %#v", got, want)
	}
}

func TestINILoader_NoDefaults(t *testing.T) {
	got, err := NewINILoader().LoadFromReader(strings.NewReader("[s]\nk = v\n"))
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]any{"s": map[string]any{"k": "v"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LoadFromReader() = %#v, want %#v", got, want)
	}
}

func TestINILoader_KeyBeforeSection(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		line int
	}{
		{"first line", "k = v\n[s]\nx = 1\n", 1},
		{"after comments", "; header\n\n# note\nk = v\n[s]\n", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewINILoader().LoadFromReader(strings.NewReader(tt.doc))
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("LoadFromReader() error = %v, want *ParseError", err)
			}
			if perr.Line != tt.line {
				t.Errorf("Line = %d, want %d", perr.Line, tt.line)
			}
		})
	}

	// Comments and an explicit DEFAULT header before the first key are fine.
	got, err := NewINILoader().LoadFromReader(strings.NewReader("; c\n[DEFAULT]\nk = v\n[s]\nx = 1\n"))
	if err != nil {
		t.Fatalf("LoadFromReader() error = %v", err)
	}
	want := map[string]any{
		"DEFAULT": map[string]any{"k": "v"},
		"s":       map[string]any{"k": "v", "x": "1"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LoadFromReader() = %#v, want %#v", got, want)
	}
}

func TestTOMLLoader_Load(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeFile(t, tmpDir, "app.toml", `
title = "demo"

[server]
port = 8080
ratio = 0.25
hosts = ["a", "b"]

[[workers]]
name = "w1"
`)

	got, err := NewTOMLLoader().Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := map[string]any{
		"title": "demo",
		"server": map[string]any{
			"port":  int64(8080),
			"ratio": 0.25,
			"hosts": []any{"a", "b"},
		},
		"workers": []any{map[string]any{"name": "w1"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Load() = %#v, want %#v", got, want)
	}
}

func TestTOMLLoader_LocalDate(t *testing.T) {
	got, err := NewTOMLLoader().LoadFromReader(strings.NewReader("day = 2024-05-01\n"))
	if err != nil {
		t.Fatal(err)
	}

	if day := got.(map[string]any)["day"]; day != "2024-05-01" {
		t.Errorf("day = %#v, want \"2024-05-01\"", day)
	}
}

func TestTOMLLoader_ParseError(t *testing.T) {
	_, err := NewTOMLLoader().LoadFromReader(strings.NewReader("a = \n"))

	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
	if perr.Line != 1 {
		t.Errorf("Line = %d, want 1", perr.Line)
	}
}

func TestParseError_Error(t *testing.T) {
	tests := []struct {
		err  *ParseError
		want string
	}{
		{&ParseError{Path: "a.toml", Line: 2, Column: 3, Message: "bad"}, "parse error in a.toml at line 2, column 3: bad"},
		{&ParseError{Path: "a.toml", Line: 2, Message: "bad"}, "parse error in a.toml at line 2: bad"},
		{&ParseError{Path: "a.toml", Message: "bad"}, "parse error in a.toml: bad"},
	}

	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}
