package layer

import (
	"errors"
	"reflect"
	"sync"
	"testing"
)

func TestManager_CurrentBeforePublish(t *testing.T) {
	m := NewManager(Merger{})

	s := m.Current()
	if s == nil {
		t.Fatal("Current() returned nil")
	}
	if !reflect.DeepEqual(s.Merged, map[string]any{}) {
		t.Errorf("Merged = %v, want empty mapping", s.Merged)
	}
	if got := s.Get("anything", "d"); got != "d" {
		t.Errorf("Get() = %v, want default", got)
	}
}

func TestManager_BuildAndPublish(t *testing.T) {
	m := NewManager(Merger{})

	sources := []*Source{
		NewSource("a.yaml", "yaml", map[string]any{"a": int64(1), "b": map[string]any{"x": int64(1)}}),
		NewSource("b.yaml", "yaml", map[string]any{"b": map[string]any{"y": int64(2)}}),
	}
	failures := []error{errors.New("missing.yaml: not found")}

	s, err := m.Build(sources, failures)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if s.ID == "" {
		t.Error("snapshot ID should be set")
	}
	if len(s.Failures) != 1 {
		t.Errorf("Failures = %v, want 1 entry", s.Failures)
	}

	// Build must not publish.
	if m.Current() == s {
		t.Fatal("Build() published the snapshot")
	}

	prev := m.Publish(s)
	if prev == nil {
		t.Error("Publish() should return the initial snapshot")
	}
	if m.Current() != s {
		t.Error("Current() should return the published snapshot")
	}

	want := map[string]any{"a": int64(1), "b": map[string]any{"x": int64(1), "y": int64(2)}}
	if !reflect.DeepEqual(m.Current().Merged, want) {
		t.Errorf("Merged = %v, want %v", m.Current().Merged, want)
	}
}

func TestManager_BuildConflict(t *testing.T) {
	m := NewManager(Merger{})
	before := m.Current()

	_, err := m.Build([]*Source{
		NewSource("a.yaml", "yaml", map[string]any{"a": map[string]any{"x": int64(1)}}),
		NewSource("b.yaml", "yaml", map[string]any{"a": int64(5)}),
	}, nil)
	if !errors.Is(err, ErrMergeConflict) {
		t.Fatalf("Build() error = %v, want ErrMergeConflict", err)
	}
	if m.Current() != before {
		t.Error("failed Build() must leave the current snapshot untouched")
	}
}

func TestManager_StrictMerger(t *testing.T) {
	m := NewManager(Merger{StrictSequences: true})

	_, err := m.Build([]*Source{
		NewSource("a.yaml", "yaml", map[string]any{"a": []any{"x"}}),
		NewSource("b.yaml", "yaml", map[string]any{"a": "y"}),
	}, nil)
	if !errors.Is(err, ErrMergeConflict) {
		t.Fatalf("Build() error = %v, want ErrMergeConflict", err)
	}
}

func TestManager_ConcurrentReaders(t *testing.T) {
	m := NewManager(Merger{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s := m.Current()
				_ = s.Get("a", nil)
			}
		}()
	}

	for i := 0; i < 20; i++ {
		s, err := m.Build([]*Source{NewSource("a", "yaml", map[string]any{"a": int64(i)})}, nil)
		if err != nil {
			t.Fatal(err)
		}
		m.Publish(s)
	}

	wg.Wait()
}
