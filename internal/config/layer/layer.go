// Package layer merges parsed configuration sources into one tree.
//
// Sources are folded left to right: the first source is the base and each
// later source overrides it. Mappings merge key by key, everything else is
// replaced. The merged result is published as an immutable Snapshot.
package layer

import (
	"time"
)

// Source is one loaded configuration document.
type Source struct {
	// Origin identifies where the source came from (a file path, or
	// "env:<PREFIX>" for the environment).
	Origin string

	// Format is the loader format tag (e.g. "yaml", "json").
	Format string

	// Data holds the parsed tree in canonical form.
	Data any

	// LoadedAt is when the source was read.
	LoadedAt time.Time
}

// NewSource creates a new source.
func NewSource(origin, format string, data any) *Source {
	return &Source{
		Origin:   origin,
		Format:   format,
		Data:     data,
		LoadedAt: time.Now(),
	}
}

// Snapshot is the merged configuration produced by one load. It is never
// modified once published, so readers may keep using an old snapshot while
// a reload builds the next one.
type Snapshot struct {
	// ID uniquely identifies this load.
	ID string

	// Sources are the successfully loaded sources in fold order.
	Sources []*Source

	// Merged is the fold of Sources.
	Merged any

	// Failures holds the sources that could not be loaded and were
	// skipped.
	Failures []error

	// LoadedAt is when the snapshot was built.
	LoadedAt time.Time
}

// Get returns the value at a dotted path, or def.
func (s *Snapshot) Get(path string, def any) any {
	if s == nil {
		return def
	}
	return Get(s.Merged, path, def)
}

// Lookup returns the value at a dotted path and whether it exists.
func (s *Snapshot) Lookup(path string) (any, bool) {
	if s == nil {
		return nil, false
	}
	return GetByPath(s.Merged, path)
}

// Origins returns the origins of the loaded sources in fold order.
func (s *Snapshot) Origins() []string {
	if s == nil {
		return nil
	}
	origins := make([]string, len(s.Sources))
	for i, src := range s.Sources {
		origins[i] = src.Origin
	}
	return origins
}
