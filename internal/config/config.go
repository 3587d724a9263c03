package config

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"maps"
	"math"
	"slices"
	"strconv"
	"sync"

	"github.com/dshills/mergecfg/internal/config/layer"
	"github.com/dshills/mergecfg/internal/config/loader"
	"github.com/dshills/mergecfg/internal/config/notify"
	"github.com/dshills/mergecfg/internal/config/value"
	"github.com/dshills/mergecfg/internal/logger"
)

// Config is a merged view over an ordered list of configuration sources.
// Reads go to the current snapshot and never block; Reload builds a new
// snapshot and swaps it in.
type Config struct {
	// Serializes Reload. Readers do not take it.
	reloadMu sync.Mutex

	patterns []string

	registry *loader.Registry
	fsys     loader.FileSystem

	envPrefix  string
	envMapping map[string]string
	env        *loader.EnvLoader

	// Standard input is read once and replayed on every reload.
	stdin       io.Reader
	stdinFormat string
	stdinData   []byte
	stdinErr    error

	merger         layer.Merger
	requireSources bool

	layers   *layer.Manager
	notifier *notify.Notifier
	log      *logger.Logger
}

// Option configures a Config instance.
type Option func(*Config)

// WithRegistry sets the extension registry used to load files. The
// registry's file system is also used for glob expansion.
func WithRegistry(r *loader.Registry) Option {
	return func(c *Config) {
		c.registry = r
	}
}

// WithFileSystem loads sources from fsys with the default registry.
// Ignored when WithRegistry is also given.
func WithFileSystem(fsys loader.FileSystem) Option {
	return func(c *Config) {
		c.fsys = fsys
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *logger.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.log = l.WithComponent("config")
		}
	}
}

// WithRequireSources makes a load fail with *NoSourcesResolvedError when
// no file source could be loaded. By default such a load succeeds with an
// empty configuration.
func WithRequireSources(require bool) Option {
	return func(c *Config) {
		c.requireSources = require
	}
}

// WithStrictSequences makes merging a non-sequence into a sequence a
// *layer.MergeTypeError instead of appending it.
func WithStrictSequences(strict bool) Option {
	return func(c *Config) {
		c.merger.StrictSequences = strict
	}
}

// WithEnvPrefix adds the environment variables starting with prefix as
// a final source, after all files. An empty prefix disables it.
func WithEnvPrefix(prefix string) Option {
	return func(c *Config) {
		c.envPrefix = prefix
	}
}

// WithEnvMapping maps environment variables to dotted paths in the
// environment source. Mapped variables are read with or without
// WithEnvPrefix.
func WithEnvMapping(mapping map[string]string) Option {
	return func(c *Config) {
		c.envMapping = maps.Clone(mapping)
	}
}

// StdinPattern is the source pattern that reads from the reader given to
// WithStdin.
const StdinPattern = "-"

// WithStdin makes the StdinPattern source read r, parsed with the loader
// registered for format (an extension such as "yaml"). r is read in full
// on the first load.
func WithStdin(r io.Reader, format string) Option {
	return func(c *Config) {
		c.stdin = r
		c.stdinFormat = format
	}
}

// New creates a Config over patterns without loading anything. Until the
// first Reload every lookup returns its default.
func New(patterns []string, opts ...Option) *Config {
	c := &Config{
		patterns: slices.Clone(patterns),
		notifier: notify.New(),
		log:      logger.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.registry == nil {
		c.registry = loader.DefaultRegistryWithFS(c.fsys)
	}
	if c.envPrefix != "" || len(c.envMapping) > 0 {
		c.env = loader.NewEnvLoaderWithMapping(c.envPrefix, c.envMapping)
	}
	c.layers = layer.NewManager(c.merger)

	return c
}

// LoadSources expands patterns, loads every resolved file, and merges them
// left to right. Files that cannot be loaded are skipped and reported by
// Failures. Merge conflicts are returned as errors.
func LoadSources(ctx context.Context, patterns []string, opts ...Option) (*Config, error) {
	c := New(patterns, opts...)
	if err := c.Reload(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// Reload re-runs the whole pipeline against the original patterns. On
// error the previous snapshot stays current.
func (c *Config) Reload(ctx context.Context) error {
	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()

	snap, err := c.build(ctx)
	if err != nil {
		return err
	}

	prev := c.layers.Publish(snap)

	c.log.Info().
		Str("snapshot", snap.ID).
		Int("sources", len(snap.Sources)).
		Int("failures", len(snap.Failures)).
		Msg("configuration loaded")

	c.notifyChanges(prev, snap)
	return nil
}

func (c *Config) build(ctx context.Context) (*layer.Snapshot, error) {
	paths, failures := loader.Expand(c.registry.FileSystem(), c.patterns)
	for _, err := range failures {
		c.log.Warn().Err(err).Msg("skipping configuration pattern")
	}

	sources := make([]*layer.Source, 0, len(paths)+1)
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		src, err := c.loadSource(path)
		if err != nil {
			c.log.Warn().Err(err).Str("path", path).Msg("skipping configuration source")
			failures = append(failures, err)
			continue
		}

		c.log.Debug().Str("path", path).Str("format", src.Format).Msg("loaded configuration source")
		sources = append(sources, src)
	}

	if c.requireSources && len(sources) == 0 {
		return nil, &NoSourcesResolvedError{
			Patterns: slices.Clone(c.patterns),
			Failures: failures,
		}
	}

	if c.env != nil {
		data, err := c.env.Load()
		if err != nil {
			return nil, fmt.Errorf("loading environment: %w", err)
		}
		sources = append(sources, layer.NewSource(c.env.Origin(), c.env.Format(), data))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap, err := c.layers.Build(sources, failures)
	if err != nil {
		return nil, fmt.Errorf("merging configuration: %w", err)
	}
	return snap, nil
}

func (c *Config) loadSource(path string) (*layer.Source, error) {
	if path != StdinPattern || c.stdin == nil {
		return c.registry.LoadSource(path)
	}

	if c.stdinData == nil && c.stdinErr == nil {
		c.stdinData, c.stdinErr = io.ReadAll(c.stdin)
		if c.stdinData == nil {
			c.stdinData = []byte{}
		}
	}
	if c.stdinErr != nil {
		return nil, &loader.UnreadableSourceError{Path: path, Reason: loader.ReasonRead, Err: c.stdinErr}
	}
	return c.registry.LoadReader(path, c.stdinFormat, bytes.NewReader(c.stdinData))
}

// notifyChanges reports the paths that differ between two snapshots,
// followed by a single reload event.
func (c *Config) notifyChanges(prev, next *layer.Snapshot) {
	added, modified, removed := layer.DiffMaps(prev.Merged, next.Merged)

	batch := c.notifier.NewBatch()
	for _, path := range added {
		batch.Add(notify.Change{
			Path:       path,
			Type:       notify.ChangeAdded,
			NewValue:   next.Get(path, nil),
			SnapshotID: next.ID,
		})
	}
	for _, path := range modified {
		batch.Add(notify.Change{
			Path:       path,
			Type:       notify.ChangeModified,
			OldValue:   prev.Get(path, nil),
			NewValue:   next.Get(path, nil),
			SnapshotID: next.ID,
		})
	}
	for _, path := range removed {
		batch.Add(notify.Change{
			Path:       path,
			Type:       notify.ChangeRemoved,
			OldValue:   prev.Get(path, nil),
			SnapshotID: next.ID,
		})
	}
	if n := batch.Len(); n > 0 {
		c.log.Debug().Str("snapshot", next.ID).Int("changes", n).Msg("publishing configuration changes")
	}
	batch.Commit()

	c.notifier.NotifyReload(next.ID)
}

// Close releases observers. The configuration stays readable.
func (c *Config) Close() {
	c.notifier.Close()
}

// Snapshot returns the current snapshot. It must not be modified.
func (c *Config) Snapshot() *layer.Snapshot {
	return c.layers.Current()
}

// Get returns a copy of the value at a dotted path, or def when the path
// does not resolve.
func (c *Config) Get(path string, def any) any {
	v, ok := c.Snapshot().Lookup(path)
	if !ok {
		return def
	}
	return value.Clone(v)
}

// Lookup returns a copy of the value at a dotted path and whether it
// exists.
func (c *Config) Lookup(path string) (any, bool) {
	v, ok := c.Snapshot().Lookup(path)
	if !ok {
		return nil, false
	}
	return value.Clone(v), true
}

// GetString returns the scalar at path as a string, or def.
func (c *Config) GetString(path, def string) string {
	v, ok := c.Snapshot().Lookup(path)
	if !ok {
		return def
	}
	if s, ok := scalarString(v); ok {
		return s
	}
	return def
}

// GetInt returns the value at path as an int, or def. Floats without a
// fractional part and numeric strings convert.
func (c *Config) GetInt(path string, def int) int {
	v, ok := c.Snapshot().Lookup(path)
	if !ok {
		return def
	}

	switch val := v.(type) {
	case int64:
		return int(val)
	case float64:
		if val == math.Trunc(val) && val >= math.MinInt64 && val < math.MaxInt64 {
			return int(val)
		}
	case string:
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return def
}

// GetFloat returns the value at path as a float64, or def.
func (c *Config) GetFloat(path string, def float64) float64 {
	v, ok := c.Snapshot().Lookup(path)
	if !ok {
		return def
	}

	switch val := v.(type) {
	case float64:
		return val
	case int64:
		return float64(val)
	case string:
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return def
}

// GetBool returns the value at path as a bool, or def. Strings accepted
// by strconv.ParseBool convert.
func (c *Config) GetBool(path string, def bool) bool {
	v, ok := c.Snapshot().Lookup(path)
	if !ok {
		return def
	}

	switch val := v.(type) {
	case bool:
		return val
	case string:
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return def
}

// GetStringSlice returns the sequence at path as strings, or def when the
// path is missing, not a sequence, or holds a non-scalar element.
func (c *Config) GetStringSlice(path string, def []string) []string {
	v, ok := c.Snapshot().Lookup(path)
	if !ok {
		return def
	}

	seq, ok := v.([]any)
	if !ok {
		return def
	}

	result := make([]string, 0, len(seq))
	for _, elem := range seq {
		s, ok := scalarString(elem)
		if !ok {
			return def
		}
		result = append(result, s)
	}
	return result
}

// GetMap returns a copy of the mapping at path, or def.
func (c *Config) GetMap(path string, def map[string]any) map[string]any {
	v, ok := c.Snapshot().Lookup(path)
	if !ok {
		return def
	}
	if m, ok := v.(map[string]any); ok {
		return value.CloneMap(m)
	}
	return def
}

// Merged returns a copy of the whole merged tree. The root is usually a
// mapping. It is a sequence or a scalar when the first source holds one at
// the top level and later sources merge into it.
func (c *Config) Merged() any {
	return value.Clone(c.Snapshot().Merged)
}

// Keys returns the sorted dotted paths of every leaf in the merged tree.
// A root that is not a mapping has no keys.
func (c *Config) Keys() []string {
	return layer.Keys(c.Snapshot().Merged)
}

// Sources returns the origins of the sources in the current snapshot,
// in merge order.
func (c *Config) Sources() []string {
	return c.Snapshot().Origins()
}

// Failures returns the errors for sources that were skipped by the last
// successful load.
func (c *Config) Failures() []error {
	return slices.Clone(c.Snapshot().Failures)
}

// Patterns returns the source patterns the configuration was created with.
func (c *Config) Patterns() []string {
	return slices.Clone(c.patterns)
}

// Subscribe registers an observer for all changes published by Reload.
func (c *Config) Subscribe(observer notify.Observer) *notify.Subscription {
	return c.notifier.Subscribe(observer)
}

// SubscribePath registers an observer for changes at or below path.
func (c *Config) SubscribePath(path string, observer notify.Observer) *notify.Subscription {
	return c.notifier.SubscribePath(path, observer)
}

// scalarString formats a scalar as a string.
func scalarString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case bool:
		return strconv.FormatBool(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64), true
	}
	return "", false
}
