package loader

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dshills/mergecfg/internal/config/layer"
)

// Registry maps file extensions (without the dot, lower case) to loaders.
// It is not safe for concurrent modification; fill it before use.
type Registry struct {
	fs      FileSystem
	loaders map[string]Loader
}

// NewRegistry creates an empty registry over fsys.
func NewRegistry(fsys FileSystem) *Registry {
	if fsys == nil {
		fsys = DefaultFS()
	}
	return &Registry{
		fs:      fsys,
		loaders: make(map[string]Loader),
	}
}

// DefaultRegistry returns a registry of the built-in formats on the OS
// file system.
func DefaultRegistry() *Registry {
	return DefaultRegistryWithFS(DefaultFS())
}

// DefaultRegistryWithFS returns a registry of the built-in formats:
//
//	yml, yaml       YAML
//	json            JSON
//	ini, cfg, conf  INI
//	toml            TOML
func DefaultRegistryWithFS(fsys FileSystem) *Registry {
	r := NewRegistry(fsys)

	yamlLoader := NewYAMLLoaderWithFS(r.fs)
	iniLoader := NewINILoaderWithFS(r.fs)

	r.Register("yml", yamlLoader)
	r.Register("yaml", yamlLoader)
	r.Register("json", NewJSONLoaderWithFS(r.fs))
	r.Register("ini", iniLoader)
	r.Register("cfg", iniLoader)
	r.Register("conf", iniLoader)
	r.Register("toml", NewTOMLLoaderWithFS(r.fs))

	return r
}

// Register adds or replaces the loader for an extension. A leading dot
// is ignored.
func (r *Registry) Register(ext string, l Loader) {
	r.loaders[normalizeExt(ext)] = l
}

// Lookup returns the loader for an extension.
func (r *Registry) Lookup(ext string) (Loader, bool) {
	l, ok := r.loaders[normalizeExt(ext)]
	return l, ok
}

// Extensions returns the registered extensions, sorted.
func (r *Registry) Extensions() []string {
	return slices.Sorted(maps.Keys(r.loaders))
}

// FileSystem returns the file system the registry reads from.
func (r *Registry) FileSystem() FileSystem {
	return r.fs
}

// Load loads the document at path with the loader registered for its
// extension. Every failure is an *UnreadableSourceError.
func (r *Registry) Load(path string) (any, error) {
	_, data, err := r.load(path)
	return data, err
}

// LoadSource loads path into a layer source.
func (r *Registry) LoadSource(path string) (*layer.Source, error) {
	format, data, err := r.load(path)
	if err != nil {
		return nil, err
	}
	return layer.NewSource(path, format, data), nil
}

// LoadReader parses a document read from rd with the loader registered
// for ext. origin names the stream in the source and in errors. The loader
// must implement ReaderLoader.
func (r *Registry) LoadReader(origin, ext string, rd io.Reader) (*layer.Source, error) {
	l, ok := r.Lookup(ext)
	if !ok {
		return nil, &UnreadableSourceError{Path: origin, Reason: ReasonUnsupportedExtension}
	}

	rl, ok := l.(ReaderLoader)
	if !ok {
		return nil, &UnreadableSourceError{
			Path:   origin,
			Reason: ReasonRead,
			Err:    fmt.Errorf("loader for %q cannot read streams", normalizeExt(ext)),
		}
	}

	data, err := rl.LoadFromReader(rd)
	if err != nil {
		return nil, &UnreadableSourceError{Path: origin, Reason: failureReason(err), Err: err}
	}

	return layer.NewSource(origin, formatOf(l, ext), data), nil
}

func (r *Registry) load(path string) (string, any, error) {
	info, err := r.fs.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil, &UnreadableSourceError{Path: path, Reason: ReasonNotFound, Err: err}
		}
		return "", nil, &UnreadableSourceError{Path: path, Reason: ReasonRead, Err: err}
	}
	if !info.Mode().IsRegular() {
		return "", nil, &UnreadableSourceError{Path: path, Reason: ReasonNotAFile}
	}

	ext := normalizeExt(filepath.Ext(path))
	if ext == "" {
		return "", nil, &UnreadableSourceError{Path: path, Reason: ReasonNoExtension}
	}

	l, ok := r.loaders[ext]
	if !ok {
		return "", nil, &UnreadableSourceError{Path: path, Reason: ReasonUnsupportedExtension}
	}

	data, err := l.Load(path)
	if err != nil {
		return "", nil, &UnreadableSourceError{Path: path, Reason: failureReason(err), Err: err}
	}

	return formatOf(l, ext), data, nil
}

func failureReason(err error) Reason {
	var perr *ParseError
	if errors.As(err, &perr) {
		return ReasonParse
	}
	return ReasonRead
}

func formatOf(l Loader, ext string) string {
	if f, ok := l.(Formatter); ok {
		return f.Format()
	}
	return normalizeExt(ext)
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// Expand resolves patterns to file paths in pattern order. Patterns with
// glob metacharacters are expanded (sorted, possibly to nothing); other
// patterns are passed through unchanged so a missing file surfaces as a
// load failure. Malformed patterns are reported and skipped.
func Expand(fsys FileSystem, patterns []string) ([]string, []error) {
	var (
		paths    []string
		failures []error
	)

	for _, pattern := range patterns {
		if !hasMeta(pattern) {
			paths = append(paths, pattern)
			continue
		}

		matches, err := fsys.Glob(pattern)
		if err != nil {
			failures = append(failures, &UnreadableSourceError{Path: pattern, Reason: ReasonPattern, Err: err})
			continue
		}
		paths = append(paths, matches...)
	}

	return paths, failures
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, `*?[`)
}
