// Package loader reads configuration documents from disk.
//
// Each supported format has a Loader that parses a file into the
// canonical value tree (see package value). A Registry maps file
// extensions to loaders; it is filled once at startup and consulted for
// every source path.
package loader

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Loader is the interface for configuration document loaders.
type Loader interface {
	// Load reads and parses the document at path. The result is a
	// canonical value tree; an empty document yields an empty mapping.
	Load(path string) (any, error)
}

// ReaderLoader is the interface for loaders that read from io.Reader.
type ReaderLoader interface {
	// LoadFromReader parses a document from a reader.
	LoadFromReader(r io.Reader) (any, error)
}

// Formatter is implemented by loaders that report a format name.
type Formatter interface {
	// Format returns the format tag, e.g. "yaml".
	Format() string
}

// FileSystem is an abstraction for file system operations.
// This allows for easy testing with in-memory file systems.
type FileSystem interface {
	fs.FS
	// ReadFile reads the entire file at path.
	ReadFile(path string) ([]byte, error)
	// Stat returns file info for path.
	Stat(path string) (fs.FileInfo, error)
	// Glob returns the paths matching pattern, sorted.
	Glob(pattern string) ([]string, error)
}

// OSFS implements FileSystem using the real OS file system.
type OSFS struct{}

// Open implements fs.FS.
func (OSFS) Open(name string) (fs.File, error) {
	return os.Open(name)
}

// ReadFile reads the entire file at path.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Stat returns file info for path.
func (OSFS) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// Glob returns the paths matching pattern.
func (OSFS) Glob(pattern string) ([]string, error) {
	return filepath.Glob(pattern)
}

// DefaultFS returns the default file system (OS).
func DefaultFS() FileSystem {
	return OSFS{}
}
