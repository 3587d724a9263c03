package loader

import (
	"bytes"
	"fmt"
	"io"

	"gopkg.in/ini.v1"
)

// INILoader loads configuration from INI-style files (.ini, .cfg, .conf).
//
// Every section becomes a mapping of string values. Keys are lower-cased.
// Keys of the DEFAULT section are inherited by every other section; the
// DEFAULT section itself appears only when it has keys. Defaults must be
// declared under an explicit [DEFAULT] header: a key before the first
// section header is a parse error.
type INILoader struct {
	fs FileSystem
}

// NewINILoader creates a new INI loader reading from the OS.
func NewINILoader() *INILoader {
	return &INILoader{fs: DefaultFS()}
}

// NewINILoaderWithFS creates an INI loader with a custom file system.
func NewINILoaderWithFS(fs FileSystem) *INILoader {
	return &INILoader{fs: fs}
}

// Format returns "ini".
func (l *INILoader) Format() string { return "ini" }

// Load reads configuration from path.
func (l *INILoader) Load(path string) (any, error) {
	data, err := l.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	return l.parse(path, data)
}

// LoadFromReader reads configuration from an io.Reader.
func (l *INILoader) LoadFromReader(r io.Reader) (any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return l.parse("<reader>", data)
}

func (l *INILoader) parse(source string, data []byte) (any, error) {
	if line := keyBeforeSection(data); line > 0 {
		return nil, &ParseError{
			Path:    source,
			Line:    line,
			Message: "key outside of any section",
		}
	}

	file, err := ini.LoadSources(ini.LoadOptions{
		InsensitiveKeys:            true,
		AllowPythonMultilineValues: true,
	}, data)
	if err != nil {
		return nil, &ParseError{
			Path:    source,
			Message: err.Error(),
			Err:     err,
		}
	}

	defaults := file.Section(ini.DefaultSection).KeysHash()
	config := make(map[string]any)

	for _, section := range file.Sections() {
		name := section.Name()
		if name == ini.DefaultSection && len(defaults) == 0 {
			continue
		}

		values := make(map[string]any, len(defaults))
		for k, v := range defaults {
			values[k] = v
		}
		for k, v := range section.KeysHash() {
			values[k] = v
		}
		config[name] = values
	}

	return config, nil
}

// keyBeforeSection returns the 1-based line of the first content line when
// it is not a section header, or 0.
func keyBeforeSection(data []byte) int {
	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	for i, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 || line[0] == ';' || line[0] == '#' {
			continue
		}
		if line[0] == '[' {
			return 0
		}
		return i + 1
	}
	return 0
}
