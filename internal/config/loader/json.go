package loader

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// JSONLoader loads configuration from JSON files. Integer literals are
// kept as int64; other numbers become float64.
type JSONLoader struct {
	fs FileSystem
}

// NewJSONLoader creates a new JSON loader reading from the OS.
func NewJSONLoader() *JSONLoader {
	return &JSONLoader{fs: DefaultFS()}
}

// NewJSONLoaderWithFS creates a JSON loader with a custom file system.
func NewJSONLoaderWithFS(fs FileSystem) *JSONLoader {
	return &JSONLoader{fs: fs}
}

// Format returns "json".
func (l *JSONLoader) Format() string { return "json" }

// Load reads configuration from path.
func (l *JSONLoader) Load(path string) (any, error) {
	data, err := l.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	return l.parse(path, data)
}

// LoadFromReader reads configuration from an io.Reader.
func (l *JSONLoader) LoadFromReader(r io.Reader) (any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return l.parse("<reader>", data)
}

func (l *JSONLoader) parse(source string, data []byte) (any, error) {
	if !gjson.ValidBytes(data) {
		return nil, &ParseError{
			Path:    source,
			Message: "invalid JSON document",
		}
	}

	root := gjson.ParseBytes(data)
	if root.Type == gjson.Null {
		return map[string]any{}, nil
	}
	return jsonValue(root), nil
}

// jsonValue converts a gjson result into a canonical tree.
func jsonValue(r gjson.Result) any {
	switch r.Type {
	case gjson.False:
		return false
	case gjson.True:
		return true
	case gjson.Number:
		if !strings.ContainsAny(r.Raw, ".eE") {
			if i, err := strconv.ParseInt(r.Raw, 10, 64); err == nil {
				return i
			}
		}
		return r.Float()
	case gjson.String:
		return r.Str
	case gjson.JSON:
		if r.IsArray() {
			out := make([]any, 0)
			r.ForEach(func(_, v gjson.Result) bool {
				out = append(out, jsonValue(v))
				return true
			})
			return out
		}
		out := make(map[string]any)
		r.ForEach(func(k, v gjson.Result) bool {
			out[k.Str] = jsonValue(v)
			return true
		})
		return out
	default:
		return nil
	}
}
