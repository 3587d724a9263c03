package loader

import (
	"os"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// EnvLoader builds a configuration tree from prefixed environment
// variables. APP_DB_HOST=x with prefix "APP_" becomes {"db": {"host": "x"}}.
type EnvLoader struct {
	prefix  string            // Environment variable prefix (e.g., "APP_")
	mapping map[string]string // Env var -> config path
	environ func() []string
}

// NewEnvLoader creates a new environment variable loader.
// The prefix should include the trailing underscore (e.g., "APP_").
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		mapping: make(map[string]string),
		environ: os.Environ,
	}
}

// NewEnvLoaderWithMapping creates a loader with explicit variable to path
// mappings, for paths the underscore convention cannot express. Mapped
// variables are read whether or not they carry the prefix. With an empty
// prefix only mapped variables are read.
func NewEnvLoaderWithMapping(prefix string, mapping map[string]string) *EnvLoader {
	l := NewEnvLoader(prefix)
	for env, path := range mapping {
		l.AddMapping(env, path)
	}
	return l
}

// Format returns "env".
func (l *EnvLoader) Format() string { return "env" }

// Origin identifies the environment source in snapshots and errors.
func (l *EnvLoader) Origin() string {
	return "env:" + l.prefix
}

// Load reads the environment and returns a configuration tree.
// Empty string values are treated as valid values, not as unset.
func (l *EnvLoader) Load() (any, error) {
	config := make(map[string]any)

	for _, env := range l.environ() {
		name, val, ok := strings.Cut(env, "=")
		if !ok {
			continue
		}

		path, mapped := l.mapping[name]
		if !mapped {
			if l.prefix == "" || !strings.HasPrefix(name, l.prefix) {
				continue
			}
			path = l.envToPath(name)
		}
		if path == "" {
			continue
		}
		setByPath(config, path, parseValue(val))
	}

	return config, nil
}

// AddMapping maps an environment variable to a configuration path.
func (l *EnvLoader) AddMapping(envVar, configPath string) {
	l.mapping[envVar] = configPath
}

// envToPath converts APP_DB_HOST to db.host.
func (l *EnvLoader) envToPath(env string) string {
	name := strings.TrimPrefix(env, l.prefix)
	name = strings.Trim(name, "_")
	if name == "" {
		return ""
	}
	return strings.ToLower(strings.ReplaceAll(name, "_", "."))
}

// parseValue attempts to parse the string value into an appropriate type.
func parseValue(s string) any {
	if s == "" {
		return s
	}

	switch strings.ToLower(s) {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}

	// Only with a decimal point, so "1e3"-style names stay strings.
	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}

	if strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{") {
		if gjson.Valid(s) {
			return jsonValue(gjson.Parse(s))
		}
	}

	return s
}

// setByPath sets a value in a nested map using a dot-separated path.
// A scalar in the way is replaced by a mapping.
func setByPath(data map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	current := data

	for i := 0; i < len(parts)-1; i++ {
		part := parts[i]
		if next, ok := current[part].(map[string]any); ok {
			current = next
		} else {
			next := make(map[string]any)
			current[part] = next
			current = next
		}
	}

	current[parts[len(parts)-1]] = value
}
