// Package value defines the untyped tree every configuration format is
// reduced to before merging.
//
// A value is one of:
//
//	nil             Null
//	string, bool,
//	int64, float64  Scalar
//	[]any           Sequence
//	map[string]any  Mapping
//
// Format loaders produce whatever their parser library returns; Normalize
// converts that into the canonical form above.
package value

import (
	"fmt"
	"time"
)

// Kind classifies a configuration value.
type Kind uint8

const (
	// Invalid is any Go value outside the canonical set.
	Invalid Kind = iota
	// Null is the absent/nil value.
	Null
	// Scalar is a string, bool, int64 or float64.
	Scalar
	// Sequence is an ordered list ([]any).
	Sequence
	// Mapping is a string-keyed map (map[string]any).
	Mapping
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Scalar:
		return "scalar"
	case Sequence:
		return "sequence"
	case Mapping:
		return "mapping"
	default:
		return "invalid"
	}
}

// KindOf classifies v. Only canonical types are recognized.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return Null
	case string, bool, int64, float64:
		return Scalar
	case []any:
		return Sequence
	case map[string]any:
		return Mapping
	default:
		return Invalid
	}
}

// UnsupportedTypeError is returned by Normalize for values that have no
// configuration representation.
type UnsupportedTypeError struct {
	// Path is the dotted path of the offending value ("" for the root).
	Path string
	// Value is the offending value.
	Value any
}

// Error implements the error interface.
func (e *UnsupportedTypeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("unsupported value type %T", e.Value)
	}
	return fmt.Sprintf("unsupported value type %T at %s", e.Value, e.Path)
}

// Normalize converts parser output into canonical form. The input is not
// modified; containers in the result are always freshly allocated.
func Normalize(v any) (any, error) {
	return normalize("", v)
}

func normalize(path string, v any) (any, error) {
	switch t := v.(type) {
	case nil, string, bool, int64, float64:
		return t, nil
	case int:
		return int64(t), nil
	case int8:
		return int64(t), nil
	case int16:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case uint:
		return unsigned(uint64(t)), nil
	case uint8:
		return int64(t), nil
	case uint16:
		return int64(t), nil
	case uint32:
		return int64(t), nil
	case uint64:
		return unsigned(t), nil
	case float32:
		return float64(t), nil
	case time.Time:
		return t.Format(time.RFC3339Nano), nil
	case time.Duration:
		return t.String(), nil
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			n, err := normalize(joinIndex(path, i), item)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case []string:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = item
		}
		return out, nil
	case []map[string]any:
		out := make([]any, len(t))
		for i, item := range t {
			n, err := normalize(joinIndex(path, i), item)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for key, item := range t {
			n, err := normalize(Join(path, key), item)
			if err != nil {
				return nil, err
			}
			out[key] = n
		}
		return out, nil
	case map[string]string:
		out := make(map[string]any, len(t))
		for key, item := range t {
			out[key] = item
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(t))
		for rawKey, item := range t {
			key, ok := keyString(rawKey)
			if !ok {
				return nil, &UnsupportedTypeError{Path: path, Value: rawKey}
			}
			n, err := normalize(Join(path, key), item)
			if err != nil {
				return nil, err
			}
			out[key] = n
		}
		return out, nil
	case fmt.Stringer:
		// TOML local dates and times.
		return t.String(), nil
	default:
		return nil, &UnsupportedTypeError{Path: path, Value: v}
	}
}

func unsigned(u uint64) any {
	if u > 1<<63-1 {
		return float64(u)
	}
	return int64(u)
}

// keyString renders a non-string mapping key (YAML allows ints and bools).
func keyString(k any) (string, bool) {
	switch t := k.(type) {
	case string:
		return t, true
	case bool, int, int64, uint64, float64:
		return fmt.Sprint(t), true
	case nil:
		return "null", true
	default:
		return "", false
	}
}

// Join appends key to a dotted path.
func Join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func joinIndex(path string, i int) string {
	return fmt.Sprintf("%s[%d]", path, i)
}

// Clone returns a deep copy of v. Scalars are returned as is.
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneMap(t)
	case []any:
		return CloneSlice(t)
	default:
		return v
	}
}

// CloneMap creates a deep copy of a map.
func CloneMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}

	dst := make(map[string]any, len(src))
	for key, val := range src {
		dst[key] = Clone(val)
	}
	return dst
}

// CloneSlice creates a deep copy of a slice.
func CloneSlice(src []any) []any {
	if src == nil {
		return nil
	}

	dst := make([]any, len(src))
	for i, val := range src {
		dst[i] = Clone(val)
	}
	return dst
}

// Equal reports whether a and b are deeply equal configuration values.
// int64 and float64 holding the same number compare equal.
func Equal(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}

	switch va := a.(type) {
	case map[string]any:
		vb, ok := b.(map[string]any)
		if !ok || len(va) != len(vb) {
			return false
		}
		for k, x := range va {
			y, ok := vb[k]
			if !ok || !Equal(x, y) {
				return false
			}
		}
		return true
	case []any:
		vb, ok := b.([]any)
		if !ok || len(va) != len(vb) {
			return false
		}
		for i := range va {
			if !Equal(va[i], vb[i]) {
				return false
			}
		}
		return true
	case int64:
		switch vb := b.(type) {
		case int64:
			return va == vb
		case float64:
			return float64(va) == vb
		}
		return false
	case float64:
		switch vb := b.(type) {
		case float64:
			return va == vb
		case int64:
			return va == float64(vb)
		}
		return false
	default:
		if KindOf(a) != Scalar || KindOf(b) != Scalar {
			return false
		}
		return a == b
	}
}
