package layer

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/dshills/mergecfg/internal/config/value"
)

// Errors matched by the merge error types via errors.Is.
var (
	// ErrMergeConflict indicates a mapping was merged with a non-mapping.
	ErrMergeConflict = errors.New("merge conflict")

	// ErrMergeUnsupported indicates a value outside the configuration model.
	ErrMergeUnsupported = errors.New("unsupported value in merge")
)

// MergeTypeError reports a structural conflict: a mapping in the base
// tree was overridden by a value that is not a mapping (or, with strict
// sequences, a sequence by a non-sequence).
type MergeTypeError struct {
	// Path is the dotted key path of the conflict ("" for the root).
	Path string
	// Origin identifies the source that introduced the incoming value.
	// Set by Fold; empty for direct Merge calls.
	Origin string
	// Base is the value already in the tree.
	Base any
	// Incoming is the value that could not be merged into Base.
	Incoming any
}

// Error implements the error interface.
func (e *MergeTypeError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "merge conflict at %s: cannot merge %s %v with %s %v",
		displayPath(e.Path),
		value.KindOf(e.Base), e.Base,
		value.KindOf(e.Incoming), e.Incoming)
	if e.Origin != "" {
		fmt.Fprintf(&b, " (from %s)", e.Origin)
	}
	return b.String()
}

// Is implements error matching for MergeTypeError.
func (e *MergeTypeError) Is(target error) bool {
	return target == ErrMergeConflict
}

// MergeUnsupportedError reports a value whose Go type is not part of the
// configuration model. It signals a loader that skipped normalization.
type MergeUnsupportedError struct {
	// Path is the dotted key path of the value ("" for the root).
	Path string
	// Origin identifies the source the value came from, when known.
	Origin string
	// Value is the offending value.
	Value any
}

// Error implements the error interface.
func (e *MergeUnsupportedError) Error() string {
	msg := fmt.Sprintf("unsupported value of type %T at %s", e.Value, displayPath(e.Path))
	if e.Origin != "" {
		msg += " (from " + e.Origin + ")"
	}
	return msg
}

// Is implements error matching for MergeUnsupportedError.
func (e *MergeUnsupportedError) Is(target error) bool {
	return target == ErrMergeUnsupported
}

func displayPath(path string) string {
	if path == "" {
		return "<root>"
	}
	return fmt.Sprintf("%q", path)
}

// Merger merges configuration trees.
// The zero value applies the default rules.
type Merger struct {
	// StrictSequences makes merging a non-sequence into a sequence a
	// MergeTypeError instead of appending it to the sequence.
	StrictSequences bool
}

// Merge merges incoming over base with the default rules.
func Merge(base, incoming any) (any, error) {
	return Merger{}.Merge(base, incoming)
}

// Merge returns the result of merging incoming over base:
//
//   - base null or scalar: incoming replaces it.
//   - base sequence, incoming sequence: incoming replaces it.
//   - base sequence, anything else: incoming is appended to a copy of base.
//   - base mapping, incoming mapping: keys are united, shared keys merged
//     recursively.
//   - base mapping, anything else: *MergeTypeError.
//
// Neither argument is modified and the result shares no maps or slices
// with them.
func (m Merger) Merge(base, incoming any) (any, error) {
	return m.merge("", base, incoming)
}

func (m Merger) merge(path string, base, incoming any) (any, error) {
	switch b := base.(type) {
	case nil, string, bool, int64, float64:
		return copyValue(path, incoming)

	case []any:
		if in, ok := incoming.([]any); ok {
			return copyValue(path, in)
		}
		if m.StrictSequences {
			return nil, &MergeTypeError{Path: path, Base: base, Incoming: incoming}
		}
		item, err := copyValue(path, incoming)
		if err != nil {
			return nil, err
		}
		out := make([]any, 0, len(b)+1)
		for i, elem := range b {
			c, err := copyValue(fmt.Sprintf("%s[%d]", path, i), elem)
			if err != nil {
				return nil, err
			}
			out = append(out, c)
		}
		return append(out, item), nil

	case map[string]any:
		in, ok := incoming.(map[string]any)
		if !ok {
			if value.KindOf(incoming) == value.Invalid {
				return nil, &MergeUnsupportedError{Path: path, Value: incoming}
			}
			return nil, &MergeTypeError{Path: path, Base: base, Incoming: incoming}
		}

		out := make(map[string]any, len(b)+len(in))
		for _, key := range slices.Sorted(maps.Keys(b)) {
			if _, overridden := in[key]; overridden {
				continue
			}
			c, err := copyValue(value.Join(path, key), b[key])
			if err != nil {
				return nil, err
			}
			out[key] = c
		}

		// Sorted so the first conflict reported is stable across runs.
		for _, key := range slices.Sorted(maps.Keys(in)) {
			keyPath := value.Join(path, key)
			baseVal, exists := b[key]
			var (
				merged any
				err    error
			)
			if exists {
				merged, err = m.merge(keyPath, baseVal, in[key])
			} else {
				merged, err = copyValue(keyPath, in[key])
			}
			if err != nil {
				return nil, err
			}
			out[key] = merged
		}
		return out, nil

	default:
		return nil, &MergeUnsupportedError{Path: path, Value: base}
	}
}

// copyValue deep-copies v, rejecting anything outside the value model.
func copyValue(path string, v any) (any, error) {
	switch t := v.(type) {
	case nil, string, bool, int64, float64:
		return t, nil
	case []any:
		out := make([]any, len(t))
		for i, elem := range t {
			c, err := copyValue(fmt.Sprintf("%s[%d]", path, i), elem)
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for key, elem := range t {
			c, err := copyValue(value.Join(path, key), elem)
			if err != nil {
				return nil, err
			}
			out[key] = c
		}
		return out, nil
	default:
		return nil, &MergeUnsupportedError{Path: path, Value: v}
	}
}

// Fold merges sources left to right with the default rules.
func Fold(sources []*Source) (any, error) {
	return Merger{}.Fold(sources)
}

// Fold merges sources left to right: the first source is the base and
// every later source is merged over the running result. Folding no
// sources yields an empty mapping.
func (m Merger) Fold(sources []*Source) (any, error) {
	var result any = map[string]any{}

	for i, src := range sources {
		var err error
		if i == 0 {
			result, err = copyValue("", src.Data)
		} else {
			result, err = m.Merge(result, src.Data)
		}
		if err != nil {
			return nil, annotateOrigin(err, src.Origin)
		}
	}

	return result, nil
}

func annotateOrigin(err error, origin string) error {
	var typeErr *MergeTypeError
	if errors.As(err, &typeErr) {
		typeErr.Origin = origin
		return typeErr
	}
	var unsupported *MergeUnsupportedError
	if errors.As(err, &unsupported) {
		unsupported.Origin = origin
		return unsupported
	}
	return fmt.Errorf("merging %s: %w", origin, err)
}

// GetByPath retrieves a value from a tree using a dot-separated path.
// Only mappings are descended; a path through a scalar or sequence, or a
// missing key, reports false.
func GetByPath(tree any, path string) (any, bool) {
	current := tree

	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		val, exists := m[part]
		if !exists {
			return nil, false
		}

		current = val
	}

	return current, true
}

// Get returns the value at path, or def when the path does not resolve.
func Get(tree any, path string, def any) any {
	if v, ok := GetByPath(tree, path); ok {
		return v
	}
	return def
}

// FlattenMap flattens a nested tree into a single-level map with
// dot-separated keys. Empty mappings are kept as leaves.
func FlattenMap(tree any) map[string]any {
	result := make(map[string]any)
	if m, ok := tree.(map[string]any); ok {
		flattenMapRecursive(m, "", result)
	}
	return result
}

func flattenMapRecursive(data map[string]any, prefix string, result map[string]any) {
	for key, val := range data {
		fullKey := value.Join(prefix, key)

		if nested, ok := val.(map[string]any); ok && len(nested) > 0 {
			flattenMapRecursive(nested, fullKey, result)
		} else {
			result[fullKey] = val
		}
	}
}

// Keys returns the sorted dotted leaf paths of a tree.
func Keys(tree any) []string {
	return slices.Sorted(maps.Keys(FlattenMap(tree)))
}

// DiffMaps returns the leaf paths that differ between two trees, each
// list sorted.
func DiffMaps(old, new any) (added, modified, removed []string) {
	oldFlat := FlattenMap(old)
	newFlat := FlattenMap(new)

	for path, newVal := range newFlat {
		if oldVal, exists := oldFlat[path]; exists {
			if !value.Equal(oldVal, newVal) {
				modified = append(modified, path)
			}
		} else {
			added = append(added, path)
		}
	}

	for path := range oldFlat {
		if _, exists := newFlat[path]; !exists {
			removed = append(removed, path)
		}
	}

	slices.Sort(added)
	slices.Sort(modified)
	slices.Sort(removed)
	return added, modified, removed
}
