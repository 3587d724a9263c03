package loader

import (
	"errors"
	"fmt"

	"github.com/dshills/mergecfg/internal/config/value"
)

// ErrUnreadableSource is matched by every *UnreadableSourceError.
var ErrUnreadableSource = errors.New("unreadable configuration source")

// Reason categorizes why a source could not be loaded.
type Reason string

const (
	// ReasonNotFound indicates the path does not exist.
	ReasonNotFound Reason = "not_found"
	// ReasonNotAFile indicates the path is a directory or special file.
	ReasonNotAFile Reason = "not_a_file"
	// ReasonNoExtension indicates the path has no file extension.
	ReasonNoExtension Reason = "no_extension"
	// ReasonUnsupportedExtension indicates no loader is registered for
	// the extension.
	ReasonUnsupportedExtension Reason = "unsupported_extension"
	// ReasonRead indicates an I/O failure.
	ReasonRead Reason = "read"
	// ReasonParse indicates the content is not valid in its format.
	ReasonParse Reason = "parse"
	// ReasonPattern indicates a malformed glob pattern.
	ReasonPattern Reason = "pattern"
)

// UnreadableSourceError reports a single source that could not be loaded.
type UnreadableSourceError struct {
	// Path is the file path or pattern.
	Path string
	// Reason categorizes the failure.
	Reason Reason
	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *UnreadableSourceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("unreadable source %s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("unreadable source %s: %s: %v", e.Path, e.Reason, e.Err)
}

// Unwrap returns the underlying error.
func (e *UnreadableSourceError) Unwrap() error {
	return e.Err
}

// Is implements error matching for UnreadableSourceError.
func (e *UnreadableSourceError) Is(target error) bool {
	return target == ErrUnreadableSource
}

// ParseError represents an error while parsing a configuration file.
type ParseError struct {
	Path    string
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("parse error in %s at line %d, column %d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s at line %d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// document converts raw parser output into a canonical tree. A nil
// document (empty file) becomes an empty mapping.
func document(source string, raw any) (any, error) {
	if raw == nil {
		return map[string]any{}, nil
	}

	v, err := value.Normalize(raw)
	if err != nil {
		return nil, &ParseError{
			Path:    source,
			Message: err.Error(),
			Err:     err,
		}
	}
	return v, nil
}
