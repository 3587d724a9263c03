package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/dshills/mergecfg/internal/config"
	"github.com/dshills/mergecfg/internal/config/layer"
)

// ExitCode is the process exit status for an error.
type ExitCode int

const (
	ExitOK       ExitCode = 0
	ExitError    ExitCode = 1
	ExitNotFound ExitCode = 3
	ExitConfig   ExitCode = 4
)

// KeyNotFoundError reports a path missing from the merged configuration.
type KeyNotFoundError struct {
	Path string
}

// Error implements the error interface.
func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("key not found: %s", e.Path)
}

// HandleError prints err to w and returns the exit code for it.
func HandleError(w io.Writer, err error) ExitCode {
	if err == nil {
		return ExitOK
	}

	fmt.Fprintf(w, "Error: %v\n", err)

	var notFound *KeyNotFoundError
	switch {
	case errors.As(err, &notFound):
		return ExitNotFound
	case errors.Is(err, config.ErrNoSourcesResolved),
		errors.Is(err, layer.ErrMergeConflict),
		errors.Is(err, layer.ErrMergeUnsupported):
		return ExitConfig
	default:
		return ExitError
	}
}
