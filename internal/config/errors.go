package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoSourcesResolved is matched by every *NoSourcesResolvedError.
var ErrNoSourcesResolved = errors.New("no configuration sources resolved")

// NoSourcesResolvedError reports a load in which no file source could be
// loaded, either because the patterns matched nothing or because every
// match failed. Returned only with WithRequireSources(true).
type NoSourcesResolvedError struct {
	// Patterns are the patterns that were expanded.
	Patterns []string
	// Failures are the per-source errors, if any.
	Failures []error
}

// Error implements the error interface.
func (e *NoSourcesResolvedError) Error() string {
	msg := fmt.Sprintf("no configuration sources resolved from [%s]", strings.Join(e.Patterns, ", "))
	if n := len(e.Failures); n > 0 {
		msg += fmt.Sprintf(" (%d unreadable)", n)
	}
	return msg
}

// Is implements error matching for NoSourcesResolvedError.
func (e *NoSourcesResolvedError) Is(target error) bool {
	return target == ErrNoSourcesResolved
}

// Unwrap returns the per-source failures.
func (e *NoSourcesResolvedError) Unwrap() []error {
	return e.Failures
}
