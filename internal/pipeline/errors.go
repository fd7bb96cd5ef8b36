package pipeline

import (
	"errors"
	"fmt"
)

// ErrLintViolations indicates a linter found problems with the sources.
var ErrLintViolations = errors.New("lint violations found")

// LintError wraps a linter failure so callers can distinguish "the code
// has problems" from "the tool could not run".
type LintError struct {
	// Tool is the linter command that reported violations.
	Tool  string
	cause error
}

func (e *LintError) Error() string {
	return fmt.Sprintf("%s reported violations: %v", e.Tool, e.cause)
}

func (e *LintError) Unwrap() error { return e.cause }

func (e *LintError) Is(target error) bool { return target == ErrLintViolations }

// CleanupError indicates the dist tree could not be removed.
type CleanupError struct {
	// Path is the directory that failed to delete.
	Path  string
	cause error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("failed to remove %s: %v", e.Path, e.cause)
}

func (e *CleanupError) Unwrap() error { return e.cause }
