package proc

import (
	"errors"
	"fmt"
	"strings"
)

// ErrToolFailed is the sentinel all tool-execution failures match via
// errors.Is.
var ErrToolFailed = errors.New("tool execution failed")

// ToolError reports an external tool that exited non-zero or failed to
// spawn at all.
type ToolError struct {
	// Tool is the command name as invoked.
	Tool string
	// Args are the command arguments.
	Args []string
	// Code is the tool's exit code. It is -1 when the process never ran
	// (spawn failure) or was killed by a signal.
	Code int

	cause error
}

// Error returns the formatted error message.
func (e *ToolError) Error() string {
	cmd := e.Tool
	if len(e.Args) > 0 {
		cmd = e.Tool + " " + strings.Join(e.Args, " ")
	}
	if e.Code >= 0 {
		return fmt.Sprintf("%s: %s exited with code %d", ErrToolFailed.Error(), cmd, e.Code)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", ErrToolFailed.Error(), cmd, e.cause)
	}
	return fmt.Sprintf("%s: %s", ErrToolFailed.Error(), cmd)
}

// Unwrap returns the underlying error, if any.
func (e *ToolError) Unwrap() error {
	if e.cause != nil {
		return e.cause
	}
	return ErrToolFailed
}

// Is makes the error match ErrToolFailed via errors.Is regardless of cause.
func (e *ToolError) Is(target error) bool {
	return target == ErrToolFailed
}

// ExitCode extracts the process exit code to propagate from err: a
// ToolError's tool exit code when it carries one, otherwise the generic
// failure code 1. A nil err yields 0.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var toolErr *ToolError
	if errors.As(err, &toolErr) && toolErr.Code > 0 {
		return toolErr.Code
	}
	return 1
}
