package task

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for task graph configuration defects. These are always
// fatal at registration or resolution time and are never suppressed by a
// best-effort task variant.
var (
	// ErrUnknownTask indicates a requested or prerequisite task is not registered.
	ErrUnknownTask = errors.New("unknown task")
	// ErrDuplicateTask indicates a task name was registered twice.
	ErrDuplicateTask = errors.New("duplicate task")
	// ErrDependencyCycle indicates the prerequisite graph contains a cycle.
	ErrDependencyCycle = errors.New("dependency cycle detected")
)

// UnknownTaskError reports a task name that is not registered, and the
// dependent task that referenced it when reached through a prerequisite list.
type UnknownTaskError struct {
	Name         string
	ReferencedBy string
}

// Error returns the formatted error message.
func (e *UnknownTaskError) Error() string {
	if e.ReferencedBy != "" {
		return fmt.Sprintf("unknown task %q (prerequisite of %q)", e.Name, e.ReferencedBy)
	}
	return fmt.Sprintf("unknown task %q", e.Name)
}

// Unwrap makes the error match ErrUnknownTask via errors.Is.
func (e *UnknownTaskError) Unwrap() error { return ErrUnknownTask }

// CycleError reports a prerequisite cycle with the path that closes it.
type CycleError struct {
	// Path lists the task names along the cycle, first and last entries equal.
	Path []string
}

// Error returns the formatted error message.
func (e *CycleError) Error() string {
	if len(e.Path) == 0 {
		return ErrDependencyCycle.Error()
	}
	return fmt.Sprintf("%s: %s", ErrDependencyCycle.Error(), strings.Join(e.Path, " -> "))
}

// Unwrap makes the error match ErrDependencyCycle via errors.Is.
func (e *CycleError) Unwrap() error { return ErrDependencyCycle }
