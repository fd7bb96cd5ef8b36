// Package task implements the loom task graph: a registry of named task
// definitions, a dependency resolver that orders prerequisites before
// dependents, and a runner that executes a resolved sequence one task at a
// time.
package task

import "context"

// Action is the work a task performs. Actions block until the work is done
// and report failure through the returned error. The context is cancelled
// on process-wide shutdown.
type Action func(ctx context.Context) error

// Def is an immutable task definition. Definitions are registered once at
// startup configuration time and never mutated afterward.
type Def struct {
	// Name uniquely identifies the task.
	Name string

	// Summary is a one-line description shown by `loom list`.
	Summary string

	// Deps are prerequisite task names, executed in declaration order
	// before this task's action runs.
	Deps []string

	// Action performs the task's work. A nil Action marks a pure
	// composite: its deps run and the task itself is a no-op.
	Action Action

	// Nofail marks the task best-effort: an Action error is reported and
	// absorbed instead of aborting the run.
	Nofail bool
}
