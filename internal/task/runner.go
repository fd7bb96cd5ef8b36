package task

import (
	"context"
	"fmt"
	"time"

	"github.com/jmallard/loom/internal/event"
	"github.com/jmallard/loom/internal/logging"
)

// Reporter receives errors that a best-effort task absorbs. The notify
// package provides the production implementation.
type Reporter interface {
	Report(err error)
}

// Runner executes resolved task sequences. Execution is single-flight: one
// task action at a time, in resolved order, a task's action never starting
// before all of its prerequisites have completed.
type Runner struct {
	registry *Registry
	bus      *event.Bus
	sink     Reporter
	log      *logging.Logger
}

// NewRunner creates a Runner. bus and sink may not be nil; pass
// logging.NopLogger() to discard logs.
func NewRunner(registry *Registry, bus *event.Bus, sink Reporter, log *logging.Logger) *Runner {
	return &Runner{
		registry: registry,
		bus:      bus,
		sink:     sink,
		log:      log,
	}
}

// Run resolves name and executes the sequence. Each reachable task runs
// exactly once per call, even when several composites share it. The first
// fail-fast task error aborts the run, skipping every not-yet-started step;
// best-effort task errors are reported to the sink and absorbed so
// dependents still proceed.
func (r *Runner) Run(ctx context.Context, name string) error {
	order, err := r.registry.Resolve(name)
	if err != nil {
		return err
	}

	log := r.log.WithRun(name)
	log.Info("run started", "order", order)
	r.bus.Publish(event.NewRunStartedEvent(name, order))

	runStart := time.Now()
	runErr := r.runSequence(ctx, order, log)

	duration := time.Since(runStart)
	if runErr != nil {
		log.Error("run failed", "error", runErr.Error(), "duration", duration.String())
	} else {
		log.Info("run finished", "duration", duration.String())
	}
	r.bus.Publish(event.NewRunFinishedEvent(name, runErr, duration))
	return runErr
}

func (r *Runner) runSequence(ctx context.Context, order []string, log *logging.Logger) error {
	for _, step := range order {
		if err := ctx.Err(); err != nil {
			return err
		}

		def, err := r.registry.Get(step)
		if err != nil {
			return err
		}

		r.bus.Publish(event.NewTaskStartedEvent(step))
		taskLog := log.WithTask(step)
		taskLog.Debug("task started")

		start := time.Now()
		actErr := r.runAction(ctx, def)
		elapsed := time.Since(start)

		if actErr == nil {
			taskLog.Info("task succeeded", "duration", elapsed.String())
			r.bus.Publish(event.NewTaskSucceededEvent(step, elapsed))
			continue
		}

		if def.Nofail {
			taskLog.Warn("task failed, continuing", "error", actErr.Error())
			r.sink.Report(fmt.Errorf("task %q: %w", step, actErr))
			r.bus.Publish(event.NewTaskAbsorbedEvent(step, actErr))
			continue
		}

		taskLog.Error("task failed", "error", actErr.Error())
		r.bus.Publish(event.NewTaskFailedEvent(step, actErr))
		return fmt.Errorf("task %q: %w", step, actErr)
	}
	return nil
}

// runAction invokes the task's action, converting a panic into an error so
// a misbehaving action cannot take down a watch session.
func (r *Runner) runAction(ctx context.Context, def *Def) (err error) {
	if def.Action == nil {
		return nil
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("task action panicked: %v", rec)
		}
	}()
	return def.Action(ctx)
}
