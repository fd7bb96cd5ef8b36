package task

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/jmallard/loom/internal/event"
	"github.com/jmallard/loom/internal/logging"
)

// recordingSink captures reported errors for assertions.
type recordingSink struct {
	reported []error
}

func (s *recordingSink) Report(err error) {
	s.reported = append(s.reported, err)
}

// traceAction registers the task name on execution.
func traceAction(trace *[]string, name string, err error) Action {
	return func(context.Context) error {
		*trace = append(*trace, name)
		return err
	}
}

func newTestRunner(reg *Registry) (*Runner, *recordingSink, *event.Bus) {
	sink := &recordingSink{}
	bus := event.NewBus()
	return NewRunner(reg, bus, sink, logging.NopLogger()), sink, bus
}

func TestRunExecutesInResolvedOrder(t *testing.T) {
	var trace []string
	reg := buildRegistry(t, []Def{
		{Name: "a", Action: traceAction(&trace, "a", nil)},
		{Name: "b", Deps: []string{"a"}, Action: traceAction(&trace, "b", nil)},
		{Name: "c", Deps: []string{"a", "b"}, Action: traceAction(&trace, "c", nil)},
	})
	runner, _, _ := newTestRunner(reg)

	if err := runner.Run(context.Background(), "c"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(trace, want) {
		t.Errorf("execution order = %v, want %v", trace, want)
	}
}

func TestRunFailFastHaltsSequence(t *testing.T) {
	boom := errors.New("exit status 2")
	var trace []string
	reg := buildRegistry(t, []Def{
		{Name: "ok", Action: traceAction(&trace, "ok", nil)},
		{Name: "bad", Deps: []string{"ok"}, Action: traceAction(&trace, "bad", boom)},
		{Name: "after", Deps: []string{"bad"}, Action: traceAction(&trace, "after", nil)},
	})
	runner, sink, _ := newTestRunner(reg)

	err := runner.Run(context.Background(), "after")
	if !errors.Is(err, boom) {
		t.Fatalf("Run = %v, want wrapped %v", err, boom)
	}
	want := []string{"ok", "bad"}
	if !reflect.DeepEqual(trace, want) {
		t.Errorf("execution order = %v, want %v (no step after the failure)", trace, want)
	}
	if len(sink.reported) != 0 {
		t.Errorf("fail-fast error reached the sink: %v", sink.reported)
	}
}

func TestRunNofailContinuesAndReportsSuccess(t *testing.T) {
	boom := errors.New("exit status 1")
	var trace []string
	reg := buildRegistry(t, []Def{
		{Name: "lint-nofail", Nofail: true, Action: traceAction(&trace, "lint-nofail", boom)},
		{Name: "build", Deps: []string{"lint-nofail"}, Action: traceAction(&trace, "build", nil)},
	})
	runner, sink, _ := newTestRunner(reg)

	if err := runner.Run(context.Background(), "build"); err != nil {
		t.Fatalf("Run = %v, want nil (best-effort failure absorbed)", err)
	}
	want := []string{"lint-nofail", "build"}
	if !reflect.DeepEqual(trace, want) {
		t.Errorf("execution order = %v, want %v", trace, want)
	}
	if len(sink.reported) != 1 || !errors.Is(sink.reported[0], boom) {
		t.Errorf("sink reports = %v, want the absorbed error", sink.reported)
	}
}

func TestRunCompositeWithNilAction(t *testing.T) {
	var trace []string
	reg := buildRegistry(t, []Def{
		{Name: "styles", Action: traceAction(&trace, "styles", nil)},
		{Name: "minify", Action: traceAction(&trace, "minify", nil)},
		{Name: "docs", Deps: []string{"styles", "minify"}}, // pure composite
	})
	runner, _, _ := newTestRunner(reg)

	if err := runner.Run(context.Background(), "docs"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	want := []string{"styles", "minify"}
	if !reflect.DeepEqual(trace, want) {
		t.Errorf("execution order = %v, want %v", trace, want)
	}
}

func TestRunSharedPrerequisiteRunsOncePerInvocation(t *testing.T) {
	var trace []string
	reg := buildRegistry(t, []Def{
		{Name: "styles", Action: traceAction(&trace, "styles", nil)},
		{Name: "docs", Deps: []string{"styles"}, Action: traceAction(&trace, "docs", nil)},
		{Name: "default", Deps: []string{"docs", "styles"}},
	})
	runner, _, _ := newTestRunner(reg)

	if err := runner.Run(context.Background(), "default"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	want := []string{"styles", "docs"}
	if !reflect.DeepEqual(trace, want) {
		t.Errorf("execution order = %v, want %v", trace, want)
	}
}

func TestRunUnknownTask(t *testing.T) {
	reg := NewRegistry()
	runner, _, _ := newTestRunner(reg)

	err := runner.Run(context.Background(), "ghost")
	if !errors.Is(err, ErrUnknownTask) {
		t.Errorf("Run = %v, want ErrUnknownTask", err)
	}
}

func TestRunCancelledContextStopsBetweenTasks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var trace []string
	reg := buildRegistry(t, []Def{
		{Name: "first", Action: func(context.Context) error {
			trace = append(trace, "first")
			cancel()
			return nil
		}},
		{Name: "second", Deps: []string{"first"}, Action: traceAction(&trace, "second", nil)},
	})
	runner, _, _ := newTestRunner(reg)

	err := runner.Run(ctx, "second")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v, want context.Canceled", err)
	}
	if len(trace) != 1 {
		t.Errorf("execution order = %v, want only the first task", trace)
	}
}

func TestRunPublishesLifecycleEvents(t *testing.T) {
	boom := errors.New("exit status 3")
	reg := buildRegistry(t, []Def{
		{Name: "warmup", Nofail: true, Action: func(context.Context) error { return boom }},
		{Name: "build", Deps: []string{"warmup"}, Action: func(context.Context) error { return nil }},
	})
	runner, _, bus := newTestRunner(reg)

	var types []string
	bus.SubscribeAll(func(e event.Event) {
		types = append(types, e.EventType())
	})

	if err := runner.Run(context.Background(), "build"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []string{
		"run.started",
		"task.started", "task.absorbed",
		"task.started", "task.succeeded",
		"run.finished",
	}
	if !reflect.DeepEqual(types, want) {
		t.Errorf("event sequence = %v, want %v", types, want)
	}
}

func TestRunRecoversPanickingAction(t *testing.T) {
	reg := buildRegistry(t, []Def{
		{Name: "explode", Action: func(context.Context) error { panic("kaboom") }},
	})
	runner, _, _ := newTestRunner(reg)

	err := runner.Run(context.Background(), "explode")
	if err == nil {
		t.Fatal("expected error from panicking action")
	}
}
