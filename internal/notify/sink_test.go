package notify

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jmallard/loom/internal/event"
	"github.com/jmallard/loom/internal/logging"
)

func TestReportWritesMessageAndBell(t *testing.T) {
	var out bytes.Buffer
	sink := NewSink(&out, true, logging.NopLogger())

	sink.Report(errors.New("stylelint exited with code 2"))

	got := out.String()
	if !strings.Contains(got, "stylelint exited with code 2") {
		t.Errorf("report missing error message: %q", got)
	}
	if !strings.Contains(got, "\a") {
		t.Errorf("report missing bell: %q", got)
	}
}

func TestReportWithoutBell(t *testing.T) {
	var out bytes.Buffer
	sink := NewSink(&out, false, logging.NopLogger())

	sink.Report(errors.New("boom"))

	if strings.Contains(out.String(), "\a") {
		t.Errorf("bell emitted while disabled: %q", out.String())
	}
}

func TestReportNilIsNoop(t *testing.T) {
	var out bytes.Buffer
	sink := NewSink(&out, true, logging.NopLogger())

	sink.Report(nil)

	if out.Len() != 0 {
		t.Errorf("nil report produced output: %q", out.String())
	}
}

func TestConsolePrintsLifecycle(t *testing.T) {
	var out bytes.Buffer
	bus := event.NewBus()
	detach := NewConsole(&out).Attach(bus)
	defer detach()

	bus.Publish(event.NewRunStartedEvent("default", []string{"styles", "default"}))
	bus.Publish(event.NewTaskStartedEvent("styles"))
	bus.Publish(event.NewTaskSucceededEvent("styles", 120*time.Millisecond))
	bus.Publish(event.NewTaskAbsorbedEvent("lint-nofail", errors.New("exit status 1")))
	bus.Publish(event.NewRunFinishedEvent("default", nil, time.Second))

	got := out.String()
	for _, want := range []string{"default", "styles", "lint-nofail", "continuing"} {
		if !strings.Contains(got, want) {
			t.Errorf("console output missing %q:\n%s", want, got)
		}
	}
}

func TestConsoleDetachStopsOutput(t *testing.T) {
	var out bytes.Buffer
	bus := event.NewBus()
	detach := NewConsole(&out).Attach(bus)
	detach()

	bus.Publish(event.NewTaskStartedEvent("styles"))

	if out.Len() != 0 {
		t.Errorf("detached console still printed: %q", out.String())
	}
}
