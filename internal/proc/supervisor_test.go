//go:build unix

package proc

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jmallard/loom/internal/logging"
)

func newTestSupervisor(out *bytes.Buffer) *Supervisor {
	return New(logging.NopLogger(),
		WithOutput(out, out),
		WithKillGrace(200*time.Millisecond))
}

func TestCommandSuccess(t *testing.T) {
	var out bytes.Buffer
	sup := newTestSupervisor(&out)
	defer sup.Shutdown()

	if err := sup.Command(context.Background(), "sh", "-c", "echo compiled"); err != nil {
		t.Fatalf("Command failed: %v", err)
	}
	if !strings.Contains(out.String(), "compiled") {
		t.Errorf("stdout not passed through: %q", out.String())
	}
}

func TestCommandNonZeroExit(t *testing.T) {
	var out bytes.Buffer
	sup := newTestSupervisor(&out)
	defer sup.Shutdown()

	err := sup.Command(context.Background(), "sh", "-c", "exit 3")
	if !errors.Is(err, ErrToolFailed) {
		t.Fatalf("Command = %v, want ErrToolFailed", err)
	}

	var toolErr *ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("error is not *ToolError: %v", err)
	}
	if toolErr.Code != 3 {
		t.Errorf("Code = %d, want 3", toolErr.Code)
	}
}

func TestCommandSpawnFailure(t *testing.T) {
	var out bytes.Buffer
	sup := newTestSupervisor(&out)
	defer sup.Shutdown()

	err := sup.Command(context.Background(), "definitely-not-a-real-tool-xyz")
	if !errors.Is(err, ErrToolFailed) {
		t.Fatalf("Command = %v, want ErrToolFailed", err)
	}

	var toolErr *ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("error is not *ToolError: %v", err)
	}
	if toolErr.Code != -1 {
		t.Errorf("Code = %d, want -1 for spawn failure", toolErr.Code)
	}
}

func TestLiveSetTracksChildren(t *testing.T) {
	var out bytes.Buffer
	sup := newTestSupervisor(&out)
	defer sup.Shutdown()

	child, err := sup.Start(context.Background(), "sleep", "10")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if n := sup.LiveCount(); n != 1 {
		t.Errorf("LiveCount = %d, want 1", n)
	}
	if !child.Alive() {
		t.Error("child not alive after Start")
	}

	if err := child.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if n := sup.LiveCount(); n != 0 {
		t.Errorf("LiveCount after Stop = %d, want 0", n)
	}
}

func TestChildRemovedFromLiveSetOnExit(t *testing.T) {
	var out bytes.Buffer
	sup := newTestSupervisor(&out)
	defer sup.Shutdown()

	child, err := sup.Start(context.Background(), "sh", "-c", "true")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := child.Wait(); err != nil {
		t.Fatalf("Wait = %v, want nil", err)
	}
	if n := sup.LiveCount(); n != 0 {
		t.Errorf("LiveCount after exit = %d, want 0", n)
	}
}

func TestShutdownTerminatesAllLiveChildren(t *testing.T) {
	var out bytes.Buffer
	sup := newTestSupervisor(&out)

	const n = 3
	children := make([]*Child, 0, n)
	for i := 0; i < n; i++ {
		child, err := sup.Start(context.Background(), "sleep", "30")
		if err != nil {
			t.Fatalf("Start %d failed: %v", i, err)
		}
		children = append(children, child)
	}
	if got := sup.LiveCount(); got != n {
		t.Fatalf("LiveCount = %d, want %d", got, n)
	}

	done := make(chan struct{})
	go func() {
		sup.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Shutdown did not complete")
	}

	for i, child := range children {
		if child.Alive() {
			t.Errorf("child %d still alive after Shutdown", i)
		}
	}
	if got := sup.LiveCount(); got != 0 {
		t.Errorf("LiveCount after Shutdown = %d, want 0", got)
	}
}

func TestStartAfterShutdownRefused(t *testing.T) {
	var out bytes.Buffer
	sup := newTestSupervisor(&out)
	sup.Shutdown()

	if _, err := sup.Start(context.Background(), "sh", "-c", "true"); err == nil {
		t.Error("expected error starting after Shutdown")
	}
}

func TestCommandContextCancellation(t *testing.T) {
	var out bytes.Buffer
	sup := newTestSupervisor(&out)
	defer sup.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := sup.Command(ctx, "sleep", "30")
	if err == nil {
		t.Fatal("expected error from cancelled command")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("cancelled command took %v", elapsed)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"tool exit code", &ToolError{Tool: "stylelint", Code: 2}, 2},
		{"spawn failure", &ToolError{Tool: "sassc", Code: -1}, 1},
		{"generic error", errors.New("boom"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode = %d, want %d", got, tt.want)
			}
		})
	}
}
