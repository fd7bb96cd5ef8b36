// Package proc supervises the external tool processes loom spawns. Every
// child is tracked in a live-process set for its lifetime so that a
// process-wide shutdown can terminate stragglers and leave no orphan
// behind the parent.
package proc

import (
	"context"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/jmallard/loom/internal/logging"
)

// DefaultKillGrace is how long Shutdown and Stop wait between the polite
// termination signal and the forced kill.
const DefaultKillGrace = 2 * time.Second

// Supervisor spawns external commands with stdio passthrough and maintains
// the process-wide set of live children. It is constructed explicitly at
// program start (empty set) and torn down once via Shutdown.
type Supervisor struct {
	mu        sync.Mutex
	live      map[*Child]struct{}
	log       *logging.Logger
	stdout    io.Writer
	stderr    io.Writer
	killGrace time.Duration
	closed    bool
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithOutput redirects child stdout/stderr, primarily for tests.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(s *Supervisor) {
		s.stdout = stdout
		s.stderr = stderr
	}
}

// WithKillGrace overrides the SIGTERM-to-SIGKILL grace period.
func WithKillGrace(d time.Duration) Option {
	return func(s *Supervisor) {
		s.killGrace = d
	}
}

// New creates a Supervisor with an empty live-process set.
func New(log *logging.Logger, opts ...Option) *Supervisor {
	s := &Supervisor{
		live:      make(map[*Child]struct{}),
		log:       log,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		killGrace: DefaultKillGrace,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Child is one spawned external command, owned by the supervisor's live
// set from spawn until exit.
type Child struct {
	cmd     *exec.Cmd
	sup     *Supervisor
	done    chan struct{}
	waitErr error
}

// Command runs an external tool to completion with stdio passthrough.
// A zero exit returns nil. A non-zero exit or spawn failure returns a
// *ToolError carrying the exit code; the caller (the task runner) decides
// whether that aborts the pipeline or is absorbed.
func (s *Supervisor) Command(ctx context.Context, name string, args ...string) error {
	child, err := s.Start(ctx, name, args...)
	if err != nil {
		return err
	}
	return child.Wait()
}

// Start spawns an external tool and returns without waiting. The child
// stays in the live set until it exits or is stopped; Shutdown will
// terminate it like any other straggler.
func (s *Supervisor) Start(ctx context.Context, name string, args ...string) (*Child, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = s.stdout
	cmd.Stderr = s.stderr

	child := &Child{
		cmd:  cmd,
		sup:  s,
		done: make(chan struct{}),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, &ToolError{Tool: name, Args: args, Code: -1, cause: context.Canceled}
	}
	s.live[child] = struct{}{}
	s.mu.Unlock()

	s.log.WithTool(name).Debug("spawning", "args", args)

	if err := cmd.Start(); err != nil {
		s.remove(child)
		return nil, &ToolError{Tool: name, Args: args, Code: -1, cause: err}
	}

	go child.reap()
	return child, nil
}

// reap waits for the child to exit and removes it from the live set.
func (c *Child) reap() {
	err := c.cmd.Wait()
	c.sup.remove(c)

	if err == nil {
		c.sup.log.WithTool(c.cmd.Path).Debug("exited cleanly")
		close(c.done)
		return
	}

	code := -1
	if exitErr, ok := err.(*exec.ExitError); ok {
		code = exitErr.ExitCode()
	}
	c.waitErr = &ToolError{
		Tool:  c.cmd.Args[0],
		Args:  c.cmd.Args[1:],
		Code:  code,
		cause: err,
	}
	close(c.done)
}

// Wait blocks until the child exits and returns nil on a zero exit code,
// or the *ToolError recorded by the reaper.
func (c *Child) Wait() error {
	<-c.done
	return c.waitErr
}

// Alive reports whether the child has not yet exited.
func (c *Child) Alive() bool {
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

// Stop terminates the child: polite signal first, forced kill after the
// grace period. Safe to call on an already-exited child.
func (c *Child) Stop() error {
	if !c.Alive() {
		return nil
	}
	c.signalTerm()

	select {
	case <-c.done:
		return nil
	case <-time.After(c.sup.killGrace):
	}

	_ = c.cmd.Process.Kill()
	<-c.done
	return nil
}

// signalTerm sends the platform's polite termination signal.
func (c *Child) signalTerm() {
	if c.cmd.Process == nil {
		return
	}
	if err := terminate(c.cmd.Process); err != nil {
		_ = c.cmd.Process.Kill()
	}
}

func (s *Supervisor) remove(c *Child) {
	s.mu.Lock()
	delete(s.live, c)
	s.mu.Unlock()
}

// LiveCount returns the number of children currently in the live set.
func (s *Supervisor) LiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

// Shutdown force-terminates every still-live child and blocks until all
// have exited. After Shutdown the supervisor refuses new spawns. It runs
// on normal exit and on SIGINT/SIGTERM so no child survives the parent.
func (s *Supervisor) Shutdown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	stragglers := make([]*Child, 0, len(s.live))
	for child := range s.live {
		stragglers = append(stragglers, child)
	}
	s.mu.Unlock()

	if len(stragglers) == 0 {
		return
	}
	s.log.Info("terminating live child processes", "count", len(stragglers))

	var wg sync.WaitGroup
	for _, child := range stragglers {
		wg.Add(1)
		go func(c *Child) {
			defer wg.Done()
			_ = c.Stop()
		}(child)
	}
	wg.Wait()
}
