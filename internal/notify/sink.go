// Package notify renders user-visible failure reports and run progress.
// The Sink is the error/notification sink of the pipeline: best-effort
// task failures are routed here, logged, and announced with a styled
// banner and an optional terminal bell.
package notify

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/jmallard/loom/internal/logging"
)

var (
	errorBanner = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)
	errorDetail = lipgloss.NewStyle().
			Foreground(lipgloss.Color("1"))
)

// Sink receives failure reports. Propagation policy lives with the caller:
// fail-fast tasks let the error abort the run, best-effort tasks call
// Report and continue.
type Sink struct {
	out  io.Writer
	bell bool
	log  *logging.Logger
}

// NewSink creates a Sink writing styled reports to out.
func NewSink(out io.Writer, bell bool, log *logging.Logger) *Sink {
	return &Sink{out: out, bell: bell, log: log}
}

// Report logs a human-readable message for err and emits the alert.
func (s *Sink) Report(err error) {
	if err == nil {
		return
	}
	s.log.Error("pipeline error reported", "error", err.Error())

	fmt.Fprintf(s.out, "%s %s\n",
		errorBanner.Render("✗ error:"),
		errorDetail.Render(err.Error()))
	if s.bell {
		fmt.Fprint(s.out, "\a")
	}
}
