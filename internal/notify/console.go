package notify

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jmallard/loom/internal/event"
)

var (
	taskName  = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	okMark    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failMark  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	skipMark  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	dimDetail = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Console prints run progress lines for bus events. It subscribes to the
// task lifecycle events the runner publishes, keeping the runner free of
// any presentation concerns.
type Console struct {
	out io.Writer
}

// NewConsole creates a Console writing to out.
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

// Attach subscribes the console to bus. The returned function detaches it.
func (c *Console) Attach(bus *event.Bus) func() {
	ids := []string{
		bus.Subscribe("run.started", c.handle),
		bus.Subscribe("task.started", c.handle),
		bus.Subscribe("task.succeeded", c.handle),
		bus.Subscribe("task.failed", c.handle),
		bus.Subscribe("task.absorbed", c.handle),
		bus.Subscribe("run.finished", c.handle),
		bus.Subscribe("watch.triggered", c.handle),
	}
	return func() {
		for _, id := range ids {
			bus.Unsubscribe(id)
		}
	}
}

func (c *Console) handle(e event.Event) {
	switch ev := e.(type) {
	case event.RunStartedEvent:
		fmt.Fprintf(c.out, "Running %s %s\n",
			taskName.Render(ev.Target),
			dimDetail.Render(fmt.Sprintf("(%d steps)", len(ev.Order))))
	case event.TaskStartedEvent:
		fmt.Fprintf(c.out, "  %s %s\n", dimDetail.Render("→"), ev.Task)
	case event.TaskSucceededEvent:
		fmt.Fprintf(c.out, "  %s %s %s\n",
			okMark.Render("✓"), ev.Task,
			dimDetail.Render(ev.Duration.Round(time.Millisecond).String()))
	case event.TaskFailedEvent:
		fmt.Fprintf(c.out, "  %s %s: %v\n", failMark.Render("✗"), ev.Task, ev.Err)
	case event.TaskAbsorbedEvent:
		fmt.Fprintf(c.out, "  %s %s (continuing): %v\n", skipMark.Render("!"), ev.Task, ev.Err)
	case event.RunFinishedEvent:
		if ev.Err != nil {
			fmt.Fprintf(c.out, "%s %s after %s\n",
				failMark.Render("✗"), ev.Target, ev.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(c.out, "%s %s in %s\n",
				okMark.Render("✓"), ev.Target, ev.Duration.Round(time.Millisecond))
		}
	case event.WatchTriggeredEvent:
		fmt.Fprintf(c.out, "%s %s → %v\n", dimDetail.Render("watch:"), ev.Path, ev.Tasks)
	}
}
