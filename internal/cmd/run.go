package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmallard/loom/internal/config"
	"github.com/jmallard/loom/internal/event"
	"github.com/jmallard/loom/internal/logging"
	"github.com/jmallard/loom/internal/notify"
	"github.com/jmallard/loom/internal/pipeline"
	"github.com/jmallard/loom/internal/proc"
	"github.com/jmallard/loom/internal/task"
	"github.com/jmallard/loom/internal/watch"
)

var runCmd = &cobra.Command{
	Use:   "run [task...]",
	Short: "Run tasks with their prerequisites",
	Long: `Run executes the named tasks in order, each preceded by its
prerequisites. With no arguments it runs the "default" task. Shared
prerequisites execute once per invocation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			args = []string{"default"}
		}
		return runTasks(cmd.Context(), args)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// runTasks wires the full pipeline (config, logger, bus, supervisor,
// sink, registry, runner, watch session) and runs the named tasks.
func runTasks(ctx context.Context, names []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	bus := event.NewBus()
	sup := proc.New(log)
	defer sup.Shutdown()

	sink := notify.NewSink(os.Stderr, cfg.Notify.Bell, log)
	detach := notify.NewConsole(os.Stdout).Attach(bus)
	defer detach()

	reg := task.NewRegistry()
	pipe := pipeline.New(cfg, sup, log)
	if err := pipe.Register(reg); err != nil {
		return err
	}
	runner := task.NewRunner(reg, bus, sink, log)
	pipe.SetWatchSession(watchSession(cfg, runner, sink, bus, log))

	// Interrupts cancel the run; the deferred Shutdown then reaps any
	// tool still running.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	for _, name := range names {
		if err := runner.Run(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// watchSession returns the long-running watch loop used by the watch,
// serve and dev tasks. Trigger errors are reported, not fatal: a broken
// build must not end the session.
func watchSession(cfg *config.Config, runner *task.Runner, sink *notify.Sink, bus *event.Bus, log *logging.Logger) func(context.Context) error {
	return func(ctx context.Context) error {
		trigger := func(ctx context.Context, path string, tasks []string) {
			for _, name := range tasks {
				if err := runner.Run(ctx, name); err != nil {
					sink.Report(err)
				}
			}
		}

		w, err := watch.New(".", watch.Config{
			Debounce:   cfg.Watch.Debounce(),
			MinSpacing: cfg.Watch.MinSpacing(),
		}, trigger, bus, log)
		if err != nil {
			return err
		}

		for _, b := range pipeline.Bindings(cfg) {
			if err := w.Add(b); err != nil {
				return err
			}
		}
		return w.Run(ctx)
	}
}

func newLogger(cfg *config.Config) (*logging.Logger, error) {
	if !cfg.Logging.Enabled {
		return logging.NopLogger(), nil
	}
	return logging.NewLogger(cfg.Logging.File, cfg.Logging.Level, cfg.Logging.Rotation())
}
