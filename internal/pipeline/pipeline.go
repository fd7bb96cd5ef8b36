// Package pipeline defines the loom task graph: every task of the theme
// build workflow, from style compilation to documentation generation,
// registered against the task registry and backed by external tools run
// under the process supervisor.
package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/jmallard/loom/internal/config"
	"github.com/jmallard/loom/internal/logging"
	"github.com/jmallard/loom/internal/proc"
	"github.com/jmallard/loom/internal/server"
	"github.com/jmallard/loom/internal/task"
)

// Pipeline builds the task definitions for a configuration. The actual
// compilation, linting and minification work belongs to the configured
// external tools; the pipeline only invokes them in dependency order and
// forwards their exit codes.
type Pipeline struct {
	cfg *config.Config
	sup *proc.Supervisor
	log *logging.Logger

	// watchFn runs the watch session. It is wired by the command layer
	// after the runner exists, because the session triggers tasks back
	// through the runner.
	watchFn func(ctx context.Context) error
}

// New creates a Pipeline for cfg.
func New(cfg *config.Config, sup *proc.Supervisor, log *logging.Logger) *Pipeline {
	return &Pipeline{cfg: cfg, sup: sup, log: log}
}

// SetWatchSession wires the watch session used by the watch, serve and
// dev tasks.
func (p *Pipeline) SetWatchSession(fn func(ctx context.Context) error) {
	p.watchFn = fn
}

// Register adds every pipeline task to reg and validates the resulting
// graph. Fail-fast and best-effort variants share one underlying action;
// only the nofail flag differs.
func (p *Pipeline) Register(reg *task.Registry) error {
	defs := []task.Def{
		{
			Name:    "format",
			Summary: "format script sources in place",
			Action:  p.toolAction(p.cfg.Tools.Formatter, p.cfg.Paths.Scripts...),
		},
		{
			Name:    "lint",
			Summary: "lint script sources",
			Action:  p.lintAction(p.cfg.Tools.CodeLinter, p.cfg.Paths.Scripts...),
		},
		{
			Name:    "lint-nofail",
			Summary: "lint script sources, log violations and continue",
			Nofail:  true,
			Action:  p.lintAction(p.cfg.Tools.CodeLinter, p.cfg.Paths.Scripts...),
		},
		{
			Name:    "lint-styles",
			Summary: "lint style sources",
			Action:  p.lintAction(p.cfg.Tools.StyleLinter, p.cfg.Paths.Styles...),
		},
		{
			Name:    "lint-styles-nofail",
			Summary: "lint style sources, log violations and continue",
			Nofail:  true,
			Action:  p.lintAction(p.cfg.Tools.StyleLinter, p.cfg.Paths.Styles...),
		},
		{
			Name:    "styles",
			Summary: "compile styles into the dist tree",
			Action:  p.toolAction(p.cfg.Tools.StyleCompiler, append(p.cfg.Paths.Styles, p.cfg.Paths.Dist)...),
		},
		{
			Name:    "test-styles",
			Summary: "run style regression tests",
			Action:  p.toolAction(p.cfg.Tools.StyleTests),
		},
		{
			Name:    "test-scripts",
			Summary: "run script unit tests",
			Action:  p.toolAction(p.cfg.Tools.ScriptTests),
		},
		{
			Name:    "test-scripts-nofail",
			Summary: "run script unit tests, log failures and continue",
			Nofail:  true,
			Action:  p.toolAction(p.cfg.Tools.ScriptTests),
		},
		{
			Name:    "test",
			Summary: "run all test suites",
			Deps:    []string{"test-styles", "test-scripts"},
		},
		{
			Name:    "minify-scripts",
			Summary: "minify script sources into the dist tree",
			Action:  p.toolAction(p.cfg.Tools.ScriptMinifier, append(p.cfg.Paths.Scripts, p.cfg.Paths.Dist)...),
		},
		{
			Name:    "minify-icons",
			Summary: "optimize vector icons and build the sprite",
			Action:  p.toolAction(p.cfg.Tools.IconOptimizer, append(p.cfg.Paths.Icons, p.cfg.Paths.Dist)...),
		},
		{
			Name:    "compress-images",
			Summary: "compress raster images into the dist tree",
			Action:  p.toolAction(p.cfg.Tools.ImageCompressor, append(p.cfg.Paths.Images, p.cfg.Paths.Dist)...),
		},
		{
			Name:    "copy-fonts",
			Summary: "copy font files into the dist tree",
			Action:  p.copyFontsAction,
		},
		{
			Name:    "minify",
			Summary: "minify and copy all static assets",
			Deps:    []string{"minify-scripts", "minify-icons", "compress-images", "copy-fonts"},
		},
		{
			Name:    "docs",
			Summary: "generate the style documentation site",
			Deps:    []string{"styles", "minify"},
			Action:  p.docsAction,
		},
		{
			Name:    "clean",
			Summary: "remove the dist tree",
			Nofail:  true,
			Action:  p.cleanAction,
		},
		{
			Name:    "server",
			Summary: "serve the dist tree until interrupted",
			Action:  p.serverAction,
		},
		{
			Name:    "watch",
			Summary: "rebuild on source changes until interrupted",
			Action:  p.watchAction,
		},
		{
			Name:    "default",
			Summary: "full verification build",
			Deps:    []string{"docs", "lint", "lint-styles", "test"},
		},
		{
			Name:    "serve",
			Summary: "watch sources and serve the dist tree",
			Action:  p.serveAction,
		},
		{
			Name:    "dev",
			Summary: "format, best-effort lint, test, then watch",
			Deps:    []string{"format", "lint-nofail", "lint-styles-nofail", "test"},
			Action:  p.watchAction,
		},
	}

	for _, def := range defs {
		if err := reg.Register(def); err != nil {
			return err
		}
	}
	return reg.ValidateGraph()
}

// toolAction runs the tool with its base args plus extra.
func (p *Pipeline) toolAction(t config.Tool, extra ...string) task.Action {
	return func(ctx context.Context) error {
		args := make([]string, 0, len(t.Args)+len(extra))
		args = append(args, t.Args...)
		args = append(args, extra...)
		return p.sup.Command(ctx, t.Command, args...)
	}
}

// lintAction wraps a tool action so failures surface as LintError.
func (p *Pipeline) lintAction(t config.Tool, extra ...string) task.Action {
	run := p.toolAction(t, extra...)
	return func(ctx context.Context) error {
		if err := run(ctx); err != nil {
			return &LintError{Tool: t.Command, cause: err}
		}
		return nil
	}
}

func (p *Pipeline) cleanAction(context.Context) error {
	if err := os.RemoveAll(p.cfg.Paths.Dist); err != nil {
		return &CleanupError{Path: p.cfg.Paths.Dist, cause: err}
	}
	p.log.Info("removed dist tree", "path", p.cfg.Paths.Dist)
	return nil
}

// serverAction serves dist, either with the configured external dev
// server or the built-in static server.
func (p *Pipeline) serverAction(ctx context.Context) error {
	if t := p.cfg.Tools.DevServer; t.Command != "" {
		return p.sup.Command(ctx, t.Command, t.Args...)
	}
	srv := server.New(p.cfg.ServeRoot(), p.cfg.Server.Addr, p.log)
	return srv.Serve(ctx)
}

func (p *Pipeline) watchAction(ctx context.Context) error {
	if p.watchFn == nil {
		return fmt.Errorf("watch session not wired")
	}
	return p.watchFn(ctx)
}

// serveAction runs the watch session and the dev server side by side.
// Both are long-running; whichever stops first takes the other down.
func (p *Pipeline) serveAction(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() { errCh <- p.watchAction(ctx) }()
	go func() { errCh <- p.serverAction(ctx) }()

	err := <-errCh
	cancel()
	<-errCh
	return err
}
