// Package watch implements the loom watch engine: persistent bindings from
// path glob patterns to task names, driven by fsnotify filesystem events
// and debounced so a burst of events coalesces into a single trigger.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/jmallard/loom/internal/event"
	"github.com/jmallard/loom/internal/logging"
)

// EventMask selects which filesystem event kinds a binding reacts to.
type EventMask uint8

const (
	// Create matches newly added files.
	Create EventMask = 1 << iota
	// Write matches modified files.
	Write
	// Remove matches deleted files.
	Remove
	// Rename matches renamed files.
	Rename
)

// AllEvents matches every supported event kind.
const AllEvents = Create | Write | Remove | Rename

// Binding associates glob patterns with the tasks to run when a matching
// filesystem change occurs. Bindings are created at configuration time and
// immutable afterward.
type Binding struct {
	// Patterns are doublestar globs relative to the watch root.
	Patterns []string
	// Excludes are globs that suppress matches (editor/temp files).
	Excludes []string
	// Events restricts the event kinds that trigger this binding.
	// Zero means AllEvents.
	Events EventMask
	// Tasks are invoked, in order, when the binding fires.
	Tasks []string
}

// TriggerFunc is invoked when a binding's debounce window closes. path is
// the last matching path seen during the window.
type TriggerFunc func(ctx context.Context, path string, tasks []string)

// boundState pairs a Binding with its per-binding debounce state.
type boundState struct {
	Binding

	mu        sync.Mutex
	timer     *time.Timer
	pending   bool
	lastPath  string
	lastFired time.Time
}

// Watcher subscribes to filesystem changes under a root directory and
// dispatches matching events to bindings. Bindings trigger independently;
// there is no ordering between bindings reacting to unrelated changes.
type Watcher struct {
	root     string
	fsw      *fsnotify.Watcher
	bindings []*boundState
	trigger  TriggerFunc
	debounce time.Duration
	spacing  time.Duration
	bus      *event.Bus
	log      *logging.Logger

	mu     sync.Mutex
	closed bool
}

// Config holds watcher timing parameters.
type Config struct {
	// Debounce is the quiet window after an event before the trigger fires.
	Debounce time.Duration
	// MinSpacing is the minimum time between two triggers of one binding.
	MinSpacing time.Duration
}

// New creates a Watcher rooted at root. Bindings are added with Add before
// calling Run.
func New(root string, cfg Config, trigger TriggerFunc, bus *event.Bus, log *logging.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem watcher: %w", err)
	}

	if cfg.Debounce <= 0 {
		cfg.Debounce = 150 * time.Millisecond
	}

	return &Watcher{
		root:     root,
		fsw:      fsw,
		trigger:  trigger,
		debounce: cfg.Debounce,
		spacing:  cfg.MinSpacing,
		bus:      bus,
		log:      log,
	}, nil
}

// Add registers a binding. It validates that every pattern compiles.
func (w *Watcher) Add(b Binding) error {
	if len(b.Patterns) == 0 {
		return fmt.Errorf("watch binding needs at least one pattern")
	}
	if len(b.Tasks) == 0 {
		return fmt.Errorf("watch binding needs at least one task")
	}
	for _, pat := range append(append([]string{}, b.Patterns...), b.Excludes...) {
		if !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("invalid watch pattern %q", pat)
		}
	}
	if b.Events == 0 {
		b.Events = AllEvents
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.bindings = append(w.bindings, &boundState{Binding: b})
	return nil
}

// Run watches the directory tree under root until the context is
// cancelled. Directories created while running are added to the watch.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.watchTree(w.root); err != nil {
		return err
	}
	w.log.Info("watch session started", "root", w.root, "bindings", len(w.bindings))

	for {
		select {
		case <-ctx.Done():
			return w.Close()
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "error", err.Error())
		}
	}
}

// watchTree registers dir and every subdirectory with fsnotify. Only
// directories can be watched; files are matched per event.
func (w *Watcher) watchTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if !d.IsDir() {
			return nil
		}
		if name := d.Name(); name != "." && strings.HasPrefix(name, ".") {
			return filepath.SkipDir
		}
		if addErr := w.fsw.Add(path); addErr != nil {
			w.log.Warn("cannot watch directory", "path", path, "error", addErr.Error())
		}
		return nil
	})
}

// handleEvent dispatches one filesystem event against every binding.
func (w *Watcher) handleEvent(ctx context.Context, ev fsnotify.Event) {
	// New directories join the watch so nested creates keep arriving.
	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			_ = w.watchTree(ev.Name)
			return
		}
	}

	kind := eventKind(ev.Op)
	if kind == 0 {
		return
	}

	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil {
		rel = ev.Name
	}
	rel = filepath.ToSlash(rel)

	w.mu.Lock()
	bindings := w.bindings
	w.mu.Unlock()

	for _, b := range bindings {
		if b.Events&kind == 0 {
			continue
		}
		if !matches(rel, b.Patterns, b.Excludes) {
			continue
		}
		w.schedule(ctx, b, rel)
	}
}

// eventKind maps an fsnotify op to the binding mask. Chmod-only events
// are noise and map to zero.
func eventKind(op fsnotify.Op) EventMask {
	switch {
	case op.Has(fsnotify.Create):
		return Create
	case op.Has(fsnotify.Write):
		return Write
	case op.Has(fsnotify.Remove):
		return Remove
	case op.Has(fsnotify.Rename):
		return Rename
	default:
		return 0
	}
}

// matches reports whether rel matches any include pattern and no exclude.
func matches(rel string, patterns, excludes []string) bool {
	for _, ex := range excludes {
		if ok, _ := doublestar.Match(ex, rel); ok {
			return false
		}
	}
	for _, pat := range patterns {
		if ok, _ := doublestar.Match(pat, rel); ok {
			return true
		}
	}
	return false
}

// schedule opens or extends the binding's debounce window. Events during
// an open window coalesce into a single trigger at window close; a minimum
// spacing from the previous trigger is enforced on top of the quiet window.
func (w *Watcher) schedule(ctx context.Context, b *boundState, path string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastPath = path
	if b.pending {
		b.timer.Reset(w.delayFor(b))
		return
	}

	b.pending = true
	b.timer = time.AfterFunc(w.delayFor(b), func() {
		b.mu.Lock()
		b.pending = false
		b.lastFired = time.Now()
		firedPath := b.lastPath
		b.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		w.log.Info("watch triggered", "path", firedPath, "tasks", b.Tasks)
		w.bus.Publish(event.NewWatchTriggeredEvent(firedPath, b.Tasks))
		w.trigger(ctx, firedPath, b.Tasks)
	})
}

// delayFor returns how long the binding must wait before firing: the
// debounce quiet window, stretched so that at least the minimum spacing
// elapses since the binding's previous trigger. Extending an open window
// goes through here too, so a burst of events cannot shrink the spacing
// floor back down to the quiet window. Caller must hold b.mu.
func (w *Watcher) delayFor(b *boundState) time.Duration {
	delay := w.debounce
	if w.spacing > 0 {
		if since := time.Since(b.lastFired); since < w.spacing && delay < w.spacing-since {
			delay = w.spacing - since
		}
	}
	return delay
}

// Close stops the underlying filesystem watcher and cancels any open
// debounce windows.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true

	for _, b := range w.bindings {
		b.mu.Lock()
		if b.pending {
			b.timer.Stop()
			b.pending = false
		}
		b.mu.Unlock()
	}
	return w.fsw.Close()
}
