package task

import (
	"fmt"
	"sync"
)

// Registry maps task names to their definitions. Registration happens once
// at startup; after ValidateGraph the registry is effectively read-only.
type Registry struct {
	mu    sync.RWMutex
	tasks map[string]*Def
	order []string // registration order, for stable listings
}

// NewRegistry creates an empty task registry.
func NewRegistry() *Registry {
	return &Registry{
		tasks: make(map[string]*Def),
	}
}

// Register adds a task definition. It fails with ErrDuplicateTask if the
// name is already registered.
func (r *Registry) Register(def Def) error {
	if def.Name == "" {
		return fmt.Errorf("task name must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tasks[def.Name]; exists {
		return fmt.Errorf("task %q: %w", def.Name, ErrDuplicateTask)
	}

	d := def
	r.tasks[def.Name] = &d
	r.order = append(r.order, def.Name)
	return nil
}

// Get returns the definition for name, or an UnknownTaskError if absent.
func (r *Registry) Get(name string) (*Def, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.tasks[name]
	if !ok {
		return nil, &UnknownTaskError{Name: name}
	}
	return def, nil
}

// Names returns all registered task names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Len returns the number of registered tasks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}

// ValidateGraph verifies the whole registered graph at configuration-load
// time: every prerequisite name must be registered and the graph must be
// acyclic. Running it up front means a resolution at invocation time can
// only fail on an unknown requested name, never mid-pipeline.
func (r *Registry) ValidateGraph() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range r.order {
		for _, dep := range r.tasks[name].Deps {
			if _, ok := r.tasks[dep]; !ok {
				return &UnknownTaskError{Name: dep, ReferencedBy: name}
			}
		}
	}

	// A full sweep from every root catches cycles in disconnected subgraphs.
	visited := make(map[string]color, len(r.tasks))
	for _, name := range r.order {
		if visited[name] == white {
			w := &walk{registry: r, visited: visited}
			if err := w.visit(name); err != nil {
				return err
			}
		}
	}
	return nil
}
