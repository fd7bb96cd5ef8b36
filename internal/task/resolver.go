package task

// Node colors for the depth-first traversal. Gray marks a task on the
// current traversal path; revisiting a gray node proves a cycle.
type color int

const (
	white color = iota // not yet reached
	gray               // on the current traversal path
	black              // fully resolved
)

// Resolve returns the execution order for name: a sequence in which every
// task's prerequisites appear before the task itself, prerequisites in
// declaration order, and each reachable task exactly once even when shared
// by several dependents.
func (r *Registry) Resolve(name string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.tasks[name]; !ok {
		return nil, &UnknownTaskError{Name: name}
	}

	w := &walk{registry: r, visited: make(map[string]color)}
	if err := w.visit(name); err != nil {
		return nil, err
	}
	return w.out, nil
}

// walk holds the state of one depth-first traversal.
type walk struct {
	registry *Registry
	visited  map[string]color
	path     []string // gray stack, used to reconstruct cycle witnesses
	out      []string
}

func (w *walk) visit(name string) error {
	w.visited[name] = gray
	w.path = append(w.path, name)

	for _, dep := range w.registry.tasks[name].Deps {
		switch w.visited[dep] {
		case black:
			// Shared prerequisite, already placed.
		case gray:
			return &CycleError{Path: w.cycleFrom(dep)}
		default:
			if _, ok := w.registry.tasks[dep]; !ok {
				return &UnknownTaskError{Name: dep, ReferencedBy: name}
			}
			if err := w.visit(dep); err != nil {
				return err
			}
		}
	}

	w.path = w.path[:len(w.path)-1]
	w.visited[name] = black
	w.out = append(w.out, name)
	return nil
}

// cycleFrom extracts the cycle witness closed by a back-edge to start:
// the gray stack from start onward, plus start again to close the loop.
func (w *walk) cycleFrom(start string) []string {
	for i, name := range w.path {
		if name == start {
			cycle := make([]string, 0, len(w.path)-i+1)
			cycle = append(cycle, w.path[i:]...)
			return append(cycle, start)
		}
	}
	return []string{start, start}
}
