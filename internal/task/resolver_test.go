package task

import (
	"errors"
	"reflect"
	"testing"
)

func buildRegistry(t *testing.T, defs []Def) *Registry {
	t.Helper()
	reg := NewRegistry()
	for _, def := range defs {
		if err := reg.Register(def); err != nil {
			t.Fatalf("Register(%q) failed: %v", def.Name, err)
		}
	}
	return reg
}

func TestResolveOrdersPrerequisitesFirst(t *testing.T) {
	reg := buildRegistry(t, []Def{
		{Name: "a"},
		{Name: "b", Deps: []string{"a"}},
		{Name: "c", Deps: []string{"a", "b"}},
	})

	order, err := reg.Resolve("c")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("Resolve(c) = %v, want %v", order, want)
	}
}

func TestResolveDeclarationOrderPreserved(t *testing.T) {
	// p1 and p2 share no ordering constraint; declaration order decides.
	reg := buildRegistry(t, []Def{
		{Name: "p1"},
		{Name: "p2"},
		{Name: "top", Deps: []string{"p1", "p2"}},
	})

	order, err := reg.Resolve("top")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	want := []string{"p1", "p2", "top"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("Resolve(top) = %v, want %v", order, want)
	}
}

func TestResolveDepthFirstPerPrerequisite(t *testing.T) {
	// A prerequisite's own prerequisites fully resolve before the next
	// declared prerequisite is considered.
	reg := buildRegistry(t, []Def{
		{Name: "base"},
		{Name: "left", Deps: []string{"base"}},
		{Name: "right"},
		{Name: "top", Deps: []string{"left", "right"}},
	})

	order, err := reg.Resolve("top")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	want := []string{"base", "left", "right", "top"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("Resolve(top) = %v, want %v", order, want)
	}
}

func TestResolveSharedPrerequisiteRunsOnce(t *testing.T) {
	// Diamond: top -> (left, right) -> base. base appears exactly once.
	reg := buildRegistry(t, []Def{
		{Name: "base"},
		{Name: "left", Deps: []string{"base"}},
		{Name: "right", Deps: []string{"base"}},
		{Name: "top", Deps: []string{"left", "right"}},
	})

	order, err := reg.Resolve("top")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	want := []string{"base", "left", "right", "top"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("Resolve(top) = %v, want %v", order, want)
	}
}

func TestResolveUnknownTarget(t *testing.T) {
	reg := buildRegistry(t, []Def{{Name: "a"}})

	_, err := reg.Resolve("nope")
	if !errors.Is(err, ErrUnknownTask) {
		t.Errorf("Resolve = %v, want ErrUnknownTask", err)
	}
}

func TestResolveCycleFails(t *testing.T) {
	reg := buildRegistry(t, []Def{
		{Name: "a", Deps: []string{"b"}},
		{Name: "b", Deps: []string{"a"}},
	})

	_, err := reg.Resolve("a")
	if !errors.Is(err, ErrDependencyCycle) {
		t.Fatalf("Resolve = %v, want ErrDependencyCycle", err)
	}

	var cycle *CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("error is not *CycleError: %v", err)
	}
	if len(cycle.Path) < 3 {
		t.Errorf("cycle path too short: %v", cycle.Path)
	}
	if cycle.Path[0] != cycle.Path[len(cycle.Path)-1] {
		t.Errorf("cycle path does not close: %v", cycle.Path)
	}
}

func TestResolveLongerCycleReportsFullPath(t *testing.T) {
	reg := buildRegistry(t, []Def{
		{Name: "a", Deps: []string{"b"}},
		{Name: "b", Deps: []string{"c"}},
		{Name: "c", Deps: []string{"a"}},
	})

	_, err := reg.Resolve("a")
	var cycle *CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("error is not *CycleError: %v", err)
	}
	want := []string{"a", "b", "c", "a"}
	if !reflect.DeepEqual(cycle.Path, want) {
		t.Errorf("cycle path = %v, want %v", cycle.Path, want)
	}
}

func TestResolveEachReachableTaskExactlyOnce(t *testing.T) {
	reg := buildRegistry(t, []Def{
		{Name: "fonts"},
		{Name: "icons"},
		{Name: "images"},
		{Name: "scripts"},
		{Name: "minify", Deps: []string{"scripts", "icons", "images", "fonts"}},
		{Name: "styles"},
		{Name: "docs", Deps: []string{"styles", "minify"}},
		{Name: "default", Deps: []string{"docs", "minify", "styles"}},
	})

	order, err := reg.Resolve("default")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	seen := make(map[string]int)
	for _, name := range order {
		seen[name]++
	}
	for name, n := range seen {
		if n != 1 {
			t.Errorf("task %q appears %d times in %v", name, n, order)
		}
	}
	if len(order) != reg.Len() {
		t.Errorf("resolved %d of %d reachable tasks: %v", len(order), reg.Len(), order)
	}
}
