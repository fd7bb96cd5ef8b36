package pipeline

import (
	"github.com/jmallard/loom/internal/config"
	"github.com/jmallard/loom/internal/watch"
)

// Bindings maps the configured source categories onto watch bindings.
// Styles get two bindings: every change recompiles, but only writes
// re-lint, so that creating a new empty file doesn't spam lint output
// before the file has content.
func Bindings(cfg *config.Config) []watch.Binding {
	paths := cfg.Paths
	return []watch.Binding{
		{
			Patterns: paths.Styles,
			Excludes: paths.Exclude,
			Tasks:    []string{"styles"},
		},
		{
			Patterns: paths.Styles,
			Excludes: paths.Exclude,
			Events:   watch.Write,
			Tasks:    []string{"lint-styles-nofail"},
		},
		{
			Patterns: paths.Scripts,
			Excludes: paths.Exclude,
			Events:   watch.Create | watch.Write,
			Tasks:    []string{"minify-scripts"},
		},
		{
			Patterns: paths.Icons,
			Excludes: paths.Exclude,
			Tasks:    []string{"minify-icons"},
		},
		{
			Patterns: paths.Images,
			Excludes: paths.Exclude,
			Tasks:    []string{"compress-images"},
		},
		{
			Patterns: paths.Fonts,
			Excludes: paths.Exclude,
			Tasks:    []string{"copy-fonts"},
		},
		{
			Patterns: paths.Templates,
			Excludes: paths.Exclude,
			Tasks:    []string{"docs"},
		},
	}
}
