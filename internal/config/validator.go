package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ValidationError represents a single validation failure.
type ValidationError struct {
	Field   string // The config field path (e.g., "watch.debounce_ms")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels.
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the configuration and returns every problem found, not
// just the first, so a user can fix a config file in one pass.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	if c.Paths.Dist == "" {
		errs = append(errs, ValidationError{
			Field:   "paths.dist",
			Value:   c.Paths.Dist,
			Message: "output directory must not be empty",
		})
	}

	patternFields := []struct {
		field    string
		patterns []string
	}{
		{"paths.styles", c.Paths.Styles},
		{"paths.scripts", c.Paths.Scripts},
		{"paths.icons", c.Paths.Icons},
		{"paths.images", c.Paths.Images},
		{"paths.fonts", c.Paths.Fonts},
		{"paths.templates", c.Paths.Templates},
		{"paths.exclude", c.Paths.Exclude},
	}
	for _, pf := range patternFields {
		for _, pat := range pf.patterns {
			if !doublestar.ValidatePattern(pat) {
				errs = append(errs, ValidationError{
					Field:   pf.field,
					Value:   pat,
					Message: "invalid glob pattern",
				})
			}
		}
	}

	if c.Watch.DebounceMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "watch.debounce_ms",
			Value:   c.Watch.DebounceMs,
			Message: "must not be negative",
		})
	}
	if c.Watch.MinSpacingMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "watch.min_spacing_ms",
			Value:   c.Watch.MinSpacingMs,
			Message: "must not be negative",
		})
	}

	if !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of %v", ValidLogLevels()),
		})
	}
	if c.Logging.MaxSizeMB < 0 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must not be negative",
		})
	}
	if c.Logging.MaxBackups < 0 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must not be negative",
		})
	}

	if c.Server.Addr == "" {
		errs = append(errs, ValidationError{
			Field:   "server.addr",
			Value:   c.Server.Addr,
			Message: "listen address must not be empty",
		})
	}

	tools := []struct {
		field string
		tool  Tool
	}{
		{"tools.formatter", c.Tools.Formatter},
		{"tools.code_linter", c.Tools.CodeLinter},
		{"tools.style_linter", c.Tools.StyleLinter},
		{"tools.style_compiler", c.Tools.StyleCompiler},
		{"tools.script_minifier", c.Tools.ScriptMinifier},
		{"tools.icon_optimizer", c.Tools.IconOptimizer},
		{"tools.image_compressor", c.Tools.ImageCompressor},
		{"tools.style_tests", c.Tools.StyleTests},
		{"tools.script_tests", c.Tools.ScriptTests},
		{"tools.doc_generator", c.Tools.DocGenerator},
	}
	for _, tc := range tools {
		if tc.tool.Command == "" {
			errs = append(errs, ValidationError{
				Field:   tc.field + ".command",
				Value:   tc.tool.Command,
				Message: "tool command must not be empty",
			})
		}
	}

	return errs
}
