// Package config defines the loom configuration: where source assets live,
// which external tools the pipeline invokes, and how the watch session and
// logging behave. Configuration is loaded through viper from loom.yaml with
// LOOM_-prefixed environment overrides.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/jmallard/loom/internal/logging"
)

// Config represents the complete loom configuration.
type Config struct {
	Paths   PathsConfig   `mapstructure:"paths"`
	Tools   ToolsConfig   `mapstructure:"tools"`
	Watch   WatchConfig   `mapstructure:"watch"`
	Docs    DocsConfig    `mapstructure:"docs"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Notify  NotifyConfig  `mapstructure:"notify"`
}

// PathsConfig maps logical path categories to glob patterns. The Exclude
// patterns are shared: they suppress matches in every category and every
// watch binding.
type PathsConfig struct {
	// Dist is the output directory tree for compiled and minified assets.
	Dist string `mapstructure:"dist"`
	// Styles are the source style files (e.g. "src/styles/**/*.scss").
	Styles []string `mapstructure:"styles"`
	// Scripts are the source script files.
	Scripts []string `mapstructure:"scripts"`
	// Icons are the vector icon sources.
	Icons []string `mapstructure:"icons"`
	// Images are the raster image sources.
	Images []string `mapstructure:"images"`
	// Fonts are the font files copied verbatim into dist.
	Fonts []string `mapstructure:"fonts"`
	// Templates are the documentation/template sources.
	Templates []string `mapstructure:"templates"`
	// Exclude patterns (editor swap files, temp files) applied everywhere.
	Exclude []string `mapstructure:"exclude"`
}

// Tool is one external command the pipeline invokes.
type Tool struct {
	// Command is the executable name or path.
	Command string `mapstructure:"command"`
	// Args are the base arguments, before per-task additions.
	Args []string `mapstructure:"args"`
}

// ToolsConfig names every external tool the pipeline drives. The pipeline
// never inspects tool behavior; it only forwards exit codes.
type ToolsConfig struct {
	Formatter       Tool `mapstructure:"formatter"`
	CodeLinter      Tool `mapstructure:"code_linter"`
	StyleLinter     Tool `mapstructure:"style_linter"`
	StyleCompiler   Tool `mapstructure:"style_compiler"`
	ScriptMinifier  Tool `mapstructure:"script_minifier"`
	IconOptimizer   Tool `mapstructure:"icon_optimizer"`
	ImageCompressor Tool `mapstructure:"image_compressor"`
	StyleTests      Tool `mapstructure:"style_tests"`
	ScriptTests     Tool `mapstructure:"script_tests"`
	DocGenerator    Tool `mapstructure:"doc_generator"`
	DevServer       Tool `mapstructure:"dev_server"`
}

// WatchConfig controls debounce timing for the watch engine.
type WatchConfig struct {
	// DebounceMs is the quiet window after a filesystem event before the
	// bound tasks run.
	DebounceMs int `mapstructure:"debounce_ms"`
	// MinSpacingMs is the minimum time between two triggers of the same
	// binding.
	MinSpacingMs int `mapstructure:"min_spacing_ms"`
}

// Debounce returns the debounce window as a time.Duration.
func (c *WatchConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// MinSpacing returns the trigger spacing as a time.Duration.
func (c *WatchConfig) MinSpacing() time.Duration {
	return time.Duration(c.MinSpacingMs) * time.Millisecond
}

// DocsConfig is handed opaquely to the external documentation generator.
// loom serializes it to YAML and passes the file path on the tool's
// command line; the field meanings belong to the tool, not to loom.
type DocsConfig struct {
	// Title is the theme's display name on the generated site.
	Title string `mapstructure:"title" yaml:"title"`
	// Version shown in the documentation header.
	Version string `mapstructure:"version" yaml:"version"`
	// Groups are section labels used to organize documented components.
	Groups []string `mapstructure:"groups" yaml:"groups,omitempty"`
	// Subprojects lists additional component roots to document.
	Subprojects []string `mapstructure:"subprojects" yaml:"subprojects,omitempty"`
	// Display holds free-form display options forwarded verbatim.
	Display map[string]string `mapstructure:"display" yaml:"display,omitempty"`
}

// ServerConfig controls the static dev server.
type ServerConfig struct {
	// Addr is the listen address (host:port).
	Addr string `mapstructure:"addr"`
	// Root overrides the directory served; empty means paths.dist.
	Root string `mapstructure:"root"`
}

// LoggingConfig controls debug logging behavior.
type LoggingConfig struct {
	// Enabled controls whether the JSON debug log is written.
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// File is the log file path; empty logs to stderr.
	File string `mapstructure:"file"`
	// MaxSizeMB is the log file size before rotation.
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of rotated files to keep.
	MaxBackups int `mapstructure:"max_backups"`
}

// Rotation returns the rotation settings in the logging package's form.
func (c *LoggingConfig) Rotation() logging.RotationConfig {
	return logging.RotationConfig{
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
	}
}

// NotifyConfig controls the failure alert behavior.
type NotifyConfig struct {
	// Bell rings the terminal bell on reported failures.
	Bell bool `mapstructure:"bell"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Dist:      "dist",
			Styles:    []string{"src/styles/**/*.scss"},
			Scripts:   []string{"src/scripts/**/*.js"},
			Icons:     []string{"src/icons/**/*.svg"},
			Images:    []string{"src/images/**/*.{png,jpg,jpeg,gif}"},
			Fonts:     []string{"src/fonts/**/*.{woff,woff2,ttf,eot}"},
			Templates: []string{"src/templates/**/*.html", "src/**/*.md"},
			Exclude:   []string{"**/.*", "**/*.swp", "**/*~", "**/#*#"},
		},
		Tools: ToolsConfig{
			Formatter:       Tool{Command: "prettier", Args: []string{"--write"}},
			CodeLinter:      Tool{Command: "eslint"},
			StyleLinter:     Tool{Command: "stylelint"},
			StyleCompiler:   Tool{Command: "sass"},
			ScriptMinifier:  Tool{Command: "terser"},
			IconOptimizer:   Tool{Command: "svgo"},
			ImageCompressor: Tool{Command: "imagemin"},
			StyleTests:      Tool{Command: "backstop", Args: []string{"test"}},
			ScriptTests:     Tool{Command: "jest"},
			DocGenerator:    Tool{Command: "kss"},
			DevServer:       Tool{},
		},
		Watch: WatchConfig{
			DebounceMs:   200,
			MinSpacingMs: 500,
		},
		Docs: DocsConfig{
			Title:   "Theme Reference",
			Version: "0.0.0",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8800",
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			File:       "",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Notify: NotifyConfig{
			Bell: true,
		},
	}
}

// SetDefaults registers default values with viper.
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("paths.dist", defaults.Paths.Dist)
	viper.SetDefault("paths.styles", defaults.Paths.Styles)
	viper.SetDefault("paths.scripts", defaults.Paths.Scripts)
	viper.SetDefault("paths.icons", defaults.Paths.Icons)
	viper.SetDefault("paths.images", defaults.Paths.Images)
	viper.SetDefault("paths.fonts", defaults.Paths.Fonts)
	viper.SetDefault("paths.templates", defaults.Paths.Templates)
	viper.SetDefault("paths.exclude", defaults.Paths.Exclude)

	viper.SetDefault("tools.formatter.command", defaults.Tools.Formatter.Command)
	viper.SetDefault("tools.formatter.args", defaults.Tools.Formatter.Args)
	viper.SetDefault("tools.code_linter.command", defaults.Tools.CodeLinter.Command)
	viper.SetDefault("tools.style_linter.command", defaults.Tools.StyleLinter.Command)
	viper.SetDefault("tools.style_compiler.command", defaults.Tools.StyleCompiler.Command)
	viper.SetDefault("tools.script_minifier.command", defaults.Tools.ScriptMinifier.Command)
	viper.SetDefault("tools.icon_optimizer.command", defaults.Tools.IconOptimizer.Command)
	viper.SetDefault("tools.image_compressor.command", defaults.Tools.ImageCompressor.Command)
	viper.SetDefault("tools.style_tests.command", defaults.Tools.StyleTests.Command)
	viper.SetDefault("tools.style_tests.args", defaults.Tools.StyleTests.Args)
	viper.SetDefault("tools.script_tests.command", defaults.Tools.ScriptTests.Command)
	viper.SetDefault("tools.doc_generator.command", defaults.Tools.DocGenerator.Command)

	viper.SetDefault("watch.debounce_ms", defaults.Watch.DebounceMs)
	viper.SetDefault("watch.min_spacing_ms", defaults.Watch.MinSpacingMs)

	viper.SetDefault("docs.title", defaults.Docs.Title)
	viper.SetDefault("docs.version", defaults.Docs.Version)

	viper.SetDefault("server.addr", defaults.Server.Addr)
	viper.SetDefault("server.root", defaults.Server.Root)

	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.file", defaults.Logging.File)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)

	viper.SetDefault("notify.bell", defaults.Notify.Bell)
}

// Load reads the configuration from viper into a Config and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return &cfg, nil
}

// ServeRoot returns the directory the dev server serves.
func (c *Config) ServeRoot() string {
	if c.Server.Root != "" {
		return c.Server.Root
	}
	return c.Paths.Dist
}

// ConfigDir returns the path to the user's loom config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "loom")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".loom"
	}
	return filepath.Join(home, ".config", "loom")
}

// ConfigFile returns the path to the user-level config file.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "loom.yaml")
}
