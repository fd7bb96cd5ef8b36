// Package cmd implements the loom command line interface.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmallard/loom/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "loom",
	Short: "Task runner for front-end theme builds",
	Long: `Loom orchestrates the external tools of a theme build: style
compilation, linting, minification, documentation generation and a dev
server, wired together as named tasks with prerequisites. Tasks and the
tools behind them are configured in loom.yaml.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Bare "loom" runs the default verification build.
		return runTasks(cmd.Context(), []string{"default"})
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is loom.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("loom")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath(config.ConfigDir())
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("LOOM")
	// Replace dots with underscores for nested keys in env vars
	// e.g., LOOM_PATHS_DIST for paths.dist
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
