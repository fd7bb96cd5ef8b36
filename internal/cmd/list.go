package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/jmallard/loom/internal/config"
	"github.com/jmallard/loom/internal/logging"
	"github.com/jmallard/loom/internal/pipeline"
	"github.com/jmallard/loom/internal/proc"
	"github.com/jmallard/loom/internal/task"
)

var (
	listNameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	listDepsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		// The registry is only inspected, never run, so the pipeline gets
		// throwaway collaborators.
		log := logging.NopLogger()
		sup := proc.New(log)
		defer sup.Shutdown()

		reg := task.NewRegistry()
		if err := pipeline.New(cfg, sup, log).Register(reg); err != nil {
			return err
		}

		width := 0
		for _, name := range reg.Names() {
			if len(name) > width {
				width = len(name)
			}
		}

		out := cmd.OutOrStdout()
		for _, name := range reg.Names() {
			def, err := reg.Get(name)
			if err != nil {
				return err
			}
			line := fmt.Sprintf("%s  %s",
				listNameStyle.Render(fmt.Sprintf("%-*s", width, name)),
				def.Summary)
			if len(def.Deps) > 0 {
				line += listDepsStyle.Render(fmt.Sprintf("  (after %s)", strings.Join(def.Deps, ", ")))
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
