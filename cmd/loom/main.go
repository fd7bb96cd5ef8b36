package main

import (
	"fmt"
	"os"

	"github.com/jmallard/loom/internal/cmd"
	"github.com/jmallard/loom/internal/proc"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "loom: %v\n", err)
		// A failing external tool's exit code passes through to the
		// caller, so loom works under make and CI the way the tool would.
		os.Exit(proc.ExitCode(err))
	}
}
