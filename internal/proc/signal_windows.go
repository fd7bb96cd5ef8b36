//go:build windows

package proc

import "os"

// terminate falls back to Kill: Windows has no SIGTERM equivalent that
// arbitrary child processes handle.
func terminate(p *os.Process) error {
	return p.Kill()
}
