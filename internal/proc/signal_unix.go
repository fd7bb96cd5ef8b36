//go:build unix

package proc

import (
	"os"
	"syscall"
)

// terminate sends SIGTERM, giving the child a chance to exit cleanly
// before Stop escalates to SIGKILL.
func terminate(p *os.Process) error {
	return p.Signal(syscall.SIGTERM)
}
