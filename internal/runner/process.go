package runner

import (
	"errors"

	"golang.org/x/sys/unix"
)

var errAdoptedExited = errors.New("blender exited while owned by an earlier renderq process")

// ProcessAlive reports whether pid refers to a live process. A process owned
// by another user still counts as alive.
func ProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
