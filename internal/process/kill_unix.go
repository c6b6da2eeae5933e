//go:build !windows

package process

import (
	"errors"
	"syscall"
)

// KillProcessGroup sends SIGKILL to the process group led by pid, taking
// Chrome's renderer and GPU children down with it.
// Errors are ignored; callers follow up with launcher.Kill.
func KillProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}

// IsRunning reports whether a process with pid exists.
// A process owned by another user counts as running.
func IsRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
