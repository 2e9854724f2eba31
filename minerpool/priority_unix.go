//go:build !windows

package minerpool

import "golang.org/x/sys/unix"

// raiseThreadPriority best-effort raises the calling OS thread's scheduling
// priority while a PoW/PoS block has just been found and is being
// submitted, matching the original's brief priority boost around
// ProcessBlockFound. Errors are swallowed: priority is advisory, never
// load-bearing for correctness.
func raiseThreadPriority() {
	_ = unix.Setpriority(unix.PRIO_PROCESS, 0, -1)
}

// lowerThreadPriority restores the background mining priority level.
func lowerThreadPriority() {
	_ = unix.Setpriority(unix.PRIO_PROCESS, 0, 0)
}
