//go:build windows

package minerpool

// raiseThreadPriority is a no-op on windows; the syscall package does not
// carry a portable thread-priority primitive used elsewhere in this module.
func raiseThreadPriority() {}

// lowerThreadPriority is a no-op on windows, mirroring raiseThreadPriority.
func lowerThreadPriority() {}
