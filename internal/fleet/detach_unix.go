//go:build unix

package fleet

import "syscall"

// detachedAttr puts the worker in its own session so it outlives the
// spawning terminal's job control.
func detachedAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
