//go:build windows

package fleet

import "syscall"

const createNewConsole = 0x00000010

// detachedAttr gives each worker its own console window.
func detachedAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{CreationFlags: createNewConsole}
}
