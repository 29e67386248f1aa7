//go:build !unix && !windows

package fleet

import "syscall"

func detachedAttr() *syscall.SysProcAttr { return nil }
