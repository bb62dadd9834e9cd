//go:build linux

package util

import (
	"os"

	"golang.org/x/sys/unix"
)

// AdviseSequential hints the kernel that f is read or written front to back.
func AdviseSequential(f *os.File) {
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
}
