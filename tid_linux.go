//go:build linux

package fiber

import (
	"golang.org/x/sys/unix"
)

// osThreadID returns the kernel task id of the calling thread. Only
// meaningful while the calling goroutine is pinned to its OS thread.
func osThreadID() int {
	return unix.Gettid()
}
