//go:build linux

package rt

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Raise increases priority of the calling OS thread. Caller must lock
// goroutine to its thread with runtime.LockOSThread first.
func Raise() error {
	tid := unix.Gettid()
	if err := unix.Setpriority(unix.PRIO_PROCESS, tid, Niceness); err != nil {
		return fmt.Errorf("setpriority of thread %d: %w", tid, err)
	}
	return nil
}
