//go:build !linux

package rt

import "errors"

// ErrUnsupported is returned on platforms without thread priorities.
var ErrUnsupported = errors.New("thread priority is not supported")

// Raise is not supported on this platform.
func Raise() error {
	return ErrUnsupported
}
