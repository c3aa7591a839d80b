package rack

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidState is returned if engine method cannot be executed at
	// this moment.
	ErrInvalidState = errors.New("invalid state")
	// ErrClosed is returned when engine is used after Close.
	ErrClosed = errors.New("engine closed")
	// ErrUnknownModule is returned when module is nil or not registered.
	ErrUnknownModule = errors.New("unknown module")
	// ErrUnknownEndpoint is returned when wire references a module that
	// is not registered.
	ErrUnknownEndpoint = errors.New("unknown endpoint")
	// ErrPortOccupied is returned when wire targets an input that already
	// has a wire connected.
	ErrPortOccupied = errors.New("port occupied")
	// ErrIndexOutOfRange is returned for param or port index outside of
	// module arity.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrStaleHandle is returned when handle refers to removed entry.
	ErrStaleHandle = errors.New("stale handle")
	// ErrInvalidSampleRate is returned for non-positive sample rates.
	ErrInvalidSampleRate = errors.New("invalid sample rate")
	// ErrNotStreamStepper is returned when block stepping is requested
	// for module without StepStream.
	ErrNotStreamStepper = errors.New("module does not implement StepStream")
	// ErrModulePanicked is returned when module hook panics outside of
	// the tick path.
	ErrModulePanicked = errors.New("module panicked")
)

// Errors wraps errors that might occur when multiple teardown steps are
// failing.
type Errors []error

func (e Errors) Error() string {
	s := make([]string, 0, len(e))
	for _, se := range e {
		s = append(s, se.Error())
	}
	return strings.Join(s, ",")
}

// Is checks if any of errors match provided sentinel error.
func (e Errors) Is(err error) bool {
	for _, se := range e {
		if errors.Is(se, err) {
			return true
		}
	}
	return false
}

// Add appends non-nil error to the list.
func (e Errors) Add(err error) Errors {
	if err == nil {
		return e
	}
	return append(e, err)
}

// Ret returns untyped nil if error list is empty.
func (e Errors) Ret() error {
	if len(e) > 0 {
		return e
	}
	return nil
}

// recovered converts recovered panic value into error.
func recovered(r interface{}) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("%w: %w", ErrModulePanicked, err)
	}
	return fmt.Errorf("%w: %v", ErrModulePanicked, r)
}
