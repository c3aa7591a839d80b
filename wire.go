package rack

import (
	"fmt"
	"sync/atomic"
)

// Wire connects output of one module to input of another. It's owned by
// the caller, the engine only references it.
type Wire struct {
	OutputModule Module
	OutputID     int
	InputModule  Module
	InputID      int

	attached uint32 // atomic
}

// Attached returns true while wire is registered in the engine. Wire is
// detached by RemoveWire or when any of its modules is removed.
func (w *Wire) Attached() bool {
	return atomic.LoadUint32(&w.attached) == 1
}

func (w *Wire) setAttached(v bool) {
	var u uint32
	if v {
		u = 1
	}
	atomic.StoreUint32(&w.attached, u)
}

func (w *Wire) source() *Output {
	return &w.OutputModule.base().Outputs[w.OutputID]
}

func (w *Wire) destination() *Input {
	return &w.InputModule.base().Inputs[w.InputID]
}

// validate checks that wire references existing ports.
func (w *Wire) validate() error {
	if isNil(w.OutputModule) || isNil(w.InputModule) {
		return ErrUnknownEndpoint
	}
	if n := len(w.OutputModule.base().Outputs); w.OutputID < 0 || w.OutputID >= n {
		return fmt.Errorf("output %d of %d: %w", w.OutputID, n, ErrIndexOutOfRange)
	}
	if n := len(w.InputModule.base().Inputs); w.InputID < 0 || w.InputID >= n {
		return fmt.Errorf("input %d of %d: %w", w.InputID, n, ErrIndexOutOfRange)
	}
	return nil
}

func (w *Wire) String() string {
	var out, in string
	if !isNil(w.OutputModule) {
		out = w.OutputModule.base().ID()
	}
	if !isNil(w.InputModule) {
		in = w.InputModule.base().ID()
	}
	return fmt.Sprintf("%s[%d] -> %s[%d]", out, w.OutputID, in, w.InputID)
}
