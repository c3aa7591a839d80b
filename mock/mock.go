// Package mock provides mocks for rack modules and allows to execute
// integration tests.
package mock

import (
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"

	"pipelined.dev/rack"
)

// ErrStep is the value mocks panic with.
var ErrStep = errors.New("mock step")

// Module mocks a rack.Module with every optional hook. Counters are
// atomic and can be checked while engine is running.
type Module struct {
	rack.Base
	counter
	// Fn is called on every step, if set. It must be set before module is
	// added to the engine.
	Fn func(*Module)
	// PanicOnStep makes Step panic with ErrStep.
	PanicOnStep bool
	Hooks
}

// NewModule returns mock with provided arity.
func NewModule(numParams, numInputs, numOutputs, numLights int) *Module {
	return &Module{
		Base: rack.NewBase(numParams, numInputs, numOutputs, numLights),
	}
}

// Step implements rack.Module.
func (m *Module) Step() {
	atomic.AddInt64(&m.steps, 1)
	if m.PanicOnStep {
		panic(ErrStep)
	}
	if m.Fn != nil {
		m.Fn(m)
	}
}

// OnSampleRateChange implements rack.SampleRateChanger.
func (m *Module) OnSampleRateChange(sampleRate float32) {
	atomic.AddInt64(&m.rateChanges, 1)
	m.Lock()
	m.rate = sampleRate
	m.Unlock()
}

// Reset implements rack.Resetter.
func (m *Module) Reset() {
	atomic.AddInt64(&m.resets, 1)
}

// Randomize implements rack.Randomizer.
func (m *Module) Randomize(r *rand.Rand) {
	atomic.AddInt64(&m.randomizes, 1)
	m.Lock()
	m.random = r.Float64()
	m.Unlock()
}

// MarshalState implements rack.StateMarshaler.
func (m *Module) MarshalState() (json.RawMessage, error) {
	if m.ErrorOnMarshal != nil {
		return nil, m.ErrorOnMarshal
	}
	m.Lock()
	defer m.Unlock()
	return json.Marshal(m.State)
}

// UnmarshalState implements rack.StateUnmarshaler.
func (m *Module) UnmarshalState(data json.RawMessage) error {
	if m.ErrorOnUnmarshal != nil {
		return m.ErrorOnUnmarshal
	}
	m.Lock()
	defer m.Unlock()
	return json.Unmarshal(data, &m.State)
}

// LastSampleRate returns the rate passed to the latest
// OnSampleRateChange call.
func (m *Module) LastSampleRate() float32 {
	m.Lock()
	defer m.Unlock()
	return m.rate
}

// Random returns the value drawn by the latest Randomize call.
func (m *Module) Random() float64 {
	m.Lock()
	defer m.Unlock()
	return m.random
}

// Hooks allows to mock module hooks.
type Hooks struct {
	sync.Mutex
	// State is marshaled and unmarshaled by state hooks.
	State map[string]float64

	ErrorOnMarshal   error
	ErrorOnUnmarshal error

	rate   float32
	random float64
}

// Plain mocks a rack.Module without optional hooks.
type Plain struct {
	rack.Base
	counter
}

// NewPlain returns plain mock with provided arity.
func NewPlain(numParams, numInputs, numOutputs, numLights int) *Plain {
	return &Plain{
		Base: rack.NewBase(numParams, numInputs, numOutputs, numLights),
	}
}

// Step implements rack.Module.
func (m *Plain) Step() {
	atomic.AddInt64(&m.steps, 1)
}

// Driver mocks a block driver. Every frame it steps modules wired into
// its inputs, pulls inputs and writes them interleaved into out.
type Driver struct {
	rack.Base
	counter
	blocks int64
	frames int64
}

// NewDriver returns driver with provided number of inputs.
func NewDriver(numInputs int) *Driver {
	return &Driver{
		Base: rack.NewBase(0, numInputs, 0, 0),
	}
}

// Step implements rack.Module.
func (d *Driver) Step() {
	atomic.AddInt64(&d.steps, 1)
}

// StepStream implements rack.StreamStepper.
func (d *Driver) StepStream(in, out []float32, frames int) {
	atomic.AddInt64(&d.blocks, 1)
	atomic.AddInt64(&d.frames, int64(frames))
	numChannels := len(d.Inputs)
	for i := 0; i < frames; i++ {
		for _, m := range d.InputModules() {
			m.Step()
		}
		for c := range d.Inputs {
			d.Inputs[c].Pull()
			if j := i*numChannels + c; j < len(out) {
				out[j] = d.Inputs[c].Value
			}
		}
	}
}

// Blocks returns number of StepStream calls and total number of frames.
func (d *Driver) Blocks() (int, int) {
	return int(atomic.LoadInt64(&d.blocks)), int(atomic.LoadInt64(&d.frames))
}

type counter struct {
	steps       int64
	rateChanges int64
	resets      int64
	randomizes  int64
}

// Steps returns number of Step calls.
func (c *counter) Steps() int {
	return int(atomic.LoadInt64(&c.steps))
}

// RateChanges returns number of OnSampleRateChange calls.
func (c *counter) RateChanges() int {
	return int(atomic.LoadInt64(&c.rateChanges))
}

// Resets returns number of Reset calls.
func (c *counter) Resets() int {
	return int(atomic.LoadInt64(&c.resets))
}

// Randomizes returns number of Randomize calls.
func (c *counter) Randomizes() int {
	return int(atomic.LoadInt64(&c.randomizes))
}
