package rack

import (
	"encoding/json"
	"math"
	"math/rand"
	"reflect"
	"sync/atomic"
	"time"

	"github.com/rs/xid"

	"pipelined.dev/rack/metric"
)

// Module is a DSP unit advanced by the engine one frame at a time.
// Implementations embed Base, which provides ports, params and lights:
//
//	type VCA struct {
//		rack.Base
//	}
//
//	func NewVCA() *VCA {
//		return &VCA{Base: rack.NewBase(1, 2, 1, 0)}
//	}
//
// Module is referenced by the engine, but owned by the caller. It must be
// removed from the engine before it's discarded.
type Module interface {
	// Step advances the module by one audio frame.
	Step()
	base() *Base
}

// StreamStepper is implemented by block driver modules. Driver steps
// modules wired into its inputs itself, so the engine doesn't step them
// in the regular tick.
type StreamStepper interface {
	StepStream(in, out []float32, frames int)
}

// SampleRateChanger is notified when engine sample rate changes.
type SampleRateChanger interface {
	OnSampleRateChange(sampleRate float32)
}

// Resetter restores module's internal state to defaults.
type Resetter interface {
	Reset()
}

// Randomizer randomizes module's internal state.
type Randomizer interface {
	Randomize(r *rand.Rand)
}

// StateMarshaler stores module's internal state. Engine never interprets
// returned data.
type StateMarshaler interface {
	MarshalState() (json.RawMessage, error)
}

// StateUnmarshaler restores module's internal state.
type StateUnmarshaler interface {
	UnmarshalState(json.RawMessage) error
}

// Base is embedded by every module. Collections are sized once by
// NewBase and must never be resized.
type Base struct {
	Params  []Param
	Inputs  []Input
	Outputs []Output
	Lights  []Light

	id           string
	cpuTime      int64  // nanoseconds, atomic
	sampleRate   uint32 // float32 bits, atomic
	inputModules []Module
	meter        *metric.Meter
	// fault is the recovered panic of quarantined module.
	fault error
}

// NewBase constructs Base with a fixed number of params, inputs, outputs
// and lights.
func NewBase(numParams, numInputs, numOutputs, numLights int) Base {
	return Base{
		Params:  make([]Param, numParams),
		Inputs:  make([]Input, numInputs),
		Outputs: make([]Output, numOutputs),
		Lights:  make([]Light, numLights),
		id:      xid.New().String(),
	}
}

func (b *Base) base() *Base {
	return b
}

// ID returns unique module id.
func (b *Base) ID() string {
	return b.id
}

// CPUTime returns duration of the most recent step.
func (b *Base) CPUTime() time.Duration {
	return time.Duration(atomic.LoadInt64(&b.cpuTime))
}

// SampleRate returns engine sample rate as seen by module.
func (b *Base) SampleRate() float32 {
	return math.Float32frombits(atomic.LoadUint32(&b.sampleRate))
}

// SampleTime returns duration of one frame in seconds.
func (b *Base) SampleTime() float32 {
	if sr := b.SampleRate(); sr > 0 {
		return 1 / sr
	}
	return 0
}

// OnModuleInput is called by the engine when module is wired into inputs
// of a block driver. Driver that overrides it must override
// OnModuleInputRemoved as well.
func (b *Base) OnModuleInput(m Module) {
	b.inputModules = append(b.inputModules, m)
}

// OnModuleInputRemoved is called by the engine when the last wire from
// module into inputs of a block driver is removed.
func (b *Base) OnModuleInputRemoved(m Module) {
	for i := range b.inputModules {
		if b.inputModules[i] == m {
			b.inputModules = append(b.inputModules[:i], b.inputModules[i+1:]...)
			return
		}
	}
}

// InputModules returns modules registered with OnModuleInput.
func (b *Base) InputModules() []Module {
	return b.inputModules
}

// step advances module by one frame and times it. Module that panics is
// quarantined and never stepped again.
func (b *Base) step(m Module) {
	if b.fault != nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			b.fault = recovered(r)
			b.meter.Panic()
		}
	}()
	start := time.Now()
	m.Step()
	b.setCPUTime(time.Since(start))
}

// setCPUTime stores duration of the last step and feeds module meter.
func (b *Base) setCPUTime(d time.Duration) {
	atomic.StoreInt64(&b.cpuTime, int64(d))
	b.meter.Measure(d)
}

func (b *Base) setSampleRate(sr float32) {
	atomic.StoreUint32(&b.sampleRate, math.Float32bits(sr))
}

// smooth advances param ramps and plug lights by one frame.
func (b *Base) smooth(sampleTime float32) {
	for i := range b.Params {
		b.Params[i].smooth(sampleTime)
	}
	for i := range b.Inputs {
		if b.Inputs[i].Active {
			drivePlugLights(&b.Inputs[i].PlugLights, b.Inputs[i].Value, sampleTime)
		}
	}
	for i := range b.Outputs {
		if b.Outputs[i].Active {
			drivePlugLights(&b.Outputs[i].PlugLights, b.Outputs[i].Value, sampleTime)
		}
	}
}

// moduleInputter allows drivers to override OnModuleInput and
// OnModuleInputRemoved.
type moduleInputter interface {
	OnModuleInput(Module)
	OnModuleInputRemoved(Module)
}

// hooks represent optional functions of module lifecycle.
type hooks struct {
	stepStream func(in, out []float32, frames int)
	sampleRate func(float32)
	reset      func()
	randomize  func(*rand.Rand)
	marshal    func() (json.RawMessage, error)
	unmarshal  func(json.RawMessage) error
	input      func(Module)
	dropInput  func(Module)
}

// bindHooks of module.
func bindHooks(m Module) hooks {
	var h hooks
	if v, ok := m.(StreamStepper); ok {
		h.stepStream = v.StepStream
	}
	if v, ok := m.(SampleRateChanger); ok {
		h.sampleRate = v.OnSampleRateChange
	}
	if v, ok := m.(Resetter); ok {
		h.reset = v.Reset
	}
	if v, ok := m.(Randomizer); ok {
		h.randomize = v.Randomize
	}
	if v, ok := m.(StateMarshaler); ok {
		h.marshal = v.MarshalState
	}
	if v, ok := m.(StateUnmarshaler); ok {
		h.unmarshal = v.UnmarshalState
	}
	if v, ok := m.(moduleInputter); ok {
		h.input = v.OnModuleInput
		h.dropInput = v.OnModuleInputRemoved
	} else {
		h.input = m.base().OnModuleInput
		h.dropInput = m.base().OnModuleInputRemoved
	}
	return h
}

// isNil returns true for nil interface and typed nil pointers.
func isNil(m Module) bool {
	if m == nil {
		return true
	}
	v := reflect.ValueOf(m)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return v.IsNil()
	}
	return false
}
