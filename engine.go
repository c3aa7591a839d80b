package rack

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"pipelined.dev/rack/internal/mutation"
	"pipelined.dev/rack/log"
	"pipelined.dev/rack/metric"
)

// Engine executes the graph of modules connected by wires. Graph is
// mutated with engine methods, which are safe for concurrent use.
//
// While scheduler is running, registry is owned by the scheduler
// goroutine: mutations are queued and applied at the start of the next
// tick, callers wait for the result. While scheduler is stopped,
// mutations are applied right away.
type Engine struct {
	mu    sync.Mutex // guards state and serializes control goroutines
	state state
	reg   registry
	queue mutation.Queue

	paused     uint32 // atomic
	sampleRate uint32 // float32 bits, atomic

	cancel chan struct{}
	done   chan struct{}

	log              logrus.FieldLogger
	rand             *rand.Rand
	seed             int64
	metrics          bool
	realtime         bool
	queueSize        int
	mutationsPerTick int
	blockSteps       int
	aheadMax         time.Duration
}

// ModuleInfo is a snapshot of registered module.
type ModuleInfo struct {
	Handle      Handle
	ID          string
	Type        string
	CPUTime     time.Duration
	Driven      bool
	Quarantined bool
}

// New creates a new engine and applies provided options. Returned
// engine is stopped.
func New(options ...Option) (*Engine, error) {
	e := &Engine{
		reg:              newRegistry(),
		log:              log.GetLogger(),
		seed:             time.Now().UnixNano(),
		queueSize:        DefaultQueueSize,
		mutationsPerTick: DefaultMutationsPerTick,
		blockSteps:       DefaultBlockSteps,
		aheadMax:         DefaultAheadMax,
	}
	e.storeSampleRate(DefaultSampleRate)
	for _, option := range options {
		if err := option(e); err != nil {
			return nil, err
		}
	}
	e.rand = rand.New(rand.NewSource(e.seed))
	e.queue = mutation.NewQueue(e.queueSize)
	return e, nil
}

// Start launches the scheduler goroutine. Starting running engine is a
// no-op.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state {
	case closed:
		return ErrClosed
	case running:
		return nil
	}
	e.cancel = make(chan struct{})
	e.done = make(chan struct{})
	e.state = running
	go e.run(e.cancel, e.done)
	e.log.WithField("sample_rate", e.SampleRate()).Info("engine started")
	return nil
}

// Stop stops the scheduler goroutine. When Stop returns, no tick is
// executed until the next Start. Mutations that were queued but not
// applied by scheduler are applied by Stop. Stopping stopped engine is a
// no-op.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stop()
}

func (e *Engine) stop() error {
	switch e.state {
	case closed:
		return ErrClosed
	case ready:
		return nil
	}
	close(e.cancel)
	<-e.done
	e.state = ready
	if n := e.queue.Flush(); n > 0 {
		e.log.WithField("mutations", n).Debug("applied mutations after stop")
	}
	e.log.Info("engine stopped")
	return nil
}

// Close stops the engine and releases all modules and wires. Closed
// engine cannot be used anymore. Closing closed engine is a no-op.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == closed {
		return nil
	}
	if err := e.stop(); err != nil {
		return err
	}
	e.reg.clear()
	e.state = closed
	e.log.Info("engine closed")
	return nil
}

// Running returns true if scheduler goroutine is running.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == running
}

// Tick executes a single tick on the calling goroutine. It's allowed
// only when scheduler is stopped.
func (e *Engine) Tick() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state {
	case closed:
		return ErrClosed
	case running:
		return fmt.Errorf("tick while running: %w", ErrInvalidState)
	}
	e.tick()
	return nil
}

// mutate applies mutator inline if scheduler is stopped, or queues it
// and waits for the scheduler to apply it otherwise.
func (e *Engine) mutate(fn mutation.MutatorFunc) error {
	e.mu.Lock()
	switch e.state {
	case closed:
		e.mu.Unlock()
		return ErrClosed
	case ready:
		defer e.mu.Unlock()
		return fn()
	}
	m := mutation.New(fn)
	// push under the lock, so Stop can't miss the mutation.
	e.queue.Push(m)
	e.mu.Unlock()
	return m.Wait()
}

// AddModule registers module in the engine. Engine doesn't take
// ownership of the module. Adding registered module is a no-op that
// returns its handle.
func (e *Engine) AddModule(m Module) (Handle, error) {
	if isNil(m) {
		return Handle{}, ErrUnknownModule
	}
	var meter *metric.Meter
	if e.metrics {
		meter = metric.NewMeter(m)
	}
	var h Handle
	err := e.mutate(func() error {
		var added bool
		h, added = e.reg.addModule(m, meter, e.SampleRate())
		if !added {
			meter.Release()
		}
		return nil
	})
	if err != nil {
		meter.Release()
		return Handle{}, err
	}
	e.log.WithFields(logrus.Fields{"module": m.base().ID(), "handle": h}).Debug("module added")
	return h, nil
}

// RemoveModule unregisters module and all wires connected to it. Once
// it returns, module is not touched by the engine anymore. Removing
// unregistered module is a no-op.
func (e *Engine) RemoveModule(m Module) error {
	if isNil(m) {
		return ErrUnknownModule
	}
	var removed bool
	err := e.mutate(func() error {
		removed = e.reg.removeModule(m)
		return nil
	})
	if err != nil {
		return err
	}
	if removed {
		e.log.WithField("module", m.base().ID()).Debug("module removed")
	}
	return nil
}

// AddWire registers wire in the engine. Both modules must be registered
// and destination input must be free. Adding registered wire is a no-op
// that returns its handle.
func (e *Engine) AddWire(w *Wire) (Handle, error) {
	if w == nil {
		return Handle{}, ErrUnknownEndpoint
	}
	var h Handle
	err := e.mutate(func() (err error) {
		h, err = e.reg.addWire(w)
		return err
	})
	if err != nil {
		return Handle{}, err
	}
	e.log.WithFields(logrus.Fields{"wire": w.String(), "handle": h}).Debug("wire added")
	return h, nil
}

// RemoveWire unregisters wire. Removing unregistered wire is a no-op.
func (e *Engine) RemoveWire(w *Wire) error {
	if w == nil {
		return nil
	}
	var removed bool
	err := e.mutate(func() error {
		removed = e.reg.removeWire(w)
		return nil
	})
	if err != nil {
		return err
	}
	if removed {
		e.log.WithField("wire", w.String()).Debug("wire removed")
	}
	return nil
}

// Module returns module registered with handle.
func (e *Engine) Module(h Handle) (Module, error) {
	var m Module
	err := e.mutate(func() error {
		me, ok := e.reg.mArena.get(h)
		if !ok {
			return fmt.Errorf("module %v: %w", h, ErrStaleHandle)
		}
		m = me.module
		return nil
	})
	return m, err
}

// Wire returns wire registered with handle.
func (e *Engine) Wire(h Handle) (*Wire, error) {
	var w *Wire
	err := e.mutate(func() error {
		we, ok := e.reg.wArena.get(h)
		if !ok {
			return fmt.Errorf("wire %v: %w", h, ErrStaleHandle)
		}
		w = we.wire
		return nil
	})
	return w, err
}

// Modules returns snapshot of registered modules in registration order.
func (e *Engine) Modules() ([]ModuleInfo, error) {
	var infos []ModuleInfo
	err := e.mutate(func() error {
		infos = make([]ModuleInfo, 0, len(e.reg.modules))
		for _, me := range e.reg.modules {
			infos = append(infos, ModuleInfo{
				Handle:      me.handle,
				ID:          me.base.ID(),
				Type:        reflect.TypeOf(me.module).String(),
				CPUTime:     me.base.CPUTime(),
				Driven:      me.driven,
				Quarantined: me.base.fault != nil,
			})
		}
		return nil
	})
	return infos, err
}

// SetParam writes param value instantly. It's safe to call from any
// goroutine.
func (e *Engine) SetParam(m Module, paramID int, value float32) error {
	p, err := param(m, paramID)
	if err != nil {
		return err
	}
	p.Set(value)
	return nil
}

// SetParamSmooth starts ramp of param value toward provided one. Ramp is
// advanced by the engine every tick. It's safe to call from any
// goroutine.
func (e *Engine) SetParamSmooth(m Module, paramID int, value float32) error {
	p, err := param(m, paramID)
	if err != nil {
		return err
	}
	p.SetSmooth(value)
	return nil
}

func param(m Module, paramID int) (*Param, error) {
	if isNil(m) {
		return nil, ErrUnknownModule
	}
	params := m.base().Params
	if paramID < 0 || paramID >= len(params) {
		return nil, fmt.Errorf("param %d of %d: %w", paramID, len(params), ErrIndexOutOfRange)
	}
	return &params[paramID], nil
}

// SetSampleRate changes engine sample rate and notifies every registered
// module exactly once. Modules observe the change between ticks.
func (e *Engine) SetSampleRate(sampleRate float32) error {
	if err := validSampleRate(sampleRate); err != nil {
		return err
	}
	err := e.mutate(func() error {
		e.storeSampleRate(sampleRate)
		for _, me := range e.reg.modules {
			me.base.setSampleRate(sampleRate)
			if me.sampleRate != nil {
				me.sampleRate(sampleRate)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	e.log.WithField("sample_rate", sampleRate).Debug("sample rate changed")
	return nil
}

// validSampleRate rejects non-positive and non-finite rates.
func validSampleRate(sampleRate float32) error {
	if sampleRate <= 0 || math.IsNaN(float64(sampleRate)) || math.IsInf(float64(sampleRate), 0) {
		return fmt.Errorf("sample rate %v: %w", sampleRate, ErrInvalidSampleRate)
	}
	return nil
}

// SampleRate returns current sample rate.
func (e *Engine) SampleRate() float32 {
	return math.Float32frombits(atomic.LoadUint32(&e.sampleRate))
}

// SampleTime returns the inverse of the current sample rate.
func (e *Engine) SampleTime() float32 {
	return 1 / e.SampleRate()
}

func (e *Engine) storeSampleRate(sampleRate float32) {
	atomic.StoreUint32(&e.sampleRate, math.Float32bits(sampleRate))
}

// SetPaused freezes or resumes the graph. Paused engine still applies
// mutations, but doesn't propagate wires, step modules or advance ramps.
func (e *Engine) SetPaused(paused bool) {
	var v uint32
	if paused {
		v = 1
	}
	atomic.StoreUint32(&e.paused, v)
}

// Paused returns true if engine is paused.
func (e *Engine) Paused() bool {
	return atomic.LoadUint32(&e.paused) == 1
}

// StepBlock runs StepStream of registered block driver at the start of
// the next tick, or right away if scheduler is stopped. Paused engine
// fills out with zeros and doesn't call the driver.
func (e *Engine) StepBlock(m Module, in, out []float32, frames int) error {
	if isNil(m) {
		return ErrUnknownModule
	}
	return e.mutate(func() (err error) {
		me, ok := e.reg.byModule[m]
		if !ok {
			return ErrUnknownModule
		}
		if me.stepStream == nil {
			return ErrNotStreamStepper
		}
		if e.Paused() {
			for i := range out {
				out[i] = 0
			}
			return nil
		}
		defer func() {
			if r := recover(); r != nil {
				err = recovered(r)
			}
		}()
		defer e.reportFaults()
		me.stepStream(in, out, frames)
		return nil
	})
}

// ResetModule calls Reset hook of registered module between ticks.
func (e *Engine) ResetModule(m Module) error {
	return e.hook(m, func(me *moduleEntry) error {
		if me.reset != nil {
			me.reset()
		}
		return nil
	})
}

// RandomizeModule calls Randomize hook of registered module between
// ticks.
func (e *Engine) RandomizeModule(m Module) error {
	return e.hook(m, func(me *moduleEntry) error {
		if me.randomize != nil {
			me.randomize(e.rand)
		}
		return nil
	})
}

// MarshalModule returns opaque state of registered module. Nil is
// returned for modules without state.
func (e *Engine) MarshalModule(m Module) (json.RawMessage, error) {
	var data json.RawMessage
	err := e.hook(m, func(me *moduleEntry) (err error) {
		if me.marshal != nil {
			data, err = me.marshal()
		}
		return err
	})
	return data, err
}

// UnmarshalModule restores opaque state of registered module. Modules
// without state ignore the data.
func (e *Engine) UnmarshalModule(m Module, data json.RawMessage) error {
	return e.hook(m, func(me *moduleEntry) error {
		if me.unmarshal != nil {
			return me.unmarshal(data)
		}
		return nil
	})
}

// hook executes fn for registered module between ticks. Panics of the
// module are returned as errors.
func (e *Engine) hook(m Module, fn func(*moduleEntry) error) error {
	if isNil(m) {
		return ErrUnknownModule
	}
	return e.mutate(func() (err error) {
		me, ok := e.reg.byModule[m]
		if !ok {
			return ErrUnknownModule
		}
		defer func() {
			if r := recover(); r != nil {
				err = recovered(r)
			}
		}()
		return fn(me)
	})
}

// reportFaults logs modules quarantined while driver stepped them.
func (e *Engine) reportFaults() {
	for _, me := range e.reg.modules {
		if me.base.fault != nil {
			e.quarantine(me)
		}
	}
}
