package rack

import (
	"fmt"

	"github.com/rs/xid"

	"pipelined.dev/rack/metric"
)

// moduleEntry is a registered module with its bound hooks.
type moduleEntry struct {
	module Module
	base   *Base
	handle Handle
	hooks
	// driven module is upstream of a block driver, which steps it.
	driven bool
	// reported is set once quarantine of the module is logged.
	reported bool
}

// wireEntry is a registered wire with resolved ports.
type wireEntry struct {
	wire   *Wire
	handle Handle
	src    *Output
	dst    *Input
	from   *moduleEntry
	to     *moduleEntry
}

// registry holds modules and wires. It's not safe for concurrent use:
// engine makes sure that only one goroutine touches it at a time.
type registry struct {
	modules  []*moduleEntry // registration order
	wires    []*wireEntry
	byModule map[Module]*moduleEntry
	byWire   map[*Wire]*wireEntry
	mArena   arena[*moduleEntry]
	wArena   arena[*wireEntry]
}

func newRegistry() registry {
	return registry{
		byModule: make(map[Module]*moduleEntry),
		byWire:   make(map[*Wire]*wireEntry),
	}
}

// addModule registers module. Adding registered module is a no-op.
func (r *registry) addModule(m Module, meter *metric.Meter, sampleRate float32) (Handle, bool) {
	if e, ok := r.byModule[m]; ok {
		return e.handle, false
	}
	b := m.base()
	if b.id == "" {
		b.id = xid.New().String()
	}
	b.setSampleRate(sampleRate)
	b.meter = meter
	e := &moduleEntry{
		module: m,
		base:   b,
		hooks:  bindHooks(m),
	}
	e.handle = r.mArena.insert(e)
	r.modules = append(r.modules, e)
	r.byModule[m] = e
	return e.handle, true
}

// removeModule removes module and all wires connected to it. Removing
// unregistered module is a no-op.
func (r *registry) removeModule(m Module) bool {
	e, ok := r.byModule[m]
	if !ok {
		return false
	}
	for i := len(r.wires) - 1; i >= 0; i-- {
		if w := r.wires[i]; w.from == e || w.to == e {
			r.removeWire(w.wire)
		}
	}
	for i := range r.modules {
		if r.modules[i] == e {
			copy(r.modules[i:], r.modules[i+1:])
			r.modules[len(r.modules)-1] = nil
			r.modules = r.modules[:len(r.modules)-1]
			break
		}
	}
	delete(r.byModule, m)
	r.mArena.remove(e.handle)
	e.base.meter.Release()
	e.base.meter = nil
	return true
}

// addWire registers wire. Both modules must be registered and the input
// must be free. Adding registered wire is a no-op.
func (r *registry) addWire(w *Wire) (Handle, error) {
	if e, ok := r.byWire[w]; ok {
		return e.handle, nil
	}
	if err := w.validate(); err != nil {
		return Handle{}, fmt.Errorf("wire %v: %w", w, err)
	}
	from, ok := r.byModule[w.OutputModule]
	if !ok {
		return Handle{}, fmt.Errorf("wire %v output module: %w", w, ErrUnknownEndpoint)
	}
	to, ok := r.byModule[w.InputModule]
	if !ok {
		return Handle{}, fmt.Errorf("wire %v input module: %w", w, ErrUnknownEndpoint)
	}
	dst := w.destination()
	if dst.wire != nil {
		return Handle{}, fmt.Errorf("wire %v: %w", w, ErrPortOccupied)
	}
	e := &wireEntry{
		wire: w,
		src:  w.source(),
		dst:  dst,
		from: from,
		to:   to,
	}
	if to.stepStream != nil && from != to && !r.connected(from, to) {
		to.input(from.module)
	}
	e.handle = r.wArena.insert(e)
	r.wires = append(r.wires, e)
	r.byWire[w] = e

	dst.wire = w
	dst.Active = true
	if e.src.wire == nil {
		e.src.wire = w
	}
	e.src.Active = true
	w.setAttached(true)
	r.markDriven()
	return e.handle, nil
}

// removeWire removes wire, zeroes its input and recomputes active flags.
// Removing unregistered wire is a no-op.
func (r *registry) removeWire(w *Wire) bool {
	e, ok := r.byWire[w]
	if !ok {
		return false
	}
	for i := range r.wires {
		if r.wires[i] == e {
			copy(r.wires[i:], r.wires[i+1:])
			r.wires[len(r.wires)-1] = nil
			r.wires = r.wires[:len(r.wires)-1]
			break
		}
	}
	delete(r.byWire, w)
	r.wArena.remove(e.handle)

	e.dst.wire = nil
	e.dst.Value = 0
	e.dst.Active = false
	// output stays active while any other wire originates from it.
	e.src.wire = nil
	e.src.Active = false
	for _, other := range r.wires {
		if other.src == e.src {
			e.src.wire = other.wire
			e.src.Active = true
			break
		}
	}

	if e.to.stepStream != nil && e.from != e.to && !r.connected(e.from, e.to) {
		e.to.dropInput(e.from.module)
	}
	w.setAttached(false)
	r.markDriven()
	return true
}

// markDriven recomputes modules stepped by block drivers: every module
// that reaches an input of a driver through wires. Drivers themselves
// are stepped by the engine.
func (r *registry) markDriven() {
	for _, m := range r.modules {
		m.driven = false
	}
	for _, w := range r.wires {
		if w.to.stepStream != nil {
			r.drive(w.from)
		}
	}
}

func (r *registry) drive(m *moduleEntry) {
	if m.driven || m.stepStream != nil {
		return
	}
	m.driven = true
	for _, w := range r.wires {
		if w.to == m {
			r.drive(w.from)
		}
	}
}

// connected returns true if any registered wire goes from one module to
// another.
func (r *registry) connected(from, to *moduleEntry) bool {
	for _, w := range r.wires {
		if w.from == from && w.to == to {
			return true
		}
	}
	return false
}

// clear removes all wires and modules.
func (r *registry) clear() {
	for len(r.modules) > 0 {
		r.removeModule(r.modules[len(r.modules)-1].module)
	}
}
