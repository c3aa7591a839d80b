package rack

import (
	"math"
	"sync/atomic"
)

// rampBit marks param state that is being smoothed toward its target.
const rampBit = 1 << 32

// Param is a scalar control value of the module. It can be written from
// any goroutine: value and ramp flag share a single atomic word, so an
// instant write always cancels a ramp in progress.
type Param struct {
	state  uint64 // float32 bits | rampBit
	target uint32 // float32 bits
}

// Value returns current param value.
func (p *Param) Value() float32 {
	return math.Float32frombits(uint32(atomic.LoadUint64(&p.state)))
}

// Target returns the value param is moving toward. It's equal to Value
// if param is not ramping.
func (p *Param) Target() float32 {
	if !p.Ramping() {
		return p.Value()
	}
	return math.Float32frombits(atomic.LoadUint32(&p.target))
}

// Ramping returns true while smoothing is in progress.
func (p *Param) Ramping() bool {
	return atomic.LoadUint64(&p.state)&rampBit != 0
}

// Set writes value instantly.
func (p *Param) Set(value float32) {
	atomic.StoreUint64(&p.state, uint64(math.Float32bits(value)))
}

// SetSmooth starts ramp toward value. Engine advances the ramp once per
// tick.
func (p *Param) SetSmooth(value float32) {
	atomic.StoreUint32(&p.target, math.Float32bits(value))
	for {
		s := atomic.LoadUint64(&p.state)
		if atomic.CompareAndSwapUint64(&p.state, s, s|rampBit) {
			return
		}
	}
}

// smooth advances the ramp by one step. Concurrent Set wins over the
// step.
func (p *Param) smooth(sampleTime float32) {
	s := atomic.LoadUint64(&p.state)
	if s&rampBit == 0 {
		return
	}
	target := math.Float32frombits(atomic.LoadUint32(&p.target))
	v, done := approach(math.Float32frombits(uint32(s)), target, sampleTime)
	next := uint64(math.Float32bits(v))
	if !done {
		next |= rampBit
	}
	atomic.CompareAndSwapUint64(&p.state, s, next)
}
