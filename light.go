package rack

import (
	"math"
	"sync/atomic"
)

// Light holds the square of its brightness, so that linear driving of
// LED looks visually linear. Value is stored atomically and can be read
// by UI goroutine while engine is running.
type Light struct {
	bits uint32
}

// Value returns brightness squared.
func (l *Light) Value() float32 {
	return math.Float32frombits(atomic.LoadUint32(&l.bits))
}

func (l *Light) store(v float32) {
	atomic.StoreUint32(&l.bits, math.Float32bits(v))
}

// Brightness returns the square root of light value.
func (l *Light) Brightness() float32 {
	v := l.Value()
	if v <= 0 {
		return 0
	}
	return float32(math.Sqrt(float64(v)))
}

// SetBrightness sets value to brightness squared without smoothing.
func (l *Light) SetBrightness(brightness float32) {
	l.store(brightness * brightness)
}

// SetBrightnessSmooth moves value toward brightness squared by one step
// of sampleTime duration. Negative brightness is treated as dark.
func (l *Light) SetBrightnessSmooth(brightness, sampleTime float32) {
	var target float32
	if brightness > 0 {
		target = brightness * brightness
	}
	v, _ := approach(l.Value(), target, sampleTime)
	l.store(v)
}
