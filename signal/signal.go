// Package signal converts blocks of engine voltages to and from PCM
// samples:
// 	- voltage to normalized float and backward
// 	- float to int of provided bit depth and backward
package signal

import (
	"math"
	"time"

	"github.com/go-audio/audio"
)

// Voltage is the level that maps to digital full scale.
const Voltage = 5

const (
	// BitDepth8 is 8 bit depth.
	BitDepth8 = BitDepth(8)
	// BitDepth16 is 16 bit depth.
	BitDepth16 = BitDepth(16)
	// BitDepth24 is 24 bit depth.
	BitDepth24 = BitDepth(24)
	// BitDepth32 is 32 bit depth.
	BitDepth32 = BitDepth(32)
)

// BitDepth contains values required for int-to-float and backward conversion.
type BitDepth int

// MaxInt returns the highest sample value of the bit depth.
func (bitDepth BitDepth) MaxInt() int {
	switch bitDepth {
	case BitDepth8:
		return math.MaxInt8
	case BitDepth16:
		return math.MaxInt16
	case BitDepth24:
		return 1<<23 - 1
	case BitDepth32:
		return math.MaxInt32
	default:
		return 1
	}
}

// Float32 is an interleaved block of normalized samples.
type Float32 []float32

// FromVoltage converts voltages into normalized samples. Result is
// clamped to [-1, 1].
func FromVoltage(volts []float32, result Float32) {
	for i := range volts {
		if i >= len(result) {
			return
		}
		result[i] = clamp(volts[i] / Voltage)
	}
}

// ToVoltage converts normalized samples into voltages.
func ToVoltage(floats Float32, volts []float32) {
	for i := range floats {
		if i >= len(volts) {
			return
		}
		volts[i] = floats[i] * Voltage
	}
}

// AsInts converts samples into ints of provided bit depth. Result slice
// is reused if it has enough capacity.
func (floats Float32) AsInts(bitDepth BitDepth, result []int) []int {
	if cap(result) < len(floats) {
		result = make([]int, len(floats))
	}
	result = result[:len(floats)]
	multiplier := float64(bitDepth.MaxInt())
	for i := range floats {
		result[i] = int(math.Round(float64(clamp(floats[i])) * multiplier))
	}
	return result
}

// FromInts converts ints of provided bit depth into samples. Result
// slice is reused if it has enough capacity.
func FromInts(ints []int, bitDepth BitDepth, result Float32) Float32 {
	if cap(result) < len(ints) {
		result = make(Float32, len(ints))
	}
	result = result[:len(ints)]
	divider := float32(bitDepth.MaxInt())
	for i := range ints {
		result[i] = clamp(float32(ints[i]) / divider)
	}
	return result
}

// IntBuffer converts samples into go-audio buffer. Buffer data is reused
// if it has enough capacity.
func (floats Float32) IntBuffer(buf *audio.IntBuffer, bitDepth BitDepth) {
	buf.Data = floats.AsInts(bitDepth, buf.Data)
	buf.SourceBitDepth = int(bitDepth)
}

// NumFrames returns number of frames in interleaved block.
func (floats Float32) NumFrames(numChannels int) int {
	if numChannels == 0 {
		return 0
	}
	return len(floats) / numChannels
}

// DurationOf returns time duration of frames for this sample rate.
func DurationOf(sampleRate float32, frames int64) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(frames) / float64(sampleRate) * float64(time.Second))
}

// FramesOf returns number of frames that fit into duration for this
// sample rate.
func FramesOf(sampleRate float32, d time.Duration) int64 {
	return int64(math.Round(d.Seconds() * float64(sampleRate)))
}

func clamp(v float32) float32 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	}
	return v
}
