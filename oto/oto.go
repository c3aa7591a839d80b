// Package oto drives the engine from an oto player. Oto pulls samples
// through io.Reader, every read renders frames through RenderFunc.
package oto

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
)

// bytesPerSample of float32 little endian format.
const bytesPerSample = 4

// RenderFunc renders a block of frames into interleaved out.
type RenderFunc func(in, out []float32, frames int) error

// Reader renders frames on demand and encodes them as float32 little
// endian samples.
type Reader struct {
	mu          sync.Mutex
	render      RenderFunc
	numChannels int
	block       []float32
	err         error
}

// NewReader returns reader of numChannels interleaved channels.
func NewReader(render RenderFunc, numChannels int) *Reader {
	return &Reader{
		render:      render,
		numChannels: numChannels,
	}
}

// Read implements io.Reader. Render error is returned once and is
// available with Err afterwards.
func (r *Reader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	frameSize := bytesPerSample * r.numChannels
	frames := len(p) / frameSize
	if frames == 0 {
		return 0, nil
	}
	n := frames * r.numChannels
	if cap(r.block) < n {
		r.block = make([]float32, n)
	}
	r.block = r.block[:n]
	if err := r.render(nil, r.block, frames); err != nil {
		r.err = fmt.Errorf("render: %w", err)
		return 0, r.err
	}
	for i, v := range r.block {
		binary.LittleEndian.PutUint32(p[i*bytesPerSample:], math.Float32bits(v))
	}
	return frames * frameSize, nil
}

// Err returns render error.
func (r *Reader) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}
