package oto_test

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/rack"
	"pipelined.dev/rack/log"
	"pipelined.dev/rack/module"
	"pipelined.dev/rack/oto"
)

func TestReader(t *testing.T) {
	e, err := rack.New(rack.WithLogger(log.Discard()))
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, e.Close())
	}()
	sine, bridge := module.NewSine(), module.NewBridge(2, 0)
	for _, m := range []rack.Module{sine, bridge} {
		_, err := e.AddModule(m)
		require.NoError(t, err)
	}
	for c := 0; c < 2; c++ {
		_, err := e.AddWire(&rack.Wire{OutputModule: sine, InputModule: bridge, InputID: c})
		require.NoError(t, err)
	}

	r := oto.NewReader(func(in, out []float32, frames int) error {
		return e.StepBlock(bridge, in, out, frames)
	}, 2)

	// partial frame at the end is not filled.
	p := make([]byte, 8*100+3)
	n, err := r.Read(p)
	require.NoError(t, err)
	assert.Equal(t, 800, n)

	var peak float32
	for i := 0; i < 100; i++ {
		left := math.Float32frombits(binary.LittleEndian.Uint32(p[8*i:]))
		right := math.Float32frombits(binary.LittleEndian.Uint32(p[8*i+4:]))
		assert.Equal(t, left, right)
		if left > peak {
			peak = left
		}
	}
	// quarter of 440Hz period is 25 frames at 44100.
	assert.InDelta(t, 1, peak, 1e-2)

	n, err = r.Read(make([]byte, 7))
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestReaderError(t *testing.T) {
	errRender := errors.New("render")
	r := oto.NewReader(func(in, out []float32, frames int) error {
		return errRender
	}, 1)
	_, err := r.Read(make([]byte, 64))
	assert.ErrorIs(t, err, errRender)
	_, err = r.Read(make([]byte, 64))
	assert.ErrorIs(t, err, errRender)
	assert.ErrorIs(t, r.Err(), errRender)

	_, err = io.ReadFull(r, make([]byte, 4))
	assert.Error(t, err)
}
