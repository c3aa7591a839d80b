// Package portaudio drives the engine from a portaudio callback stream.
package portaudio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"

	"pipelined.dev/rack"
)

// RenderFunc renders a block of frames. Input and output samples are
// interleaved.
type RenderFunc func(in, out []float32, frames int) error

// Device is a default portaudio device. Stream callback renders every
// block through RenderFunc.
type Device struct {
	stream      *portaudio.Stream
	render      RenderFunc
	numInputs   int
	numOutputs  int
	errc        chan error
	initialized bool
}

// Open initializes portaudio and opens default stream.
func Open(render RenderFunc, sampleRate float64, numInputs, numOutputs, framesPerBuffer int) (*Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}
	d := Device{
		render:      render,
		numInputs:   numInputs,
		numOutputs:  numOutputs,
		errc:        make(chan error, 1),
		initialized: true,
	}
	var (
		stream *portaudio.Stream
		err    error
	)
	if numInputs > 0 {
		stream, err = portaudio.OpenDefaultStream(numInputs, numOutputs, sampleRate, framesPerBuffer, d.duplex)
	} else {
		stream, err = portaudio.OpenDefaultStream(0, numOutputs, sampleRate, framesPerBuffer, d.playback)
	}
	if err != nil {
		return nil, rack.Errors{fmt.Errorf("open stream: %w", err)}.Add(d.terminate()).Ret()
	}
	d.stream = stream
	return &d, nil
}

func (d *Device) playback(out []float32) {
	d.duplex(nil, out)
}

func (d *Device) duplex(in, out []float32) {
	if d.numOutputs == 0 {
		return
	}
	if err := d.render(in, out, len(out)/d.numOutputs); err != nil {
		for i := range out {
			out[i] = 0
		}
		select {
		case d.errc <- err:
		default:
		}
	}
}

// Err returns channel that receives the first render error. Later
// errors are dropped until the channel is read.
func (d *Device) Err() <-chan error {
	return d.errc
}

// Start starts the stream.
func (d *Device) Start() error {
	return d.stream.Start()
}

// Stop stops the stream after pending buffers are played.
func (d *Device) Stop() error {
	return d.stream.Stop()
}

// Close closes the stream and terminates portaudio.
func (d *Device) Close() error {
	var errs rack.Errors
	if d.stream != nil {
		errs = errs.Add(d.stream.Close())
		d.stream = nil
	}
	return errs.Add(d.terminate()).Ret()
}

func (d *Device) terminate() error {
	if !d.initialized {
		return nil
	}
	d.initialized = false
	return portaudio.Terminate()
}
