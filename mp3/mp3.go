// Package mp3 records engine blocks into mp3 files.
package mp3

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/viert/lame"

	"pipelined.dev/rack"
	"pipelined.dev/rack/signal"
)

// ErrUnsupportedChannels is returned when encoder can't handle number of
// channels.
var ErrUnsupportedChannels = errors.New("only mono and stereo are supported")

// Recorder writes blocks of normalized interleaved samples into mp3 file.
type Recorder struct {
	path        string
	numChannels int
	f           *os.File
	wr          *lame.LameWriter
	ints        []int
	buf         bytes.Buffer
	frames      int64
}

// NewRecorder creates file and returns recorder for it.
func NewRecorder(path string, sampleRate, numChannels, bitRate, quality int) (*Recorder, error) {
	if numChannels != 1 && numChannels != 2 {
		return nil, fmt.Errorf("%d channels: %w", numChannels, ErrUnsupportedChannels)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create recorder file: %w", err)
	}
	r := Recorder{
		path:        path,
		numChannels: numChannels,
		f:           f,
		wr:          lame.NewWriter(f),
	}
	r.wr.Encoder.SetBitrate(bitRate)
	r.wr.Encoder.SetQuality(quality)
	r.wr.Encoder.SetNumChannels(numChannels)
	r.wr.Encoder.SetInSamplerate(sampleRate)
	if numChannels == 1 {
		r.wr.Encoder.SetMode(lame.MONO)
	} else {
		r.wr.Encoder.SetMode(lame.JOINT_STEREO)
	}
	r.wr.Encoder.SetVBR(lame.VBR_RH)
	r.wr.Encoder.InitParams()
	return &r, nil
}

// Write encodes block of interleaved samples.
func (r *Recorder) Write(block []float32) error {
	r.ints = signal.Float32(block).AsInts(signal.BitDepth16, r.ints)
	r.buf.Reset()
	for i := range r.ints {
		if err := binary.Write(&r.buf, binary.LittleEndian, int16(r.ints[i])); err != nil {
			return err
		}
	}
	if _, err := r.wr.Write(r.buf.Bytes()); err != nil {
		return fmt.Errorf("write %s: %w", r.path, err)
	}
	r.frames += int64(signal.Float32(block).NumFrames(r.numChannels))
	return nil
}

// Frames returns number of written frames.
func (r *Recorder) Frames() int64 {
	return r.frames
}

// Close flushes encoder buffers and closes the file.
func (r *Recorder) Close() error {
	var errs rack.Errors
	if err := r.wr.Close(); err != nil {
		errs = errs.Add(fmt.Errorf("close encoder: %w", err))
	}
	if err := r.f.Close(); err != nil {
		errs = errs.Add(fmt.Errorf("close file: %w", err))
	}
	return errs.Ret()
}
