// Package wav records engine blocks into wav and aiff files and plays
// them back as a module.
package wav

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"pipelined.dev/rack"
	"pipelined.dev/rack/signal"
)

var (
	// ErrUnsupportedBitDepth is returned when unsupported bit depth is used.
	ErrUnsupportedBitDepth = errors.New("only 8, 16, 24 and 32 bit depth is supported")
	// ErrInvalidFile is returned when file cannot be decoded.
	ErrInvalidFile = errors.New("invalid audio file")
)

// pcmFormat is the wav audio format tag of integer samples.
const pcmFormat = 1

type encoder interface {
	Write(*audio.IntBuffer) error
	Close() error
}

// Recorder writes blocks of normalized interleaved samples into file.
// Files with .aif and .aiff extensions are encoded as aiff, all others
// as wav.
type Recorder struct {
	path     string
	bitDepth signal.BitDepth
	file     *os.File
	encoder  encoder
	buf      *audio.IntBuffer
	frames   int64
}

// NewRecorder creates file and returns recorder for it.
func NewRecorder(path string, sampleRate, numChannels int, bitDepth signal.BitDepth) (*Recorder, error) {
	switch bitDepth {
	case signal.BitDepth8, signal.BitDepth16, signal.BitDepth24, signal.BitDepth32:
	default:
		return nil, fmt.Errorf("%d: %w", bitDepth, ErrUnsupportedBitDepth)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create recorder file: %w", err)
	}
	r := Recorder{
		path:     path,
		bitDepth: bitDepth,
		file:     f,
		buf: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: numChannels,
				SampleRate:  sampleRate,
			},
			SourceBitDepth: int(bitDepth),
		},
	}
	if isAiff(path) {
		r.encoder = aiff.NewEncoder(f, sampleRate, int(bitDepth), numChannels)
	} else {
		r.encoder = wav.NewEncoder(f, sampleRate, int(bitDepth), numChannels, pcmFormat)
	}
	return &r, nil
}

// Write encodes block of interleaved samples.
func (r *Recorder) Write(block []float32) error {
	signal.Float32(block).IntBuffer(r.buf, r.bitDepth)
	if err := r.encoder.Write(r.buf); err != nil {
		return fmt.Errorf("write %s: %w", r.path, err)
	}
	r.frames += int64(signal.Float32(block).NumFrames(r.buf.Format.NumChannels))
	return nil
}

// Frames returns number of written frames.
func (r *Recorder) Frames() int64 {
	return r.frames
}

// Close finalizes encoding and closes the file.
func (r *Recorder) Close() error {
	var errs rack.Errors
	if err := r.encoder.Close(); err != nil {
		errs = errs.Add(fmt.Errorf("close encoder: %w", err))
	}
	if err := r.file.Close(); err != nil {
		errs = errs.Add(fmt.Errorf("close file: %w", err))
	}
	return errs.Ret()
}

func isAiff(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".aif", ".aiff":
		return true
	}
	return false
}

// decode reads the whole file into normalized interleaved samples.
func decode(path string) (signal.Float32, *audio.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var (
		buf      *audio.IntBuffer
		bitDepth int
	)
	if isAiff(path) {
		d := aiff.NewDecoder(f)
		if !d.IsValidFile() {
			return nil, nil, fmt.Errorf("%s: %w", path, ErrInvalidFile)
		}
		buf, err = d.FullPCMBuffer()
		bitDepth = int(d.BitDepth)
	} else {
		d := wav.NewDecoder(f)
		if !d.IsValidFile() {
			return nil, nil, fmt.Errorf("%s: %w", path, ErrInvalidFile)
		}
		buf, err = d.FullPCMBuffer()
		bitDepth = int(d.BitDepth)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return signal.FromInts(buf.Data, signal.BitDepth(bitDepth), nil), buf.Format, nil
}
