package wav_test

import (
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/rack"
	"pipelined.dev/rack/log"
	"pipelined.dev/rack/module"
	"pipelined.dev/rack/signal"
	"pipelined.dev/rack/wav"
)

const (
	sampleRate = 44100
	blockSize  = 512
	numBlocks  = 10
)

// render bounces sine through bridge into recorder.
func render(t *testing.T, r *wav.Recorder) []float32 {
	t.Helper()
	e, err := rack.New(rack.WithLogger(log.Discard()), rack.WithSampleRate(sampleRate))
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

	var rendered []float32
	block := make([]float32, 2*blockSize)
	for i := 0; i < numBlocks; i++ {
		require.NoError(t, e.StepBlock(bridge, nil, block, blockSize))
		require.NoError(t, r.Write(block))
		rendered = append(rendered, block...)
	}
	return rendered
}

func TestRecordAndPlay(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		bitDepth signal.BitDepth
	}{
		{name: "wav 16", file: "out.wav", bitDepth: signal.BitDepth16},
		{name: "wav 24", file: "out24.wav", bitDepth: signal.BitDepth24},
		{name: "aiff 16", file: "out.aiff", bitDepth: signal.BitDepth16},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), test.file)
			r, err := wav.NewRecorder(path, sampleRate, 2, test.bitDepth)
			require.NoError(t, err)
			rendered := render(t, r)
			assert.Equal(t, int64(numBlocks*blockSize), r.Frames())
			require.NoError(t, r.Close())

			p, err := wav.NewPlayer(path)
			require.NoError(t, err)
			assert.Equal(t, sampleRate, p.FileSampleRate())
			assert.Equal(t, numBlocks*blockSize, p.NumFrames())
			assert.Len(t, p.Outputs, 2)

			for i := 0; i < p.NumFrames(); i++ {
				p.Step()
				require.InDelta(t, rendered[2*i]*signal.Voltage, p.Outputs[0].Value, 1e-3)
				require.InDelta(t, rendered[2*i+1]*signal.Voltage, p.Outputs[1].Value, 1e-3)
			}
			assert.Equal(t, float32(1), p.Lights[wav.PlayerPlayingLight].Value())

			// end of file without loop.
			p.Step()
			assert.Zero(t, p.Outputs[0].Value)
			assert.Zero(t, p.Lights[wav.PlayerPlayingLight].Value())

			p.Params[wav.PlayerLoopParam].Set(1)
			p.Step()
			assert.InDelta(t, rendered[0]*signal.Voltage, p.Outputs[0].Value, 1e-3)
		})
	}
}

func TestPlayerState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.wav")
	r, err := wav.NewRecorder(path, sampleRate, 2, signal.BitDepth16)
	require.NoError(t, err)
	render(t, r)
	require.NoError(t, r.Close())

	p, err := wav.NewPlayer(path)
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		p.Step()
	}
	data, err := p.MarshalState()
	require.NoError(t, err)
	assert.JSONEq(t, `{"position":100}`, string(data))

	require.NoError(t, p.UnmarshalState(json.RawMessage(`{"position":-5}`)))
	data, _ = p.MarshalState()
	assert.JSONEq(t, `{"position":0}`, string(data))

	p.Randomize(rand.New(rand.NewSource(1)))
	p.Reset()
	data, _ = p.MarshalState()
	assert.JSONEq(t, `{"position":0}`, string(data))
}

func TestErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := wav.NewRecorder(filepath.Join(dir, "out.wav"), sampleRate, 2, signal.BitDepth(12))
	assert.ErrorIs(t, err, wav.ErrUnsupportedBitDepth)

	_, err = wav.NewRecorder(filepath.Join(dir, "missing", "out.wav"), sampleRate, 2, signal.BitDepth16)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = wav.NewPlayer(filepath.Join(dir, "missing.wav"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	garbage := filepath.Join(dir, "garbage.wav")
	require.NoError(t, os.WriteFile(garbage, []byte("not a wav file"), 0o600))
	_, err = wav.NewPlayer(garbage)
	assert.ErrorIs(t, err, wav.ErrInvalidFile)
}
