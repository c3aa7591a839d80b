package mp3_test

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/rack/mp3"
)

func TestRecorder(t *testing.T) {
	tests := []struct {
		name        string
		numChannels int
	}{
		{name: "mono", numChannels: 1},
		{name: "stereo", numChannels: 2},
	}
	const (
		sampleRate = 44100
		frames     = 4410
	)
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out.mp3")
			r, err := mp3.NewRecorder(path, sampleRate, test.numChannels, 192, 2)
			require.NoError(t, err)

			block := make([]float32, frames*test.numChannels)
			for i := range block {
				block[i] = float32(math.Sin(2 * math.Pi * 440 * float64(i/test.numChannels) / sampleRate))
			}
			require.NoError(t, r.Write(block))
			require.NoError(t, r.Write(block))
			assert.Equal(t, int64(2*frames), r.Frames())
			require.NoError(t, r.Close())

			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.NotZero(t, info.Size())
		})
	}
}

func TestRecorderErrors(t *testing.T) {
	_, err := mp3.NewRecorder(filepath.Join(t.TempDir(), "out.mp3"), 44100, 3, 192, 2)
	assert.ErrorIs(t, err, mp3.ErrUnsupportedChannels)
}
