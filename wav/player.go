package wav

import (
	"encoding/json"
	"math/rand"

	"pipelined.dev/rack"
	"pipelined.dev/rack/signal"
)

// Player params and lights. Outputs carry file channels.
const (
	// PlayerLoopParam restarts playback at the end of file when above
	// zero.
	PlayerLoopParam = iota
)

const (
	PlayerPlayingLight = iota
)

// Player is a module that plays a file decoded into memory, one frame per
// step. File is played at engine sample rate without resampling.
type Player struct {
	rack.Base
	samples     signal.Float32
	numChannels int
	sampleRate  int
	numFrames   int
	pos         int
}

// NewPlayer decodes file and returns player with one output per file
// channel.
func NewPlayer(path string) (*Player, error) {
	samples, format, err := decode(path)
	if err != nil {
		return nil, err
	}
	return &Player{
		Base:        rack.NewBase(1, 0, format.NumChannels, 1),
		samples:     samples,
		numChannels: format.NumChannels,
		sampleRate:  format.SampleRate,
		numFrames:   samples.NumFrames(format.NumChannels),
	}, nil
}

// FileSampleRate returns sample rate of the decoded file.
func (m *Player) FileSampleRate() int {
	return m.sampleRate
}

// NumFrames returns length of the file in frames.
func (m *Player) NumFrames() int {
	return m.numFrames
}

// Step implements rack.Module.
func (m *Player) Step() {
	if m.pos >= m.numFrames && m.Params[PlayerLoopParam].Value() > 0 {
		m.pos = 0
	}
	if m.pos >= m.numFrames {
		for c := range m.Outputs {
			m.Outputs[c].Value = 0
		}
		m.Lights[PlayerPlayingLight].SetBrightness(0)
		return
	}
	frame := m.samples[m.pos*m.numChannels : (m.pos+1)*m.numChannels]
	for c := range m.Outputs {
		m.Outputs[c].Value = frame[c] * signal.Voltage
	}
	m.pos++
	m.Lights[PlayerPlayingLight].SetBrightness(1)
}

// Reset implements rack.Resetter.
func (m *Player) Reset() {
	m.pos = 0
}

// Randomize implements rack.Randomizer. Playback jumps to random frame.
func (m *Player) Randomize(r *rand.Rand) {
	if m.numFrames > 0 {
		m.pos = r.Intn(m.numFrames)
	}
}

type playerState struct {
	Position int `json:"position"`
}

// MarshalState implements rack.StateMarshaler.
func (m *Player) MarshalState() (json.RawMessage, error) {
	return json.Marshal(playerState{Position: m.pos})
}

// UnmarshalState implements rack.StateUnmarshaler.
func (m *Player) UnmarshalState(data json.RawMessage) error {
	var s playerState
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch {
	case s.Position < 0:
		m.pos = 0
	case s.Position > m.numFrames:
		m.pos = m.numFrames
	default:
		m.pos = s.Position
	}
	return nil
}
