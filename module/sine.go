package module

import (
	"encoding/json"
	"math"
	"math/rand"

	"pipelined.dev/rack"
)

// Sine params, ports and lights.
const (
	SineFreqParam = iota
	SineLevelParam
)

const (
	// SinePitchInput is 1V/oct pitch offset.
	SinePitchInput = iota
)

const (
	SineOutput = iota
)

const (
	SinePhaseLight = iota
)

// DefaultFreq is the frequency of oscillator without pitch input.
const DefaultFreq = 440

// Sine is a sine oscillator. Output swings between -level and level
// volts.
type Sine struct {
	rack.Base
	phase float64
}

// NewSine returns oscillator at DefaultFreq with 5V level.
func NewSine() *Sine {
	m := &Sine{Base: rack.NewBase(2, 1, 1, 1)}
	m.Params[SineFreqParam].Set(DefaultFreq)
	m.Params[SineLevelParam].Set(5)
	return m
}

// Step implements rack.Module.
func (m *Sine) Step() {
	freq := float64(m.Params[SineFreqParam].Value())
	freq *= math.Exp2(float64(m.Inputs[SinePitchInput].Normalize(0)))
	m.phase += freq * float64(m.SampleTime())
	m.phase -= math.Floor(m.phase)
	v := math.Sin(2 * math.Pi * m.phase)
	m.Outputs[SineOutput].Value = float32(v) * m.Params[SineLevelParam].Value()
	m.Lights[SinePhaseLight].SetBrightnessSmooth(float32(v), m.SampleTime())
}

// Reset implements rack.Resetter.
func (m *Sine) Reset() {
	m.phase = 0
}

// Randomize implements rack.Randomizer.
func (m *Sine) Randomize(r *rand.Rand) {
	m.phase = r.Float64()
}

type sineState struct {
	Phase float64 `json:"phase"`
}

// MarshalState implements rack.StateMarshaler.
func (m *Sine) MarshalState() (json.RawMessage, error) {
	return json.Marshal(sineState{Phase: m.phase})
}

// UnmarshalState implements rack.StateUnmarshaler.
func (m *Sine) UnmarshalState(data json.RawMessage) error {
	var s sineState
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	m.phase = s.Phase - math.Floor(s.Phase)
	return nil
}
