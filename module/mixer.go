package module

import (
	"pipelined.dev/rack"
	"pipelined.dev/rack/signal"
)

// DefaultMixerInputs is the number of mixer inputs created by New.
const DefaultMixerInputs = 4

const (
	MixerOutput = iota
)

// Mixer averages signals of its connected inputs. Every input has a
// level param and a light that follows the input voltage. The last
// param is the master level.
type Mixer struct {
	rack.Base
}

// NewMixer returns mixer with numInputs inputs at unity level.
func NewMixer(numInputs int) *Mixer {
	m := &Mixer{Base: rack.NewBase(numInputs+1, numInputs, 1, numInputs)}
	for i := range m.Params {
		m.Params[i].Set(1)
	}
	return m
}

// MasterParam returns index of the master level param.
func (m *Mixer) MasterParam() int {
	return len(m.Inputs)
}

// Step implements rack.Module.
func (m *Mixer) Step() {
	var sum float32
	var signals int
	for i := range m.Inputs {
		in := &m.Inputs[i]
		if !in.Active {
			m.Lights[i].SetBrightness(0)
			continue
		}
		v := in.Value * m.Params[i].Value()
		m.Lights[i].SetBrightness(v / signal.Voltage)
		sum += v
		signals++
	}
	if signals == 0 {
		m.Outputs[MixerOutput].Value = 0
		return
	}
	m.Outputs[MixerOutput].Value = sum / float32(signals) * m.Params[m.MasterParam()].Value()
}
