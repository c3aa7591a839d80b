package module

import (
	"pipelined.dev/rack"
	"pipelined.dev/rack/signal"
)

// Bridge connects the graph to blocks of interleaved samples. It's a
// block driver: StepStream steps every module upstream of its inputs
// once per frame and writes input voltages into out. Samples of in are
// written into outputs.
//
// Samples are normalized: signal.Voltage maps to full scale.
type Bridge struct {
	rack.Base
	chain  rack.Chain
	frame  []float32
	sample []float32
}

// NewBridge returns bridge with provided number of channels in each
// direction.
func NewBridge(numInputs, numOutputs int) *Bridge {
	return &Bridge{
		Base:   rack.NewBase(0, numInputs, numOutputs, 0),
		frame:  make([]float32, numInputs),
		sample: make([]float32, numOutputs),
	}
}

// Step implements rack.Module. Bridge does nothing in regular ticks.
func (m *Bridge) Step() {}

// StepStream implements rack.StreamStepper. Frames missing in in are
// treated as silence, out is filled up to its length.
func (m *Bridge) StepStream(in, out []float32, frames int) {
	m.chain.Update(m)
	numInputs, numOutputs := len(m.Inputs), len(m.Outputs)
	sampleTime := m.SampleTime()
	for i := 0; i < frames; i++ {
		for c := range m.sample {
			m.sample[c] = 0
			if j := i*numOutputs + c; j < len(in) {
				m.sample[c] = in[j]
			}
		}
		signal.ToVoltage(m.sample, m.sample)
		for c := range m.Outputs {
			m.Outputs[c].Value = m.sample[c]
		}

		m.chain.Step(sampleTime)

		for c := range m.Inputs {
			m.Inputs[c].Pull()
			m.frame[c] = m.Inputs[c].Value
		}
		if j := (i + 1) * numInputs; j <= len(out) {
			signal.FromVoltage(m.frame, out[i*numInputs:j])
		}
	}
}
