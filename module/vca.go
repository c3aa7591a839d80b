package module

import "pipelined.dev/rack"

// VCA params and ports.
const (
	VCAGainParam = iota
)

const (
	VCAInput = iota
	// VCACVInput scales gain linearly, 10V is unity.
	VCACVInput
)

const (
	VCAOutput = iota
)

// vcaCVNormal is the control voltage assumed when nothing is plugged
// into VCACVInput.
const vcaCVNormal = 10

// VCA is a voltage controlled amplifier.
type VCA struct {
	rack.Base
}

// NewVCA returns amplifier with unity gain.
func NewVCA() *VCA {
	m := &VCA{Base: rack.NewBase(1, 2, 1, 0)}
	m.Params[VCAGainParam].Set(1)
	return m
}

// Step implements rack.Module.
func (m *VCA) Step() {
	cv := m.Inputs[VCACVInput].Normalize(vcaCVNormal) / vcaCVNormal
	if cv < 0 {
		cv = 0
	}
	m.Outputs[VCAOutput].Value = m.Inputs[VCAInput].Value * m.Params[VCAGainParam].Value() * cv
}
