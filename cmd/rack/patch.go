package main

import (
	"fmt"

	"pipelined.dev/rack"
	"pipelined.dev/rack/module"
	"pipelined.dev/rack/wav"
)

const numChannels = 2

// PatchFlags configure the patch shared by render and play.
type PatchFlags struct {
	Freq  float32 `default:"440" help:"Oscillator frequency in Hz."`
	Gain  float32 `default:"0.5" help:"Output gain."`
	Input string  `short:"i" type:"existingfile" help:"Wav or aiff file played in loop instead of oscillator."`
}

// patch is a source wired through a VCA per channel into a bridge.
type patch struct {
	source rack.Module
	vcas   [numChannels]*module.VCA
	bridge *module.Bridge
}

func moduleNames() []string {
	return append(module.Names(), "bridge", "player")
}

// newPatch registers and wires patch modules.
func newPatch(e *rack.Engine, flags PatchFlags) (*patch, error) {
	p := patch{
		bridge: module.NewBridge(numChannels, 0),
	}
	var sourceOutputs int
	if flags.Input != "" {
		player, err := wav.NewPlayer(flags.Input)
		if err != nil {
			return nil, err
		}
		player.Params[wav.PlayerLoopParam].Set(1)
		p.source, sourceOutputs = player, len(player.Outputs)
	} else {
		sine := module.NewSine()
		sine.Params[module.SineFreqParam].Set(flags.Freq)
		p.source, sourceOutputs = sine, 1
	}
	if sourceOutputs == 0 {
		return nil, fmt.Errorf("source has no outputs")
	}

	modules := []rack.Module{p.source}
	for c := range p.vcas {
		p.vcas[c] = module.NewVCA()
		p.vcas[c].Params[module.VCAGainParam].Set(flags.Gain)
		modules = append(modules, p.vcas[c])
	}
	modules = append(modules, p.bridge)
	for _, m := range modules {
		if _, err := e.AddModule(m); err != nil {
			return nil, err
		}
	}

	for c, vca := range p.vcas {
		wires := []*rack.Wire{
			{OutputModule: p.source, OutputID: c % sourceOutputs, InputModule: vca, InputID: module.VCAInput},
			{OutputModule: vca, OutputID: module.VCAOutput, InputModule: p.bridge, InputID: c},
		}
		for _, w := range wires {
			if _, err := e.AddWire(w); err != nil {
				return nil, err
			}
		}
	}
	return &p, nil
}

// render renders a block of frames through bridge.
func (p *patch) render(e *rack.Engine) func(in, out []float32, frames int) error {
	return func(in, out []float32, frames int) error {
		return e.StepBlock(p.bridge, in, out, frames)
	}
}

// setGain ramps gain of every channel.
func (p *patch) setGain(e *rack.Engine, gain float32) error {
	for _, vca := range p.vcas {
		if err := e.SetParamSmooth(vca, module.VCAGainParam, gain); err != nil {
			return err
		}
	}
	return nil
}

// gain returns the gain target.
func (p *patch) gain() float32 {
	return p.vcas[0].Params[module.VCAGainParam].Target()
}
