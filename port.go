package rack

// plugVoltage is the signal level that fully lights a plug.
const plugVoltage = 5

// Input is a module's signal endpoint. Value is written only by the
// engine during wire propagation and read only by the owning module.
type Input struct {
	// Value of the port, zero if not plugged in.
	Value float32
	// Active is true if a wire is plugged in.
	Active bool
	// PlugLights show positive and negative signal at the plug.
	PlugLights [2]Light

	wire *Wire
}

// Normalize returns the value if a wire is plugged in, otherwise returns
// the given default value.
func (in *Input) Normalize(normal float32) float32 {
	if in.Active {
		return in.Value
	}
	return normal
}

// Wire returns connected wire or nil.
func (in *Input) Wire() *Wire {
	return in.wire
}

// Pull copies current value of the connected output into the input
// right away. Block drivers use it to read upstream modules they step
// themselves.
func (in *Input) Pull() {
	if in.wire == nil {
		return
	}
	in.Value = in.wire.source().Value
	in.Active = true
}

// Output is a module's signal source. Value is written by the owning
// module and read by the engine.
type Output struct {
	// Value of the port.
	Value float32
	// Active is true if at least one wire is plugged in.
	Active bool
	// PlugLights show positive and negative signal at the plug.
	PlugLights [2]Light

	wire *Wire
}

// Wire returns the first connected wire or nil.
func (out *Output) Wire() *Wire {
	return out.wire
}

// drivePlugLights updates plug lights with the port value.
func drivePlugLights(lights *[2]Light, value, sampleTime float32) {
	v := value / plugVoltage
	lights[0].SetBrightnessSmooth(v, sampleTime)
	lights[1].SetBrightnessSmooth(-v, sampleTime)
}
