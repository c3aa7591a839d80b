package module_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"pipelined.dev/rack"
	"pipelined.dev/rack/log"
	"pipelined.dev/rack/mock"
	"pipelined.dev/rack/module"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newEngine(t *testing.T) *rack.Engine {
	t.Helper()
	e, err := rack.New(rack.WithLogger(log.Discard()), rack.WithSampleRate(48000))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, e.Close())
	})
	return e
}

func TestNew(t *testing.T) {
	assert.Equal(t, []string{"mixer", "sine", "vca"}, module.Names())
	for _, name := range module.Names() {
		m, err := module.New(name)
		assert.NoError(t, err)
		assert.NotNil(t, m)
	}
	_, err := module.New("moog")
	assert.ErrorIs(t, err, module.ErrUnknown)
}

func TestSine(t *testing.T) {
	e := newEngine(t)
	sine := module.NewSine()
	_, err := e.AddModule(sine)
	require.NoError(t, err)
	require.NoError(t, e.SetParam(sine, module.SineFreqParam, 1000))

	// quarter of period at 1kHz.
	for i := 0; i < 12; i++ {
		require.NoError(t, e.Tick())
	}
	assert.InDelta(t, 5, sine.Outputs[module.SineOutput].Value, 1e-3)
	assert.Greater(t, sine.Lights[module.SinePhaseLight].Value(), float32(0))

	var peak float32
	for i := 0; i < 48; i++ {
		require.NoError(t, e.Tick())
		if v := float32(math.Abs(float64(sine.Outputs[module.SineOutput].Value))); v > peak {
			peak = v
		}
	}
	assert.LessOrEqual(t, peak, float32(5))

	data, err := e.MarshalModule(sine)
	require.NoError(t, err)
	restored := module.NewSine()
	require.NoError(t, restored.UnmarshalState(data))
	restoredData, err := restored.MarshalState()
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(restoredData))

	require.NoError(t, e.ResetModule(sine))
	data, err = e.MarshalModule(sine)
	require.NoError(t, err)
	assert.JSONEq(t, `{"phase":0}`, string(data))
	assert.Error(t, sine.UnmarshalState(json.RawMessage(`[`)))
}

func TestSinePitch(t *testing.T) {
	e := newEngine(t)
	pitch := module.NewVCA()
	sine := module.NewSine()
	for _, m := range []rack.Module{pitch, sine} {
		_, err := e.AddModule(m)
		require.NoError(t, err)
	}
	require.NoError(t, e.SetParam(sine, module.SineFreqParam, 500))
	_, err := e.AddWire(&rack.Wire{
		OutputModule: pitch,
		OutputID:     module.VCAOutput,
		InputModule:  sine,
		InputID:      module.SinePitchInput,
	})
	require.NoError(t, err)
	// VCA without input outputs zero volts, pitch stays at 500Hz.
	for i := 0; i < 24; i++ {
		require.NoError(t, e.Tick())
	}
	assert.InDelta(t, 5, sine.Outputs[module.SineOutput].Value, 1e-3)
}

func TestVCA(t *testing.T) {
	tests := []struct {
		name     string
		in       float32
		gain     float32
		cv       *float32
		expected float32
	}{
		{name: "unity", in: 2, gain: 1, expected: 2},
		{name: "gain", in: 2, gain: 0.5, expected: 1},
		{name: "cv", in: 2, gain: 1, cv: float32Ptr(5), expected: 1},
		{name: "negative cv", in: 2, gain: 1, cv: float32Ptr(-5), expected: 0},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			vca := module.NewVCA()
			vca.Params[module.VCAGainParam].Set(test.gain)
			vca.Inputs[module.VCAInput].Value = test.in
			if test.cv != nil {
				vca.Inputs[module.VCACVInput].Value = *test.cv
				vca.Inputs[module.VCACVInput].Active = true
			}
			vca.Step()
			assert.Equal(t, test.expected, vca.Outputs[module.VCAOutput].Value)
		})
	}
}

func TestMixer(t *testing.T) {
	tests := []struct {
		name     string
		inputs   []float32 // nil entries are not connected
		levels   []float32
		master   float32
		expected float32
	}{
		{name: "silent", master: 1, expected: 0},
		{name: "single", inputs: []float32{4}, levels: []float32{1}, master: 1, expected: 4},
		{name: "average", inputs: []float32{4, 2}, levels: []float32{1, 1}, master: 1, expected: 3},
		{name: "levels", inputs: []float32{4, 2}, levels: []float32{0.5, 0}, master: 1, expected: 1},
		{name: "master", inputs: []float32{4, 2}, levels: []float32{1, 1}, master: 0.5, expected: 1.5},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			mixer := module.NewMixer(module.DefaultMixerInputs)
			require.Len(t, mixer.Params, module.DefaultMixerInputs+1)
			for i, v := range test.inputs {
				mixer.Inputs[i].Value = v
				mixer.Inputs[i].Active = true
				mixer.Params[i].Set(test.levels[i])
			}
			mixer.Params[mixer.MasterParam()].Set(test.master)
			mixer.Step()
			assert.Equal(t, test.expected, mixer.Outputs[module.MixerOutput].Value)
			for i := len(test.inputs); i < len(mixer.Lights); i++ {
				assert.Zero(t, mixer.Lights[i].Value())
			}
		})
	}
}

func TestMixerWired(t *testing.T) {
	e := newEngine(t)
	a, b := module.NewVCA(), module.NewVCA()
	mixer := module.NewMixer(2)
	for _, m := range []rack.Module{a, b, mixer} {
		_, err := e.AddModule(m)
		require.NoError(t, err)
	}
	for i, m := range []*module.VCA{a, b} {
		_, err := e.AddWire(&rack.Wire{OutputModule: m, OutputID: module.VCAOutput, InputModule: mixer, InputID: i})
		require.NoError(t, err)
	}
	a.Inputs[module.VCAInput].Value = 5
	b.Inputs[module.VCAInput].Value = 1
	// first tick steps VCAs, second propagates their outputs.
	require.NoError(t, e.Tick())
	require.NoError(t, e.Tick())
	assert.Equal(t, float32(3), mixer.Outputs[module.MixerOutput].Value)
	assert.InDelta(t, 1, mixer.Lights[0].Brightness(), 1e-6)
}

func float32Ptr(v float32) *float32 {
	return &v
}

func TestBridge(t *testing.T) {
	e := newEngine(t)
	sine := module.NewSine()
	vca := module.NewVCA()
	bridge := module.NewBridge(2, 1)
	for _, m := range []rack.Module{bridge, vca, sine} {
		_, err := e.AddModule(m)
		require.NoError(t, err)
	}
	wires := []*rack.Wire{
		{OutputModule: sine, OutputID: module.SineOutput, InputModule: vca, InputID: module.VCAInput},
		{OutputModule: vca, OutputID: module.VCAOutput, InputModule: bridge, InputID: 0},
		// device input is looped back into the right channel.
		{OutputModule: bridge, OutputID: 0, InputModule: bridge, InputID: 1},
	}
	for _, w := range wires {
		_, err := e.AddWire(w)
		require.NoError(t, err)
	}
	require.NoError(t, e.SetParam(sine, module.SineFreqParam, 1000))
	require.NoError(t, e.SetParam(vca, module.VCAGainParam, 0.5))

	const frames = 48
	in := make([]float32, frames)
	for i := range in {
		in[i] = 0.25
	}
	out := make([]float32, 2*frames)
	require.NoError(t, e.StepBlock(bridge, in, out, frames))

	var peak float32
	for i := 0; i < frames; i++ {
		if v := out[2*i]; v > peak {
			peak = v
		}
		assert.Equal(t, float32(0.25), out[2*i+1])
	}
	assert.InDelta(t, 0.5, peak, 1e-3)

	// modules upstream of bridge are stepped by bridge only.
	infos, err := e.Modules()
	require.NoError(t, err)
	for _, info := range infos[1:] {
		assert.True(t, info.Driven)
	}
	phase, err := e.MarshalModule(sine)
	require.NoError(t, err)
	require.NoError(t, e.Tick())
	after, err := e.MarshalModule(sine)
	require.NoError(t, err)
	assert.JSONEq(t, string(phase), string(after))
}

func TestBridgeShortBuffers(t *testing.T) {
	bridge := module.NewBridge(1, 2)
	bridge.Inputs[0].Value = 10
	out := make([]float32, 2)
	// frames beyond out are stepped but not written.
	bridge.StepStream([]float32{0.5}, out, 4)
	assert.Equal(t, []float32{1, 1}, out)
	assert.Equal(t, float32(0), bridge.Outputs[0].Value)
}

func TestBridgeQuarantine(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	e, err := rack.New(rack.WithLogger(logger), rack.WithSampleRate(48000))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, e.Close())
	})
	sine := module.NewSine()
	sine.Params[module.SineFreqParam].Set(1000)
	bad := mock.NewModule(0, 0, 1, 0)
	bad.PanicOnStep = true
	bridge := module.NewBridge(2, 0)
	for _, m := range []rack.Module{sine, bad, bridge} {
		_, err := e.AddModule(m)
		require.NoError(t, err)
	}
	for i, m := range []rack.Module{sine, bad} {
		_, err := e.AddWire(&rack.Wire{OutputModule: m, InputModule: bridge, InputID: i})
		require.NoError(t, err)
	}

	const frames = 16
	out := make([]float32, frames*2)
	for block := 0; block < 3; block++ {
		require.NoError(t, e.StepBlock(bridge, nil, out, frames))
		var peak float64
		for i := 0; i < frames; i++ {
			peak = math.Max(peak, math.Abs(float64(out[2*i])))
			assert.Zero(t, out[2*i+1])
		}
		assert.Greater(t, peak, 0.1, "block %d", block)
	}
	assert.Equal(t, 1, bad.Steps())

	var errorEntries int
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.ErrorLevel {
			errorEntries++
			assert.Equal(t, bad.ID(), entry.Data["module"])
		}
	}
	assert.Equal(t, 1, errorEntries)

	infos, err := e.Modules()
	require.NoError(t, err)
	require.Len(t, infos, 3)
	assert.False(t, infos[0].Quarantined)
	assert.True(t, infos[1].Quarantined)
	assert.False(t, infos[2].Quarantined)
}
