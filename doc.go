/*
Package rack allows to build and execute real-time modular audio graphs.

Concept

The graph consists of modules connected with wires. Module is a DSP unit
with a fixed number of params, inputs, outputs and lights. Wire connects
an output of one module to an input of another. Engine advances the graph
one audio frame at a time:

    apply pending mutations;
    propagate every wire;
    step every module;
    advance param ramps and plug lights.

Modules are stepped in registration order, so feedback wires introduce
one frame of latency.

Modules

Module is implemented by embedding Base into a struct:

    type VCA struct {
        rack.Base
    }

    func NewVCA() *VCA {
        return &VCA{Base: rack.NewBase(1, 2, 1, 0)}
    }

    func (m *VCA) Step() {
        m.Outputs[0].Value = m.Inputs[0].Value * m.Params[0].Value()
    }

Optional hooks are detected when module is added: StreamStepper,
SampleRateChanger, Resetter, Randomizer, StateMarshaler and
StateUnmarshaler.

Execution

Engine is created with functional options:

    e, err := rack.New(rack.WithSampleRate(48000))

Graph is built with AddModule and AddWire. Start launches the scheduler
goroutine locked to its OS thread:

    err = e.Start()
    ...
    err = e.Stop()

While scheduler is running, the graph is owned by it. Every mutation is
queued and applied at the start of the next tick, the caller waits for its
result. Once RemoveModule returns, module is never touched by the engine.
Params and pause flag are atomic and can be written from any goroutine.

Block drivers

Module that implements StreamStepper drives modules wired into its inputs.
Engine doesn't step them in the regular tick. Audio device calls StepBlock
to render a block of frames through the driver:

    err = e.StepBlock(bridge, nil, out, frames)
*/
package rack
