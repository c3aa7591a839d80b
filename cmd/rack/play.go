package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"pipelined.dev/rack"
	"pipelined.dev/rack/log"
	"pipelined.dev/rack/portaudio"
)

// PlayCmd plays patch through audio device.
type PlayCmd struct {
	PatchFlags

	Backend    string `default:"portaudio" enum:"portaudio,oto" help:"Audio backend."`
	BufferSize int    `default:"512" help:"Frames per device buffer."`
}

type device interface {
	Start() error
	Stop() error
	Close() error
}

type renderFunc = func(in, out []float32, frames int) error

type openFunc func(render renderFunc, sampleRate float32, bufferSize int) (device, error)

var backends = map[string]openFunc{
	"portaudio": func(render renderFunc, sampleRate float32, bufferSize int) (device, error) {
		return portaudio.Open(render, float64(sampleRate), 0, numChannels, bufferSize)
	},
}

// Run plays the patch until monitor is closed or device fails.
func (cmd *PlayCmd) Run(g *Globals) error {
	open, ok := backends[cmd.Backend]
	if !ok {
		return fmt.Errorf("backend %q is not available", cmd.Backend)
	}
	// monitor owns the terminal.
	e, err := rack.New(
		rack.WithSampleRate(g.SampleRate),
		rack.WithSeed(g.Seed),
		rack.WithLogger(log.Discard()),
	)
	if err != nil {
		return err
	}
	defer e.Close()
	p, err := newPatch(e, cmd.PatchFlags)
	if err != nil {
		return err
	}

	errc := make(chan error, 1)
	render := p.render(e)
	dev, err := open(func(in, out []float32, frames int) error {
		err := render(in, out, frames)
		if err != nil {
			select {
			case errc <- err:
			default:
			}
		}
		return err
	}, g.SampleRate, cmd.BufferSize)
	if err != nil {
		return err
	}
	defer dev.Close()
	if err := dev.Start(); err != nil {
		return err
	}

	program := tea.NewProgram(newMonitor(e, p), tea.WithAltScreen())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		defer cancel()
		_, err := program.Run()
		return err
	})
	group.Go(func() error {
		select {
		case err := <-errc:
			program.Send(errMsg{err: err})
			return err
		case <-ctx.Done():
			return nil
		}
	})
	err = group.Wait()
	return rack.Errors{}.Add(err).Add(dev.Stop()).Ret()
}
