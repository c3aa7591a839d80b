//go:build !headless

package oto

import (
	"fmt"

	"github.com/ebitengine/oto/v3"

	"pipelined.dev/rack/signal"
)

// Device plays reader through oto context. Only one device can exist in
// the process.
type Device struct {
	ctx    *oto.Context
	player *oto.Player
	reader *Reader
}

// Open creates oto context and player.
func Open(render RenderFunc, sampleRate, numChannels int, bufferFrames int) (*Device, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: numChannels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   signal.DurationOf(float32(sampleRate), int64(bufferFrames)),
	})
	if err != nil {
		return nil, fmt.Errorf("oto context: %w", err)
	}
	<-ready
	r := NewReader(render, numChannels)
	return &Device{
		ctx:    ctx,
		player: ctx.NewPlayer(r),
		reader: r,
	}, nil
}

// Start starts playback.
func (d *Device) Start() error {
	d.player.Play()
	return d.ctx.Err()
}

// Stop pauses playback.
func (d *Device) Stop() error {
	d.player.Pause()
	return d.reader.Err()
}

// Close closes the player. Context is kept by oto until process exits.
func (d *Device) Close() error {
	return d.player.Close()
}

// Err returns the first render or player error.
func (d *Device) Err() error {
	if err := d.reader.Err(); err != nil {
		return err
	}
	return d.player.Err()
}
