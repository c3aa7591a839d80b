package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"pipelined.dev/rack"
	"pipelined.dev/rack/log"
	"pipelined.dev/rack/mp3"
	"pipelined.dev/rack/signal"
	"pipelined.dev/rack/wav"
)

// RenderCmd bounces patch into file.
type RenderCmd struct {
	PatchFlags

	Output    string        `arg:"" help:"Output file, format is chosen by extension."`
	Duration  time.Duration `short:"d" default:"5s" help:"Length of rendered audio."`
	BlockSize int           `default:"512" help:"Frames rendered per block."`
	BitDepth  int           `default:"16" enum:"8,16,24,32" help:"Bit depth of wav and aiff files."`
	BitRate   int           `default:"192" help:"Bit rate of mp3 files."`
	Stats     bool          `help:"Print module statistics after rendering."`
}

type recorder interface {
	Write([]float32) error
	Close() error
}

func openRecorder(path string, sampleRate, bitDepth, bitRate int) (recorder, error) {
	if strings.EqualFold(filepath.Ext(path), ".mp3") {
		return mp3.NewRecorder(path, sampleRate, numChannels, bitRate, 2)
	}
	return wav.NewRecorder(path, sampleRate, numChannels, signal.BitDepth(bitDepth))
}

// Run renders the patch.
func (cmd *RenderCmd) Run(g *Globals) error {
	logger := log.GetLogger()
	options := []rack.Option{
		rack.WithSampleRate(g.SampleRate),
		rack.WithSeed(g.Seed),
		rack.WithLogger(logger),
	}
	if cmd.Stats {
		options = append(options, rack.WithMetrics())
	}
	e, err := rack.New(options...)
	if err != nil {
		return err
	}
	defer e.Close()
	p, err := newPatch(e, cmd.PatchFlags)
	if err != nil {
		return err
	}
	r, err := openRecorder(cmd.Output, int(g.SampleRate), cmd.BitDepth, cmd.BitRate)
	if err != nil {
		return err
	}

	start := time.Now()
	frames, err := bounce(p.render(e), r, signal.FramesOf(g.SampleRate, cmd.Duration), cmd.BlockSize)
	if closeErr := r.Close(); closeErr != nil {
		err = rack.Errors{}.Add(err).Add(closeErr).Ret()
	}
	if err != nil {
		return err
	}
	elapsed := time.Since(start)
	logger.WithFields(logrus.Fields{
		"output":   cmd.Output,
		"duration": signal.DurationOf(g.SampleRate, frames),
		"elapsed":  elapsed,
	}).Info("rendered")

	if cmd.Stats {
		infos, err := e.Modules()
		if err != nil {
			return err
		}
		fmt.Println(statsTable(infos))
	}
	return nil
}

// bounce renders frames in blocks into recorder and returns number of
// rendered frames.
func bounce(render func(in, out []float32, frames int) error, r recorder, frames int64, blockSize int) (int64, error) {
	if blockSize <= 0 {
		return 0, fmt.Errorf("block size %d: %w", blockSize, rack.ErrIndexOutOfRange)
	}
	block := make([]float32, blockSize*numChannels)
	var rendered int64
	for rendered < frames {
		n := blockSize
		if left := frames - rendered; left < int64(n) {
			n = int(left)
		}
		out := block[:n*numChannels]
		if err := render(nil, out, n); err != nil {
			return rendered, fmt.Errorf("render block: %w", err)
		}
		if err := r.Write(out); err != nil {
			return rendered, err
		}
		rendered += int64(n)
	}
	return rendered, nil
}
