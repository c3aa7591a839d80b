// Package module provides reference modules: oscillator, amplifier,
// mixer and a bridge that drives the graph from audio device blocks.
package module

import (
	"errors"
	"fmt"
	"sort"

	"pipelined.dev/rack"
)

// Constructor creates a new module.
type Constructor func() rack.Module

var constructors = map[string]Constructor{
	"sine":  func() rack.Module { return NewSine() },
	"vca":   func() rack.Module { return NewVCA() },
	"mixer": func() rack.Module { return NewMixer(DefaultMixerInputs) },
}

// ErrUnknown is returned when module is not registered.
var ErrUnknown = errors.New("unknown module")

// New creates module by its name.
func New(name string) (rack.Module, error) {
	c, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknown)
	}
	return c(), nil
}

// Names returns sorted names of available modules.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
