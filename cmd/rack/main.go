// Command rack renders and plays modular patches.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
)

// Globals are flags shared by all commands.
type Globals struct {
	SampleRate float32 `short:"r" default:"44100" help:"Engine sample rate."`
	Seed       int64   `default:"1" help:"Seed of module randomization."`
}

// CLI defines the command-line interface.
type CLI struct {
	Globals

	Render  RenderCmd  `cmd:"" help:"Bounce patch into wav, aiff or mp3 file."`
	Play    PlayCmd    `cmd:"" help:"Play patch through audio device with live monitor."`
	Modules ModulesCmd `cmd:"" help:"List available modules."`
}

var errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A40000"))

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("rack"),
		kong.Description("Modular audio engine"),
		kong.UsageOnError(),
	)
	if err := ctx.Run(&cli.Globals); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("Error:"), err)
		os.Exit(1)
	}
}

// ModulesCmd lists modules that can be used in patches.
type ModulesCmd struct{}

// Run lists modules.
func (cmd *ModulesCmd) Run(*Globals) error {
	for _, name := range moduleNames() {
		fmt.Println(name)
	}
	return nil
}
