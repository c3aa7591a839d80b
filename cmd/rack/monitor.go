package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pipelined.dev/rack"
)

const (
	refreshInterval = 100 * time.Millisecond
	// cpuSmoothing is the weight of the latest sample in CPU average.
	cpuSmoothing = 0.2
	gainStep     = 0.1
	maxGain      = 2
	meterWidth   = 20
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A40000")).MarginBottom(1)
	keyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	valueStyle  = lipgloss.NewStyle().Bold(true)
	pausedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFAA00"))
	meterStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00"))
)

type refreshMsg time.Time

type errMsg struct {
	err error
}

// monitor is the bubbletea model of play command. It shows averaged
// CPU time of every module and controls pause and gain.
type monitor struct {
	e          *rack.Engine
	p          *patch
	sampleRate float32
	infos      []rack.ModuleInfo
	cpu        map[string]float64 // seconds per frame
	err        error
}

func newMonitor(e *rack.Engine, p *patch) monitor {
	return monitor{
		e:          e,
		p:          p,
		sampleRate: e.SampleRate(),
		cpu:        make(map[string]float64),
	}
}

func refresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

// Init implements tea.Model.
func (m monitor) Init() tea.Cmd {
	return refresh()
}

// Update implements tea.Model.
func (m monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.key(msg.String())
	case refreshMsg:
		infos, err := m.e.Modules()
		if err != nil {
			m.err = err
			return m, tea.Quit
		}
		m.infos = infos
		for _, info := range infos {
			prev, ok := m.cpu[info.ID]
			cur := info.CPUTime.Seconds()
			if ok {
				cur = prev + (cur-prev)*cpuSmoothing
			}
			m.cpu[info.ID] = cur
		}
		return m, refresh()
	case errMsg:
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m monitor) key(key string) (tea.Model, tea.Cmd) {
	var err error
	switch key {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case " ", "space", "p":
		m.e.SetPaused(!m.e.Paused())
	case "+", "=":
		err = m.p.setGain(m.e, clampGain(m.p.gain()+gainStep))
	case "-", "_":
		err = m.p.setGain(m.e, clampGain(m.p.gain()-gainStep))
	case "r":
		err = m.e.RandomizeModule(m.p.source)
	case "0":
		err = m.e.ResetModule(m.p.source)
	}
	if err != nil {
		m.err = err
		return m, tea.Quit
	}
	return m, nil
}

func clampGain(g float32) float32 {
	switch {
	case g < 0:
		return 0
	case g > maxGain:
		return maxGain
	}
	return g
}

// View implements tea.Model.
func (m monitor) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("rack"))
	b.WriteString("\n")
	state := valueStyle.Render("playing")
	if m.e.Paused() {
		state = pausedStyle.Render("paused")
	}
	fmt.Fprintf(&b, "%s %s  %s %s  %s %s\n\n",
		keyStyle.Render("state:"), state,
		keyStyle.Render("gain:"), valueStyle.Render(fmt.Sprintf("%.1f", m.p.gain())),
		keyStyle.Render("rate:"), valueStyle.Render(fmt.Sprintf("%.0f Hz", m.sampleRate)),
	)
	for _, info := range m.infos {
		cpu := m.cpu[info.ID]
		fmt.Fprintf(&b, "%-24s %s %s\n", info.Type, meter(cpu*float64(m.sampleRate)), formatCPU(cpu, m.sampleRate))
	}
	if m.err != nil {
		fmt.Fprintf(&b, "\n%s %v\n", errorStyle.Render("Error:"), m.err)
	}
	b.WriteString(keyStyle.Render("\nspace pause  +/- gain  r randomize  0 reset  q quit\n"))
	return b.String()
}

// meter draws share of frame period as a bar.
func meter(share float64) string {
	n := int(share * meterWidth)
	switch {
	case n < 0:
		n = 0
	case n > meterWidth:
		n = meterWidth
	}
	return "[" + meterStyle.Render(strings.Repeat("|", n)) + strings.Repeat(" ", meterWidth-n) + "]"
}
