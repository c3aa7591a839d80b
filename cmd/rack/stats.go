package main

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"pipelined.dev/rack"
	"pipelined.dev/rack/metric"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A40000")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// statsTable renders modules with their last step duration and metric
// counters of their type, if metrics are enabled.
func statsTable(infos []rack.ModuleInfo) string {
	counters := metric.GetAll()
	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		row := []string{info.ID, info.Type, info.CPUTime.String(), flags(info)}
		c := counters[typeName(info.Type)]
		row = append(row, c[metric.StepCounter], c[metric.CPUCounter])
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i][1] < rows[j][1]
	})
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "Type", "Last step", "State", "Steps", "CPU").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		String()
}

func flags(info rack.ModuleInfo) string {
	switch {
	case info.Quarantined:
		return "quarantined"
	case info.Driven:
		return "driven"
	}
	return "ticked"
}

// typeName strips pointer prefix, metrics are keyed by element type.
func typeName(t string) string {
	if len(t) > 0 && t[0] == '*' {
		return t[1:]
	}
	return t
}

// formatCPU formats duration as share of the frame period.
func formatCPU(cpu float64, sampleRate float32) string {
	return fmt.Sprintf("%5.1f%%", cpu*float64(sampleRate)*100)
}
