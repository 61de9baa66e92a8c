package viz

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// EigenTable lists eigenvalues with their frequency and damping ratio.
// Unstable roots are highlighted.
func EigenTable(values []complex128, freq, damping []float64) string {
	rows := make([][]string, len(values))
	for i, v := range values {
		rows[i] = []string{
			strconv.Itoa(i),
			fmt.Sprintf("%.6g", real(v)),
			fmt.Sprintf("%.6g", imag(v)),
			cell(freq, i),
			cell(damping, i),
		}
	}

	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ffff")).Padding(0, 1)
	body := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#444466"))).
		Headers("mode", "real", "imag", "freq", "damping").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			if row >= 0 && row < len(values) {
				return body.Inherit(rootStyle(values[row]))
			}
			return body
		})
	return t.String()
}

func cell(v []float64, i int) string {
	if i >= len(v) {
		return "-"
	}
	return fmt.Sprintf("%.6g", v[i])
}

func rootStyle(v complex128) lipgloss.Style {
	switch {
	case real(v) > 0:
		return UnstableStyle
	case real(v) > -1e-6:
		return MarginalStyle
	default:
		return StableStyle
	}
}
