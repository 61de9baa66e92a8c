package viz

import (
	"github.com/guptarohit/asciigraph"
)

// FrequencyPlot draws values over the mode index.
func FrequencyPlot(values []float64, caption string, width, height int) string {
	if len(values) == 0 {
		return ""
	}
	if len(values) == 1 {
		values = []float64{values[0], values[0]}
	}
	return asciigraph.Plot(values,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(3),
		asciigraph.Caption(caption),
	)
}
