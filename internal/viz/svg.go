package viz

import (
	"fmt"
	"strings"
)

// LocusSVG renders eigenvalues as an SVG scatter over the complex plane.
// Stable roots are green, roots with a positive real part red.
func LocusSVG(values []complex128, width, height int) string {
	if len(values) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	b := Bounds{XMin: real(values[0]), XMax: real(values[0]), YMin: imag(values[0]), YMax: imag(values[0])}
	for _, v := range values {
		b.Include(real(v), imag(v))
	}
	b.Include(0, 0)
	b = b.Pad(0.1)

	toX := func(x float64) float64 { return (x - b.XMin) / (b.XMax - b.XMin) * float64(width) }
	toY := func(y float64) float64 { return float64(height) - (y-b.YMin)/(b.YMax-b.YMin)*float64(height) }

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g stroke="#444466" stroke-width="1" stroke-dasharray="4 4">
<line x1="%.1f" y1="0" x2="%.1f" y2="%d"/>
<line x1="0" y1="%.1f" x2="%d" y2="%.1f"/>
</g>
`, width, height, width, height, toX(0), toX(0), height, toY(0), width, toY(0)))

	for _, v := range values {
		fill := "#00ff88"
		if real(v) > 0 {
			fill = "#ff4444"
		}
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="3" fill="%s"><title>%.6g%+.6gi</title></circle>
`, toX(real(v)), toY(imag(v)), fill, real(v), imag(v)))
	}

	sb.WriteString(fmt.Sprintf(`<text x="4" y="%d" fill="#888899" font-family="monospace" font-size="11">Re [%.3g, %.3g]  Im [%.3g, %.3g]</text>
</svg>`, height-4, b.XMin, b.XMax, b.YMin, b.YMax))
	return sb.String()
}
