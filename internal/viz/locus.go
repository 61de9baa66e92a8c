package viz

import (
	"fmt"
	"strings"
)

// RootLocus scatters eigenvalues over the complex plane on a w x h
// character canvas, real part to the right and imaginary part up. The
// imaginary axis is drawn dashed whenever it is in view.
func RootLocus(values []complex128, w, h int) string {
	if w < 2 || h < 2 {
		return ""
	}
	c := NewCanvas(w, h)
	if len(values) == 0 {
		return c.String()
	}

	b := Bounds{XMin: real(values[0]), XMax: real(values[0]), YMin: imag(values[0]), YMax: imag(values[0])}
	for _, v := range values {
		b.Include(real(v), imag(v))
	}
	b.Include(0, 0)
	b = b.Pad(0.05)

	pw, ph := c.Pixels()
	x0, y0 := b.ToPixel(0, b.YMin, pw, ph)
	x1, y1 := b.ToPixel(0, b.YMax, pw, ph)
	c.DrawDashed(x0, y0, x1, y1, 2)
	x0, y0 = b.ToPixel(b.XMin, 0, pw, ph)
	x1, y1 = b.ToPixel(b.XMax, 0, pw, ph)
	c.DrawDashed(x0, y0, x1, y1, 2)

	for _, v := range values {
		px, py := b.ToPixel(real(v), imag(v), pw, ph)
		c.Set(px, py)
		c.Set(px+1, py)
		c.Set(px, py+1)
		c.Set(px+1, py+1)
	}

	var s strings.Builder
	s.WriteString(c.String())
	s.WriteString(Subtle.Render(fmt.Sprintf("Re [%.3g, %.3g]  Im [%.3g, %.3g]", b.XMin, b.XMax, b.YMin, b.YMax)))
	return s.String()
}
