package viz

import (
	"fmt"
	"math/cmplx"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/aeromodal/internal/aero"
	"github.com/san-kum/aeromodal/internal/dynamo"
	"github.com/san-kum/aeromodal/internal/modal"
	"github.com/san-kum/aeromodal/internal/modeshape"
	"github.com/san-kum/aeromodal/internal/stability"
)

// ModeEntry is one row of the browser.
type ModeEntry struct {
	Index      int
	Eigenvalue complex128
	Frequency  float64
	Damping    float64
	// Magnitude is |v| per state of the eigenvector.
	Magnitude []float64
	// Zeta is the deformed lattice, nil when no shape was prepared.
	Zeta *aero.Mesh
}

// EntriesFromBasis lists the modes of a modal basis. Shapes are matched by
// mode index.
func EntriesFromBasis(b *modal.Basis, shapes []modeshape.Shape) []ModeEntry {
	byMode := make(map[int]*aero.Mesh, len(shapes))
	for i := range shapes {
		byMode[shapes[i].Mode] = shapes[i].Zeta
	}
	freq := b.Frequencies()
	out := make([]ModeEntry, b.Len())
	for i := range out {
		out[i] = ModeEntry{
			Index:      i,
			Eigenvalue: b.Eigenvalues[i],
			Frequency:  freq[i],
			Damping:    b.Damping[i],
			Magnitude:  magnitudes(dynamo.Column(b.Eigenvectors, i)),
			Zeta:       byMode[i],
		}
	}
	return out
}

// EntriesFromResult lists the roots of a stability result.
func EntriesFromResult(r *stability.Result) []ModeEntry {
	freq, damp := r.Frequencies(), r.DampingRatios()
	out := make([]ModeEntry, r.Len())
	for i := range out {
		out[i] = ModeEntry{
			Index:      i,
			Eigenvalue: r.Eigenvalues[i],
			Frequency:  freq[i],
			Damping:    damp[i],
			Magnitude:  magnitudes(dynamo.Column(r.Eigenvectors, i)),
		}
	}
	return out
}

func magnitudes(v []complex128) []float64 {
	out := make([]float64, len(v))
	for i, z := range v {
		out[i] = cmplx.Abs(z)
	}
	return out
}

// ModeBrowser is a Bubble Tea model for scrolling through modes.
type ModeBrowser struct {
	title     string
	modes     []ModeEntry
	ref       *aero.Mesh
	cursor    int
	offset    int
	rows      int
	width     int
	themeIdx  int
	showShape bool
	camera    *Camera
}

// NewModeBrowser builds a browser. ref is the undeformed lattice used to
// frame mode shapes and may be nil.
func NewModeBrowser(title string, modes []ModeEntry, ref *aero.Mesh) ModeBrowser {
	return ModeBrowser{
		title:     title,
		modes:     modes,
		ref:       ref,
		rows:      12,
		width:     80,
		showShape: ref != nil,
		camera:    NewCamera(),
	}
}

func (m ModeBrowser) Init() tea.Cmd { return nil }

// Selected returns the index of the highlighted mode.
func (m ModeBrowser) Selected() int { return m.cursor }

func (m ModeBrowser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.rows = max(msg.Height/3, 3)
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "down", "j":
			m.move(1)
		case "up", "k":
			m.move(-1)
		case "pgdown":
			m.move(m.rows)
		case "pgup":
			m.move(-m.rows)
		case "g", "home":
			m.move(-len(m.modes))
		case "G", "end":
			m.move(len(m.modes))
		case "s":
			m.showShape = !m.showShape
		case "h", "left":
			m.camera.RotateZ(-0.15)
		case "l", "right":
			m.camera.RotateZ(0.15)
		case "+", "=":
			m.camera.ZoomIn()
		case "-", "_":
			m.camera.ZoomOut()
		case "t":
			m.themeIdx = (m.themeIdx + 1) % len(Themes)
		}
	}
	return m, nil
}

func (m *ModeBrowser) move(d int) {
	if len(m.modes) == 0 {
		return
	}
	m.cursor = min(max(m.cursor+d, 0), len(m.modes)-1)
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.rows {
		m.offset = m.cursor - m.rows + 1
	}
}

func (m ModeBrowser) View() string {
	theme := Themes[m.themeIdx]
	var s strings.Builder
	s.WriteString(theme.title().Render(strings.ToUpper(m.title)) + "\n")
	s.WriteString(Separator(min(m.width, 60)) + "\n")

	if len(m.modes) == 0 {
		s.WriteString(theme.muted().Render("no modes") + "\n")
		return s.String()
	}

	end := min(m.offset+m.rows, len(m.modes))
	for i := m.offset; i < end; i++ {
		e := m.modes[i]
		line := fmt.Sprintf("%4d  %12.5g %+12.5gi  f=%-10.5g ζ=%.4f",
			e.Index, real(e.Eigenvalue), imag(e.Eigenvalue), e.Frequency, e.Damping)
		if i == m.cursor {
			s.WriteString(theme.selected().Render("▸ "+line) + "\n")
		} else {
			s.WriteString("  " + rootStyle(e.Eigenvalue).Render(line) + "\n")
		}
	}
	s.WriteString(theme.muted().Render(fmt.Sprintf("%d/%d", m.cursor+1, len(m.modes))) + "\n\n")

	s.WriteString(m.detail())
	s.WriteString("\n" + KeyHint.Render("j/k move  g/G ends  s shape  h/l rotate  +/- zoom  t theme  q quit"))
	return s.String()
}

func (m ModeBrowser) detail() string {
	e := m.modes[m.cursor]
	var d strings.Builder
	d.WriteString(MetricLabel.Render("eigenvalue") + MetricValue.Render(fmt.Sprintf("%.6g", e.Eigenvalue)) + "\n")
	d.WriteString(MetricLabel.Render("frequency") + MetricValue.Render(fmt.Sprintf("%.6g", e.Frequency)) + "\n")
	d.WriteString(MetricLabel.Render("damping") + MetricValue.Render(fmt.Sprintf("%.6g", e.Damping)) + "\n")

	if len(e.Magnitude) > 1 {
		chart := asciigraph.Plot(e.Magnitude, asciigraph.Height(4), asciigraph.Width(40), asciigraph.Caption("|v| per state"))
		d.WriteString("\n" + chart + "\n")
	}
	panel := Panel.Render(d.String())

	if m.showShape && e.Zeta != nil && m.ref != nil {
		shape := RenderLattice(e.Zeta, m.ref, m.camera, 30, 10)
		return lipgloss.JoinHorizontal(lipgloss.Top, panel, Panel.Render(shape)) + "\n"
	}
	return panel + "\n"
}
