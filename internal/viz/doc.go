// Package viz renders analysis results in the terminal.
//
//   - [EigenTable]: styled table of eigenvalues, frequencies and damping
//   - [RootLocus]: braille scatter of eigenvalues in the complex plane
//   - [FrequencyPlot]: line plot of frequencies over the mode index
//   - [RenderLattice]: wireframe of a (deformed) aerodynamic lattice
//   - [ModeBrowser]: interactive Bubble Tea view for scrolling modes
//
// # Key Bindings
//
//	j/k    - Next/previous mode
//	g/G    - First/last mode
//	s      - Toggle lattice view
//	h/l    - Rotate lattice
//	+/-    - Zoom lattice
//	t      - Cycle color themes
//	q      - Quit
package viz
