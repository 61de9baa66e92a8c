package storage

import (
	"os"
	"path/filepath"

	"github.com/san-kum/aeromodal/internal/aero"
	"github.com/san-kum/aeromodal/internal/dynamo"
	"github.com/san-kum/aeromodal/internal/statespace"
	"github.com/san-kum/aeromodal/internal/structure"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

// Case is everything an analysis reads from disk.
type Case struct {
	Name        string
	Structure   *structure.Mesh
	Matrices    *CSVProvider
	Lattice     *aero.Mesh
	Struct2Aero aero.Struct2Aero
	Unpacker    *aero.BlockUnpacker
	Velocity    *aero.SteadyVelocityField
	Systems     *statespace.Registry
}

type caseFile struct {
	Name      string        `yaml:"name"`
	Structure structureFile `yaml:"structure"`
	Aero      *aeroFile     `yaml:"aero"`
	Systems   []systemFile  `yaml:"systems"`
}

type structureFile struct {
	Orientation []float64    `yaml:"orientation"`
	Nodes       []nodeFile   `yaml:"nodes"`
	Elements    []elemFile   `yaml:"elements"`
	Matrices    matrixFiles  `yaml:"matrices"`
	Rigid       *matrixFiles `yaml:"rigid_matrices"`
}

type nodeFile struct {
	Pos []float64                   `yaml:"pos"`
	BC  structure.BoundaryCondition `yaml:"bc"`
}

type elemFile struct {
	Conn [structure.NodesPerElement]int `yaml:"conn"`
	Psi  [][]float64                    `yaml:"psi"`
}

type matrixFiles struct {
	Mass      string `yaml:"mass"`
	Damping   string `yaml:"damping"`
	Stiffness string `yaml:"stiffness"`
}

type aeroFile struct {
	Surfaces    []surfaceFile     `yaml:"surfaces"`
	WakeRows    []int             `yaml:"wake_rows"`
	Struct2Aero [][]aero.StripRef `yaml:"struct2aero"`
	Velocity    *velocityFile     `yaml:"velocity"`
}

// surfaceFile gives either an explicit lattice or a flat rectangular
// planform that is discretised uniformly.
type surfaceFile struct {
	M        int           `yaml:"m"`
	N        int           `yaml:"n"`
	Zeta     [][][]float64 `yaml:"zeta"`
	Planform *planform     `yaml:"planform"`
}

type planform struct {
	LeadingEdge []float64 `yaml:"leading_edge"`
	Chord       float64   `yaml:"chord"`
	Span        float64   `yaml:"span"`
}

type velocityFile struct {
	UInf      float64   `yaml:"u_inf"`
	Direction []float64 `yaml:"direction"`
}

type systemFile struct {
	ID         string  `yaml:"id"`
	A          string  `yaml:"a"`
	Dt         float64 `yaml:"dt"`
	AeroStates int     `yaml:"aero_states"`
}

// LoadCase reads a case description. Matrix paths are resolved relative to
// the case file.
func LoadCase(path string) (*Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cf caseFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)

	c := &Case{Name: cf.Name, Systems: statespace.NewRegistry()}
	if c.Name == "" {
		c.Name = trimExt(filepath.Base(path))
	}

	if c.Structure, err = cf.Structure.mesh(); err != nil {
		return nil, err
	}
	if err := c.Structure.Validate(); err != nil {
		return nil, err
	}
	if cf.Structure.Matrices.Mass != "" {
		c.Matrices = &CSVProvider{Elastic: cf.Structure.Matrices.resolve(dir)}
		if cf.Structure.Rigid != nil {
			rigid := cf.Structure.Rigid.resolve(dir)
			c.Matrices.Rigid = &rigid
		}
	}

	if cf.Aero != nil {
		if err := cf.Aero.fill(c); err != nil {
			return nil, err
		}
	}

	for _, s := range cf.Systems {
		a, err := ReadMatrixCSV(resolve(dir, s.A))
		if err != nil {
			return nil, err
		}
		if err := c.Systems.Register(&statespace.System{ID: s.ID, A: a, Dt: s.Dt, AeroStates: s.AeroStates}); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (sf *structureFile) mesh() (*structure.Mesh, error) {
	m := &structure.Mesh{
		Nodes:    make([]structure.Node, len(sf.Nodes)),
		Elements: make([]structure.Element, len(sf.Elements)),
	}
	if len(sf.Orientation) > 0 {
		if len(sf.Orientation) != 4 {
			return nil, dynamo.Errorf(dynamo.ErrInvalidInput, "case", "orientation", "%d components, want 4", len(sf.Orientation))
		}
		o := sf.Orientation
		m.Orientation = quat.Number{Real: o[0], Imag: o[1], Jmag: o[2], Kmag: o[3]}
	}
	for i, n := range sf.Nodes {
		pos, err := vec(n.Pos, "pos", i)
		if err != nil {
			return nil, err
		}
		m.Nodes[i] = structure.Node{Pos: pos, BC: n.BC}
	}
	for i, e := range sf.Elements {
		m.Elements[i].Conn = e.Conn
		if len(e.Psi) == 0 {
			continue
		}
		if len(e.Psi) != structure.NodesPerElement {
			return nil, dynamo.IndexError(dynamo.ErrInvalidInput, "case", "psi", i, "%d rotation vectors", len(e.Psi))
		}
		for l, p := range e.Psi {
			psi, err := vec(p, "psi", i)
			if err != nil {
				return nil, err
			}
			m.Elements[i].Psi[l] = psi
		}
	}
	return m, nil
}

func (af *aeroFile) fill(c *Case) error {
	c.Lattice = &aero.Mesh{Surfaces: make([]aero.Surface, len(af.Surfaces))}
	for i, s := range af.Surfaces {
		surf, err := s.surface(i)
		if err != nil {
			return err
		}
		c.Lattice.Surfaces[i] = surf
	}
	if err := c.Lattice.Validate(); err != nil {
		return err
	}

	if af.Struct2Aero != nil {
		c.Struct2Aero = aero.Struct2Aero(af.Struct2Aero)
		if err := c.Struct2Aero.Validate(len(c.Structure.Nodes), c.Lattice); err != nil {
			return err
		}
	}
	if af.WakeRows != nil {
		c.Unpacker = &aero.BlockUnpacker{WakeRows: af.WakeRows}
		if _, err := c.Unpacker.Len(c.Lattice); err != nil {
			return err
		}
	}
	if af.Velocity != nil {
		dir := r3.Vec{X: 1}
		if len(af.Velocity.Direction) > 0 {
			d, err := vec(af.Velocity.Direction, "direction", 0)
			if err != nil {
				return err
			}
			if r3.Norm(d) == 0 {
				return dynamo.Errorf(dynamo.ErrInvalidInput, "case", "direction", "zero velocity direction")
			}
			dir = r3.Unit(d)
		}
		c.Velocity = &aero.SteadyVelocityField{UInf: af.Velocity.UInf, Direction: dir}
	}
	return nil
}

func (s *surfaceFile) surface(idx int) (aero.Surface, error) {
	surf := aero.NewSurface(s.M, s.N)
	switch {
	case s.Planform != nil:
		le, err := vec(s.Planform.LeadingEdge, "leading_edge", idx)
		if err != nil {
			return aero.Surface{}, err
		}
		for m := 0; m <= s.M; m++ {
			for n := 0; n <= s.N; n++ {
				surf.Zeta[m][n] = r3.Add(le, r3.Vec{
					X: s.Planform.Chord * float64(m) / float64(s.M),
					Y: s.Planform.Span * float64(n) / float64(s.N),
				})
			}
		}
	case s.Zeta != nil:
		if len(s.Zeta) != s.M+1 {
			return aero.Surface{}, dynamo.IndexError(dynamo.ErrDimensionMismatch, "case", "zeta", idx, "%d rows, want %d", len(s.Zeta), s.M+1)
		}
		for m, row := range s.Zeta {
			if len(row) != s.N+1 {
				return aero.Surface{}, dynamo.IndexError(dynamo.ErrDimensionMismatch, "case", "zeta", idx, "row %d has %d vertices", m, len(row))
			}
			for n, p := range row {
				v, err := vec(p, "zeta", idx)
				if err != nil {
					return aero.Surface{}, err
				}
				surf.Zeta[m][n] = v
			}
		}
	default:
		return aero.Surface{}, dynamo.IndexError(dynamo.ErrInvalidInput, "case", "surface", idx, "needs zeta or planform")
	}
	return surf, nil
}

func vec(v []float64, qty string, idx int) (r3.Vec, error) {
	if len(v) != 3 {
		return r3.Vec{}, dynamo.IndexError(dynamo.ErrInvalidInput, "case", qty, idx, "%d components, want 3", len(v))
	}
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}, nil
}

func (mf matrixFiles) resolve(dir string) matrixFiles {
	return matrixFiles{
		Mass:      resolve(dir, mf.Mass),
		Damping:   resolve(dir, mf.Damping),
		Stiffness: resolve(dir, mf.Stiffness),
	}
}

func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}

// CSVProvider assembles structural matrices by reading them from CSV files
// on every call.
type CSVProvider struct {
	Elastic matrixFiles
	Rigid   *matrixFiles
}

// NewCSVProvider builds a provider for the elastic operators only. An empty
// damping path means no damping.
func NewCSVProvider(mass, damping, stiffness string) *CSVProvider {
	return &CSVProvider{Elastic: matrixFiles{Mass: mass, Damping: damping, Stiffness: stiffness}}
}

func (p *CSVProvider) Assemble(_ *structure.Mesh, rigidBody bool) (*structure.Matrices, error) {
	files := p.Elastic
	if rigidBody {
		if p.Rigid == nil {
			return nil, dynamo.Errorf(dynamo.ErrInvalidInput, "storage", "rigid_matrices", "case has no rigid-body matrices")
		}
		files = *p.Rigid
	}

	var (
		mx  structure.Matrices
		err error
	)
	if mx.M, err = ReadMatrixCSV(files.Mass); err != nil {
		return nil, err
	}
	if mx.K, err = ReadMatrixCSV(files.Stiffness); err != nil {
		return nil, err
	}
	if files.Damping != "" {
		if mx.C, err = ReadMatrixCSV(files.Damping); err != nil {
			return nil, err
		}
	}
	if _, err := mx.Dim(); err != nil {
		return nil, err
	}
	return &mx, nil
}

var _ structure.MatrixProvider = (*CSVProvider)(nil)
