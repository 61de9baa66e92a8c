package stability_test

import (
	"math"
	"math/cmplx"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/aeromodal/internal/aero"
	"github.com/san-kum/aeromodal/internal/dynamo"
	"github.com/san-kum/aeromodal/internal/modeshape"
	"github.com/san-kum/aeromodal/internal/stability"
	"github.com/san-kum/aeromodal/internal/statespace"
	"github.com/san-kum/aeromodal/internal/structure"
)

// oscillators returns a block diagonal operator with roots σ ± iω per pair.
func oscillators(sigma float64, omegas ...float64) *mat.Dense {
	n := 2 * len(omegas)
	a := mat.NewDense(n, n, nil)
	for k, w := range omegas {
		i := 2 * k
		a.Set(i, i, sigma)
		a.Set(i, i+1, w)
		a.Set(i+1, i, -w)
		a.Set(i+1, i+1, sigma)
	}
	return a
}

func diagonal(values ...float64) *mat.Dense {
	a := mat.NewDense(len(values), len(values), nil)
	for i, v := range values {
		a.Set(i, i, v)
	}
	return a
}

var _ = Describe("SortEigenvalues", func() {
	It("keeps the roots at or below the cutoff ordered by magnitude", func() {
		values := []complex128{complex(-0.1, 500), complex(-0.1, 50), complex(-0.1, 1), complex(-0.1, 5)}
		vectors := mat.NewCDense(1, 4, []complex128{0, 1, 2, 3})

		sorted, vecs := stability.SortEigenvalues(values, vectors, 100)

		Expect(sorted).To(HaveLen(3))
		Expect(imag(sorted[0])).To(Equal(1.0))
		Expect(imag(sorted[1])).To(Equal(5.0))
		Expect(imag(sorted[2])).To(Equal(50.0))
		Expect(vecs.At(0, 0)).To(Equal(complex128(2)))
		Expect(vecs.At(0, 2)).To(Equal(complex128(1)))
	})

	It("treats a zero cutoff as no cutoff", func() {
		values := []complex128{complex(0, 1e6), 1}
		sorted, _ := stability.SortEigenvalues(values, mat.NewCDense(1, 2, nil), 0)
		Expect(sorted).To(Equal([]complex128{1, complex(0, 1e6)}))
	})
})

var _ = Describe("Analyzer", func() {
	var (
		reg      *statespace.Registry
		analyzer *stability.Analyzer
	)

	BeforeEach(func() {
		reg = statespace.NewRegistry()
		analyzer = stability.New(reg, nil)
	})

	It("starts uninitialized", func() {
		Expect(analyzer.State()).To(Equal(stability.Uninitialized))
		_, err := analyzer.Result()
		Expect(err).To(MatchError(dynamo.ErrNotComputed))
		_, err = analyzer.Run()
		Expect(err).To(MatchError(dynamo.ErrInvalidInput))
	})

	It("rejects systems that were never assembled", func() {
		err := analyzer.Initialise(stability.Settings{SysID: "aeroelastic"})
		Expect(err).To(MatchError(dynamo.ErrUnknownSystem))
		Expect(analyzer.State()).To(Equal(stability.Uninitialized))
	})

	Context("with a continuous-time system", func() {
		BeforeEach(func() {
			Expect(reg.Register(&statespace.System{ID: "aeroelastic", A: oscillators(-0.1, 1, 5, 50, 500)})).To(Succeed())
			Expect(analyzer.Initialise(stability.Settings{SysID: "aeroelastic", FrequencyCutoff: 100})).To(Succeed())
		})

		It("refuses reconstruction before computing", func() {
			Expect(analyzer.State()).To(Equal(stability.Initialized))
			_, err := analyzer.ReconstructMode(0, nil, nil)
			Expect(err).To(MatchError(dynamo.ErrNotComputed))
			Expect(analyzer.MarkExported()).To(MatchError(dynamo.ErrNotComputed))
		})

		It("truncates and sorts the spectrum", func() {
			res, err := analyzer.Run()
			Expect(err).NotTo(HaveOccurred())
			Expect(analyzer.State()).To(Equal(stability.Computed))

			// the -500i root stays, the +500i root goes
			Expect(res.Len()).To(Equal(7))
			for i := 1; i < res.Len(); i++ {
				Expect(cmplx.Abs(res.Eigenvalues[i])).To(BeNumerically(">=", cmplx.Abs(res.Eigenvalues[i-1])))
			}
			for _, v := range res.Eigenvalues {
				Expect(imag(v)).To(BeNumerically("<=", 100))
				Expect(real(v)).To(BeNumerically("~", -0.1, 1e-9))
			}
			Expect(res.DampingRatios()[0]).To(BeNumerically("~", 0.1/math.Hypot(0.1, 1), 1e-9))
			Expect(math.Abs(res.Frequencies()[0])).To(BeNumerically("~", 1, 1e-9))
		})

		It("is idempotent", func() {
			first, err := analyzer.Run()
			Expect(err).NotTo(HaveOccurred())
			firstValues := append([]complex128(nil), first.Eigenvalues...)

			second, err := analyzer.Run()
			Expect(err).NotTo(HaveOccurred())
			Expect(second.Eigenvalues).To(Equal(firstValues))
		})

		It("moves to exported", func() {
			_, err := analyzer.Run()
			Expect(err).NotTo(HaveOccurred())
			Expect(analyzer.MarkExported()).To(Succeed())
			Expect(analyzer.State()).To(Equal(stability.Exported))
		})
	})

	Context("with a discrete-time system", func() {
		It("converts eigenvalues with the principal logarithm", func() {
			dt := 0.01
			Expect(reg.Register(&statespace.System{ID: "dt", A: diagonal(0.5, 0.9), Dt: dt})).To(Succeed())
			Expect(analyzer.Initialise(stability.Settings{SysID: "dt"})).To(Succeed())

			res, err := analyzer.Run()
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Cutoff).To(Equal(math.Inf(1)))
			Expect(real(res.Eigenvalues[0])).To(BeNumerically("~", math.Log(0.9)/dt, 1e-9))
			Expect(real(res.Eigenvalues[1])).To(BeNumerically("~", math.Log(0.5)/dt, 1e-9))
		})
	})

	Context("with aerodynamic and structural states", func() {
		var lattice *aero.Mesh

		BeforeEach(func() {
			s := aero.NewSurface(1, 1)
			s.Zeta = [][]r3.Vec{{{}, {Y: 1}}, {{X: 1}, {X: 1, Y: 1}}}
			lattice = &aero.Mesh{Surfaces: []aero.Surface{s}}

			// three aero states (Γ, Γ*, Γ̇) then two structural states
			sys := &statespace.System{ID: "aeroelastic", A: diagonal(-1, -2, -3, -4, -5), AeroStates: 3}
			Expect(reg.Register(sys)).To(Succeed())
			Expect(analyzer.Initialise(stability.Settings{SysID: "aeroelastic", NumEvals: 2})).To(Succeed())
			_, err := analyzer.Run()
			Expect(err).NotTo(HaveOccurred())
		})

		It("splits an eigenvector at the aerodynamic state count", func() {
			mode, err := analyzer.ReconstructMode(0, &aero.BlockUnpacker{WakeRows: []int{1}}, lattice)
			Expect(err).NotTo(HaveOccurred())
			Expect(real(mode.Eigenvalue)).To(BeNumerically("~", -1, 1e-12))
			Expect(cmplx.Abs(mode.Aero.Gamma[0][0][0])).To(BeNumerically("~", 1, 1e-12))
			Expect(mode.Struct).To(HaveLen(2))
			Expect(cmplx.Abs(mode.Struct[0])).To(BeNumerically("~", 0, 1e-12))
		})

		It("rejects out of range modes", func() {
			_, err := analyzer.ReconstructMode(9, &aero.BlockUnpacker{WakeRows: []int{1}}, lattice)
			Expect(err).To(MatchError(dynamo.ErrIndexOutOfRange))
		})

		It("finds structurally dominated modes", func() {
			idx, err := analyzer.StructuralModes()
			Expect(err).NotTo(HaveOccurred())
			Expect(idx).To(Equal([]int{3, 4}))
		})

		It("limits exported eigenvectors", func() {
			res, err := analyzer.Result()
			Expect(err).NotTo(HaveOccurred())
			rows, cols := res.ExportedVectors().Dims()
			Expect(rows).To(Equal(5))
			Expect(cols).To(Equal(2))
		})

		It("needs enough structural states for a lattice shape", func() {
			mesh := &structure.Mesh{
				Nodes:    []structure.Node{{BC: structure.Clamped}, {Pos: r3.Vec{Y: 1}}, {Pos: r3.Vec{Y: 2}}},
				Elements: []structure.Element{{Conn: [3]int{0, 2, 1}}},
			}
			_, err := analyzer.ModeShape(3, mesh, lattice, nil, modeshape.DefaultLimits())
			Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))
		})
	})
})

var _ = Describe("ModeShape", func() {
	It("displaces the lattice with the structural block", func() {
		mesh := &structure.Mesh{
			Nodes: []structure.Node{
				{BC: structure.Clamped},
				{Pos: r3.Vec{Y: 1}, BC: structure.FreeSlave},
				{Pos: r3.Vec{Y: 2}, BC: structure.Free},
			},
			Elements: []structure.Element{{Conn: [3]int{0, 2, 1}}},
		}
		s := aero.NewSurface(1, 2)
		for m := 0; m <= 1; m++ {
			for n := 0; n <= 2; n++ {
				s.Zeta[m][n] = r3.Vec{X: float64(m), Y: float64(n)}
			}
		}
		lattice := &aero.Mesh{Surfaces: []aero.Surface{s}}
		table := aero.Struct2Aero{nil, {{Surface: 0, Span: 1}}, {{Surface: 0, Span: 2}}}

		// one aero state, then 12 structural states; the slowest root
		// lives on the tip heave DOF
		values := make([]float64, 13)
		for i := range values {
			values[i] = -float64(i + 2)
		}
		values[1+6+2] = -1

		reg := statespace.NewRegistry()
		Expect(reg.Register(&statespace.System{ID: "s", A: diagonal(values...), AeroStates: 1})).To(Succeed())
		analyzer := stability.New(reg, nil)
		Expect(analyzer.Initialise(stability.Settings{SysID: "s"})).To(Succeed())
		_, err := analyzer.Run()
		Expect(err).NotTo(HaveOccurred())

		shape, err := analyzer.ModeShape(0, mesh, lattice, table, modeshape.DefaultLimits())
		Expect(err).NotTo(HaveOccurred())
		Expect(shape.Displacement[0][0][2]).To(BeNumerically("~", 0.3, 1e-12))
		Expect(shape.Displacement[0][0][1]).To(BeNumerically("~", 0, 1e-12))
	})
})
