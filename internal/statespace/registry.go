// Package statespace keeps the coupled linear operators assembled for an
// analysis, addressed by name.
package statespace

import (
	"sort"

	"github.com/san-kum/aeromodal/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// System is a first-order operator ẋ = A x (or x[k+1] = A x[k] when Dt is
// positive). The first AeroStates rows are aerodynamic states, the rest are
// structural.
type System struct {
	ID         string
	A          *mat.Dense
	Dt         float64
	AeroStates int
}

// Discrete reports whether A is a discrete-time operator.
func (s *System) Discrete() bool { return s.Dt > 0 }

func (s *System) Validate() error {
	if s.ID == "" {
		return dynamo.Errorf(dynamo.ErrInvalidInput, "statespace", "id", "empty system identifier")
	}
	if s.A == nil {
		return dynamo.Errorf(dynamo.ErrInvalidInput, "statespace", "A", "system %q has no state matrix", s.ID)
	}
	r, c := s.A.Dims()
	if r != c {
		return dynamo.Errorf(dynamo.ErrDimensionMismatch, "statespace", "A", "system %q is %dx%d", s.ID, r, c)
	}
	if s.AeroStates < 0 || s.AeroStates > r {
		return dynamo.Errorf(dynamo.ErrDimensionMismatch, "statespace", "aero_states", "%d outside [0, %d]", s.AeroStates, r)
	}
	if s.Dt < 0 {
		return dynamo.Errorf(dynamo.ErrInvalidTimestep, "statespace", "dt", "system %q has dt %g", s.ID, s.Dt)
	}
	return nil
}

type Registry struct {
	systems map[string]*System
}

func NewRegistry() *Registry {
	return &Registry{systems: make(map[string]*System)}
}

// Register stores sys, replacing any system with the same identifier.
func (r *Registry) Register(sys *System) error {
	if err := sys.Validate(); err != nil {
		return err
	}
	r.systems[sys.ID] = sys
	return nil
}

func (r *Registry) Lookup(id string) (*System, error) {
	sys, ok := r.systems[id]
	if !ok {
		return nil, dynamo.Errorf(dynamo.ErrUnknownSystem, "statespace", "sys_id", "%q has not been assembled", id)
	}
	return sys, nil
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.systems))
	for name := range r.systems {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
