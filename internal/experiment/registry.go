package experiment

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// Kind names a solver.
type Kind string

const (
	KindModal     Kind = "modal"
	KindStability Kind = "stability"
)

type Registry struct {
	solvers map[Kind]func(*zap.Logger) Solver
}

func NewRegistry() *Registry {
	r := &Registry{
		solvers: make(map[Kind]func(*zap.Logger) Solver),
	}

	r.solvers[KindModal] = func(l *zap.Logger) Solver { return newModalSolver(l) }
	r.solvers[KindStability] = func(l *zap.Logger) Solver { return newStabilitySolver(l) }

	return r
}

func (r *Registry) Get(name string, logger *zap.Logger) (Solver, error) {
	fn, ok := r.solvers[Kind(name)]
	if !ok {
		return nil, fmt.Errorf("unknown solver: %s", name)
	}
	return fn(logger), nil
}

func (r *Registry) Kinds() []string {
	names := make([]string, 0, len(r.solvers))
	for k := range r.solvers {
		names = append(names, string(k))
	}
	sort.Strings(names)
	return names
}
