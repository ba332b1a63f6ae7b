// Package problem holds the minimization-problem and solver boundary the
// cone subsystem depends on: dual-value distribution after a solve and the
// residual (projection) diagnostic. It ships no numeric solver; backends
// plug in through the Solver interface.
package problem

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/convexsys/conic/constraint"
	"github.com/convexsys/conic/expr"
	"github.com/convexsys/conic/logger"
)

// DistanceObjective minimizes the Euclidean norm of the stacked difference
// between decision variables and a fixed target vector. Target is laid out
// as the row-major concatenation of the variables' entries, in Vars order.
type DistanceObjective struct {
	Vars   []*expr.Variable
	Target []float64
}

// Dim returns the total number of stacked scalar entries.
func (o DistanceObjective) Dim() int {
	n := 0
	for _, v := range o.Vars {
		n += v.Shape().Size()
	}
	return n
}

// Distance evaluates the objective at the variables' current values. ok is
// false while any variable is unassigned.
func (o DistanceObjective) Distance() (float64, bool) {
	point := make([]float64, 0, o.Dim())
	for _, v := range o.Vars {
		val, ok := v.Value()
		if !ok {
			return 0, false
		}
		point = append(point, val.Data()...)
	}
	return floats.Distance(point, o.Target, 2), true
}

// Problem is a minimization problem over cone constraints.
type Problem struct {
	Objective   DistanceObjective
	Constraints []constraint.Cone
}

// Minimize builds a minimization problem.
func Minimize(obj DistanceObjective, cones ...constraint.Cone) *Problem {
	return &Problem{Objective: obj, Constraints: cones}
}

// Solution is what a backend solver returns: the optimal objective value,
// the primal values of the objective variables (in Vars order) and one flat
// dual vector per constraint (nil when the backend produced none).
type Solution struct {
	Value  float64
	Primal [][]float64
	Duals  [][]float64
}

// Solver is the backend boundary. Implementations may spawn internal
// parallelism; they must honor ctx cancellation.
type Solver interface {
	Solve(ctx context.Context, p *Problem) (*Solution, error)
}

// Solve invokes the solver and distributes the results: primal values into
// the objective variables and dual vectors into each constraint's dual
// slots. It is the single dual-slot writer of a solve cycle. Constraints
// that do not support dual recovery are skipped.
func (p *Problem) Solve(ctx context.Context, s Solver) (float64, error) {
	sol, err := s.Solve(ctx, p)
	if err != nil {
		return 0, fmt.Errorf("solve: %w", err)
	}
	if len(sol.Primal) > len(p.Objective.Vars) || len(sol.Duals) > len(p.Constraints) {
		return 0, errors.New("solver returned more values than the problem holds")
	}
	for i, primal := range sol.Primal {
		if primal == nil {
			continue
		}
		if err := p.Objective.Vars[i].SetValue(primal); err != nil {
			return 0, fmt.Errorf("distribute primal %d: %w", i, err)
		}
	}
	log := logger.Logger()
	for i, dual := range sol.Duals {
		if dual == nil {
			continue
		}
		c := p.Constraints[i]
		if err := c.SaveDualValue(dual); err != nil {
			if errors.Is(err, constraint.ErrDualNotSupported) {
				log.Debug().Uint64("constraint", c.ID()).Msg("skipping dual distribution: variant does not recover dual values")
				continue
			}
			return 0, fmt.Errorf("distribute dual of constraint %d: %w", c.ID(), err)
		}
	}
	return sol.Value, nil
}
