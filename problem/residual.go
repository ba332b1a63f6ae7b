package problem

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/convexsys/conic/constraint"
	"github.com/convexsys/conic/expr"
	"github.com/convexsys/conic/logger"
)

// Residual is the outcome of a cone residual computation. Defined is false
// when the cone's operands had no values yet, which is not an error: it
// distinguishes "not yet solved" from a zero residual.
type Residual struct {
	Value   float64
	Defined bool
}

// ConeResidual computes the Euclidean distance from the cone's current
// operand values to its feasible set, by projecting onto the cone: fresh
// variables matching the operand shapes are constrained to a cone of the
// same variant (carrying any control parameters) and the norm of the stacked
// difference to the current values is minimized.
//
// This solves a nested convex program through s and is expensive. It is a
// feasibility diagnostic; never call it on hot compilation paths.
func ConeResidual(ctx context.Context, c constraint.Cone, s Solver) (Residual, error) {
	args := c.Args()
	target := make([]float64, 0, c.Size())
	for _, a := range args {
		val, ok := a.Value()
		if !ok {
			return Residual{}, nil
		}
		target = append(target, val.Data()...)
	}

	fresh := make([]*expr.Variable, len(args))
	for i, a := range args {
		fresh[i] = expr.NewVariable(a.Shape(), "")
	}
	projected, err := c.WithArgs(fresh[0], fresh[1], fresh[2])
	if err != nil {
		return Residual{}, err
	}

	log := logger.Logger()
	log.Debug().Uint64("constraint", c.ID()).Int("numCones", c.NumCones()).Msg("solving cone projection for residual")

	p := Minimize(DistanceObjective{Vars: fresh, Target: target}, projected)
	sol, err := s.Solve(ctx, p)
	if err != nil {
		return Residual{}, err
	}
	return Residual{Value: sol.Value, Defined: true}, nil
}

// Residuals computes residuals for a batch of cones, running up to
// maxParallel nested solves concurrently (maxParallel <= 0 means no limit).
// The result slice matches cones by index.
func Residuals(ctx context.Context, cones []constraint.Cone, s Solver, maxParallel int) ([]Residual, error) {
	res := make([]Residual, len(cones))
	g, ctx := errgroup.WithContext(ctx)
	if maxParallel > 0 {
		g.SetLimit(maxParallel)
	}
	for i, c := range cones {
		i, c := i, c
		g.Go(func() error {
			var err error
			res[i], err = ConeResidual(ctx, c, s)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}
