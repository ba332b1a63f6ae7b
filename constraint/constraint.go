// Package constraint defines the elementwise triple-cone constraints consumed
// by the canonicalization pipeline: the exponential cone and its
// quadrature-parametrized relative-entropy approximation.
//
// A constraint is immutable once constructed, except for its dual-value
// slots, which are written once per solve cycle by the solve orchestrator.
package constraint

import (
	"fmt"
	"sync/atomic"

	"github.com/convexsys/conic/expr"
)

// Cone is the capability set a concrete cone variant exposes to the
// canonicalization pipeline.
type Cone interface {
	// ID returns the process-unique constraint ID.
	ID() uint64

	// Args returns the operand terms, in the fixed order x, y, z.
	Args() []expr.Term

	// NumCones returns the number of elementwise cones packed into the
	// constraint.
	NumCones() int

	// Size returns the number of entries in the combined cones.
	Size() int

	// Shape returns the combined shape: a leading axis of length 3
	// enumerating the per-cone triple, followed by the operand shape.
	Shape() expr.Shape

	// ConeSizes returns the dimension of each elementwise cone.
	ConeSizes() []int

	// IsDCP reports whether the constraint obeys the disciplined-convex
	// rules under the given analysis scope.
	IsDCP(scope expr.Scope) bool

	// IsDGP reports whether the constraint obeys the disciplined-geometric
	// rules.
	IsDGP(scope expr.Scope) bool

	// IsDQCP reports whether the constraint obeys the disciplined-quasiconvex
	// rules.
	IsDQCP() bool

	// SaveDualValue distributes a flat dual vector of length Size back into
	// the three per-operand dual slots.
	SaveDualValue(v []float64) error

	// DualValue returns the recovered dual value for operand i (0 = x,
	// 1 = y, 2 = z). ok is false before the first solve.
	DualValue(i int) (val expr.Value, ok bool)

	// WithArgs builds a constraint of the same variant (carrying any control
	// parameters) over fresh operands.
	WithArgs(x, y, z expr.Term) (Cone, error)

	fmt.Stringer
}

var coneID atomic.Uint64

// coneBase carries the bookkeeping shared by every elementwise triple-cone
// variant: the three operands, the derived sizes and the dual slots.
type coneBase struct {
	id      uint64
	x, y, z expr.Term
	dual    [3]*expr.Value
}

// newConeBase normalizes the three raw operands and enforces the shape
// invariant. It runs exactly once, at construction.
func newConeBase(x, y, z any) (coneBase, error) {
	xt, err := expr.CastToConst(x)
	if err != nil {
		return coneBase{}, fmt.Errorf("cast operand x: %w", err)
	}
	yt, err := expr.CastToConst(y)
	if err != nil {
		return coneBase{}, fmt.Errorf("cast operand y: %w", err)
	}
	zt, err := expr.CastToConst(z)
	if err != nil {
		return coneBase{}, fmt.Errorf("cast operand z: %w", err)
	}
	if !xt.Shape().Equal(yt.Shape()) || !xt.Shape().Equal(zt.Shape()) {
		return coneBase{}, &ShapeMismatchError{X: xt.Shape(), Y: yt.Shape(), Z: zt.Shape()}
	}
	return coneBase{id: coneID.Add(1), x: xt, y: yt, z: zt}, nil
}

func (c *coneBase) ID() uint64 { return c.id }

func (c *coneBase) Args() []expr.Term { return []expr.Term{c.x, c.y, c.z} }

func (c *coneBase) NumCones() int { return c.x.Shape().Size() }

func (c *coneBase) Size() int { return 3 * c.NumCones() }

func (c *coneBase) Shape() expr.Shape { return c.x.Shape().Prepend(3) }

func (c *coneBase) ConeSizes() []int {
	sizes := make([]int, c.NumCones())
	for i := range sizes {
		sizes[i] = 3
	}
	return sizes
}

// IsDCP holds iff every operand is affine under scope. The cone itself is
// convex; only the operands can break the discipline.
func (c *coneBase) IsDCP(scope expr.Scope) bool {
	return c.x.IsAffine(scope) && c.y.IsAffine(scope) && c.z.IsAffine(scope)
}

// IsDGP is false for every triple cone: neither variant admits a log-log
// convex reading.
func (c *coneBase) IsDGP(_ expr.Scope) bool { return false }

// IsDQCP collapses to IsDCP under the default scope.
func (c *coneBase) IsDQCP() bool { return c.IsDCP(expr.Scope{}) }

// saveDual reshapes a flat dual vector to (NumCones, 3), splits it
// column-wise and stores one per-operand array per slot. The vector is laid
// out per cone: (x_i, y_i, z_i) repeated for each cone index i.
func (c *coneBase) saveDual(v []float64) error {
	n := c.NumCones()
	if len(v) != 3*n {
		return &ReshapeError{Got: len(v), Want: 3 * n}
	}
	shape := c.x.Shape()
	for j := 0; j < 3; j++ {
		col := make([]float64, n)
		for i := 0; i < n; i++ {
			col[i] = v[3*i+j]
		}
		val, err := expr.NewValue(col, shape)
		if err != nil {
			return err
		}
		c.dual[j] = &val
	}
	return nil
}

func (c *coneBase) DualValue(i int) (expr.Value, bool) {
	if i < 0 || i > 2 || c.dual[i] == nil {
		return expr.Value{}, false
	}
	return *c.dual[i], true
}
