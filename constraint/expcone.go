package constraint

import (
	"fmt"

	"github.com/convexsys/conic/expr"
)

// ExpCone is a reformulated exponential cone constraint, elementwise over
// x, y, z.
//
// Original cone:
//
//	K = {(x,y,z) | y > 0, y*exp(x/y) <= z} ∪ {(x,y,z) | x <= 0, y = 0, z >= 0}
//
// Reformulated cone:
//
//	K = {(x,y,z) | y,z > 0, y*log(y) + x <= y*log(z)} ∪ {(x,y,z) | x <= 0, y = 0, z >= 0}
//
// The reformulation is numerically stable; both define the same set.
type ExpCone struct {
	coneBase
}

// NewExpCone builds an exponential cone constraint over three operands of
// identical shape. Raw inputs are normalized with expr.CastToConst; a shape
// disagreement fails with a *ShapeMismatchError.
func NewExpCone(x, y, z any) (*ExpCone, error) {
	base, err := newConeBase(x, y, z)
	if err != nil {
		return nil, err
	}
	return &ExpCone{coneBase: base}, nil
}

func (c *ExpCone) String() string {
	return fmt.Sprintf("ExpCone(%s, %s, %s)", c.x, c.y, c.z)
}

// SaveDualValue stores the flat dual vector returned by the solver into the
// three per-operand dual slots. Called once per solve cycle.
func (c *ExpCone) SaveDualValue(v []float64) error {
	return c.saveDual(v)
}

// WithArgs builds a fresh ExpCone over new operands.
func (c *ExpCone) WithArgs(x, y, z expr.Term) (Cone, error) {
	return NewExpCone(x, y, z)
}

// AsQuadApprox converts the constraint into its quadrature-based
// relative-entropy surrogate. The cone correspondence maps the exponential
// cone's (x, y, z) onto the relative-entropy cone's (y, z, -x): the same
// operands, permuted, with the third slot negated. m is the quadrature node
// count and k the approximation order; both must be positive, and larger
// values tighten the approximation at higher representation cost.
func (c *ExpCone) AsQuadApprox(m, k int) (*RelEntrQuad, error) {
	return NewRelEntrQuad(c.y, c.z, expr.Neg(c.x), m, k)
}
