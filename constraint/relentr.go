package constraint

import (
	"fmt"

	"github.com/convexsys/conic/expr"
)

// RelEntrQuad is an outer approximation of the scalar relative-entropy cone
//
//	K_re = cl{(x, y, tau) in R++^3 : x*log(x/y) <= tau}
//
// elementwise over x, y, z (z standing for tau), built from an m-node,
// order-k quadrature scheme. The quadrature construction itself lives in the
// reduction layer; this variant only carries the two control parameters and
// the operand bookkeeping.
type RelEntrQuad struct {
	coneBase
	m, k int
}

// NewRelEntrQuad builds a quadrature relative-entropy constraint over three
// operands of identical shape. m and k must be positive.
func NewRelEntrQuad(x, y, z any, m, k int) (*RelEntrQuad, error) {
	if m <= 0 || k <= 0 {
		return nil, fmt.Errorf("m=%d, k=%d: %w", m, k, ErrNonPositiveParam)
	}
	base, err := newConeBase(x, y, z)
	if err != nil {
		return nil, err
	}
	return &RelEntrQuad{coneBase: base, m: m, k: k}, nil
}

// GetData returns the quadrature parameters (m, k). They are not expression
// operands; copy and serialization logic must preserve them verbatim to
// reconstruct an equivalent constraint.
func (c *RelEntrQuad) GetData() (m, k int) {
	return c.m, c.k
}

func (c *RelEntrQuad) String() string {
	return fmt.Sprintf("RelEntrQuad(%s, %s, %s, %d, %d)", c.x, c.y, c.z, c.m, c.k)
}

// SaveDualValue returns ErrDualNotSupported: dual recovery for the
// quadrature variant is not implemented, and callers must not rely on dual
// values from it.
func (c *RelEntrQuad) SaveDualValue(_ []float64) error {
	return ErrDualNotSupported
}

// WithArgs builds a fresh RelEntrQuad over new operands, carrying (m, k)
// forward.
func (c *RelEntrQuad) WithArgs(x, y, z expr.Term) (Cone, error) {
	return NewRelEntrQuad(x, y, z, c.m, c.k)
}
