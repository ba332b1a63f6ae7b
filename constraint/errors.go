package constraint

import (
	"errors"
	"fmt"

	"github.com/convexsys/conic/expr"
)

// ShapeMismatchError is returned at construction when the three cone operands
// do not share a single shape.
type ShapeMismatchError struct {
	X, Y, Z expr.Shape
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("all cone operands must have the same shape; got %s, %s, %s", e.X, e.Y, e.Z)
}

// ReshapeError is returned by dual-value recovery when the flat dual vector
// cannot be reshaped into the cone's entries.
type ReshapeError struct {
	Got, Want int
}

func (e *ReshapeError) Error() string {
	return fmt.Sprintf("cannot reshape dual vector of length %d into %d cone entries", e.Got, e.Want)
}

// ErrDualNotSupported is returned by SaveDualValue on variants that do not
// recover dual values. Callers must not rely on dual values from such
// constraints.
var ErrDualNotSupported = errors.New("dual value recovery is not supported for this constraint")

// ErrNonPositiveParam is returned when a quadrature parameter is zero or
// negative.
var ErrNonPositiveParam = errors.New("quadrature parameters m and k must be positive")
