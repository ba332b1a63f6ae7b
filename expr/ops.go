package expr

import (
	"fmt"
	"math"

	"github.com/bits-and-blooms/bitset"
	"gonum.org/v1/gonum/floats"
)

// neg is the elementwise negation of a term.
type neg struct {
	x Term
}

// Neg returns the elementwise negation of x.
func Neg(x Term) Term {
	// -(-x) collapses; the graph stays small when converters bounce a term
	// back and forth.
	if n, ok := x.(*neg); ok {
		return n.x
	}
	return &neg{x: x}
}

func (n *neg) Shape() Shape { return n.x.Shape() }
func (n *neg) IsAffine(scope Scope) bool { return n.x.IsAffine(scope) }
func (n *neg) String() string { return fmt.Sprintf("-%s", n.x) }

func (n *neg) Value() (Value, bool) {
	xv, ok := n.x.Value()
	if !ok {
		return Value{}, false
	}
	data := make([]float64, len(xv.data))
	copy(data, xv.data)
	floats.Scale(-1, data)
	return Value{shape: xv.shape, data: data}, true
}

func (n *neg) leaves(scope Scope, vs *bitset.BitSet) { n.x.leaves(scope, vs) }

// add is the elementwise sum of two identically shaped terms.
type add struct {
	x, y Term
}

// Add returns the elementwise sum x + y. The shapes must agree.
func Add(x, y Term) (Term, error) {
	if !x.Shape().Equal(y.Shape()) {
		return nil, fmt.Errorf("cannot add terms of shapes %s and %s", x.Shape(), y.Shape())
	}
	return &add{x: x, y: y}, nil
}

// Sub returns the elementwise difference x - y. The shapes must agree.
func Sub(x, y Term) (Term, error) {
	return Add(x, Neg(y))
}

func (a *add) Shape() Shape { return a.x.Shape() }
func (a *add) IsAffine(scope Scope) bool { return a.x.IsAffine(scope) && a.y.IsAffine(scope) }
func (a *add) String() string { return fmt.Sprintf("(%s + %s)", a.x, a.y) }

func (a *add) Value() (Value, bool) {
	xv, ok := a.x.Value()
	if !ok {
		return Value{}, false
	}
	yv, ok := a.y.Value()
	if !ok {
		return Value{}, false
	}
	data := make([]float64, len(xv.data))
	floats.AddTo(data, xv.data, yv.data)
	return Value{shape: xv.shape, data: data}, true
}

func (a *add) leaves(scope Scope, vs *bitset.BitSet) {
	a.x.leaves(scope, vs)
	a.y.leaves(scope, vs)
}

// scale multiplies a term by a numeric scalar.
type scale struct {
	c float64
	x Term
}

// Scale returns c * x for a numeric scalar c.
func Scale(c float64, x Term) Term {
	return &scale{c: c, x: x}
}

func (s *scale) Shape() Shape { return s.x.Shape() }
func (s *scale) IsAffine(scope Scope) bool { return s.x.IsAffine(scope) }
func (s *scale) String() string { return fmt.Sprintf("%g * %s", s.c, s.x) }

func (s *scale) Value() (Value, bool) {
	xv, ok := s.x.Value()
	if !ok {
		return Value{}, false
	}
	data := make([]float64, len(xv.data))
	copy(data, xv.data)
	floats.Scale(s.c, data)
	return Value{shape: xv.shape, data: data}, true
}

func (s *scale) leaves(scope Scope, vs *bitset.BitSet) { s.x.leaves(scope, vs) }

// abs is the elementwise absolute value: convex, but not affine.
type abs struct {
	x Term
}

// Abs returns the elementwise absolute value of x.
func Abs(x Term) Term {
	return &abs{x: x}
}

func (a *abs) Shape() Shape { return a.x.Shape() }
func (a *abs) IsAffine(_ Scope) bool { return false }
func (a *abs) String() string { return fmt.Sprintf("abs(%s)", a.x) }

func (a *abs) Value() (Value, bool) {
	xv, ok := a.x.Value()
	if !ok {
		return Value{}, false
	}
	data := make([]float64, len(xv.data))
	for i, f := range xv.data {
		data[i] = math.Abs(f)
	}
	return Value{shape: xv.shape, data: data}, true
}

func (a *abs) leaves(scope Scope, vs *bitset.BitSet) { a.x.leaves(scope, vs) }

// paramScale multiplies a term by a scalar parameter. This is the node that
// separates the default discipline from the parametrized one: the product is
// affine when the parameter counts as a constant, bilinear when it counts as
// a variable.
type paramScale struct {
	p *Parameter
	x Term
}

// ParamScale returns p * x for a scalar parameter p.
func ParamScale(p *Parameter, x Term) (Term, error) {
	if len(p.Shape()) != 0 {
		return nil, fmt.Errorf("parameter %s of shape %s cannot scale a term: scalar parameter required", p.Name(), p.Shape())
	}
	return &paramScale{p: p, x: x}, nil
}

func (ps *paramScale) Shape() Shape { return ps.x.Shape() }

func (ps *paramScale) IsAffine(scope Scope) bool {
	if !ps.x.IsAffine(scope) {
		return false
	}
	if !scope.DPP {
		return true
	}
	return isConstant(ps.x, scope)
}

func (ps *paramScale) String() string { return fmt.Sprintf("%s * %s", ps.p, ps.x) }

func (ps *paramScale) Value() (Value, bool) {
	pv, ok := ps.p.Value()
	if !ok {
		return Value{}, false
	}
	xv, ok := ps.x.Value()
	if !ok {
		return Value{}, false
	}
	data := make([]float64, len(xv.data))
	copy(data, xv.data)
	floats.Scale(pv.data[0], data)
	return Value{shape: xv.shape, data: data}, true
}

func (ps *paramScale) leaves(scope Scope, vs *bitset.BitSet) {
	ps.p.leaves(scope, vs)
	ps.x.leaves(scope, vs)
}
