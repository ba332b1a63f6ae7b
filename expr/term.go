package expr

import (
	"fmt"
	"sync/atomic"

	"github.com/bits-and-blooms/bitset"
)

// Term is a normalized node of the expression graph. Every operand a cone
// constraint carries is a Term: a Variable, a Constant, a Parameter, or an
// affine combination of those. All constructors validate shapes, so a Term in
// hand is always well-shaped.
type Term interface {
	// Shape returns the term's dimension tuple.
	Shape() Shape

	// IsAffine reports whether the term is an affine function of its
	// variable-like leaves under the given analysis scope.
	IsAffine(scope Scope) bool

	// Value returns the term's current numeric value. ok is false if any
	// leaf the term depends on has no value assigned yet.
	Value() (Value, bool)

	fmt.Stringer

	// leaves records the term's variable-like leaf IDs under scope into vs.
	leaves(scope Scope, vs *bitset.BitSet)
}

// leafID hands out process-unique IDs for Variable and Parameter leaves.
var leafID atomic.Uint64

func nextLeafID() uint {
	return uint(leafID.Add(1))
}

// Leaves returns the set of variable-like leaf IDs the term depends on under
// scope. Under the default scope the set holds variable IDs only; under a DPP
// scope parameter IDs are included as well.
func Leaves(t Term, scope Scope) *bitset.BitSet {
	vs := bitset.New(64)
	t.leaves(scope, vs)
	return vs
}

// isConstant reports whether t has no variable-like leaves under scope.
func isConstant(t Term, scope Scope) bool {
	var vs bitset.BitSet
	t.leaves(scope, &vs)
	return vs.None()
}

// Variable is a decision-variable leaf. Its value slot is empty until a solve
// (or the user) assigns one.
type Variable struct {
	id    uint
	name  string
	shape Shape
	value *Value
}

// NewVariable creates a fresh decision variable with the given shape. name
// may be empty; a default derived from the variable ID is used for rendering.
func NewVariable(shape Shape, name string) *Variable {
	return &Variable{id: nextLeafID(), name: name, shape: shape.Clone()}
}

// ID returns the process-unique ID of the variable.
func (v *Variable) ID() uint { return v.id }

// Name returns the display name of the variable.
func (v *Variable) Name() string {
	if v.name == "" {
		return fmt.Sprintf("var%d", v.id)
	}
	return v.name
}

func (v *Variable) Shape() Shape { return v.shape }
func (v *Variable) IsAffine(_ Scope) bool { return true }
func (v *Variable) String() string { return v.Name() }
func (v *Variable) Value() (Value, bool) {
	if v.value == nil {
		return Value{}, false
	}
	return *v.value, true
}

// SetValue assigns a flat row-major value to the variable. The length must
// match the variable's shape.
func (v *Variable) SetValue(data []float64) error {
	val, err := NewValue(data, v.shape)
	if err != nil {
		return fmt.Errorf("set value of %s: %w", v.Name(), err)
	}
	v.value = &val
	return nil
}

// ClearValue removes the variable's value, returning it to the unassigned
// state.
func (v *Variable) ClearValue() { v.value = nil }

func (v *Variable) leaves(_ Scope, vs *bitset.BitSet) { vs.Set(v.id) }

// Constant is a numeric leaf.
type Constant struct {
	val Value
}

// NewConstant creates a constant from a flat row-major slice and a shape.
func NewConstant(data []float64, shape Shape) (*Constant, error) {
	val, err := NewValue(data, shape)
	if err != nil {
		return nil, err
	}
	return &Constant{val: val}, nil
}

// Scalar creates a scalar constant.
func Scalar(x float64) *Constant {
	return &Constant{val: Value{data: []float64{x}}}
}

func (c *Constant) Shape() Shape { return c.val.shape }
func (c *Constant) IsAffine(_ Scope) bool { return true }
func (c *Constant) Value() (Value, bool) { return c.val, true }

func (c *Constant) String() string {
	if len(c.val.data) == 1 {
		return fmt.Sprintf("%g", c.val.data[0])
	}
	return fmt.Sprintf("const%s", c.val.shape)
}

func (c *Constant) leaves(_ Scope, _ *bitset.BitSet) {}

// Parameter is a named placeholder leaf. Under the default discipline it
// behaves like a constant; under a DPP scope it is treated like a variable.
type Parameter struct {
	id    uint
	name  string
	shape Shape
	value *Value
}

// NewParameter creates a parameter with the given shape.
func NewParameter(shape Shape, name string) *Parameter {
	return &Parameter{id: nextLeafID(), name: name, shape: shape.Clone()}
}

// ID returns the process-unique ID of the parameter.
func (p *Parameter) ID() uint { return p.id }

// Name returns the display name of the parameter.
func (p *Parameter) Name() string {
	if p.name == "" {
		return fmt.Sprintf("param%d", p.id)
	}
	return p.name
}

func (p *Parameter) Shape() Shape { return p.shape }
func (p *Parameter) IsAffine(_ Scope) bool { return true }
func (p *Parameter) String() string { return p.Name() }

func (p *Parameter) Value() (Value, bool) {
	if p.value == nil {
		return Value{}, false
	}
	return *p.value, true
}

// SetValue assigns a flat row-major value to the parameter.
func (p *Parameter) SetValue(data []float64) error {
	val, err := NewValue(data, p.shape)
	if err != nil {
		return fmt.Errorf("set value of %s: %w", p.Name(), err)
	}
	p.value = &val
	return nil
}

func (p *Parameter) leaves(scope Scope, vs *bitset.BitSet) {
	if scope.DPP {
		vs.Set(p.id)
	}
}
