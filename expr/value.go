package expr

import "fmt"

// Value is a shaped numeric payload, stored flat in row-major order.
type Value struct {
	shape Shape
	data  []float64
}

// NewValue builds a Value from a flat row-major slice and a shape. The slice
// length must equal shape.Size().
func NewValue(data []float64, shape Shape) (Value, error) {
	if len(data) != shape.Size() {
		return Value{}, fmt.Errorf("value length %d does not match shape %s (size %d)", len(data), shape, shape.Size())
	}
	return Value{shape: shape.Clone(), data: append([]float64(nil), data...)}, nil
}

// Shape returns the value's dimension tuple.
func (v Value) Shape() Shape { return v.shape }

// Data returns the flat row-major entries. The returned slice is owned by the
// Value; callers must not mutate it.
func (v Value) Data() []float64 { return v.data }

// Size returns the number of scalar entries.
func (v Value) Size() int { return len(v.data) }

// Reshape returns the same entries under a new shape of identical size.
func (v Value) Reshape(shape Shape) (Value, error) {
	if shape.Size() != len(v.data) {
		return Value{}, fmt.Errorf("cannot reshape %d entries to shape %s", len(v.data), shape)
	}
	return Value{shape: shape.Clone(), data: v.data}, nil
}
