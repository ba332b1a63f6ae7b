package expr

import (
	"strconv"
	"strings"
)

// Shape is the dimension tuple of a term. A scalar has the empty shape.
type Shape []int

// Size returns the number of scalar entries of a term with shape s.
func (s Shape) Size() int {
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

// Equal reports whether s and o are the same dimension tuple.
func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// Valid reports whether every dimension is positive.
func (s Shape) Valid() bool {
	for _, d := range s {
		if d <= 0 {
			return false
		}
	}
	return true
}

// Clone returns a copy of s.
func (s Shape) Clone() Shape {
	if s == nil {
		return nil
	}
	return append(Shape(nil), s...)
}

// Prepend returns a new shape with d added as the leading axis.
func (s Shape) Prepend(d int) Shape {
	r := make(Shape, 0, len(s)+1)
	r = append(r, d)
	return append(r, s...)
}

func (s Shape) String() string {
	var sbb strings.Builder
	sbb.WriteByte('(')
	for i, d := range s {
		if i > 0 {
			sbb.WriteString(", ")
		}
		sbb.WriteString(strconv.Itoa(d))
	}
	sbb.WriteByte(')')
	return sbb.String()
}
