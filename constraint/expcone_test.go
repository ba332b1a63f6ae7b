package constraint_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"

	"github.com/convexsys/conic/constraint"
	"github.com/convexsys/conic/expr"
)

func newTriple(t *testing.T, shape expr.Shape) (x, y, z *expr.Variable) {
	t.Helper()
	return expr.NewVariable(shape, "x"), expr.NewVariable(shape, "y"), expr.NewVariable(shape, "z")
}

func bothVariants(t *testing.T, shape expr.Shape) []constraint.Cone {
	t.Helper()
	x, y, z := newTriple(t, shape)
	ec, err := constraint.NewExpCone(x, y, z)
	require.NoError(t, err)
	rq, err := constraint.NewRelEntrQuad(x, y, z, 4, 3)
	require.NoError(t, err)
	return []constraint.Cone{ec, rq}
}

func checkBookkeeping(c constraint.Cone, shape expr.Shape) bool {
	n := shape.Size()
	if c.NumCones() != n {
		return false
	}
	if c.Size() != 3*n {
		return false
	}
	if !c.Shape().Equal(shape.Prepend(3)) {
		return false
	}
	sizes := c.ConeSizes()
	if len(sizes) != n {
		return false
	}
	total := 0
	for _, s := range sizes {
		if s != 3 {
			return false
		}
		total += s
	}
	return total == c.Size()
}

func TestConeBookkeeping(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)
	properties.Property("size == sum(coneSizes) == 3*numCones for matrix shapes", prop.ForAll(
		func(rows, cols int) bool {
			shape := expr.Shape{rows, cols}
			for _, c := range bothVariants(t, shape) {
				if !checkBookkeeping(c, shape) {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 6),
		gen.IntRange(1, 6),
	))
	properties.TestingRun(t, gopter.ConsoleReporter(false))

	// scalar and vector shapes
	for _, shape := range []expr.Shape{{}, {1}, {7}} {
		for _, c := range bothVariants(t, shape) {
			require.True(t, checkBookkeeping(c, shape), "shape %s", shape)
		}
	}
}

func TestShapeMismatch(t *testing.T) {
	assert := require.New(t)

	x := expr.NewVariable(expr.Shape{2}, "x")
	y := expr.NewVariable(expr.Shape{3}, "y")
	z := expr.NewVariable(expr.Shape{2}, "z")

	_, err := constraint.NewExpCone(x, y, z)
	var mismatch *constraint.ShapeMismatchError
	assert.True(errors.As(err, &mismatch))
	assert.True(mismatch.Y.Equal(expr.Shape{3}))

	_, err = constraint.NewRelEntrQuad(x, y, z, 2, 2)
	assert.True(errors.As(err, &mismatch))

	// raw operands are normalized before validation, so mixed raw inputs
	// fail the same way
	_, err = constraint.NewExpCone([]float64{1, 2}, []float64{1, 2, 3}, []float64{1, 2})
	assert.True(errors.As(err, &mismatch))

	_, err = constraint.NewExpCone(struct{}{}, y, z)
	var castErr *expr.CastError
	assert.True(errors.As(err, &castErr))
}

func TestOperandNormalization(t *testing.T) {
	assert := require.New(t)

	c, err := constraint.NewExpCone(1.0, 2.0, 3.0)
	assert.NoError(err)
	assert.Equal(1, c.NumCones())
	assert.Equal(3, c.Size())

	args := c.Args()
	assert.Len(args, 3)
	v, ok := args[2].Value()
	assert.True(ok)
	assert.Equal([]float64{3}, v.Data())
}

func TestConvexityPredicates(t *testing.T) {
	assert := require.New(t)

	shape := expr.Shape{2}
	for _, c := range bothVariants(t, shape) {
		assert.True(c.IsDCP(expr.Scope{}), "%s", c)
		assert.True(c.IsDCP(expr.Scope{DPP: true}))
		assert.False(c.IsDGP(expr.Scope{}))
		assert.False(c.IsDGP(expr.Scope{DPP: true}))
		assert.Equal(c.IsDCP(expr.Scope{}), c.IsDQCP())
	}

	// a non-affine operand breaks DCP (and DQCP with it), and still never
	// yields DGP
	x, y, _ := newTriple(t, shape)
	c, err := constraint.NewExpCone(x, y, expr.Abs(x))
	assert.NoError(err)
	assert.False(c.IsDCP(expr.Scope{}))
	assert.False(c.IsDGP(expr.Scope{}))
	assert.Equal(c.IsDCP(expr.Scope{}), c.IsDQCP())

	// parameter * variable operands are DCP only outside the parametrized
	// discipline
	p := expr.NewParameter(expr.Shape{}, "p")
	px, err := expr.ParamScale(p, x)
	assert.NoError(err)
	c, err = constraint.NewExpCone(px, y, y)
	assert.NoError(err)
	assert.True(c.IsDCP(expr.Scope{}))
	assert.False(c.IsDCP(expr.Scope{DPP: true}))
}

func TestDualValueRecovery(t *testing.T) {
	assert := require.New(t)

	shape := expr.Shape{2, 2}
	x, y, z := newTriple(t, shape)
	c, err := constraint.NewExpCone(x, y, z)
	assert.NoError(err)

	_, ok := c.DualValue(0)
	assert.False(ok, "no dual value before recovery")

	// interleave three known per-cone triples: (x_i, y_i, z_i) per cone i
	n := shape.Size()
	flat := make([]float64, 3*n)
	for i := 0; i < n; i++ {
		flat[3*i] = float64(i)
		flat[3*i+1] = float64(i) + 0.25
		flat[3*i+2] = float64(i) + 0.5
	}
	assert.NoError(c.SaveDualValue(flat))

	for j := 0; j < 3; j++ {
		dv, ok := c.DualValue(j)
		assert.True(ok)
		assert.True(dv.Shape().Equal(shape))
		want := make([]float64, n)
		for i := 0; i < n; i++ {
			want[i] = float64(i) + 0.25*float64(j)
		}
		if diff := cmp.Diff(want, dv.Data()); diff != "" {
			t.Fatalf("dual %d mismatch (-want +got):\n%s", j, diff)
		}
	}

	_, ok = c.DualValue(3)
	assert.False(ok)
}

func TestDualValueReshapeError(t *testing.T) {
	x, y, z := newTriple(t, expr.Shape{3})
	c, err := constraint.NewExpCone(x, y, z)
	require.NoError(t, err)

	for _, l := range []int{0, 1, 8, 10, 27} {
		err := c.SaveDualValue(make([]float64, l))
		var reshape *constraint.ReshapeError
		require.True(t, errors.As(err, &reshape), "length %d", l)
		require.Equal(t, l, reshape.Got)
		require.Equal(t, 9, reshape.Want)
	}
}

func TestRelEntrQuadDualNotSupported(t *testing.T) {
	x, y, z := newTriple(t, expr.Shape{2})
	c, err := constraint.NewRelEntrQuad(x, y, z, 5, 5)
	require.NoError(t, err)

	err = c.SaveDualValue(make([]float64, c.Size()))
	require.ErrorIs(t, err, constraint.ErrDualNotSupported)
	_, ok := c.DualValue(0)
	require.False(t, ok, "no stale dual values may appear")
}

func TestAsQuadApprox(t *testing.T) {
	assert := require.New(t)

	x, y, z := newTriple(t, expr.Shape{2})
	ec, err := constraint.NewExpCone(x, y, z)
	assert.NoError(err)

	q, err := ec.AsQuadApprox(10, 4)
	assert.NoError(err)

	// cone correspondence: (x, y, z) -> (y, z, -x), sharing the operands
	args := q.Args()
	assert.Same(y, args[0])
	assert.Same(z, args[1])

	assert.NoError(x.SetValue([]float64{1.5, -2}))
	neg, ok := args[2].Value()
	assert.True(ok)
	assert.Equal([]float64{-1.5, 2}, neg.Data())

	m, k := q.GetData()
	assert.Equal(10, m)
	assert.Equal(4, k)

	for _, bad := range [][2]int{{0, 1}, {1, 0}, {-3, 2}, {2, -1}} {
		_, err := ec.AsQuadApprox(bad[0], bad[1])
		assert.ErrorIs(err, constraint.ErrNonPositiveParam)
	}
}

func TestGetDataRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	x, y, z := newTriple(t, expr.Shape{2})
	ec, err := constraint.NewExpCone(x, y, z)
	require.NoError(t, err)

	properties := gopter.NewProperties(parameters)
	properties.Property("asQuadApprox(m, k).getData() == (m, k)", prop.ForAll(
		func(m, k int) bool {
			q, err := ec.AsQuadApprox(m, k)
			if err != nil {
				return false
			}
			gm, gk := q.GetData()
			return gm == m && gk == k
		},
		gen.IntRange(1, 1<<20),
		gen.IntRange(1, 1<<20),
	))
	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestStringRendering(t *testing.T) {
	assert := require.New(t)

	x, y, z := newTriple(t, expr.Shape{2})
	ec, err := constraint.NewExpCone(x, y, z)
	assert.NoError(err)
	assert.Equal("ExpCone(x, y, z)", ec.String())

	rq, err := constraint.NewRelEntrQuad(x, y, z, 6, 2)
	assert.NoError(err)
	assert.Equal("RelEntrQuad(x, y, z, 6, 2)", rq.String())

	q, err := ec.AsQuadApprox(3, 1)
	assert.NoError(err)
	assert.Equal("RelEntrQuad(y, z, -x, 3, 1)", q.String())
}

func TestConstraintIDsAreUnique(t *testing.T) {
	seen := make(map[uint64]struct{})
	for i := 0; i < 16; i++ {
		for _, c := range bothVariants(t, expr.Shape{}) {
			_, dup := seen[c.ID()]
			require.False(t, dup)
			seen[c.ID()] = struct{}{}
		}
	}
}
