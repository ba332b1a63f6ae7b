package expr

import "fmt"

// CastError reports an input that cannot be normalized into a Term.
type CastError struct {
	Value any
}

func (e *CastError) Error() string {
	return fmt.Sprintf("cannot cast %T to a term", e.Value)
}

// CastToConst normalizes raw inputs into Terms. Terms pass through untouched;
// numeric scalars, []float64 vectors and [][]float64 matrices become
// Constants. Anything else fails with a *CastError.
//
// All downstream cone logic operates on the normalized Term only.
func CastToConst(v any) (Term, error) {
	switch x := v.(type) {
	case Term:
		return x, nil
	case float64:
		return Scalar(x), nil
	case float32:
		return Scalar(float64(x)), nil
	case int:
		return Scalar(float64(x)), nil
	case int64:
		return Scalar(float64(x)), nil
	case uint:
		return Scalar(float64(x)), nil
	case []float64:
		return NewConstant(x, Shape{len(x)})
	case [][]float64:
		return castMatrix(x)
	default:
		return nil, &CastError{Value: v}
	}
}

func castMatrix(rows [][]float64) (Term, error) {
	if len(rows) == 0 {
		return nil, &CastError{Value: rows}
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for _, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("ragged matrix: row of length %d, want %d", len(row), cols)
		}
		data = append(data, row...)
	}
	return NewConstant(data, Shape{len(rows), cols})
}
