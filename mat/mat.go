// Package mat holds small helpers for building gonum dense matrices
package mat

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrNegativeDim = errors.New("negative dimensions not allowed")
	ErrZeroDim     = errors.New("zero dimensions not allowed")
	ErrColMismatch = errors.New("column size mismatch")
)

// NewDenseFromArray builds a dense matrix from row slices. All rows must have the same
// number of columns.
func NewDenseFromArray(x [][]float64) (*mat.Dense, error) {
	m := len(x)
	if m == 0 {
		return nil, ErrZeroDim
	}

	n := len(x[0])
	for i, row := range x {
		if len(row) != n {
			return nil, fmt.Errorf("at row %d, %w", i, ErrColMismatch)
		}
	}
	if n == 0 {
		return nil, ErrZeroDim
	}

	// flatten to row order
	data := make([]float64, 0, m*n)
	for _, row := range x {
		data = append(data, row...)
	}
	return mat.NewDense(m, n, data), nil
}

// NewNaNDense returns an r x c matrix where every entry is NaN
func NewNaNDense(r, c int) (*mat.Dense, error) {
	if r < 0 || c < 0 {
		return nil, ErrNegativeDim
	}
	if r == 0 || c == 0 {
		return nil, ErrZeroDim
	}
	data := make([]float64, r*c)
	for i := range data {
		data[i] = math.NaN()
	}
	return mat.NewDense(r, c, data), nil
}

// WithInterceptColumn prepends a column of ones to x
func WithInterceptColumn(x mat.Matrix) *mat.Dense {
	m, n := x.Dims()
	res := mat.NewDense(m, n+1, nil)
	for i := 0; i < m; i++ {
		res.Set(i, 0, 1.0)
		for j := 0; j < n; j++ {
			res.Set(i, j+1, x.At(i, j))
		}
	}
	return res
}
