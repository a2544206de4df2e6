// Package stats holds the order statistics used to turn residual samples into interval
// bounds.
package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

var (
	ErrEmptySample     = errors.New("no samples to compute quantile")
	ErrInvalidQuantile = errors.New("quantile probability must be within [0, 1]")
)

// DropNaN returns a copy of x without NaN entries
func DropNaN(x []float64) []float64 {
	res := make([]float64, 0, len(x))
	for _, v := range x {
		if math.IsNaN(v) {
			continue
		}
		res = append(res, v)
	}
	return res
}

// Abs returns a copy of x with absolute values
func Abs(x []float64) []float64 {
	res := make([]float64, len(x))
	for i, v := range x {
		res[i] = math.Abs(v)
	}
	return res
}

// Quantile computes the p-th quantile of a sample by linear interpolation between the two
// closest order statistics, i.e. the (n-1)p position in the sorted sample. NaNs must be
// removed beforehand.
func Quantile(x []float64, p float64) (float64, error) {
	q, err := Quantiles(x, []float64{p})
	if err != nil {
		return math.NaN(), err
	}
	return q[0], nil
}

// Quantiles evaluates several probabilities against the same sample with a single sort
func Quantiles(x []float64, p []float64) ([]float64, error) {
	if len(x) == 0 {
		return nil, ErrEmptySample
	}
	if floats.HasNaN(x) {
		return nil, fmt.Errorf("sample contains NaN, %w", ErrEmptySample)
	}

	sorted := make([]float64, len(x))
	copy(sorted, x)
	sort.Float64s(sorted)

	res := make([]float64, len(p))
	for i, prob := range p {
		if math.IsNaN(prob) || prob < 0 || prob > 1 {
			return nil, fmt.Errorf("got %.4f, %w", prob, ErrInvalidQuantile)
		}
		res[i] = quantileSorted(sorted, prob)
	}
	return res, nil
}

func quantileSorted(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	pos := float64(n-1) * p
	lo := math.Floor(pos)
	loIdx := int(lo)
	if loIdx >= n-1 {
		return sorted[n-1]
	}
	frac := pos - lo
	return sorted[loIdx] + frac*(sorted[loIdx+1]-sorted[loIdx])
}
