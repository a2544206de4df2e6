package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDropNaN(t *testing.T) {
	testData := map[string]struct {
		x        []float64
		expected []float64
	}{
		"nil":      {nil, []float64{}},
		"no nans":  {[]float64{1, 2}, []float64{1, 2}},
		"all nans": {[]float64{math.NaN(), math.NaN()}, []float64{}},
		"mixed":    {[]float64{math.NaN(), 1, math.NaN(), 3}, []float64{1, 3}},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, td.expected, DropNaN(td.x))
		})
	}
}

func TestAbs(t *testing.T) {
	assert.Equal(t, []float64{1, 0, 2.5}, Abs([]float64{-1, 0, 2.5}))
}

func TestQuantile(t *testing.T) {
	tol := 1e-9
	testData := map[string]struct {
		x        []float64
		p        float64
		expected float64
		err      error
	}{
		"empty":             {nil, 0.5, 0, ErrEmptySample},
		"nan in sample":     {[]float64{1, math.NaN()}, 0.5, 0, ErrEmptySample},
		"probability high":  {[]float64{1}, 1.1, 0, ErrInvalidQuantile},
		"probability low":   {[]float64{1}, -0.1, 0, ErrInvalidQuantile},
		"single":            {[]float64{4}, 0.3, 4, nil},
		"median odd":        {[]float64{3, 1, 2}, 0.5, 2, nil},
		"median even":       {[]float64{4, 1, 3, 2}, 0.5, 2.5, nil},
		"min":               {[]float64{4, 1, 3, 2}, 0, 1, nil},
		"max":               {[]float64{4, 1, 3, 2}, 1, 4, nil},
		"interpolated 0.1":  {[]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.9, nil},
		"interpolated 0.9":  {[]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.1, nil},
		"constant sample":   {[]float64{1, 1, 1, 1}, 0.8, 1, nil},
		"negative residual": {[]float64{-2, -1, 0, 1}, 0.25, -1.25, nil},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			q, err := Quantile(td.x, td.p)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.InDelta(t, td.expected, q, tol)
		})
	}
}

func TestQuantilesMonotonic(t *testing.T) {
	x := []float64{5, -1, 3, 8, 2, 2, 9, -4}
	p := []float64{0, 0.1, 0.25, 0.5, 0.75, 0.9, 1}
	q, err := Quantiles(x, p)
	require.Nil(t, err)
	for i := 1; i < len(q); i++ {
		assert.GreaterOrEqual(t, q[i], q[i-1])
	}
	// input is left untouched
	assert.Equal(t, []float64{5, -1, 3, 8, 2, 2, 9, -4}, x)
}
