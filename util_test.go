package conformal

import (
	"bytes"
	"math"
	"testing"

	"github.com/aouyang1/go-conformal/horizon"
	"github.com/aouyang1/go-conformal/pointforecast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertFloatSliceEqualWithNaN(t *testing.T, expected, actual []float64) {
	t.Helper()
	if len(expected) != len(actual) {
		assert.Failf(t, "length mismatch", "expected len=%d, got len=%d", len(expected), len(actual))
		return
	}
	for i := range expected {
		e, a := expected[i], actual[i]
		if math.IsNaN(e) && math.IsNaN(a) {
			continue
		}
		assert.Equalf(t, e, a, "index %d mismatch", i)
	}
}

func TestLineData(t *testing.T) {
	res := lineData([]float64{1, math.NaN(), 3})
	require.Len(t, res, 3)
	assert.Equal(t, 1.0, res[0].Value)
	assert.Equal(t, "-", res[1].Value)
	assert.Equal(t, 3.0, res[2].Value)
}

func TestPlotInterval(t *testing.T) {
	td := walkDataset(t, 40, 9)
	fh := horizon.Range(5)
	iv := fitIntervals(t, td, naive(t, pointforecast.StrategyDrift), fh, &Options{Method: MethodConformal})

	var buf bytes.Buffer
	require.Nil(t, iv.PlotInterval(&buf, fh, []float64{0.5, 0.9}, nil))
	out := buf.String()
	assert.Contains(t, out, "Prediction Intervals (y)")
	assert.Contains(t, out, "Interval Width")
	assert.Contains(t, out, "Upper 0.9")

	assert.ErrorIs(t, iv.PlotInterval(&buf, fh, []float64{2}, nil), ErrInvalidCoverage)
}
