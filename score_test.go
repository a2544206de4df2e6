package conformal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScores(t *testing.T) {
	testData := map[string]struct {
		lower    []float64
		upper    []float64
		actual   []float64
		coverage float64
		expected *Scores
		err      error
	}{
		"all inside": {
			lower:    []float64{0, 0},
			upper:    []float64{2, 4},
			actual:   []float64{1, 3},
			coverage: 0.5,
			expected: &Scores{Coverage: 1, MeanWidth: 3, IntervalScore: 3},
		},
		"one outside": {
			lower:    []float64{0, 0},
			upper:    []float64{2, 2},
			actual:   []float64{1, 3},
			coverage: 0.5,
			// second point is 1 above the upper end with penalty 2/(1-0.5)
			expected: &Scores{Coverage: 0.5, MeanWidth: 2, IntervalScore: 4},
		},
		"skips nan": {
			lower:    []float64{0, math.NaN()},
			upper:    []float64{2, 2},
			actual:   []float64{-1, 3},
			coverage: 0.8,
			expected: &Scores{Coverage: 0, MeanWidth: 2, IntervalScore: 12},
		},
		"length mismatch": {
			lower:  []float64{0},
			upper:  []float64{1},
			actual: []float64{1, 2},
			err:    ErrResLenMismatch,
		},
		"invalid coverage": {
			lower:    []float64{0},
			upper:    []float64{1},
			actual:   []float64{1},
			coverage: 1,
			err:      ErrInvalidCoverage,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := NewScores(td.lower, td.upper, td.actual, td.coverage)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.InDelta(t, td.expected.Coverage, res.Coverage, 1e-9)
			assert.InDelta(t, td.expected.MeanWidth, res.MeanWidth, 1e-9)
			assert.InDelta(t, td.expected.IntervalScore, res.IntervalScore, 1e-9)
		})
	}
}

func TestIntervalTableScore(t *testing.T) {
	scores, err := testTable().Score([]float64{11, 14})
	require.Nil(t, err)
	require.Len(t, scores, 2)
	assert.InDelta(t, 0.5, scores[0].Coverage, 1e-9)
	assert.InDelta(t, 1.0, scores[1].Coverage, 1e-9)

	_, err = testTable().Score([]float64{1})
	assert.ErrorIs(t, err, ErrResLenMismatch)
}
