package timedataset

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(1970, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestNewUnivariateDataset(t *testing.T) {
	testData := map[string]struct {
		t        []time.Time
		y        []float64
		expected *TimeDataset
		err      error
	}{
		"no training data": {
			err: ErrNoTrainingData,
		},
		"length mismatch": {
			y:   []float64{1},
			err: ErrDatasetLenMismatch,
		},
		"non increasing time": {
			t:   []time.Time{day(2), day(1)},
			y:   []float64{1, 2},
			err: ErrNonMontonic,
		},
		"duplicate time": {
			t:   []time.Time{day(1), day(1)},
			y:   []float64{1, 2},
			err: ErrNonMontonic,
		},
		"valid": {
			t: []time.Time{day(1), day(2)},
			y: []float64{1, 2},
			expected: &TimeDataset{
				T: []time.Time{day(1), day(2)},
				Y: []float64{1, 2},
			},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			ds, err := NewUnivariateDataset(td.t, td.y)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.expected, ds)
		})
	}
}

func TestNewDatasetExog(t *testing.T) {
	testData := map[string]struct {
		x   [][]float64
		err error
	}{
		"nil exogenous": {},
		"aligned": {
			x: [][]float64{{1, 2}, {3, 4}, {5, 6}},
		},
		"row count mismatch": {
			x:   [][]float64{{1}, {2}},
			err: ErrExogLenMismatch,
		},
		"ragged rows": {
			x:   [][]float64{{1}, {2, 3}, {4}},
			err: ErrExogLenMismatch,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			ds, err := NewDataset([]time.Time{day(1), day(2), day(3)}, []float64{1, 2, 3}, td.x)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.x != nil, ds.HasExog())
			assert.Equal(t, td.x, ds.X)
		})
	}
}

func TestCopy(t *testing.T) {
	ds, err := NewDataset([]time.Time{day(1), day(2)}, []float64{0, 1}, [][]float64{{1}, {2}})
	require.Nil(t, err)

	nextDs := ds.Copy()
	require.Equal(t, ds, nextDs)

	ds.T = []time.Time{day(3), day(4)}
	ds.X[0][0] = 10
	require.NotEqual(t, nextDs, ds)
	assert.Equal(t, 1.0, nextDs.X[0][0])
}

func TestSlice(t *testing.T) {
	ds, err := NewDataset(
		[]time.Time{day(1), day(2), day(3), day(4)},
		[]float64{1, 2, 3, 4},
		[][]float64{{1}, {2}, {3}, {4}},
	)
	require.Nil(t, err)

	testData := map[string]struct {
		start    int
		end      int
		expected *TimeDataset
		err      error
	}{
		"head": {
			start: 0, end: 2,
			expected: &TimeDataset{
				T: []time.Time{day(1), day(2)},
				Y: []float64{1, 2},
				X: [][]float64{{1}, {2}},
			},
		},
		"tail": {
			start: 3, end: 4,
			expected: &TimeDataset{
				T: []time.Time{day(4)},
				Y: []float64{4},
				X: [][]float64{{4}},
			},
		},
		"empty": {
			start: 2, end: 2,
			expected: &TimeDataset{
				T: []time.Time{},
				Y: []float64{},
				X: [][]float64{},
			},
		},
		"out of bounds": {
			start: 1, end: 5,
			err: ErrSliceOutOfBounds,
		},
		"inverted": {
			start: 3, end: 1,
			err: ErrSliceOutOfBounds,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := ds.Slice(td.start, td.end)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.expected, res)
		})
	}

	// slices do not alias the parent
	head, err := ds.Slice(0, 2)
	require.Nil(t, err)
	head.Y[0] = 100
	assert.Equal(t, 1.0, ds.Y[0])
}

func TestPosition(t *testing.T) {
	ds, err := NewUnivariateDataset([]time.Time{day(1), day(3), day(5)}, []float64{1, 2, 3})
	require.Nil(t, err)

	testData := map[string]struct {
		t      time.Time
		idx    int
		exists bool
	}{
		"first":       {day(1), 0, true},
		"last":        {day(5), 2, true},
		"between":     {day(2), 1, false},
		"after range": {day(6), 3, false},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			idx, exists := ds.Position(td.t)
			assert.Equal(t, td.idx, idx)
			assert.Equal(t, td.exists, exists)
		})
	}
}

func TestMerge(t *testing.T) {
	base, err := NewUnivariateDataset([]time.Time{day(1), day(2), day(3)}, []float64{1, 2, 3})
	require.Nil(t, err)

	testData := map[string]struct {
		other    *TimeDataset
		expected *TimeDataset
		err      error
	}{
		"nil other": {
			expected: base,
		},
		"append": {
			other: &TimeDataset{T: []time.Time{day(4), day(5)}, Y: []float64{4, 5}},
			expected: &TimeDataset{
				T: []time.Time{day(1), day(2), day(3), day(4), day(5)},
				Y: []float64{1, 2, 3, 4, 5},
			},
		},
		"overlap overrides": {
			other: &TimeDataset{T: []time.Time{day(3), day(4)}, Y: []float64{30, 4}},
			expected: &TimeDataset{
				T: []time.Time{day(1), day(2), day(3), day(4)},
				Y: []float64{1, 2, 30, 4},
			},
		},
		"identical": {
			other:    base.Copy(),
			expected: base,
		},
		"exogenous mismatch": {
			other: &TimeDataset{T: []time.Time{day(4)}, Y: []float64{4}, X: [][]float64{{1}}},
			err:   ErrExogLenMismatch,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := base.Merge(td.other)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.expected, res)
		})
	}
}

func TestHasNaN(t *testing.T) {
	ds := &TimeDataset{T: []time.Time{day(1), day(2)}, Y: []float64{1, math.NaN()}}
	assert.True(t, ds.HasNaN())

	ds.Y[1] = 2
	assert.False(t, ds.HasNaN())

	var nilDs *TimeDataset
	assert.False(t, nilDs.HasNaN())
	assert.Equal(t, 0, nilDs.Len())
	assert.Equal(t, time.Time{}, nilDs.Cutoff())
}
