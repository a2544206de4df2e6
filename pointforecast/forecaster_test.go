package pointforecast

import (
	"testing"
	"time"

	"github.com/aouyang1/go-conformal/horizon"
	"github.com/aouyang1/go-conformal/timedataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

func hourly(n int) []time.Time {
	t := make([]time.Time, n)
	for i := range t {
		t[i] = epoch.Add(time.Duration(i) * time.Hour)
	}
	return t
}

func dataset(t *testing.T, y []float64) *timedataset.TimeDataset {
	t.Helper()
	td, err := timedataset.NewUnivariateDataset(hourly(len(y)), y)
	require.Nil(t, err)
	return td
}

func TestNaiveOptionsValidate(t *testing.T) {
	testData := map[string]struct {
		opt      *NaiveOptions
		expected *NaiveOptions
		err      error
	}{
		"nil": {
			expected: NewDefaultNaiveOptions(),
		},
		"empty strategy defaults to last": {
			opt:      &NaiveOptions{},
			expected: &NaiveOptions{Strategy: StrategyLast, SP: 1},
		},
		"unknown strategy": {
			opt: &NaiveOptions{Strategy: "median"},
			err: ErrUnknownStrategy,
		},
		"negative sp": {
			opt: &NaiveOptions{Strategy: StrategyLast, SP: -1},
			err: ErrInvalidOption,
		},
		"negative window": {
			opt: &NaiveOptions{Strategy: StrategyMean, WindowLength: -3},
			err: ErrInvalidOption,
		},
		"drift window of one": {
			opt: &NaiveOptions{Strategy: StrategyDrift, WindowLength: 1},
			err: ErrInvalidOption,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			opt, err := td.opt.Validate()
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.expected, opt)
		})
	}
}

func TestNaivePredict(t *testing.T) {
	tol := 1e-9
	testData := map[string]struct {
		opt      *NaiveOptions
		y        []float64
		fh       horizon.Horizon
		expected []float64
		err      error
	}{
		"last": {
			opt:      &NaiveOptions{Strategy: StrategyLast},
			y:        []float64{1, 2, 3, 4},
			fh:       horizon.Horizon{1, 2, 5},
			expected: []float64{4, 4, 4},
		},
		"seasonal last": {
			opt:      &NaiveOptions{Strategy: StrategyLast, SP: 3},
			y:        []float64{0, 1, 2, 3, 10, 20, 30},
			fh:       horizon.Horizon{1, 2, 3, 4, 6},
			expected: []float64{10, 20, 30, 10, 30},
		},
		"seasonal last short history": {
			opt: &NaiveOptions{Strategy: StrategyLast, SP: 5},
			y:   []float64{0, 1, 2},
			fh:  horizon.Horizon{1},
			err: ErrIndexOutOfRange,
		},
		"mean": {
			opt:      &NaiveOptions{Strategy: StrategyMean},
			y:        []float64{1, 2, 3, 6},
			fh:       horizon.Horizon{1, 3},
			expected: []float64{3, 3},
		},
		"windowed mean": {
			opt:      &NaiveOptions{Strategy: StrategyMean, WindowLength: 2},
			y:        []float64{1, 2, 3, 5},
			fh:       horizon.Horizon{1},
			expected: []float64{4},
		},
		"drift": {
			opt:      &NaiveOptions{Strategy: StrategyDrift},
			y:        []float64{0, 2, 1, 3},
			fh:       horizon.Horizon{1, 2},
			expected: []float64{4, 5},
		},
		"invalid horizon": {
			opt: &NaiveOptions{Strategy: StrategyLast},
			y:   []float64{1, 2},
			fh:  horizon.Horizon{0},
			err: horizon.ErrNonPositiveStep,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			f, err := NewNaive(td.opt)
			require.Nil(t, err)
			require.Nil(t, f.Fit(dataset(t, td.y), nil))

			res, err := f.Predict(td.fh, nil)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.InDeltaSlice(t, td.expected, res, tol)
		})
	}
}

func TestNaiveNotFitted(t *testing.T) {
	f, err := NewNaive(nil)
	require.Nil(t, err)

	_, err = f.Predict(horizon.Range(1), nil)
	assert.ErrorIs(t, err, ErrNotFitted)

	_, err = f.PredictResiduals(dataset(t, []float64{1, 2}))
	assert.ErrorIs(t, err, ErrNotFitted)

	assert.ErrorIs(t, f.Update(dataset(t, []float64{1, 2}), true), ErrNotFitted)
	assert.Equal(t, time.Time{}, f.Cutoff())
}

func TestFitSinglePoint(t *testing.T) {
	f, err := NewNaive(nil)
	require.Nil(t, err)

	err = f.Fit(dataset(t, []float64{1}), nil)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	assert.ErrorIs(t, err, timedataset.ErrCannotInferFreq)
}

func TestNaivePredictResiduals(t *testing.T) {
	full := dataset(t, []float64{0, 1, 2, 3, 4, 5, 6, 7})
	train, err := full.Slice(0, 5)
	require.Nil(t, err)
	test, err := full.Slice(5, 8)
	require.Nil(t, err)

	f, err := NewNaive(nil)
	require.Nil(t, err)
	require.Nil(t, f.Fit(train, horizon.Range(test.Len())))
	assert.Equal(t, full.T[4], f.Cutoff())

	res, err := f.PredictResiduals(test)
	require.Nil(t, err)
	assert.InDeltaSlice(t, []float64{1, 2, 3}, res, 1e-9)

	// test points at or before the cutoff cannot be reached
	_, err = f.PredictResiduals(train)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestNaiveCloneAndUpdate(t *testing.T) {
	f, err := NewNaive(&NaiveOptions{Strategy: StrategyLast})
	require.Nil(t, err)

	full := dataset(t, []float64{1, 2, 3, 4, 5})
	train, err := full.Slice(0, 3)
	require.Nil(t, err)
	require.Nil(t, f.Fit(train, nil))

	clone := f.Clone()
	assert.Equal(t, time.Time{}, clone.Cutoff())
	_, err = clone.Predict(horizon.Range(1), nil)
	assert.ErrorIs(t, err, ErrNotFitted)

	update, err := full.Slice(3, 5)
	require.Nil(t, err)
	require.Nil(t, f.Update(update, true))
	assert.Equal(t, full.T[4], f.Cutoff())

	res, err := f.Predict(horizon.Range(1), nil)
	require.Nil(t, err)
	assert.Equal(t, []float64{5}, res)

	// repeating the same update is a no-op
	require.Nil(t, f.Update(update, true))
	res, err = f.Predict(horizon.Range(1), nil)
	require.Nil(t, err)
	assert.Equal(t, []float64{5}, res)
}
