package timedataset

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
)

var (
	ErrNoTrainingData     = errors.New("no training data")
	ErrNonMontonic        = errors.New("time feature is not monotonic")
	ErrDatasetLenMismatch = errors.New("time feature has a different length than observations")
	ErrExogLenMismatch    = errors.New("exogenous rows do not line up with observations")
	ErrSliceOutOfBounds   = errors.New("slice bounds out of range")
)

// TimeDataset represents a time series storing a slice of time points and values along with
// optional exogenous regressors. T, Y and X (if present) must be of the same length.
type TimeDataset struct {
	T []time.Time `json:"time"`
	Y []float64   `json:"values"`
	X [][]float64 `json:"exogenous,omitempty"`
}

// NewUnivariateDataset returns an instance of a TimeDataset given a time and value slice.
func NewUnivariateDataset(t []time.Time, y []float64) (*TimeDataset, error) {
	return NewDataset(t, y, nil)
}

// NewDataset returns an instance of a TimeDataset with exogenous rows aligned to t. A nil x
// is allowed and results in a univariate dataset. All inputs are copied.
func NewDataset(t []time.Time, y []float64, x [][]float64) (*TimeDataset, error) {
	if len(y) == 0 {
		return nil, ErrNoTrainingData
	}
	if len(t) != len(y) {
		return nil, fmt.Errorf(
			"time feature has length of %d, but values has a length of %d, %w",
			len(t), len(y), ErrDatasetLenMismatch,
		)
	}
	if x != nil {
		if len(x) != len(t) {
			return nil, fmt.Errorf(
				"time feature has length of %d, but exogenous has %d rows, %w",
				len(t), len(x), ErrExogLenMismatch,
			)
		}
		for i := 1; i < len(x); i++ {
			if len(x[i]) != len(x[0]) {
				return nil, fmt.Errorf("row %d has %d columns instead of %d, %w", i, len(x[i]), len(x[0]), ErrExogLenMismatch)
			}
		}
	}

	var lastT time.Time
	for i := 0; i < len(t); i++ {
		currT := t[i]
		if i > 0 && (currT.Before(lastT) || currT.Equal(lastT)) {
			return nil, fmt.Errorf("non-monotonic at %d, %w", i, ErrNonMontonic)
		}
		lastT = currT
	}

	td := &TimeDataset{
		T: copyT(t),
		Y: copyY(y),
		X: copyX(x),
	}
	return td, nil
}

func copyT(t []time.Time) []time.Time {
	res := make([]time.Time, len(t))
	copy(res, t)
	return res
}

func copyY(y []float64) []float64 {
	res := make([]float64, len(y))
	copy(res, y)
	return res
}

func copyX(x [][]float64) [][]float64 {
	if x == nil {
		return nil
	}
	res := make([][]float64, len(x))
	for i, row := range x {
		res[i] = copyY(row)
	}
	return res
}

// Copy returns a deep copy of the dataset
func (td *TimeDataset) Copy() *TimeDataset {
	if td == nil {
		return nil
	}
	return &TimeDataset{
		T: copyT(td.T),
		Y: copyY(td.Y),
		X: copyX(td.X),
	}
}

// Len returns the number of observations
func (td *TimeDataset) Len() int {
	if td == nil {
		return 0
	}
	return len(td.T)
}

// HasExog reports whether exogenous rows are attached
func (td *TimeDataset) HasExog() bool {
	return td != nil && td.X != nil
}

// HasNaN reports whether any observation is missing
func (td *TimeDataset) HasNaN() bool {
	if td == nil {
		return false
	}
	return floats.HasNaN(td.Y)
}

// Cutoff returns the last time point of the dataset
func (td *TimeDataset) Cutoff() time.Time {
	if td == nil {
		return time.Time{}
	}
	return TimeSlice(td.T).EndTime()
}

// Slice returns a deep copy of the observations at positions [start, end). Copies keep
// concurrent readers of a shared dataset from aliasing each other.
func (td *TimeDataset) Slice(start, end int) (*TimeDataset, error) {
	if td == nil {
		return nil, ErrNoTrainingData
	}
	if start < 0 || end > len(td.T) || start > end {
		return nil, fmt.Errorf("[%d:%d] with length %d, %w", start, end, len(td.T), ErrSliceOutOfBounds)
	}
	res := &TimeDataset{
		T: copyT(td.T[start:end]),
		Y: copyY(td.Y[start:end]),
	}
	if td.X != nil {
		res.X = copyX(td.X[start:end])
	}
	return res, nil
}

// Position returns the index of t in the dataset using binary search
func (td *TimeDataset) Position(t time.Time) (int, bool) {
	if td == nil {
		return 0, false
	}
	idx := sort.Search(len(td.T), func(i int) bool {
		return !td.T[i].Before(t)
	})
	if idx < len(td.T) && td.T[idx].Equal(t) {
		return idx, true
	}
	return idx, false
}

// Merge returns a new dataset with the union of both time indexes. Observations from
// other take precedence on equal time points. Both datasets must either carry exogenous
// rows or not.
func (td *TimeDataset) Merge(other *TimeDataset) (*TimeDataset, error) {
	if td == nil {
		return other.Copy(), nil
	}
	if other == nil {
		return td.Copy(), nil
	}
	if td.HasExog() != other.HasExog() {
		return nil, fmt.Errorf("merging datasets with and without exogenous rows, %w", ErrExogLenMismatch)
	}

	n := len(td.T) + len(other.T)
	t := make([]time.Time, 0, n)
	y := make([]float64, 0, n)
	var x [][]float64
	if td.HasExog() {
		x = make([][]float64, 0, n)
	}

	var i, j int
	for i < len(td.T) || j < len(other.T) {
		switch {
		case j >= len(other.T) || (i < len(td.T) && td.T[i].Before(other.T[j])):
			t = append(t, td.T[i])
			y = append(y, td.Y[i])
			if x != nil {
				x = append(x, td.X[i])
			}
			i++
		default:
			if i < len(td.T) && td.T[i].Equal(other.T[j]) {
				i++
			}
			t = append(t, other.T[j])
			y = append(y, other.Y[j])
			if x != nil {
				x = append(x, other.X[j])
			}
			j++
		}
	}
	return NewDataset(t, y, x)
}
