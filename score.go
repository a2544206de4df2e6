package conformal

import (
	"errors"
	"fmt"
	"math"
)

var ErrResLenMismatch = errors.New("interval ends and actual have different lengths")

// Scores evaluates an interval against held out observations
type Scores struct {
	Coverage      float64 `json:"coverage" yaml:"coverage"`             // fraction of actuals within [lower, upper]
	MeanWidth     float64 `json:"mean_width" yaml:"mean_width"`         // mean of upper - lower
	IntervalScore float64 `json:"interval_score" yaml:"interval_score"` // mean Winkler interval score
}

// NewScores scores lower and upper ends at the nominal coverage against actual. NaN entries
// in any input are skipped.
func NewScores(lower, upper, actual []float64, coverage float64) (*Scores, error) {
	cov, err := EmpiricalCoverage(lower, upper, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to compute empirical coverage, %w", err)
	}
	width, err := MeanWidth(lower, upper)
	if err != nil {
		return nil, fmt.Errorf("unable to compute mean width, %w", err)
	}
	is, err := IntervalScore(lower, upper, actual, coverage)
	if err != nil {
		return nil, fmt.Errorf("unable to compute interval score, %w", err)
	}
	return &Scores{
		Coverage:      cov,
		MeanWidth:     width,
		IntervalScore: is,
	}, nil
}

func EmpiricalCoverage(lower, upper, actual []float64) (float64, error) {
	if len(lower) != len(actual) || len(upper) != len(actual) {
		return 0, ErrResLenMismatch
	}

	var inside, cnt int
	for i := 0; i < len(actual); i++ {
		if math.IsNaN(actual[i]) || math.IsNaN(lower[i]) || math.IsNaN(upper[i]) {
			continue
		}
		cnt++
		if actual[i] >= lower[i] && actual[i] <= upper[i] {
			inside++
		}
	}
	if cnt == 0 {
		return math.NaN(), nil
	}
	return float64(inside) / float64(cnt), nil
}

func MeanWidth(lower, upper []float64) (float64, error) {
	if len(lower) != len(upper) {
		return 0, ErrResLenMismatch
	}

	var width float64
	var cnt int
	for i := 0; i < len(lower); i++ {
		if math.IsNaN(lower[i]) || math.IsNaN(upper[i]) {
			continue
		}
		width += upper[i] - lower[i]
		cnt++
	}
	if cnt == 0 {
		return math.NaN(), nil
	}
	return width / float64(cnt), nil
}

// IntervalScore is the mean of the width plus 2/(1-c) times the distance by which the actual
// falls outside the interval
func IntervalScore(lower, upper, actual []float64, coverage float64) (float64, error) {
	if len(lower) != len(actual) || len(upper) != len(actual) {
		return 0, ErrResLenMismatch
	}
	if math.IsNaN(coverage) || coverage < 0 || coverage >= 1 {
		return 0, ErrInvalidCoverage
	}
	penalty := 2 / (1 - coverage)

	var score float64
	var cnt int
	for i := 0; i < len(actual); i++ {
		if math.IsNaN(actual[i]) || math.IsNaN(lower[i]) || math.IsNaN(upper[i]) {
			continue
		}
		s := upper[i] - lower[i]
		if actual[i] < lower[i] {
			s += penalty * (lower[i] - actual[i])
		}
		if actual[i] > upper[i] {
			s += penalty * (actual[i] - upper[i])
		}
		score += s
		cnt++
	}
	if cnt == 0 {
		return math.NaN(), nil
	}
	return score / float64(cnt), nil
}

// Score evaluates every coverage of the table against actual
func (t *IntervalTable) Score(actual []float64) ([]*Scores, error) {
	res := make([]*Scores, len(t.Coverage))
	for k, c := range t.Coverage {
		s, err := NewScores(t.Lower[k], t.Upper[k], actual, c)
		if err != nil {
			return nil, fmt.Errorf("coverage %.4f, %w", c, err)
		}
		res[k] = s
	}
	return res, nil
}
