// Package conformal wraps a point forecaster with prediction intervals calibrated from a
// rolling-origin residual matrix.
package conformal

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/aouyang1/go-conformal/horizon"
	"github.com/aouyang1/go-conformal/pointforecast"
	"github.com/aouyang1/go-conformal/residuals"
	"github.com/aouyang1/go-conformal/timedataset"
	"go.uber.org/zap"
)

var (
	ErrConfiguration     = errors.New("invalid configuration")
	ErrUnknownMethod     = errors.New("unknown method")
	ErrInvalidWindow     = residuals.ErrInvalidWindow
	ErrInvalidSampleFrac = residuals.ErrInvalidSampleFrac
	ErrInvalidNJobs      = residuals.ErrInvalidNJobs
	ErrNilForecaster     = residuals.ErrNilForecaster
	ErrNotFitted         = errors.New("intervals have not been fit")
	ErrInvalidCoverage   = errors.New("coverage must be within [0, 1)")
	ErrInvalidAlpha      = errors.New("alpha must be within (0, 1)")
	ErrMissingValues     = errors.New("observations contain missing values")
)

// Intervals produces point forecasts from a fitted clone of the wrapped forecaster along
// with intervals calibrated from the residuals of the forecaster refit at every anchor of
// the training series. Fit and Update must not race with each other but predictions may be
// called concurrently.
type Intervals struct {
	mu sync.RWMutex

	opt  *Options
	rule quantileRule

	forecaster pointforecast.Forecaster
	fitted     pointforecast.Forecaster

	train   *timedataset.TimeDataset
	freq    time.Duration
	fhEarly bool
	matrix  *residuals.Matrix
}

// New creates an interval wrapper around f. If no options are provided the empirical method
// with the default initial window is used.
func New(f pointforecast.Forecaster, opt *Options) (*Intervals, error) {
	if f == nil {
		return nil, fmt.Errorf("%w, %w", ErrNilForecaster, ErrConfiguration)
	}
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	rule, err := opt.Method.rule()
	if err != nil {
		return nil, err
	}
	return &Intervals{
		opt:        opt,
		rule:       rule,
		forecaster: f.Clone(),
	}, nil
}

// Method returns the quantile method chosen at construction
func (iv *Intervals) Method() Method {
	return iv.opt.Method
}

// Cutoff returns the last time point seen in fit or update
func (iv *Intervals) Cutoff() (time.Time, error) {
	iv.mu.RLock()
	defer iv.mu.RUnlock()

	if iv.fitted == nil {
		return time.Time{}, ErrNotFitted
	}
	return iv.fitted.Cutoff(), nil
}

// ResidualsMatrix returns a copy of the cached residual matrix. The matrix is only cached
// when a horizon was passed to Fit; otherwise it is rebuilt from the training data.
func (iv *Intervals) ResidualsMatrix() (*residuals.Matrix, error) {
	iv.mu.RLock()
	defer iv.mu.RUnlock()

	if iv.fitted == nil {
		return nil, ErrNotFitted
	}
	m, err := iv.residualsMatrix()
	if err != nil {
		return nil, err
	}
	if m == iv.matrix {
		return m.Copy(), nil
	}
	return m, nil
}

// TrainingData returns a copy of every observation seen in fit and update
func (iv *Intervals) TrainingData() *timedataset.TimeDataset {
	iv.mu.RLock()
	defer iv.mu.RUnlock()
	return iv.train.Copy()
}

func validateTraining(td *timedataset.TimeDataset) error {
	if td.Len() == 0 {
		return timedataset.ErrNoTrainingData
	}
	if td.HasNaN() {
		return ErrMissingValues
	}
	return nil
}

// Fit trains a clone of the forecaster on td. If fh is provided the residual matrix is
// computed and cached right away; otherwise it is computed for every interval prediction.
func (iv *Intervals) Fit(td *timedataset.TimeDataset, fh horizon.Horizon) error {
	if err := validateTraining(td); err != nil {
		return fmt.Errorf("unable to fit intervals, %w", err)
	}
	if fh != nil {
		if err := fh.Validate(); err != nil {
			return fmt.Errorf("unable to fit intervals, %w", err)
		}
	}

	w, err := iv.opt.InitialWindow.Resolve(td.Len())
	if err != nil {
		return fmt.Errorf("%w, %w", err, ErrConfiguration)
	}
	freq, err := timedataset.TimeSlice(td.T).EstimateFreq()
	if err != nil {
		return fmt.Errorf("unable to infer frequency of training data, %w", err)
	}

	fitted := iv.forecaster.Clone()
	if err := fitted.Fit(td, fh); err != nil {
		return fmt.Errorf("unable to fit forecaster, %w", err)
	}

	var matrix *residuals.Matrix
	if fh != nil {
		matrix, err = residuals.Build(context.Background(), td, iv.forecaster, w, iv.opt.residualOptions())
		if err != nil {
			return fmt.Errorf("unable to build residuals matrix, %w", err)
		}
	}

	iv.mu.Lock()
	defer iv.mu.Unlock()
	iv.fitted = fitted
	iv.train = td.Copy()
	iv.freq = freq
	iv.fhEarly = fh != nil
	iv.matrix = matrix
	return nil
}

// Update incorporates new observations into the fitted forecaster. A cached residual
// matrix is extended with rows for the new anchors only. State is left untouched if the
// matrix cannot be extended.
func (iv *Intervals) Update(td *timedataset.TimeDataset, updateParams bool) error {
	if err := validateTraining(td); err != nil {
		return fmt.Errorf("unable to update intervals, %w", err)
	}

	iv.mu.Lock()
	defer iv.mu.Unlock()

	if iv.fitted == nil {
		return ErrNotFitted
	}
	merged, err := iv.train.Merge(td)
	if err != nil {
		return fmt.Errorf("unable to merge update into training data, %w", err)
	}

	matrix := iv.matrix
	if matrix != nil && merged.Cutoff().After(matrix.End()) {
		w, err := iv.opt.InitialWindow.Resolve(merged.Len())
		if err != nil {
			return fmt.Errorf("%w, %w", err, ErrConfiguration)
		}
		matrix, err = residuals.Extend(context.Background(), matrix, merged, iv.forecaster, w, iv.opt.residualOptions())
		if err != nil {
			return fmt.Errorf("unable to extend residuals matrix, %w", err)
		}
	}

	if err := iv.fitted.Update(td, updateParams); err != nil {
		return fmt.Errorf("unable to update forecaster, %w", err)
	}
	iv.train = merged
	if freq, err := timedataset.TimeSlice(merged.T).EstimateFreq(); err == nil {
		iv.freq = freq
	}
	iv.matrix = matrix
	return nil
}

// residualsMatrix returns the cached matrix or computes one from the training data without
// storing it. Callers must hold the read lock.
func (iv *Intervals) residualsMatrix() (*residuals.Matrix, error) {
	if iv.fhEarly && iv.matrix != nil {
		return iv.matrix, nil
	}
	w, err := iv.opt.InitialWindow.Resolve(iv.train.Len())
	if err != nil {
		return nil, fmt.Errorf("%w, %w", err, ErrConfiguration)
	}
	m, err := residuals.Build(context.Background(), iv.train, iv.forecaster, w, iv.opt.residualOptions())
	if err != nil {
		return nil, fmt.Errorf("unable to build residuals matrix, %w", err)
	}
	return m, nil
}

// predict returns the absolute times and point predictions of fh. Callers must hold the
// read lock.
func (iv *Intervals) predict(fh horizon.Horizon, x [][]float64) ([]time.Time, []float64, error) {
	if iv.fitted == nil {
		return nil, nil, ErrNotFitted
	}
	if err := fh.Validate(); err != nil {
		return nil, nil, err
	}
	t, err := fh.ToAbsolute(iv.fitted.Cutoff(), iv.freq)
	if err != nil {
		return nil, nil, err
	}
	pred, err := iv.fitted.Predict(fh, x)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to predict with forecaster, %w", err)
	}
	return t, pred, nil
}

// Predict returns the point forecasts of the fitted forecaster at each horizon step
func (iv *Intervals) Predict(fh horizon.Horizon, x [][]float64) (*Results, error) {
	iv.mu.RLock()
	defer iv.mu.RUnlock()

	t, pred, err := iv.predict(fh, x)
	if err != nil {
		return nil, err
	}
	return &Results{
		Variable: iv.opt.VariableName,
		T:        t,
		Horizon:  append(horizon.Horizon(nil), fh...),
		Forecast: pred,
	}, nil
}

func validateCoverage(coverage []float64) error {
	if len(coverage) == 0 {
		return fmt.Errorf("no coverage provided, %w", ErrInvalidCoverage)
	}
	for _, c := range coverage {
		if math.IsNaN(c) || c < 0 || c >= 1 {
			return fmt.Errorf("got %.4f, %w", c, ErrInvalidCoverage)
		}
	}
	return nil
}

// PredictInterval returns the lower and upper interval ends at every coverage for each
// horizon step. Coverage order is preserved.
func (iv *Intervals) PredictInterval(fh horizon.Horizon, coverage []float64, x [][]float64) (*IntervalTable, error) {
	if err := validateCoverage(coverage); err != nil {
		return nil, err
	}

	iv.mu.RLock()
	defer iv.mu.RUnlock()

	t, pred, err := iv.predict(fh, x)
	if err != nil {
		return nil, err
	}
	m, err := iv.residualsMatrix()
	if err != nil {
		return nil, err
	}

	tbl := &IntervalTable{
		Variable: iv.opt.VariableName,
		T:        t,
		Horizon:  append(horizon.Horizon(nil), fh...),
		Forecast: pred,
		Coverage: append([]float64(nil), coverage...),
		Lower:    make([]Values, len(coverage)),
		Upper:    make([]Values, len(coverage)),
	}
	for k := range coverage {
		tbl.Lower[k] = make(Values, len(fh))
		tbl.Upper[k] = make(Values, len(fh))
	}

	for i, h := range fh {
		lead, err := m.LeadTime(h)
		if err != nil {
			return nil, err
		}
		lower, upper, err := iv.rule.offsets(lead, coverage, len(fh))
		if err != nil {
			iv.opt.Logger.Warn("no residuals to compute interval",
				zap.Int("horizon", h),
				zap.Time("time", t[i]),
				zap.Error(err),
			)
			for k := range coverage {
				tbl.Lower[k][i] = math.NaN()
				tbl.Upper[k][i] = math.NaN()
			}
			continue
		}
		for k := range coverage {
			tbl.Lower[k][i] = pred[i] + lower[k]
			tbl.Upper[k][i] = pred[i] + upper[k]
		}
	}
	return tbl, nil
}

// PredictQuantiles returns quantile forecasts for each alpha. Each alpha maps onto the
// interval with coverage |2alpha-1| where alphas below 0.5 take the lower end.
func (iv *Intervals) PredictQuantiles(fh horizon.Horizon, alpha []float64, x [][]float64) (*QuantileTable, error) {
	if len(alpha) == 0 {
		return nil, fmt.Errorf("no alpha provided, %w", ErrInvalidAlpha)
	}
	coverage := make([]float64, len(alpha))
	for i, a := range alpha {
		if math.IsNaN(a) || a <= 0 || a >= 1 {
			return nil, fmt.Errorf("got %.4f, %w", a, ErrInvalidAlpha)
		}
		coverage[i] = math.Abs(2*a - 1)
	}

	tbl, err := iv.PredictInterval(fh, coverage, x)
	if err != nil {
		return nil, err
	}

	res := &QuantileTable{
		Variable: tbl.Variable,
		T:        tbl.T,
		Horizon:  tbl.Horizon,
		Alpha:    append([]float64(nil), alpha...),
		Values:   make([]Values, len(alpha)),
	}
	for k, a := range alpha {
		if a < 0.5 {
			res.Values[k] = tbl.Lower[k]
			continue
		}
		res.Values[k] = tbl.Upper[k]
	}
	return res, nil
}
