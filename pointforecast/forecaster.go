// Package pointforecast defines the point forecaster contract consumed by the conformal
// interval wrapper along with a handful of baseline forecasters.
package pointforecast

import (
	"errors"
	"fmt"
	"time"

	"github.com/aouyang1/go-conformal/horizon"
	"github.com/aouyang1/go-conformal/timedataset"
	"gonum.org/v1/gonum/floats"
)

var (
	ErrIndexOutOfRange    = errors.New("forecast index out of range")
	ErrNotFitted          = errors.New("forecaster has not been fit")
	ErrUnknownStrategy    = errors.New("unknown strategy")
	ErrInvalidOption      = errors.New("invalid forecaster option")
	ErrExogRequired       = errors.New("exogenous rows required for prediction")
	ErrPredictionMismatch = errors.New("prediction length does not match observations")
)

// Forecaster produces point predictions for a univariate series. Implementations must
// return a fresh unfitted copy from Clone so that clones can be fit concurrently.
type Forecaster interface {
	// Clone returns an unfitted forecaster with the same configuration
	Clone() Forecaster

	// Fit trains on td. fh is the horizon the caller intends to predict and may be nil.
	Fit(td *timedataset.TimeDataset, fh horizon.Horizon) error

	// Predict returns one value per horizon step. x holds exogenous rows for each step
	// and is ignored by forecasters without regressors.
	Predict(fh horizon.Horizon, x [][]float64) ([]float64, error)

	// PredictResiduals returns test.Y minus the predictions at test.T. Returns
	// ErrIndexOutOfRange when the forecaster cannot reach every test point.
	PredictResiduals(test *timedataset.TimeDataset) ([]float64, error)

	// Update incorporates new observations. When updateParams is false only the
	// history and cutoff move forward.
	Update(td *timedataset.TimeDataset, updateParams bool) error

	// Cutoff is the last time point seen in fit or update
	Cutoff() time.Time
}

// history tracks the observations and the inferred frequency a forecaster was fit on
type history struct {
	data *timedataset.TimeDataset
	freq time.Duration
	fh   horizon.Horizon
}

func (h *history) set(td *timedataset.TimeDataset, fh horizon.Horizon) error {
	if td == nil || td.Len() == 0 {
		return fmt.Errorf("%w, %w", timedataset.ErrNoTrainingData, ErrIndexOutOfRange)
	}
	freq, err := timedataset.TimeSlice(td.T).EstimateFreq()
	if err != nil {
		return fmt.Errorf("%d observations, %w, %w", td.Len(), err, ErrIndexOutOfRange)
	}
	h.data = td.Copy()
	h.freq = freq
	if fh != nil {
		h.fh = append(horizon.Horizon(nil), fh...)
	}
	return nil
}

func (h *history) merge(td *timedataset.TimeDataset) error {
	if h.data == nil {
		return ErrNotFitted
	}
	merged, err := h.data.Merge(td)
	if err != nil {
		return fmt.Errorf("unable to merge update into history, %w", err)
	}
	h.data = merged
	return nil
}

func (h *history) fitted() bool {
	return h.data != nil
}

// Cutoff returns the last observed time point
func (h *history) Cutoff() time.Time {
	return h.data.Cutoff()
}

// predictResiduals maps the test index onto steps from the cutoff and subtracts the
// predictions from the observations
func predictResiduals(f Forecaster, h *history, test *timedataset.TimeDataset) ([]float64, error) {
	if !h.fitted() {
		return nil, ErrNotFitted
	}
	if test == nil || test.Len() == 0 {
		return nil, timedataset.ErrNoTrainingData
	}
	steps, err := horizon.FromAbsolute(test.T, h.Cutoff(), h.freq)
	if err != nil {
		return nil, fmt.Errorf("unable to map test index onto horizon, %w, %w", err, ErrIndexOutOfRange)
	}
	pred, err := f.Predict(steps, test.X)
	if err != nil {
		return nil, err
	}
	if len(pred) != test.Len() {
		return nil, fmt.Errorf("got %d predictions for %d observations, %w", len(pred), test.Len(), ErrPredictionMismatch)
	}

	residual := make([]float64, test.Len())
	floats.SubTo(residual, test.Y, pred)
	return residual, nil
}
