package pointforecast

import (
	"fmt"
	"time"

	"github.com/aouyang1/go-conformal/horizon"
	"github.com/aouyang1/go-conformal/timedataset"
	"gonum.org/v1/gonum/stat"
)

type Strategy string

const (
	// StrategyLast repeats the last observed value, or the last observed season when a
	// seasonal period is set
	StrategyLast Strategy = "last"
	// StrategyMean repeats the mean of the trailing window
	StrategyMean Strategy = "mean"
	// StrategyDrift extrapolates the line through the first and last point of the window
	StrategyDrift Strategy = "drift"
)

// NaiveOptions configures the naive forecaster. WindowLength of 0 uses the entire history.
type NaiveOptions struct {
	Strategy     Strategy `json:"strategy" mapstructure:"strategy"`
	SP           int      `json:"sp" mapstructure:"sp"`
	WindowLength int      `json:"window_length" mapstructure:"window_length"`
}

func NewDefaultNaiveOptions() *NaiveOptions {
	return &NaiveOptions{
		Strategy: StrategyLast,
		SP:       1,
	}
}

// Validate returns a usable set of options, substituting defaults for nil
func (o *NaiveOptions) Validate() (*NaiveOptions, error) {
	if o == nil {
		return NewDefaultNaiveOptions(), nil
	}
	res := *o
	switch res.Strategy {
	case StrategyLast, StrategyMean, StrategyDrift:
	case "":
		res.Strategy = StrategyLast
	default:
		return nil, fmt.Errorf("%q, %w", o.Strategy, ErrUnknownStrategy)
	}
	if res.SP == 0 {
		res.SP = 1
	}
	if res.SP < 0 {
		return nil, fmt.Errorf("seasonal period %d, %w", res.SP, ErrInvalidOption)
	}
	if res.WindowLength < 0 {
		return nil, fmt.Errorf("window length %d, %w", res.WindowLength, ErrInvalidOption)
	}
	if res.Strategy == StrategyDrift && res.WindowLength == 1 {
		return nil, fmt.Errorf("drift needs a window of at least 2, %w", ErrInvalidOption)
	}
	return &res, nil
}

// Naive forecasts from simple summaries of the most recent history
type Naive struct {
	opt *NaiveOptions
	history
}

// NewNaive creates a naive forecaster. If no options are provided the last value strategy
// is used.
func NewNaive(opt *NaiveOptions) (*Naive, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &Naive{opt: opt}, nil
}

func (n *Naive) Clone() Forecaster {
	opt := *n.opt
	return &Naive{opt: &opt}
}

func (n *Naive) Fit(td *timedataset.TimeDataset, fh horizon.Horizon) error {
	return n.set(td, fh)
}

// window returns the trailing observations the strategy summarizes
func (n *Naive) window() ([]float64, error) {
	y := n.data.Y
	need := n.opt.WindowLength
	if n.opt.Strategy == StrategyLast {
		need = n.opt.SP
	}
	if need == 0 {
		return y, nil
	}
	if len(y) < need {
		return nil, fmt.Errorf("%s strategy needs %d observations but has %d, %w", n.opt.Strategy, need, len(y), ErrIndexOutOfRange)
	}
	return y[len(y)-need:], nil
}

func (n *Naive) Predict(fh horizon.Horizon, x [][]float64) ([]float64, error) {
	if !n.fitted() {
		return nil, ErrNotFitted
	}
	if err := fh.Validate(); err != nil {
		return nil, err
	}
	w, err := n.window()
	if err != nil {
		return nil, err
	}

	res := make([]float64, len(fh))
	switch n.opt.Strategy {
	case StrategyLast:
		for i, s := range fh {
			res[i] = w[(s-1)%len(w)]
		}
	case StrategyMean:
		mean := stat.Mean(w, nil)
		for i := range fh {
			res[i] = mean
		}
	case StrategyDrift:
		if len(w) < 2 {
			return nil, fmt.Errorf("drift needs 2 observations, %w", ErrIndexOutOfRange)
		}
		last := w[len(w)-1]
		slope := (last - w[0]) / float64(len(w)-1)
		for i, s := range fh {
			res[i] = last + slope*float64(s)
		}
	}
	return res, nil
}

func (n *Naive) PredictResiduals(test *timedataset.TimeDataset) ([]float64, error) {
	return predictResiduals(n, &n.history, test)
}

// Update appends the new observations. Naive forecasters carry no parameters beyond the
// history so updateParams has no effect.
func (n *Naive) Update(td *timedataset.TimeDataset, updateParams bool) error {
	return n.merge(td)
}

func (n *Naive) Cutoff() time.Time {
	return n.history.Cutoff()
}
