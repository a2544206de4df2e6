package pointforecast

import (
	"fmt"
	"time"

	"github.com/aouyang1/go-conformal/horizon"
	mat_ "github.com/aouyang1/go-conformal/mat"
	"github.com/aouyang1/go-conformal/models"
	"github.com/aouyang1/go-conformal/timedataset"
	"gonum.org/v1/gonum/mat"
)

// LinearTrendOptions configures the linear trend forecaster. WindowLength of 0 fits on the
// entire history.
type LinearTrendOptions struct {
	WindowLength int `json:"window_length" mapstructure:"window_length"`
}

func NewDefaultLinearTrendOptions() *LinearTrendOptions {
	return &LinearTrendOptions{}
}

func (o *LinearTrendOptions) Validate() (*LinearTrendOptions, error) {
	if o == nil {
		return NewDefaultLinearTrendOptions(), nil
	}
	if o.WindowLength < 0 {
		return nil, fmt.Errorf("window length %d, %w", o.WindowLength, ErrInvalidOption)
	}
	res := *o
	return &res, nil
}

// LinearTrend regresses the series on its step position from the first training point plus
// any exogenous regressors attached to the training data
type LinearTrend struct {
	opt *LinearTrendOptions
	history

	origin time.Time
	nExog  int
	model  *models.OLSRegression
}

func NewLinearTrend(opt *LinearTrendOptions) (*LinearTrend, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &LinearTrend{opt: opt}, nil
}

func (l *LinearTrend) Clone() Forecaster {
	opt := *l.opt
	return &LinearTrend{opt: &opt}
}

func (l *LinearTrend) position(t time.Time) float64 {
	return float64(t.Sub(l.origin)) / float64(l.freq)
}

func (l *LinearTrend) designRows(pos []float64, x [][]float64) ([][]float64, error) {
	rows := make([][]float64, len(pos))
	for i, p := range pos {
		row := make([]float64, 0, 1+l.nExog)
		row = append(row, p)
		if l.nExog > 0 {
			if len(x[i]) != l.nExog {
				return nil, fmt.Errorf("row %d has %d regressors instead of %d, %w", i, len(x[i]), l.nExog, ErrExogRequired)
			}
			row = append(row, x[i]...)
		}
		rows[i] = row
	}
	return rows, nil
}

func (l *LinearTrend) Fit(td *timedataset.TimeDataset, fh horizon.Horizon) error {
	if err := l.set(td, fh); err != nil {
		return err
	}
	l.origin = l.data.T[0]
	l.nExog = 0
	if l.data.HasExog() && len(l.data.X) > 0 {
		l.nExog = len(l.data.X[0])
	}
	return l.fitModel()
}

func (l *LinearTrend) fitModel() error {
	start := 0
	if l.opt.WindowLength > 0 {
		if l.data.Len() < l.opt.WindowLength {
			return fmt.Errorf("window of %d with %d observations, %w", l.opt.WindowLength, l.data.Len(), ErrIndexOutOfRange)
		}
		start = l.data.Len() - l.opt.WindowLength
	}
	n := l.data.Len() - start
	if n < 2+l.nExog {
		return fmt.Errorf("%d observations for %d parameters, %w", n, 2+l.nExog, ErrIndexOutOfRange)
	}

	pos := make([]float64, n)
	for i := range pos {
		pos[i] = l.position(l.data.T[start+i])
	}
	var x [][]float64
	if l.nExog > 0 {
		x = l.data.X[start:]
	}
	rows, err := l.designRows(pos, x)
	if err != nil {
		return err
	}
	design, err := mat_.NewDenseFromArray(rows)
	if err != nil {
		return err
	}
	target := mat.NewDense(n, 1, append([]float64(nil), l.data.Y[start:]...))

	model, err := models.NewOLSRegression(nil)
	if err != nil {
		return err
	}
	if err := model.Fit(design, target); err != nil {
		return fmt.Errorf("unable to fit linear trend, %w", err)
	}
	l.model = model
	return nil
}

func (l *LinearTrend) Predict(fh horizon.Horizon, x [][]float64) ([]float64, error) {
	if !l.fitted() || l.model == nil {
		return nil, ErrNotFitted
	}
	if err := fh.Validate(); err != nil {
		return nil, err
	}
	if l.nExog > 0 {
		if x == nil {
			return nil, ErrExogRequired
		}
		if len(x) < len(fh) {
			return nil, fmt.Errorf("%d exogenous rows for %d steps, %w", len(x), len(fh), ErrIndexOutOfRange)
		}
	}

	base := l.position(l.Cutoff())
	pos := make([]float64, len(fh))
	for i, s := range fh {
		pos[i] = base + float64(s)
	}
	rows, err := l.designRows(pos, x)
	if err != nil {
		return nil, err
	}
	design, err := mat_.NewDenseFromArray(rows)
	if err != nil {
		return nil, err
	}
	return l.model.Predict(design)
}

func (l *LinearTrend) PredictResiduals(test *timedataset.TimeDataset) ([]float64, error) {
	return predictResiduals(l, &l.history, test)
}

// Update appends observations and refits the coefficients when updateParams is set. Without
// a refit the existing line is extrapolated from the new cutoff.
func (l *LinearTrend) Update(td *timedataset.TimeDataset, updateParams bool) error {
	if err := l.merge(td); err != nil {
		return err
	}
	if !updateParams {
		return nil
	}
	return l.fitModel()
}

// Coef returns the intercept followed by the slope per step and any exogenous weights
func (l *LinearTrend) Coef() []float64 {
	if l.model == nil {
		return nil
	}
	return append([]float64{l.model.Intercept()}, l.model.Coef()...)
}

func (l *LinearTrend) Cutoff() time.Time {
	return l.history.Cutoff()
}
