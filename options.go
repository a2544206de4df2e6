package conformal

import (
	"fmt"

	"github.com/aouyang1/go-conformal/residuals"
	"go.uber.org/zap"
)

const DefaultVariableName = "y"

// Options configures the interval wrapper. A zero InitialWindow uses max(10, 10% of the
// training series).
type Options struct {
	Method        Method           `json:"method" yaml:"method"`
	InitialWindow residuals.Window `json:"-" yaml:"-"`
	SampleFrac    float64          `json:"sample_frac" yaml:"sample_frac"`
	Seed          uint64           `json:"seed" yaml:"seed"`
	Verbose       bool             `json:"verbose" yaml:"verbose"`
	NJobs         int              `json:"n_jobs" yaml:"n_jobs"`
	VariableName  string           `json:"variable_name" yaml:"variable_name"`

	Logger  *zap.Logger        `json:"-" yaml:"-"`
	Metrics *residuals.Metrics `json:"-" yaml:"-"`
}

func NewDefaultOptions() *Options {
	return &Options{
		Method:       MethodEmpirical,
		NJobs:        1,
		VariableName: DefaultVariableName,
		Logger:       zap.NewNop(),
	}
}

// Validate returns a usable copy of the options. Every failure wraps ErrConfiguration.
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		return NewDefaultOptions(), nil
	}
	res := *o

	if res.Method == "" {
		res.Method = MethodEmpirical
	}
	if _, err := res.Method.rule(); err != nil {
		return nil, err
	}
	if err := res.InitialWindow.Validate(); err != nil {
		return nil, fmt.Errorf("%w, %w", err, ErrConfiguration)
	}
	if res.VariableName == "" {
		res.VariableName = DefaultVariableName
	}
	if res.Logger == nil {
		res.Logger = zap.NewNop()
	}

	ropt, err := res.residualOptions().Validate()
	if err != nil {
		return nil, fmt.Errorf("%w, %w", err, ErrConfiguration)
	}
	res.NJobs = ropt.NJobs
	return &res, nil
}

func (o *Options) residualOptions() *residuals.Options {
	return &residuals.Options{
		SampleFrac: o.SampleFrac,
		Seed:       o.Seed,
		NJobs:      o.NJobs,
		Verbose:    o.Verbose,
		Logger:     o.Logger,
		Metrics:    o.Metrics,
	}
}
