package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aouyang1/go-conformal"
	"github.com/aouyang1/go-conformal/pointforecast"
	"github.com/aouyang1/go-conformal/residuals"
	"github.com/aouyang1/go-conformal/timedataset"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	ErrNoInput           = errors.New("no input file provided")
	ErrUnknownForecaster = errors.New("unknown forecaster")
	ErrInvalidHorizon    = errors.New("horizon must be positive")
	ErrNoFuture          = errors.New("input has exogenous columns, future exogenous rows required")
	ErrFutureMismatch    = errors.New("future rows do not line up with input")
)

const (
	forecasterNaive    = "naive"
	forecasterSeasonal = "seasonal"
	forecasterMean     = "mean"
	forecasterDrift    = "drift"
	forecasterTrend    = "trend"
)

type ForecasterConfig struct {
	Kind         string `mapstructure:"kind" yaml:"kind"`
	SP           int    `mapstructure:"sp" yaml:"sp"`
	WindowLength int    `mapstructure:"window_length" yaml:"window_length"`
}

// Config is the merged view of flags, environment and config file
type Config struct {
	Input         string           `mapstructure:"input" yaml:"input"`
	Future        string           `mapstructure:"future" yaml:"future"`
	Method        string           `mapstructure:"method" yaml:"method"`
	InitialWindow string           `mapstructure:"initial_window" yaml:"initial_window"`
	SampleFrac    float64          `mapstructure:"sample_frac" yaml:"sample_frac"`
	Seed          uint64           `mapstructure:"seed" yaml:"seed"`
	NJobs         int              `mapstructure:"n_jobs" yaml:"n_jobs"`
	Verbose       bool             `mapstructure:"verbose" yaml:"verbose"`
	Variable      string           `mapstructure:"variable" yaml:"variable"`
	Forecaster    ForecasterConfig `mapstructure:"forecaster" yaml:"forecaster"`
	Horizon       int              `mapstructure:"horizon" yaml:"horizon"`
	Coverage      []float64        `mapstructure:"coverage" yaml:"coverage"`
	Alpha         []float64        `mapstructure:"alpha" yaml:"alpha"`
	Holdout       int              `mapstructure:"holdout" yaml:"holdout"`
	Plot          string           `mapstructure:"plot" yaml:"plot"`
	Format        string           `mapstructure:"format" yaml:"format"`
	Output        string           `mapstructure:"output" yaml:"output"`
}

func (a *app) config() (*Config, error) {
	var cfg Config
	if err := a.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config, %w", err)
	}
	if cfg.Horizon <= 0 {
		return nil, fmt.Errorf("got %d, %w", cfg.Horizon, ErrInvalidHorizon)
	}
	return &cfg, nil
}

func readCSV(path string) (*timedataset.TimeDataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open %s, %w", path, err)
	}
	defer f.Close()

	td, err := timedataset.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("unable to load %s, %w", path, err)
	}
	return td, nil
}

func (c *Config) dataset() (*timedataset.TimeDataset, error) {
	if c.Input == "" {
		return nil, ErrNoInput
	}
	return readCSV(c.Input)
}

// futureExog loads the exogenous rows of the forecast steps from the future file. The file
// has the same layout as the input and its value column is ignored. Rows are taken in order
// from the first time point after the input cutoff.
func (c *Config) futureExog(td *timedataset.TimeDataset) ([][]float64, error) {
	if c.Future == "" {
		if td.HasExog() && c.Forecaster.Kind == forecasterTrend {
			return nil, ErrNoFuture
		}
		return nil, nil
	}
	if !td.HasExog() {
		return nil, fmt.Errorf("input has no exogenous columns, %w", ErrFutureMismatch)
	}

	future, err := readCSV(c.Future)
	if err != nil {
		return nil, err
	}
	if !future.HasExog() {
		return nil, fmt.Errorf("future has no exogenous columns, %w", ErrFutureMismatch)
	}
	if len(future.X[0]) != len(td.X[0]) {
		return nil, fmt.Errorf("future has %d exogenous columns and input has %d, %w", len(future.X[0]), len(td.X[0]), ErrFutureMismatch)
	}
	start, _ := future.Position(td.Cutoff().Add(time.Nanosecond))
	if future.Len()-start < c.Horizon {
		return nil, fmt.Errorf("%d future rows after %s for a horizon of %d, %w",
			future.Len()-start, td.Cutoff().Format(time.RFC3339), c.Horizon, ErrFutureMismatch)
	}
	return future.X[start : start+c.Horizon], nil
}

func (c *Config) forecaster() (pointforecast.Forecaster, error) {
	fc := c.Forecaster
	switch fc.Kind {
	case forecasterNaive, "":
		return pointforecast.NewNaive(&pointforecast.NaiveOptions{Strategy: pointforecast.StrategyLast})
	case forecasterSeasonal:
		return pointforecast.NewNaive(&pointforecast.NaiveOptions{Strategy: pointforecast.StrategyLast, SP: fc.SP})
	case forecasterMean:
		return pointforecast.NewNaive(&pointforecast.NaiveOptions{Strategy: pointforecast.StrategyMean, WindowLength: fc.WindowLength})
	case forecasterDrift:
		return pointforecast.NewNaive(&pointforecast.NaiveOptions{Strategy: pointforecast.StrategyDrift, WindowLength: fc.WindowLength})
	case forecasterTrend:
		return pointforecast.NewLinearTrend(&pointforecast.LinearTrendOptions{WindowLength: fc.WindowLength})
	default:
		return nil, fmt.Errorf("%q, %w", fc.Kind, ErrUnknownForecaster)
	}
}

func (a *app) intervals(c *Config) (*conformal.Intervals, error) {
	method, err := conformal.ParseMethod(c.Method)
	if err != nil {
		return nil, err
	}
	window, err := residuals.ParseWindow(c.InitialWindow)
	if err != nil {
		return nil, err
	}
	f, err := c.forecaster()
	if err != nil {
		return nil, err
	}
	return conformal.New(f, &conformal.Options{
		Method:        method,
		InitialWindow: window,
		SampleFrac:    c.SampleFrac,
		Seed:          c.Seed,
		Verbose:       c.Verbose,
		NJobs:         c.NJobs,
		VariableName:  c.Variable,
		Logger:        a.logger,
		Metrics:       a.metrics,
	})
}

func newConfigCmd(a *app) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the resolved configuration",
	}
	configCmd.AddCommand(&cobra.Command{
		Use:   "view",
		Short: "View the configuration merged from flags, environment and config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(a.v.AllSettings()); err != nil {
				return err
			}
			return enc.Close()
		},
	})
	return configCmd
}
