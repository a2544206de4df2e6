package cmd

import (
	"fmt"
	"os"

	"github.com/aouyang1/go-conformal"
	"github.com/aouyang1/go-conformal/horizon"
	"github.com/aouyang1/go-conformal/timedataset"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// fit loads the input series and fits the wrapper for the configured horizon
func (a *app) fit(c *Config, td *timedataset.TimeDataset) (*conformal.Intervals, horizon.Horizon, error) {
	iv, err := a.intervals(c)
	if err != nil {
		return nil, nil, err
	}
	fh := horizon.Range(c.Horizon)
	if err := iv.Fit(td, fh); err != nil {
		return nil, nil, err
	}
	a.logger.Debug("fit intervals",
		zap.String("input", c.Input),
		zap.Int("observations", td.Len()),
		zap.String("method", string(iv.Method())),
		zap.Int("horizon", c.Horizon),
	)
	return iv, fh, nil
}

func newPredictCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Forecast the next steps with prediction intervals",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.config()
			if err != nil {
				return err
			}
			td, err := c.dataset()
			if err != nil {
				return err
			}
			iv, fh, err := a.fit(c, td)
			if err != nil {
				return err
			}

			x, err := c.futureExog(td)
			if err != nil {
				return err
			}
			tbl, err := iv.PredictInterval(fh, c.Coverage, x)
			if err != nil {
				return err
			}
			if err := a.write(cmd, c, tbl); err != nil {
				return err
			}

			if c.Plot == "" {
				return nil
			}
			f, err := os.Create(c.Plot)
			if err != nil {
				return fmt.Errorf("unable to create plot file, %w", err)
			}
			defer f.Close()
			return iv.PlotInterval(f, fh, c.Coverage, x)
		},
	}
	cmd.Flags().StringSlice("coverage", []string{"0.8", "0.95"}, "nominal coverages of the intervals")
	cmd.Flags().String("future", "", "csv with the exogenous rows of the forecast steps in the input layout")
	cmd.Flags().String("plot", "", "write an html plot of the intervals to this file")
	return cmd
}

func newQuantilesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quantiles",
		Short: "Forecast quantiles of the next steps",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.config()
			if err != nil {
				return err
			}
			td, err := c.dataset()
			if err != nil {
				return err
			}
			iv, fh, err := a.fit(c, td)
			if err != nil {
				return err
			}

			x, err := c.futureExog(td)
			if err != nil {
				return err
			}
			tbl, err := iv.PredictQuantiles(fh, c.Alpha, x)
			if err != nil {
				return err
			}
			return a.write(cmd, c, tbl)
		},
	}
	cmd.Flags().String("future", "", "csv with the exogenous rows of the forecast steps in the input layout")
	cmd.Flags().StringSlice("alpha", []string{"0.05", "0.5", "0.95"}, "quantile probabilities")
	return cmd
}
