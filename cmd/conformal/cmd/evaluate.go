package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/aouyang1/go-conformal"
	"github.com/spf13/cobra"
)

var ErrInvalidHoldout = errors.New("holdout must be positive and leave training data")

type Evaluation struct {
	Variable string                   `json:"variable" yaml:"variable"`
	Method   conformal.Method         `json:"method" yaml:"method"`
	Holdout  int                      `json:"holdout" yaml:"holdout"`
	Coverage []float64                `json:"coverage" yaml:"coverage"`
	Scores   []*conformal.Scores      `json:"scores" yaml:"scores"`
	Table    *conformal.IntervalTable `json:"intervals" yaml:"intervals"`
}

func (e *Evaluation) TablePrint(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "coverage\tempirical coverage\tmean width\tinterval score\t")
	for k, c := range e.Coverage {
		s := e.Scores[k]
		fmt.Fprintf(tw, "%s\t%.4f\t%.4f\t%.4f\t\n", strconv.FormatFloat(c, 'f', -1, 64), s.Coverage, s.MeanWidth, s.IntervalScore)
	}
	return tw.Flush()
}

func newEvaluateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score intervals against the last observations of the series",
		Long: `Holds out the last observations of the input, fits on the rest and scores the
intervals of the held out steps by empirical coverage, mean width and interval score.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.config()
			if err != nil {
				return err
			}
			td, err := c.dataset()
			if err != nil {
				return err
			}
			holdout := c.Holdout
			if holdout == 0 {
				holdout = c.Horizon
			}
			if holdout < 0 || holdout >= td.Len() {
				return fmt.Errorf("got %d with %d observations, %w", holdout, td.Len(), ErrInvalidHoldout)
			}
			c.Horizon = holdout

			train, err := td.Slice(0, td.Len()-holdout)
			if err != nil {
				return err
			}
			test, err := td.Slice(td.Len()-holdout, td.Len())
			if err != nil {
				return err
			}
			iv, fh, err := a.fit(c, train)
			if err != nil {
				return err
			}

			tbl, err := iv.PredictInterval(fh, c.Coverage, test.X)
			if err != nil {
				return err
			}
			scores, err := tbl.Score(test.Y)
			if err != nil {
				return err
			}
			return a.write(cmd, c, &Evaluation{
				Variable: tbl.Variable,
				Method:   iv.Method(),
				Holdout:  holdout,
				Coverage: tbl.Coverage,
				Scores:   scores,
				Table:    tbl,
			})
		},
	}
	cmd.Flags().StringSlice("coverage", []string{"0.8", "0.95"}, "nominal coverages of the intervals")
	cmd.Flags().Int("holdout", 0, "observations held out for scoring, 0 uses the horizon")
	return cmd
}
