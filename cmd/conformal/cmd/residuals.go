package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/aouyang1/go-conformal"
	"github.com/aouyang1/go-conformal/residuals"
	"github.com/aouyang1/go-conformal/stats"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"
)

// LeadSummary describes the residuals observed at one lead time
type LeadSummary struct {
	Lead   int     `json:"lead" yaml:"lead"`
	Count  int     `json:"count" yaml:"count"`
	Mean   float64 `json:"mean" yaml:"mean"`
	StdDev float64 `json:"std_dev" yaml:"std_dev"`
	Q05    float64 `json:"q05" yaml:"q05"`
	Q50    float64 `json:"q50" yaml:"q50"`
	Q95    float64 `json:"q95" yaml:"q95"`
}

// ResidualReport holds the per lead time summary along with the full residual matrix
type ResidualReport struct {
	Leads []LeadSummary   `json:"leads" yaml:"leads"`
	Model conformal.Model `json:"model" yaml:"model"`
}

func (r *ResidualReport) TablePrint(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "lead\tcount\tmean\tstd dev\tq05\tq50\tq95\t")
	for _, l := range r.Leads {
		fmt.Fprintf(tw, "%d\t%d\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\t\n", l.Lead, l.Count, l.Mean, l.StdDev, l.Q05, l.Q50, l.Q95)
	}
	return tw.Flush()
}

func summarizeLeads(m *residuals.Matrix, maxLead int) ([]LeadSummary, error) {
	res := make([]LeadSummary, 0, maxLead)
	for h := 1; h <= maxLead; h++ {
		lead, err := m.LeadTime(h)
		if err != nil {
			return nil, err
		}
		if len(lead) == 0 {
			break
		}
		q, err := stats.Quantiles(lead, []float64{0.05, 0.5, 0.95})
		if err != nil {
			return nil, err
		}
		mean, std := stat.MeanStdDev(lead, nil)
		res = append(res, LeadSummary{
			Lead:   h,
			Count:  len(lead),
			Mean:   mean,
			StdDev: std,
			Q05:    q[0],
			Q50:    q[1],
			Q95:    q[2],
		})
	}
	return res, nil
}

func newResidualsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "residuals",
		Short: "Summarize the rolling-origin residuals by lead time",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.config()
			if err != nil {
				return err
			}
			td, err := c.dataset()
			if err != nil {
				return err
			}
			iv, _, err := a.fit(c, td)
			if err != nil {
				return err
			}

			m, err := iv.ResidualsMatrix()
			if err != nil {
				return err
			}
			leads, err := summarizeLeads(m, c.Horizon)
			if err != nil {
				return err
			}
			model, err := iv.Model()
			if err != nil {
				return err
			}
			return a.write(cmd, c, &ResidualReport{Leads: leads, Model: model})
		},
	}
}
