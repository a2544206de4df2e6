package conformal

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/aouyang1/go-conformal/horizon"
	"github.com/goccy/go-json"
)

const (
	SideLower = "lower"
	SideUpper = "upper"
)

// Values is a float slice that encodes NaN as a JSON null
type Values []float64

func (v Values) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			buf.WriteByte(',')
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			buf.WriteString("null")
			continue
		}
		buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func (v *Values) UnmarshalJSON(data []byte) error {
	var raw []*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	res := make(Values, len(raw))
	for i, f := range raw {
		if f == nil {
			res[i] = math.NaN()
			continue
		}
		res[i] = *f
	}
	*v = res
	return nil
}

// Results holds point predictions at each horizon step
type Results struct {
	Variable string          `json:"variable" yaml:"variable"`
	T        []time.Time     `json:"time" yaml:"time"`
	Horizon  horizon.Horizon `json:"horizon" yaml:"horizon"`
	Forecast Values          `json:"forecast" yaml:"forecast"`
}

// Column identifies one interval end in an IntervalTable
type Column struct {
	Variable string
	Coverage float64
	Side     string
}

func (c Column) String() string {
	return fmt.Sprintf("%s %s %s", c.Variable, strconv.FormatFloat(c.Coverage, 'f', -1, 64), c.Side)
}

// IntervalTable holds interval ends for each coverage in the order requested. Lower[k][i]
// and Upper[k][i] are the ends at Coverage[k] for horizon step Horizon[i].
type IntervalTable struct {
	Variable string          `json:"variable" yaml:"variable"`
	T        []time.Time     `json:"time" yaml:"time"`
	Horizon  horizon.Horizon `json:"horizon" yaml:"horizon"`
	Forecast Values          `json:"forecast" yaml:"forecast"`
	Coverage []float64       `json:"coverage" yaml:"coverage"`
	Lower    []Values        `json:"lower" yaml:"lower"`
	Upper    []Values        `json:"upper" yaml:"upper"`
}

// Columns enumerates (variable, coverage, side) with lower before upper for each coverage
func (t *IntervalTable) Columns() []Column {
	cols := make([]Column, 0, 2*len(t.Coverage))
	for _, c := range t.Coverage {
		cols = append(cols,
			Column{Variable: t.Variable, Coverage: c, Side: SideLower},
			Column{Variable: t.Variable, Coverage: c, Side: SideUpper},
		)
	}
	return cols
}

// Row returns the interval ends of horizon step i in column order
func (t *IntervalTable) Row(i int) []float64 {
	row := make([]float64, 0, 2*len(t.Coverage))
	for k := range t.Coverage {
		row = append(row, t.Lower[k][i], t.Upper[k][i])
	}
	return row
}

// Width returns upper minus lower for coverage index k
func (t *IntervalTable) Width(k int) []float64 {
	res := make([]float64, len(t.T))
	for i := range res {
		res[i] = t.Upper[k][i] - t.Lower[k][i]
	}
	return res
}

// TablePrint writes a tab aligned view of the table
func (t *IntervalTable) TablePrint(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "time\thorizon\tforecast")
	for _, col := range t.Columns() {
		fmt.Fprintf(tw, "\t%s", col)
	}
	fmt.Fprintln(tw, "\t")
	for i := range t.T {
		fmt.Fprintf(tw, "%s\t%d\t%.4f", t.T[i].Format(time.RFC3339), t.Horizon[i], t.Forecast[i])
		for _, v := range t.Row(i) {
			fmt.Fprintf(tw, "\t%.4f", v)
		}
		fmt.Fprintln(tw, "\t")
	}
	return tw.Flush()
}

// QuantileTable holds quantile forecasts. Values[k][i] is the Alpha[k] quantile at horizon
// step Horizon[i].
type QuantileTable struct {
	Variable string          `json:"variable" yaml:"variable"`
	T        []time.Time     `json:"time" yaml:"time"`
	Horizon  horizon.Horizon `json:"horizon" yaml:"horizon"`
	Alpha    []float64       `json:"alpha" yaml:"alpha"`
	Values   []Values        `json:"values" yaml:"values"`
}

// TablePrint writes a tab aligned view of the table
func (t *QuantileTable) TablePrint(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "time\thorizon")
	for _, a := range t.Alpha {
		fmt.Fprintf(tw, "\t%s %s", t.Variable, strconv.FormatFloat(a, 'f', -1, 64))
	}
	fmt.Fprintln(tw, "\t")
	for i := range t.T {
		fmt.Fprintf(tw, "%s\t%d", t.T[i].Format(time.RFC3339), t.Horizon[i])
		for k := range t.Alpha {
			fmt.Fprintf(tw, "\t%.4f", t.Values[k][i])
		}
		fmt.Fprintln(tw, "\t")
	}
	return tw.Flush()
}
