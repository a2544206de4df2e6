package conformal

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/aouyang1/go-conformal/horizon"
	"github.com/aouyang1/go-conformal/timedataset"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// lineData converts values into echart points leaving gaps for NaN
func lineData(y []float64) []opts.LineData {
	res := make([]opts.LineData, len(y))
	for i, v := range y {
		if math.IsNaN(v) {
			res[i] = opts.LineData{Value: "-"}
			continue
		}
		res[i] = opts.LineData{Value: v}
	}
	return res
}

// LineTSeries generates an echart multi-line chart for some arbitrary time/value combination. The input
// y is a slice of series that must have the same length as the input time slice.
func LineTSeries(title string, seriesName []string, t []time.Time, y [][]float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
	)

	line = line.SetXAxis(t)
	for i, series := range seriesName {
		line = line.AddSeries(series, lineData(y[i]))
	}
	return line
}

// LineIntervals generates an echart line chart of the training series followed by the
// forecast and interval ends of each coverage
func LineIntervals(history *timedataset.TimeDataset, tbl *IntervalTable) *charts.Line {
	n := history.Len()
	t := make([]time.Time, 0, n+len(tbl.T))
	t = append(t, history.T...)
	t = append(t, tbl.T...)

	pad := func(head, tail []float64) []float64 {
		res := make([]float64, 0, len(t))
		res = append(res, head...)
		return append(res, tail...)
	}
	nanSeries := func(cnt int) []float64 {
		res := make([]float64, cnt)
		for i := range res {
			res[i] = math.NaN()
		}
		return res
	}

	names := []string{"Actual", "Forecast"}
	series := [][]float64{
		pad(history.Y, nanSeries(len(tbl.T))),
		pad(nanSeries(n), tbl.Forecast),
	}
	for k, c := range tbl.Coverage {
		cov := strconv.FormatFloat(c, 'f', -1, 64)
		names = append(names, "Lower "+cov, "Upper "+cov)
		series = append(series,
			pad(nanSeries(n), tbl.Lower[k]),
			pad(nanSeries(n), tbl.Upper[k]),
		)
	}
	return LineTSeries(fmt.Sprintf("Prediction Intervals (%s)", tbl.Variable), names, t, series)
}

// PlotInterval renders an html page with the training series, the forecast with its interval
// ends and the interval widths per horizon step.
func (iv *Intervals) PlotInterval(w io.Writer, fh horizon.Horizon, coverage []float64, x [][]float64) error {
	tbl, err := iv.PredictInterval(fh, coverage, x)
	if err != nil {
		return fmt.Errorf("unable to predict intervals, %w", err)
	}
	history := iv.TrainingData()

	names := make([]string, len(tbl.Coverage))
	widths := make([][]float64, len(tbl.Coverage))
	for k, c := range tbl.Coverage {
		names[k] = "Width " + strconv.FormatFloat(c, 'f', -1, 64)
		widths[k] = tbl.Width(k)
	}

	page := components.NewPage()
	page.AddCharts(
		LineIntervals(history, tbl),
		LineTSeries("Interval Width", names, tbl.T, widths),
	)
	return page.Render(w)
}
