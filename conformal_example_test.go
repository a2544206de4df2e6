package conformal

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aouyang1/go-conformal/horizon"
	"github.com/aouyang1/go-conformal/pointforecast"
	"github.com/aouyang1/go-conformal/timedataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ExampleIntervals_PredictInterval() {
	t := timedataset.GenerateT(20, time.Hour, func() time.Time { return time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC) })
	td, err := timedataset.NewUnivariateDataset(t, timedataset.GenerateRampY(20, 0, 1))
	if err != nil {
		panic(err)
	}

	f, err := pointforecast.NewNaive(nil)
	if err != nil {
		panic(err)
	}
	iv, err := New(f, &Options{Method: MethodConformal})
	if err != nil {
		panic(err)
	}
	fh := horizon.Range(3)
	if err := iv.Fit(td, fh); err != nil {
		panic(err)
	}

	tbl, err := iv.PredictInterval(fh, []float64{0.9}, nil)
	if err != nil {
		panic(err)
	}
	for i, h := range tbl.Horizon {
		fmt.Printf("%s h=%d forecast=%.2f lower=%.2f upper=%.2f\n",
			tbl.T[i].Format(time.RFC3339), h, tbl.Forecast[i], tbl.Lower[0][i], tbl.Upper[0][i])
	}
	// Output:
	// 2024-01-02T00:00:00Z h=1 forecast=19.00 lower=18.00 upper=20.00
	// 2024-01-02T01:00:00Z h=2 forecast=19.00 lower=17.00 upper=21.00
	// 2024-01-02T02:00:00Z h=3 forecast=19.00 lower=16.00 upper=22.00
}

func generateSeasonalSeries(n int) *timedataset.TimeDataset {
	t := timedataset.GenerateT(n, time.Hour, func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) })
	y := make(timedataset.Series, n)
	y.Add(timedataset.GenerateConstY(n, 50)).
		Add(timedataset.GenerateWaveY(t, 10, 86400, 1, 0)).
		Add(timedataset.GenerateWaveY(t, 3, 86400, 2, 3600)).
		Add(timedataset.GenerateNoise(n, 0.5, 17))

	td, err := timedataset.NewUnivariateDataset(t, y)
	if err != nil {
		panic(err)
	}
	return td
}

func TestSeasonalExample(t *testing.T) {
	series := generateSeasonalSeries(24 * 14)
	holdout := 24
	train, err := series.Slice(0, series.Len()-holdout)
	require.Nil(t, err)
	test, err := series.Slice(series.Len()-holdout, series.Len())
	require.Nil(t, err)

	f, err := pointforecast.NewNaive(&pointforecast.NaiveOptions{Strategy: pointforecast.StrategyLast, SP: 24})
	require.Nil(t, err)
	fh := horizon.Range(holdout)
	iv := fitIntervals(t, train, f, fh, &Options{
		Method:     MethodConformal,
		NJobs:      -1,
		SampleFrac: 0.5,
		Seed:       1,
	})

	tbl, err := iv.PredictInterval(fh, []float64{0.5, 0.95}, nil)
	require.Nil(t, err)
	assert.Equal(t, test.T, tbl.T)

	scores, err := tbl.Score(test.Y)
	require.Nil(t, err)
	for _, s := range scores {
		assert.False(t, math.IsNaN(s.Coverage))
		assert.Greater(t, s.MeanWidth, 0.0)
	}
	assert.Greater(t, scores[1].MeanWidth, scores[0].MeanWidth)

	file, err := os.Create(filepath.Join(t.TempDir(), "seasonal.html"))
	require.Nil(t, err)
	defer file.Close()
	require.Nil(t, iv.PlotInterval(file, fh, []float64{0.5, 0.95}, nil))
}
