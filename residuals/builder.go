package residuals

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"slices"
	"time"

	"github.com/aouyang1/go-conformal/horizon"
	"github.com/aouyang1/go-conformal/pointforecast"
	"github.com/aouyang1/go-conformal/timedataset"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidSampleFrac = errors.New("sample fraction must be within [0, 1]")
	ErrInvalidNJobs      = errors.New("number of jobs must be -1 or non-negative")
	ErrNilForecaster     = errors.New("forecaster is nil")
	ErrIndexMismatch     = errors.New("residual matrix index does not line up with dataset")
)

// Options configures how residual rows are computed
type Options struct {
	// SampleFrac of the candidate anchors are computed. 0 computes every anchor.
	SampleFrac float64
	// Seed of the anchor sampler
	Seed uint64
	// NJobs is the number of concurrent fits. -1 uses every CPU and 0 is treated as 1.
	NJobs int
	// Verbose logs anchors whose training window is too short to reach every target
	Verbose bool
	Logger  *zap.Logger
	Metrics *Metrics
}

func NewDefaultOptions() *Options {
	return &Options{
		NJobs:  1,
		Logger: zap.NewNop(),
	}
}

// Validate returns a usable set of options, substituting defaults for nil
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		return NewDefaultOptions(), nil
	}
	res := *o
	if math.IsNaN(res.SampleFrac) || res.SampleFrac < 0 || res.SampleFrac > 1 {
		return nil, fmt.Errorf("got %.4f, %w", res.SampleFrac, ErrInvalidSampleFrac)
	}
	switch {
	case res.NJobs == -1:
		res.NJobs = runtime.NumCPU()
	case res.NJobs == 0:
		res.NJobs = 1
	case res.NJobs < -1:
		return nil, fmt.Errorf("got %d, %w", res.NJobs, ErrInvalidNJobs)
	}
	if res.Logger == nil {
		res.Logger = zap.NewNop()
	}
	return &res, nil
}

// Build computes the residual matrix over td.T[w:]. Every anchor refits a clone of f on the
// observations before it and records the residuals of every later observation.
func Build(ctx context.Context, td *timedataset.TimeDataset, f pointforecast.Forecaster, w int, opt *Options) (*Matrix, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, ErrNilForecaster
	}
	if w < 0 || w >= td.Len() {
		return nil, fmt.Errorf("initial window %d with %d observations, %w", w, td.Len(), ErrInvalidWindow)
	}

	m, err := NewMatrix(td.T[w:])
	if err != nil {
		return nil, err
	}
	candidates := make([]int, m.Len())
	for i := range candidates {
		candidates[i] = i
	}
	anchors := sampleAnchors(candidates, opt.SampleFrac, opt.Seed)
	if err := buildRows(ctx, td, f, m, w, anchors, opt); err != nil {
		return nil, err
	}
	return m, nil
}

// Extend grows prev to cover td.T[min(start, w):] where start is the dataset position of
// prev's first anchor. Existing rows are copied over and only anchors missing from prev are
// computed. When td holds no new time points a copy of prev is returned.
func Extend(ctx context.Context, prev *Matrix, td *timedataset.TimeDataset, f pointforecast.Forecaster, w int, opt *Options) (*Matrix, error) {
	if prev == nil {
		return Build(ctx, td, f, w, opt)
	}
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, ErrNilForecaster
	}
	if w < 0 || w >= td.Len() {
		return nil, fmt.Errorf("initial window %d with %d observations, %w", w, td.Len(), ErrInvalidWindow)
	}

	prevStart, ok := td.Position(prev.Start())
	if !ok || prevStart+prev.Len() > td.Len() {
		return nil, fmt.Errorf("anchor %s not found in dataset, %w", prev.Start(), ErrIndexMismatch)
	}
	for i, t := range prev.index {
		if !td.T[prevStart+i].Equal(t) {
			return nil, fmt.Errorf("anchor %s does not match %s, %w", t, td.T[prevStart+i], ErrIndexMismatch)
		}
	}

	start := min(prevStart, w)
	if start == prevStart && prevStart+prev.Len() == td.Len() {
		return prev.Copy(), nil
	}

	m, err := NewMatrix(td.T[start:])
	if err != nil {
		return nil, err
	}
	offset := prevStart - start
	if err := prev.embed(m, offset); err != nil {
		return nil, err
	}

	candidates := make([]int, 0, m.Len()-prev.Len())
	for i := 0; i < m.Len(); i++ {
		if i >= offset && i < offset+prev.Len() {
			continue
		}
		candidates = append(candidates, i)
	}
	anchors := sampleAnchors(candidates, opt.SampleFrac, opt.Seed)
	if err := buildRows(ctx, td, f, m, start, anchors, opt); err != nil {
		return nil, err
	}
	return m, nil
}

// sampleAnchors draws floor(frac * len(candidates)) anchors without replacement and returns
// them in ascending order. A frac of 0 or 1 keeps every candidate.
func sampleAnchors(candidates []int, frac float64, seed uint64) []int {
	if frac == 0 || frac >= 1 {
		return candidates
	}
	k := int(math.Floor(frac * float64(len(candidates))))
	rng := rand.New(rand.NewPCG(seed, seed))
	perm := rng.Perm(len(candidates))

	res := make([]int, k)
	for i := 0; i < k; i++ {
		res[i] = candidates[perm[i]]
	}
	slices.Sort(res)
	return res
}

// buildRows computes the rows of m at the given anchors. offset is the dataset position of
// m's first anchor. Rows land in their own slot so the result does not depend on the order
// workers finish in.
func buildRows(ctx context.Context, td *timedataset.TimeDataset, f pointforecast.Forecaster, m *Matrix, offset int, anchors []int, opt *Options) error {
	rows := make([][]float64, len(anchors))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opt.NJobs)
	for i, a := range anchors {
		clone := f.Clone()
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rows[i] = computeRow(td, clone, m.Len(), offset, a, opt)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("unable to build residual rows, %w", err)
	}

	for i, a := range anchors {
		if rows[i] == nil {
			continue
		}
		if err := m.SetRow(a, rows[i]); err != nil {
			return err
		}
	}
	return nil
}

// computeRow fits f on the observations before the anchor and returns its residuals aligned
// to the matrix columns. A nil row is returned if the forecaster fails.
func computeRow(td *timedataset.TimeDataset, f pointforecast.Forecaster, size, offset, anchor int, opt *Options) []float64 {
	start := time.Now()
	pos := offset + anchor

	residuals, err := fitPredict(td, f, pos)
	if err != nil {
		elapsed := time.Since(start)
		fields := []zap.Field{
			zap.Time("anchor", td.T[pos]),
			zap.Int("train_size", pos),
			zap.Error(err),
		}
		if errors.Is(err, pointforecast.ErrIndexOutOfRange) {
			opt.Metrics.observeFailed(elapsed, reasonUnderdetermined)
			if opt.Verbose {
				opt.Logger.Warn("unable to predict every target after fitting on window", fields...)
			}
			return nil
		}
		opt.Metrics.observeFailed(elapsed, reasonForecaster)
		opt.Logger.Warn("unable to compute residual row", fields...)
		return nil
	}

	row := make([]float64, size)
	for j := range row {
		row[j] = math.NaN()
	}
	copy(row[anchor:], residuals)
	opt.Metrics.observeBuilt(time.Since(start))
	return row
}

func fitPredict(td *timedataset.TimeDataset, f pointforecast.Forecaster, pos int) ([]float64, error) {
	train, err := td.Slice(0, pos)
	if err != nil {
		return nil, err
	}
	test, err := td.Slice(pos, td.Len())
	if err != nil {
		return nil, err
	}
	if err := f.Fit(train, horizon.Range(test.Len())); err != nil {
		return nil, fmt.Errorf("unable to fit forecaster, %w", err)
	}
	residuals, err := f.PredictResiduals(test)
	if err != nil {
		return nil, fmt.Errorf("unable to predict residuals, %w", err)
	}
	if len(residuals) != test.Len() {
		return nil, fmt.Errorf("got %d residuals for %d observations, %w", len(residuals), test.Len(), pointforecast.ErrPredictionMismatch)
	}
	return residuals, nil
}
