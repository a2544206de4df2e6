// Package horizon resolves forecasting horizons between steps relative to a cutoff and
// absolute time points on a fixed frequency grid.
package horizon

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

var (
	ErrEmptyHorizon    = errors.New("empty forecasting horizon")
	ErrNonPositiveStep = errors.New("horizon steps must be positive")
	ErrInvalidFreq     = errors.New("frequency must be positive")
)

// Horizon is an ordered set of strictly positive steps ahead of a cutoff
type Horizon []int

// New validates, sorts and de-duplicates the input steps
func New(steps ...int) (Horizon, error) {
	if len(steps) == 0 {
		return nil, ErrEmptyHorizon
	}
	h := make(Horizon, len(steps))
	copy(h, steps)
	sort.Ints(h)

	dedup := h[:1]
	for _, s := range h[1:] {
		if s != dedup[len(dedup)-1] {
			dedup = append(dedup, s)
		}
	}
	if dedup[0] <= 0 {
		return nil, fmt.Errorf("step %d, %w", dedup[0], ErrNonPositiveStep)
	}
	return dedup, nil
}

// Range returns the horizon 1..n
func Range(n int) Horizon {
	h := make(Horizon, n)
	for i := range h {
		h[i] = i + 1
	}
	return h
}

// Validate checks that the horizon is non-empty, positive and strictly increasing
func (h Horizon) Validate() error {
	if len(h) == 0 {
		return ErrEmptyHorizon
	}
	for i, s := range h {
		if s <= 0 {
			return fmt.Errorf("step %d at %d, %w", s, i, ErrNonPositiveStep)
		}
		if i > 0 && s <= h[i-1] {
			return fmt.Errorf("step %d at %d is not increasing, %w", s, i, ErrNonPositiveStep)
		}
	}
	return nil
}

// Max returns the furthest step or 0 for an empty horizon
func (h Horizon) Max() int {
	if len(h) == 0 {
		return 0
	}
	return h[len(h)-1]
}

// ToAbsolute maps each step onto cutoff + step*freq
func (h Horizon) ToAbsolute(cutoff time.Time, freq time.Duration) ([]time.Time, error) {
	if freq <= 0 {
		return nil, ErrInvalidFreq
	}
	t := make([]time.Time, len(h))
	for i, s := range h {
		t[i] = cutoff.Add(time.Duration(s) * freq)
	}
	return t, nil
}

// FromAbsolute maps time points onto the nearest step from the cutoff. Time points at or
// before the cutoff are rejected.
func FromAbsolute(t []time.Time, cutoff time.Time, freq time.Duration) (Horizon, error) {
	if freq <= 0 {
		return nil, ErrInvalidFreq
	}
	if len(t) == 0 {
		return nil, ErrEmptyHorizon
	}
	h := make(Horizon, len(t))
	for i, tp := range t {
		step := int(math.Round(float64(tp.Sub(cutoff)) / float64(freq)))
		if step <= 0 {
			return nil, fmt.Errorf("%s is not after cutoff %s, %w", tp, cutoff, ErrNonPositiveStep)
		}
		h[i] = step
	}
	return h, nil
}
