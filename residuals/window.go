package residuals

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrInvalidWindow = errors.New("invalid initial window")

const (
	// MinDefaultWindow is the smallest initial window picked when none is configured
	MinDefaultWindow = 10
	// DefaultWindowFraction of the series is used as the initial window when it exceeds
	// MinDefaultWindow
	DefaultWindowFraction = 0.1
)

type windowKind uint8

const (
	windowDefault windowKind = iota
	windowSize
	windowFraction
)

// Window specifies the initial training window before the first residual anchor. The zero
// value picks max(10, 10% of the series).
type Window struct {
	kind windowKind
	size int
	frac float64
}

// WindowSize is an absolute number of observations
func WindowSize(n int) Window {
	return Window{kind: windowSize, size: n}
}

// WindowFraction is a proportion of the series in (0, 1)
func WindowFraction(f float64) Window {
	return Window{kind: windowFraction, frac: f}
}

// ParseWindow reads an integer as a size, a decimal as a fraction and an empty string as the
// default window
func ParseWindow(s string) (Window, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Window{}, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		w := WindowSize(n)
		return w, w.Validate()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Window{}, fmt.Errorf("%q, %w", s, ErrInvalidWindow)
	}
	w := WindowFraction(f)
	return w, w.Validate()
}

// IsDefault reports whether no window was configured
func (w Window) IsDefault() bool {
	return w.kind == windowDefault
}

// Validate checks the parts of the window that do not depend on the series length
func (w Window) Validate() error {
	switch w.kind {
	case windowSize:
		if w.size <= 0 {
			return fmt.Errorf("size %d must be positive, %w", w.size, ErrInvalidWindow)
		}
	case windowFraction:
		if math.IsNaN(w.frac) || w.frac <= 0 || w.frac >= 1 {
			return fmt.Errorf("fraction %.4f must be within (0, 1), %w", w.frac, ErrInvalidWindow)
		}
	}
	return nil
}

// Resolve returns the offset into a series of length n where residual anchors begin
func (w Window) Resolve(n int) (int, error) {
	if err := w.Validate(); err != nil {
		return 0, err
	}

	var size int
	switch w.kind {
	case windowFraction:
		size = int(math.Floor(w.frac * float64(n)))
	case windowSize:
		size = w.size
	default:
		size = max(MinDefaultWindow, int(math.Floor(DefaultWindowFraction*float64(n))))
	}
	if size <= 0 || size >= n {
		return 0, fmt.Errorf(
			"initial window %d should be positive and smaller than the number of samples %d, %w",
			size, n, ErrInvalidWindow,
		)
	}
	return size, nil
}

func (w Window) String() string {
	switch w.kind {
	case windowSize:
		return strconv.Itoa(w.size)
	case windowFraction:
		return strconv.FormatFloat(w.frac, 'f', -1, 64)
	default:
		return "default"
	}
}
