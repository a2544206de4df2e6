package conformal

import (
	"fmt"
	"math"
	"strings"

	"github.com/aouyang1/go-conformal/stats"
)

// Method selects how residuals at a lead time are turned into interval bounds
type Method string

const (
	// MethodEmpirical uses quantiles of the signed residuals directly as offsets
	MethodEmpirical Method = "empirical"
	// MethodEmpiricalResidual uses the 0.5-0.5c quantile of the absolute residuals as a
	// half-width
	MethodEmpiricalResidual Method = "empirical_residual"
	// MethodConformal uses the c quantile of the absolute residuals as a half-width
	MethodConformal Method = "conformal"
	// MethodConformalBonferroni corrects the conformal quantile for the number of horizons
	// queried together
	MethodConformalBonferroni Method = "conformal_bonferroni"
)

// Methods lists every supported method
var Methods = []Method{
	MethodEmpirical,
	MethodEmpiricalResidual,
	MethodConformal,
	MethodConformalBonferroni,
}

// ParseMethod returns the method matching s. An empty string returns MethodEmpirical.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.TrimSpace(s))
	if m == "" {
		return MethodEmpirical, nil
	}
	if _, err := m.rule(); err != nil {
		return "", err
	}
	return m, nil
}

func (m Method) rule() (quantileRule, error) {
	switch m {
	case MethodEmpirical:
		return signedRule{}, nil
	case MethodEmpiricalResidual:
		return absoluteRule{prob: func(c float64, _ int) float64 { return 0.5 - 0.5*c }}, nil
	case MethodConformal:
		return absoluteRule{prob: func(c float64, _ int) float64 { return c }}, nil
	case MethodConformalBonferroni:
		return absoluteRule{prob: func(c float64, nHorizon int) float64 { return 1 - (1-c)/float64(nHorizon) }}, nil
	default:
		return nil, fmt.Errorf("%q, %w, %w", string(m), ErrUnknownMethod, ErrConfiguration)
	}
}

// quantileRule computes the offsets added to a point forecast for the lower and upper end
// of an interval at each coverage. nHorizon is the number of steps queried together.
type quantileRule interface {
	offsets(residuals, coverage []float64, nHorizon int) (lower, upper []float64, err error)
}

// signedRule takes the 0.5-0.5c and 0.5+0.5c quantiles of the signed residuals. A coverage
// of 0 collapses both ends to the median.
type signedRule struct{}

func (signedRule) offsets(residuals, coverage []float64, _ int) ([]float64, []float64, error) {
	probs := make([]float64, 0, 2*len(coverage))
	for _, c := range coverage {
		probs = append(probs, 0.5-0.5*c, 0.5+0.5*c)
	}
	q, err := stats.Quantiles(residuals, probs)
	if err != nil {
		return nil, nil, err
	}

	lower := make([]float64, len(coverage))
	upper := make([]float64, len(coverage))
	for i := range coverage {
		lower[i] = q[2*i]
		upper[i] = q[2*i+1]
	}
	return lower, upper, nil
}

// absoluteRule takes a quantile of the absolute residuals as a symmetric half-width. A
// coverage of 0 is a zero width interval.
type absoluteRule struct {
	prob func(c float64, nHorizon int) float64
}

func (r absoluteRule) offsets(residuals, coverage []float64, nHorizon int) ([]float64, []float64, error) {
	abs := stats.Abs(residuals)
	probs := make([]float64, len(coverage))
	for i, c := range coverage {
		probs[i] = math.Max(0, math.Min(1, r.prob(c, nHorizon)))
	}
	q, err := stats.Quantiles(abs, probs)
	if err != nil {
		return nil, nil, err
	}

	lower := make([]float64, len(coverage))
	upper := make([]float64, len(coverage))
	for i, c := range coverage {
		halfWidth := q[i]
		if c == 0 {
			halfWidth = 0
		}
		lower[i] = -halfWidth
		upper[i] = halfWidth
	}
	return lower, upper, nil
}
