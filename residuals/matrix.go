// Package residuals builds the rolling-origin residual matrix of a point forecaster. Each row
// is an anchor time where the forecaster was fit on everything before it and each column is
// a target time the fitted forecaster was asked to predict.
package residuals

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	mat_ "github.com/aouyang1/go-conformal/mat"
	"github.com/aouyang1/go-conformal/stats"
	"github.com/aouyang1/go-conformal/timedataset"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrEmptyIndex    = errors.New("residual matrix index is empty")
	ErrRowOutOfRange = errors.New("residual matrix row out of range")
	ErrRowLength     = errors.New("residual row length does not match matrix")
	ErrInvalidLead   = errors.New("lead time must be positive")
)

// Matrix is a square matrix of residuals indexed by the same time points on both axes.
// Entry (i, j) is the residual at Index[j] of the forecaster trained on all observations
// strictly before Index[i]. Entries below the diagonal and rows that were never computed
// are NaN.
type Matrix struct {
	index []time.Time
	data  *mat.Dense
}

// NewMatrix returns a NaN filled matrix over the provided index
func NewMatrix(index []time.Time) (*Matrix, error) {
	if len(index) == 0 {
		return nil, ErrEmptyIndex
	}
	if !sort.SliceIsSorted(index, func(i, j int) bool { return index[i].Before(index[j]) }) {
		return nil, timedataset.ErrNonMontonic
	}
	data, err := mat_.NewNaNDense(len(index), len(index))
	if err != nil {
		return nil, err
	}
	return &Matrix{
		index: append([]time.Time(nil), index...),
		data:  data,
	}, nil
}

// Len is the number of anchors which is also the number of targets
func (m *Matrix) Len() int {
	if m == nil {
		return 0
	}
	return len(m.index)
}

// Index returns a copy of the anchor times
func (m *Matrix) Index() []time.Time {
	return append([]time.Time(nil), m.index...)
}

// Start is the first anchor time
func (m *Matrix) Start() time.Time {
	return timedataset.TimeSlice(m.index).StartTime()
}

// End is the last anchor time
func (m *Matrix) End() time.Time {
	return timedataset.TimeSlice(m.index).EndTime()
}

// Position returns the row of anchor t
func (m *Matrix) Position(t time.Time) (int, bool) {
	idx := sort.Search(len(m.index), func(i int) bool {
		return !m.index[i].Before(t)
	})
	if idx < len(m.index) && m.index[idx].Equal(t) {
		return idx, true
	}
	return idx, false
}

// At returns the residual for the anchor at row i and target at column j
func (m *Matrix) At(i, j int) float64 {
	return m.data.At(i, j)
}

// AtTime returns the residual for an anchor and target time. Missing times return NaN.
func (m *Matrix) AtTime(anchor, target time.Time) float64 {
	i, ok := m.Position(anchor)
	if !ok {
		return math.NaN()
	}
	j, ok := m.Position(target)
	if !ok {
		return math.NaN()
	}
	return m.data.At(i, j)
}

// Row returns a copy of the residuals produced from anchor i
func (m *Matrix) Row(i int) []float64 {
	return mat.Row(nil, i, m.data)
}

// Rows returns a copy of every row
func (m *Matrix) Rows() [][]float64 {
	res := make([][]float64, m.Len())
	for i := range res {
		res[i] = m.Row(i)
	}
	return res
}

// SetRow overwrites the residuals of anchor i
func (m *Matrix) SetRow(i int, row []float64) error {
	if i < 0 || i >= m.Len() {
		return fmt.Errorf("row %d of %d, %w", i, m.Len(), ErrRowOutOfRange)
	}
	if len(row) != m.Len() {
		return fmt.Errorf("row has %d values for %d columns, %w", len(row), m.Len(), ErrRowLength)
	}
	m.data.SetRow(i, row)
	return nil
}

// Diagonal returns the non-NaN entries (i, i+k) in anchor order
func (m *Matrix) Diagonal(k int) []float64 {
	if k < 0 || k >= m.Len() {
		return nil
	}
	diag := make([]float64, 0, m.Len()-k)
	for i := 0; i+k < m.Len(); i++ {
		diag = append(diag, m.data.At(i, i+k))
	}
	return stats.DropNaN(diag)
}

// LeadTime returns the residuals of every anchor at h steps ahead. The forecaster fit at
// anchor i has its last observation one step before Index[i] so the h-th step ahead lands
// on column i+h-1.
func (m *Matrix) LeadTime(h int) ([]float64, error) {
	if h <= 0 {
		return nil, fmt.Errorf("got %d, %w", h, ErrInvalidLead)
	}
	return m.Diagonal(h - 1), nil
}

// FilledRows counts anchors with at least one residual
func (m *Matrix) FilledRows() int {
	var cnt int
	for i := 0; i < m.Len(); i++ {
		if m.rowFilled(i) {
			cnt++
		}
	}
	return cnt
}

func (m *Matrix) rowFilled(i int) bool {
	for _, v := range m.data.RawRowView(i) {
		if !math.IsNaN(v) {
			return true
		}
	}
	return false
}

// Copy returns a deep copy of the matrix
func (m *Matrix) Copy() *Matrix {
	if m == nil {
		return nil
	}
	return &Matrix{
		index: m.Index(),
		data:  mat.DenseCopyOf(m.data),
	}
}

// embed copies m into dst placing row/column 0 of m at offset in dst
func (m *Matrix) embed(dst *Matrix, offset int) error {
	if offset < 0 || offset+m.Len() > dst.Len() {
		return fmt.Errorf("embedding %d rows at %d into %d, %w", m.Len(), offset, dst.Len(), ErrRowOutOfRange)
	}
	view := dst.data.Slice(offset, offset+m.Len(), offset, offset+m.Len()).(*mat.Dense)
	view.Copy(m.data)
	return nil
}
