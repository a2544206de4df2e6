package timedataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidRecord = errors.New("invalid csv record")

// ReadCSV parses a time series from r. The first column holds the time point either as an
// RFC3339 timestamp or unix seconds, the second column holds the value and any remaining
// columns are treated as exogenous regressors. A header row is skipped when its value
// column does not parse as a float.
func ReadCSV(r io.Reader) (*TimeDataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("unable to read csv, %w", err)
	}

	t := make([]time.Time, 0, len(records))
	y := make([]float64, 0, len(records))
	var x [][]float64
	for i, rec := range records {
		if len(rec) < 2 {
			return nil, fmt.Errorf("line %d has %d columns, %w", i+1, len(rec), ErrInvalidRecord)
		}
		val, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil {
			if i == 0 {
				continue
			}
			return nil, fmt.Errorf("line %d value %q, %w", i+1, rec[1], ErrInvalidRecord)
		}
		ts, err := parseTime(rec[0])
		if err != nil {
			return nil, fmt.Errorf("line %d time %q, %w", i+1, rec[0], ErrInvalidRecord)
		}
		t = append(t, ts)
		y = append(y, val)

		if len(rec) > 2 {
			row := make([]float64, 0, len(rec)-2)
			for _, col := range rec[2:] {
				v, err := strconv.ParseFloat(strings.TrimSpace(col), 64)
				if err != nil {
					return nil, fmt.Errorf("line %d exogenous %q, %w", i+1, col, ErrInvalidRecord)
				}
				row = append(row, v)
			}
			x = append(x, row)
		}
	}
	if x != nil && len(x) != len(t) {
		return nil, fmt.Errorf("exogenous columns present on %d of %d lines, %w", len(x), len(t), ErrExogLenMismatch)
	}
	return NewDataset(t, y, x)
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(sec, 0).UTC(), nil
	}
	return time.Parse(time.RFC3339, s)
}
