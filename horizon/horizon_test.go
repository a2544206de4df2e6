package horizon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	testData := map[string]struct {
		steps    []int
		expected Horizon
		err      error
	}{
		"empty":         {err: ErrEmptyHorizon},
		"zero step":     {steps: []int{0, 1}, err: ErrNonPositiveStep},
		"negative step": {steps: []int{-2}, err: ErrNonPositiveStep},
		"single":        {steps: []int{3}, expected: Horizon{3}},
		"unsorted":      {steps: []int{3, 1, 2}, expected: Horizon{1, 2, 3}},
		"duplicates":    {steps: []int{2, 2, 5, 1, 5}, expected: Horizon{1, 2, 5}},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			h, err := New(td.steps...)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.expected, h)
			assert.Nil(t, h.Validate())
		})
	}
}

func TestRange(t *testing.T) {
	assert.Equal(t, Horizon{1, 2, 3}, Range(3))
	assert.Equal(t, 3, Range(3).Max())
	assert.Equal(t, 0, Range(0).Max())
	assert.ErrorIs(t, Range(0).Validate(), ErrEmptyHorizon)
	assert.ErrorIs(t, Horizon{2, 1}.Validate(), ErrNonPositiveStep)
}

func TestAbsoluteRoundTrip(t *testing.T) {
	cutoff := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	freq := time.Hour

	h := Horizon{1, 2, 5}
	abs, err := h.ToAbsolute(cutoff, freq)
	require.Nil(t, err)
	assert.Equal(t, []time.Time{
		cutoff.Add(time.Hour),
		cutoff.Add(2 * time.Hour),
		cutoff.Add(5 * time.Hour),
	}, abs)

	rel, err := FromAbsolute(abs, cutoff, freq)
	require.Nil(t, err)
	assert.Equal(t, h, rel)
}

func TestFromAbsolute(t *testing.T) {
	cutoff := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

	testData := map[string]struct {
		t        []time.Time
		freq     time.Duration
		expected Horizon
		err      error
	}{
		"invalid freq": {
			t:    []time.Time{cutoff.Add(time.Hour)},
			freq: 0,
			err:  ErrInvalidFreq,
		},
		"empty": {
			freq: time.Hour,
			err:  ErrEmptyHorizon,
		},
		"at cutoff": {
			t:    []time.Time{cutoff},
			freq: time.Hour,
			err:  ErrNonPositiveStep,
		},
		"rounds to grid": {
			t:        []time.Time{cutoff.Add(61 * time.Minute), cutoff.Add(179 * time.Minute)},
			freq:     time.Hour,
			expected: Horizon{1, 3},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			h, err := FromAbsolute(td.t, cutoff, td.freq)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.expected, h)
		})
	}
}
