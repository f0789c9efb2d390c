package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-09-01")
	require.NoError(t, err)
	assert.Equal(t, "2026-09-01", d)

	for _, bad := range []string{"", "2026-9-1", "01-09-2026", "2026-13-01", "2026-02-30", "tomorrow"} {
		_, err := ParseDate(bad)
		assert.ErrorIs(t, err, ErrBadDate, "input %q", bad)
	}
}

func TestParseTimeOfDay(t *testing.T) {
	cases := map[string]string{
		"09:30":    "09:30:00",
		"09:30:00": "09:30:00",
		"00:00":    "00:00:00",
		"23:59:59": "23:59:59",
	}
	for in, want := range cases {
		got, err := ParseTimeOfDay(in)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, want, got)
	}

	for _, bad := range []string{"", "24:00", "09:60", "9am", "09-30"} {
		_, err := ParseTimeOfDay(bad)
		assert.ErrorIs(t, err, ErrBadTime, "input %q", bad)
	}
}

func TestToday(t *testing.T) {
	now := time.Date(2026, 9, 1, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "2026-09-01", Today(now))

	// Local wall time past midnight still resolves to the UTC date.
	loc := time.FixedZone("UTC+3", 3*60*60)
	assert.Equal(t, "2026-09-01", Today(time.Date(2026, 9, 2, 1, 30, 0, 0, loc)))
}
