package dates_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/triplog/internal/dates"
)

func TestRoundToFive(t *testing.T) {
	at := func(h, m, s int) time.Time {
		return time.Date(2024, 3, 1, h, m, s, 0, time.UTC)
	}

	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"on boundary", at(10, 5, 0), at(10, 5, 0)},
		{"round down", at(10, 2, 29), at(10, 0, 0)},
		{"half rounds up", at(10, 2, 30), at(10, 5, 0)},
		{"round up", at(10, 3, 0), at(10, 5, 0)},
		{"carries into next hour", at(10, 58, 0), at(11, 0, 0)},
		{"carries into next day", at(23, 59, 0), time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(dates.RoundToFive(tt.in)), "got %s", dates.RoundToFive(tt.in))
		})
	}
}

func TestRoundToFiveKeepsZone(t *testing.T) {
	zone := time.FixedZone("NPT", 5*3600+45*60)
	got := dates.RoundToFive(time.Date(2024, 3, 1, 9, 7, 0, 0, zone))

	assert.Equal(t, "09:05", dates.Clock(got))
	assert.Equal(t, zone, got.Location())
}

func TestValidators(t *testing.T) {
	assert.True(t, dates.IsDate("2024-02-29"))
	assert.False(t, dates.IsDate("2023-02-29"))
	assert.False(t, dates.IsDate("2024-3-1"))
	assert.True(t, dates.IsMonth("2024-03"))
	assert.False(t, dates.IsMonth("2024-13"))
	assert.False(t, dates.IsMonth("March"))
	assert.True(t, dates.IsClock("07:30"))
	assert.False(t, dates.IsClock("7:30"))
}

func TestMonthOf(t *testing.T) {
	assert.Equal(t, "2024-03", dates.MonthOf("2024-03-31"))
	assert.Equal(t, "", dates.MonthOf("garbage"))
}

func TestInRange(t *testing.T) {
	assert.True(t, dates.InRange("2024-03-01", "2024-03-01", "2024-03-31"))
	assert.True(t, dates.InRange("2024-03-31", "2024-03-01", "2024-03-31"))
	assert.False(t, dates.InRange("2024-02-29", "2024-03-01", "2024-03-31"))
	assert.False(t, dates.InRange("2024-04-01", "2024-03-01", "2024-03-31"))
	assert.False(t, dates.InRange("", "", "2024-03-31"))
}

func TestShiftMonth(t *testing.T) {
	assert.Equal(t, "2024-01", dates.ShiftMonth("2023-12", 1))
	assert.Equal(t, "2023-12", dates.ShiftMonth("2024-01", -1))
	assert.Equal(t, "bad", dates.ShiftMonth("bad", 1))
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)

	got, ok := dates.ParseTimestamp("2024-03-01T09:30:00+01:00")
	require.True(t, ok)
	assert.True(t, want.Equal(got))
	assert.Equal(t, time.UTC, got.Location())

	got, ok = dates.ParseTimestamp(float64(want.UnixMilli()))
	require.True(t, ok)
	assert.True(t, want.Equal(got))

	_, ok = dates.ParseTimestamp("yesterday")
	assert.False(t, ok)
	_, ok = dates.ParseTimestamp(nil)
	assert.False(t, ok)
}

func TestCombine(t *testing.T) {
	got, ok := dates.Combine("2024-03-01", "08:15")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 1, 8, 15, 0, 0, time.UTC), got)

	got, ok = dates.Combine("2024-03-01", "")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), got)

	_, ok = dates.Combine("nope", "08:15")
	assert.False(t, ok)
}
