package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNextPeriodWindowMonthly(t *testing.T) {
	ends := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	start, end, err := NextPeriodWindow(PeriodMonthly, ends)
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), start)
	require.Equal(t, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), end)
}

func TestNextPeriodWindowWeekly(t *testing.T) {
	ends := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)
	start, end, err := NextPeriodWindow(PeriodWeekly, ends)
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), start)
	require.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), end)
}

func TestNextPeriodWindowUnknown(t *testing.T) {
	_, _, err := NextPeriodWindow("fortnightly", time.Now())
	require.ErrorIs(t, err, ErrUnknownPeriod)
}
