package shared

import (
	"errors"
	"time"
)

// Budget recurrence periods.
const (
	PeriodWeekly    = "weekly"
	PeriodMonthly   = "monthly"
	PeriodQuarterly = "quarterly"
	PeriodYearly    = "yearly"
)

// ErrUnknownPeriod indicates an unsupported recurrence period.
var ErrUnknownPeriod = errors.New("unknown budget period")

// ValidPeriod reports whether p is a supported recurrence period.
func ValidPeriod(p string) bool {
	switch p {
	case PeriodWeekly, PeriodMonthly, PeriodQuarterly, PeriodYearly:
		return true
	}
	return false
}

// NextPeriodWindow returns the start and end dates of the window that follows
// a window ending on ends. The new window starts the day after ends.
func NextPeriodWindow(period string, ends time.Time) (time.Time, time.Time, error) {
	start := ends.AddDate(0, 0, 1)
	switch period {
	case PeriodWeekly:
		return start, start.AddDate(0, 0, 6), nil
	case PeriodMonthly:
		return start, start.AddDate(0, 1, -1), nil
	case PeriodQuarterly:
		return start, start.AddDate(0, 3, -1), nil
	case PeriodYearly:
		return start, start.AddDate(1, 0, -1), nil
	}
	return time.Time{}, time.Time{}, ErrUnknownPeriod
}
