package utils

import (
	"fmt"
	"time"

	"github.com/julianstephens/habithouse/internal/constants"
)

// DayKey returns the calendar date of t (YYYY-MM-DD) in t's location.
func DayKey(t time.Time) string {
	return t.Format(constants.DateFormat)
}

// WeekKey returns the ISO year and week of t, e.g. "2024-W07".
// Days belonging to week 1 of the next ISO year carry that year.
func WeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf(constants.WeekKeyFormat, year, week)
}

// MonthLabel returns the YYYY-MM label used for leaderboard archives.
func MonthLabel(t time.Time) string {
	return t.Format(constants.MonthFormat)
}

// PeriodKey returns the claim period containing t for the given periodicity.
func PeriodKey(p constants.Periodicity, t time.Time) (string, error) {
	switch p {
	case constants.PeriodicityDaily:
		return DayKey(t), nil
	case constants.PeriodicityWeekly:
		return WeekKey(t), nil
	default:
		return "", fmt.Errorf("unknown periodicity: %q", p)
	}
}

// ResetThresholdDays returns the largest gap, in calendar days, between two
// completions that still continues a streak.
func ResetThresholdDays(p constants.Periodicity) int {
	if p == constants.PeriodicityWeekly {
		return constants.WeeklyResetThresholdDays
	}
	return constants.DailyResetThresholdDays
}

// DaysBetween returns the number of calendar days from the date `from` to the
// date `to` (both YYYY-MM-DD). The result is negative when to is before from.
// Dates are compared at UTC midnight so DST transitions do not skew the count.
func DaysBetween(from, to string) (int, error) {
	a, err := ParseDay(from, time.UTC)
	if err != nil {
		return 0, err
	}
	b, err := ParseDay(to, time.UTC)
	if err != nil {
		return 0, err
	}
	return int(b.Sub(a).Hours() / 24), nil
}
