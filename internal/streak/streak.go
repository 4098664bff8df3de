// Package streak computes consecutive-day completion streaks. The
// calculation is pure: it sees only an ordered history and a reference day,
// never the store or the wall clock.
package streak

import (
	"time"

	"routinelink/internal/model"
)

// DayCount is one day of completion history.
type DayCount struct {
	Date  time.Time
	Count int
}

// Compute returns the length of the consecutive-day streak ending at asOf.
// History must be ordered by date descending. A still-open "today" with no
// completions yet is skipped rather than treated as a break; the chain is
// broken by the first zero-count day or the first calendar gap.
func Compute(history []DayCount, asOf time.Time) int {
	if len(history) == 0 {
		return 0
	}

	today := model.StartOfDay(asOf)
	yesterday := today.AddDate(0, 0, -1)

	start := 0
	expected := today
	first := model.StartOfDay(history[0].Date)
	switch {
	case first.Equal(today):
		if history[0].Count == 0 {
			// today is open but empty; the chain may still run from yesterday
			start = 1
			expected = yesterday
		}
	case first.Before(yesterday):
		// nothing yesterday or today: the chain is already broken
		return 0
	default:
		expected = yesterday
	}

	streak := 0
	for _, dc := range history[start:] {
		day := model.StartOfDay(dc.Date)
		if !day.Equal(expected) || dc.Count == 0 {
			break
		}
		streak++
		expected = expected.AddDate(0, 0, -1)
	}
	return streak
}
