// Package recurrence expands a recurring rule into concrete occurrence dates.
package recurrence

import (
	"time"

	"github.com/projectie-app/projectie/internal/calendar"
)

// DefaultMaxCount caps an expansion that has no explicit bound.
const DefaultMaxCount = 10000

// DefaultEndDate is the effective end of an unbounded expansion.
var DefaultEndDate = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)

// Stop bounds an expansion. Zero values mean "no bound" and fall back to
// DefaultMaxCount and DefaultEndDate.
type Stop struct {
	MaxCount int
	EndDate  time.Time
}

// Expand returns start followed by every interval-th step of unit after it,
// in strictly ascending order. Each occurrence is computed from start rather
// than from the previous one, so a clamped month end (Jan 31 -> Feb 28)
// does not drift into later months.
//
// Expansion stops when MaxCount dates were produced, when the next date
// would be after EndDate, or when the calendar cannot produce a next date.
func Expand(cal calendar.Calendar, start time.Time, unit calendar.Unit, interval int, stop Stop) []time.Time {
	if interval < 1 {
		interval = 1
	}
	maxCount := stop.MaxCount
	if maxCount <= 0 {
		maxCount = DefaultMaxCount
	}
	end := stop.EndDate
	if end.IsZero() {
		end = DefaultEndDate
	}
	if start.After(end) {
		return []time.Time{start}
	}

	dates := []time.Time{start}
	prev := start
	for k := 1; len(dates) < maxCount; k++ {
		next, err := cal.Add(start, unit, k*interval)
		if err != nil || !next.After(prev) {
			break
		}
		if next.After(end) {
			break
		}
		dates = append(dates, next)
		prev = next
	}
	return dates
}
