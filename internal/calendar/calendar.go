// Package calendar provides the injectable calendar and clock used by the
// projection engine. Weeks start on Monday.
package calendar

import (
	"errors"
	"fmt"
	"time"
)

// Unit is the size of a calendar step.
type Unit int

const (
	Day Unit = iota
	Week
	Month
	Year
)

func (u Unit) String() string {
	switch u {
	case Day:
		return "day"
	case Week:
		return "week"
	case Month:
		return "month"
	case Year:
		return "year"
	default:
		return fmt.Sprintf("unit(%d)", int(u))
	}
}

// ErrOutOfRange is returned when calendar arithmetic leaves the supported
// year range.
var ErrOutOfRange = errors.New("date out of calendar range")

const (
	minYear = 1
	maxYear = 9999
)

// Calendar performs calendar-aware date arithmetic in one location.
type Calendar interface {
	Location() *time.Location
	StartOfDay(t time.Time) time.Time
	StartOfWeek(t time.Time) time.Time
	StartOfMonth(t time.Time) time.Time
	StartOfYear(t time.Time) time.Time
	// Add moves t by n units. Month and year steps clamp the day to the
	// last day of the target month.
	Add(t time.Time, unit Unit, n int) (time.Time, error)
}

// Gregorian is the default Calendar.
type Gregorian struct {
	loc *time.Location
}

// New returns a Gregorian calendar for loc. A nil loc means time.Local.
func New(loc *time.Location) *Gregorian {
	if loc == nil {
		loc = time.Local
	}
	return &Gregorian{loc: loc}
}

// Location returns the calendar's time zone.
func (g *Gregorian) Location() *time.Location { return g.loc }

// StartOfDay returns midnight of t's day in the calendar's location.
func (g *Gregorian) StartOfDay(t time.Time) time.Time {
	y, m, d := t.In(g.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, g.loc)
}

// StartOfWeek returns midnight of the Monday on or before t.
func (g *Gregorian) StartOfWeek(t time.Time) time.Time {
	day := g.StartOfDay(t)
	back := (int(day.Weekday()) + 6) % 7 // Monday=0 .. Sunday=6
	return day.AddDate(0, 0, -back)
}

// StartOfMonth returns midnight of the first day of t's month.
func (g *Gregorian) StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.In(g.loc).Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, g.loc)
}

// StartOfYear returns midnight of January 1st of t's year.
func (g *Gregorian) StartOfYear(t time.Time) time.Time {
	return time.Date(t.In(g.loc).Year(), time.January, 1, 0, 0, 0, 0, g.loc)
}

// Add implements Calendar.
func (g *Gregorian) Add(t time.Time, unit Unit, n int) (time.Time, error) {
	t = t.In(g.loc)
	var out time.Time
	switch unit {
	case Day:
		out = t.AddDate(0, 0, n)
	case Week:
		out = t.AddDate(0, 0, 7*n)
	case Month:
		out = g.addMonths(t, n)
	case Year:
		out = g.addMonths(t, 12*n)
	default:
		return time.Time{}, fmt.Errorf("adding %d of %s: unknown unit", n, unit)
	}
	if y := out.Year(); y < minYear || y > maxYear {
		return time.Time{}, fmt.Errorf("adding %d %s to %s: %w", n, unit, t.Format(time.DateOnly), ErrOutOfRange)
	}
	return out, nil
}

func (g *Gregorian) addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	total := int(m) - 1 + n
	ny := y + floorDiv(total, 12)
	nm := time.Month(total - floorDiv(total, 12)*12 + 1)
	if last := DaysIn(ny, nm); d > last {
		d = last
	}
	return time.Date(ny, nm, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), g.loc)
}

// DaysIn returns the number of days in month m of year y.
func DaysIn(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DaysBetween counts whole calendar days from a to b in cal's location.
// It is DST-safe.
func DaysBetween(cal Calendar, a, b time.Time) int {
	ay, am, ad := cal.StartOfDay(a).Date()
	by, bm, bd := cal.StartOfDay(b).Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
