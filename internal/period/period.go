// Package period computes calendar-aligned windows for charting and for the
// previous/current/next period lists.
package period

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/projectie-app/projectie/internal/calendar"
)

// Kind is the length and alignment of a window.
type Kind string

const (
	Week      Kind = "week"
	Fortnight Kind = "fortnight"
	Month     Kind = "month"
	Year      Kind = "year"
	Custom    Kind = "custom"
)

var (
	// ErrUnknownKind is returned for an unsupported period kind.
	ErrUnknownKind = errors.New("unknown period kind")
	// ErrMissingCustom is returned when a custom window has no valid bounds.
	ErrMissingCustom = errors.New("custom period needs a start and end")
)

// ParseKind parses a period kind name, case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case Week, Fortnight, Month, Year, Custom:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Window is a range of whole days. Start and End are the starts of the
// first and last included day.
type Window struct {
	Start time.Time
	End   time.Time
}

// Until returns the exclusive end: the start of the day after End.
func (w Window) Until() time.Time {
	return w.End.AddDate(0, 0, 1)
}

// Contains reports whether t falls on one of the window's days.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.Until())
}

// String formats the window as "2006-01-02..2006-01-02".
func (w Window) String() string {
	return w.Start.Format(time.DateOnly) + ".." + w.End.Format(time.DateOnly)
}

// SliceOffsets are the offsets shown by swipeable period lists.
var SliceOffsets = []int{-2, -1, 0, 1, 2}

// Calculator computes windows relative to the clock's current day.
type Calculator struct {
	cal   calendar.Calendar
	clock calendar.Clock
}

// NewCalculator creates a Calculator.
func NewCalculator(cal calendar.Calendar, clock calendar.Clock) *Calculator {
	return &Calculator{cal: cal, clock: clock}
}

// WindowFor returns the window of kind containing today, shifted by offset
// periods. custom is required for Custom and ignored otherwise.
func (c *Calculator) WindowFor(kind Kind, offset int, custom *Window) (Window, error) {
	return c.WindowAt(c.clock.Now(), kind, offset, custom)
}

// WindowAt is WindowFor with an explicit reference instant.
func (c *Calculator) WindowAt(ref time.Time, kind Kind, offset int, custom *Window) (Window, error) {
	switch kind {
	case Week:
		return c.fixedDays(c.cal.StartOfWeek(ref), 7, offset)
	case Fortnight:
		return c.fixedDays(c.cal.StartOfWeek(ref), 14, offset)
	case Month:
		return c.calendarAligned(c.cal.StartOfMonth(ref), calendar.Month, offset)
	case Year:
		return c.calendarAligned(c.cal.StartOfYear(ref), calendar.Year, offset)
	case Custom:
		if custom == nil || custom.Start.IsZero() || custom.End.IsZero() {
			return Window{}, ErrMissingCustom
		}
		start := c.cal.StartOfDay(custom.Start)
		end := c.cal.StartOfDay(custom.End)
		if end.Before(start) {
			return Window{}, fmt.Errorf("%w: end %s is before start %s", ErrMissingCustom, end.Format(time.DateOnly), start.Format(time.DateOnly))
		}
		days := calendar.DaysBetween(c.cal, start, end) + 1
		return c.shiftDays(Window{Start: start, End: end}, days*offset)
	default:
		return Window{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// Slices returns the windows for SliceOffsets, oldest first.
func (c *Calculator) Slices(kind Kind, custom *Window) ([]Window, error) {
	out := make([]Window, 0, len(SliceOffsets))
	for _, off := range SliceOffsets {
		w, err := c.WindowFor(kind, off, custom)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

func (c *Calculator) fixedDays(aligned time.Time, length, offset int) (Window, error) {
	start, err := c.cal.Add(aligned, calendar.Day, length*offset)
	if err != nil {
		return Window{}, fmt.Errorf("shifting window: %w", err)
	}
	end, err := c.cal.Add(start, calendar.Day, length-1)
	if err != nil {
		return Window{}, fmt.Errorf("computing window end: %w", err)
	}
	return Window{Start: start, End: end}, nil
}

func (c *Calculator) calendarAligned(aligned time.Time, unit calendar.Unit, offset int) (Window, error) {
	start, err := c.cal.Add(aligned, unit, offset)
	if err != nil {
		return Window{}, fmt.Errorf("shifting window: %w", err)
	}
	next, err := c.cal.Add(start, unit, 1)
	if err != nil {
		return Window{}, fmt.Errorf("computing window end: %w", err)
	}
	end, err := c.cal.Add(next, calendar.Day, -1)
	if err != nil {
		return Window{}, fmt.Errorf("computing window end: %w", err)
	}
	return Window{Start: start, End: end}, nil
}

func (c *Calculator) shiftDays(w Window, days int) (Window, error) {
	start, err := c.cal.Add(w.Start, calendar.Day, days)
	if err != nil {
		return Window{}, fmt.Errorf("shifting window: %w", err)
	}
	end, err := c.cal.Add(w.End, calendar.Day, days)
	if err != nil {
		return Window{}, fmt.Errorf("shifting window: %w", err)
	}
	return Window{Start: start, End: end}, nil
}
