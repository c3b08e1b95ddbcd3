package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Civil calendar date (no clock, no zone)
// =============================================================================

// Date is a calendar day. Attendance is recorded per day, so every key in
// the system (entries, holidays, suggestions) is a Date rather than an instant.
// The zero value is not a valid date; check with IsZero.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const DateLayout = "2006-01-02"

// NewDate normalizes its arguments, so NewDate(2025, time.January, 32) is Feb 1.
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return DateOf(t), nil
}

// Today returns the current date in loc.
func Today(now func() time.Time, loc *time.Location) Date {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return DateOf(now().In(loc))
}

// Time returns midnight of d in UTC.
func (d Date) Time() time.Time { return d.In(time.UTC) }

// In returns midnight of d in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// At returns d at the given clock time in loc.
func (d Date) At(c Clock, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, c.Hour, c.Minute, 0, 0, loc)
}

// Comparison
func (d Date) Before(o Date) bool        { return d.Compare(o) < 0 }
func (d Date) After(o Date) bool         { return d.Compare(o) > 0 }
func (d Date) Equal(o Date) bool         { return d == o }
func (d Date) BeforeOrEqual(o Date) bool { return d.Compare(o) <= 0 }
func (d Date) AfterOrEqual(o Date) bool  { return d.Compare(o) >= 0 }

// Compare returns -1, 0 or +1.
func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return sign(d.Year - o.Year)
	case d.Month != o.Month:
		return sign(int(d.Month) - int(o.Month))
	default:
		return sign(d.Day - o.Day)
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

// Arithmetic
func (d Date) AddDays(n int) Date { return DateOf(d.Time().AddDate(0, 0, n)) }

// Properties
func (d Date) Weekday() time.Weekday { return d.Time().Weekday() }
func (d Date) IsWeekend() bool       { wd := d.Weekday(); return wd == time.Saturday || wd == time.Sunday }
func (d Date) IsWorkday() bool       { return !d.IsWeekend() }
func (d Date) IsZero() bool          { return d == Date{} }

// ISOWeek returns the ISO 8601 year and week number of d.
func (d Date) ISOWeek() ISOWeek {
	y, w := d.Time().ISOWeek()
	return ISOWeek{Year: y, Week: w}
}

func (d Date) String() string { return d.Time().Format(DateLayout) }

// MarshalText / UnmarshalText let Date travel as "YYYY-MM-DD" in JSON.
func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// IsWeekday reports whether wd is Monday through Friday.
func IsWeekday(wd time.Weekday) bool { return wd >= time.Monday && wd <= time.Friday }

// =============================================================================
// ISO WEEK
// =============================================================================

type ISOWeek struct {
	Year int
	Week int
}

func (w ISOWeek) String() string { return fmt.Sprintf("%d-W%02d", w.Year, w.Week) }

// =============================================================================
// CLOCK - Time of day
// =============================================================================

// Clock is a wall-clock time of day with minute precision.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses HH:MM (24h).
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return Clock{}, fmt.Errorf("invalid clock time %q: expected HH:MM", s)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c Clock) Minutes() int   { return c.Hour*60 + c.Minute }
func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }
