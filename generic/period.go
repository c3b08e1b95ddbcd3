package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// PERIOD - Inclusive date range
// =============================================================================

// Period is the closed range [Start, End]. Requirements, progress and
// suggestions are always computed for a period, normally a calendar month.
type Period struct {
	Start Date
	End   Date
}

// MonthPeriod returns the calendar month containing year/month.
func MonthPeriod(year int, month time.Month) Period {
	start := NewDate(year, month, 1)
	end := NewDate(year, month+1, 1).AddDays(-1)
	return Period{Start: start, End: end}
}

// ParseMonth parses YYYY-MM into its calendar-month period.
func ParseMonth(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("%w: month %q", ErrInvalidDate, s)
	}
	return MonthPeriod(t.Year(), t.Month()), nil
}

// NewPeriod validates that end is not before start.
func NewPeriod(start, end Date) (Period, error) {
	if end.Before(start) {
		return Period{}, ErrInvalidPeriod
	}
	return Period{Start: start, End: end}, nil
}

// Contains returns true if the date is within the period [Start, End]
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Days returns all days in the period.
func (p Period) Days() []Date {
	var days []Date
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

// Weekdays returns the Monday-Friday days in the period.
func (p Period) Weekdays() []Date {
	var days []Date
	for _, d := range p.Days() {
		if d.IsWorkday() {
			days = append(days, d)
		}
	}
	return days
}

// ClampStart returns the period starting no earlier than from.
// The result may be empty (Start after End) when from is past the end.
func (p Period) ClampStart(from Date) Period {
	if from.After(p.Start) {
		return Period{Start: from, End: p.End}
	}
	return p
}

func (p Period) IsEmpty() bool { return p.End.Before(p.Start) }

// Label returns YYYY-MM for month periods and the range otherwise.
func (p Period) Label() string {
	if p == MonthPeriod(p.Start.Year, p.Start.Month) {
		return fmt.Sprintf("%04d-%02d", p.Start.Year, int(p.Start.Month))
	}
	return p.String()
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
