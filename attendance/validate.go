package attendance

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/office-quota/generic"
)

var (
	maxHoursPerWeek = decimal.NewFromInt(40)
	maxHoursPerDay  = decimal.NewFromInt(24)
)

// ValidatePolicy checks the ranges an OfficePolicy must satisfy before it is
// saved. Values are never clamped.
func ValidatePolicy(p OfficePolicy) error {
	if p.RequiredDaysPerWeek < 1 || p.RequiredDaysPerWeek > 5 {
		return invalid("required_days_per_week", "must be between 1 and 5, got %d", p.RequiredDaysPerWeek)
	}
	if !p.RequiredHoursPerWeek.IsPositive() || p.RequiredHoursPerWeek.Value.GreaterThan(maxHoursPerWeek) {
		return invalid("required_hours_per_week", "must be greater than 0 and at most 40, got %s",
			p.RequiredHoursPerWeek.Value.String())
	}
	if len(p.WeekdayPreferences) != 5 {
		return invalid("weekday_preferences", "must list exactly 5 weekdays, got %d", len(p.WeekdayPreferences))
	}
	seen := make(map[time.Weekday]bool, 5)
	for _, wd := range p.WeekdayPreferences {
		if !generic.IsWeekday(wd) {
			return invalid("weekday_preferences", "%s is not a Monday-Friday weekday", wd)
		}
		if seen[wd] {
			return invalid("weekday_preferences", "%s is listed more than once", wd)
		}
		seen[wd] = true
	}
	return nil
}

// ValidateEntry checks a DailyEntry before it is saved.
func ValidateEntry(e DailyEntry) error {
	if e.Date.IsZero() {
		return invalid("date", "is required")
	}
	h := e.HoursWorked.Value
	if h.IsNegative() || h.GreaterThan(maxHoursPerDay) {
		return invalid("hours_worked", "must be between 0 and 24, got %s", h.String())
	}
	return nil
}

// ValidateHoliday checks a HolidayMark before it is saved.
func ValidateHoliday(h HolidayMark) error {
	if h.Date.IsZero() {
		return invalid("date", "is required")
	}
	switch h.Kind {
	case KindPublicHoliday, KindVacation:
	default:
		return invalid("kind", "must be %q or %q, got %q", KindPublicHoliday, KindVacation, h.Kind)
	}
	return nil
}

// ValidateSession checks a PresenceSession before it is saved.
func ValidateSession(s PresenceSession) error {
	if s.EntryTime.IsZero() {
		return invalid("entry_time", "is required")
	}
	if s.ExitTime != nil && s.ExitTime.Before(s.EntryTime) {
		return invalid("exit_time", "is before entry_time")
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		return invalid("confidence", "must be between 0 and 1, got %v", s.Confidence)
	}
	return nil
}
