package attendance_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/warp/office-quota/attendance"
	"github.com/warp/office-quota/generic"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// february2025 has exactly 20 weekdays (Feb 1 is a Saturday).
func february2025() generic.Period {
	return generic.MonthPeriod(2025, time.February)
}

func feb(day int) generic.Date {
	return generic.NewDate(2025, time.February, day)
}

func hours(h float64) generic.Amount {
	return generic.Hours(h)
}

func policy(days int, weeklyHours float64, prefs ...time.Weekday) *attendance.OfficePolicy {
	if len(prefs) == 0 {
		prefs = attendance.DefaultWeekdayPreferences()
	}
	return &attendance.OfficePolicy{
		RequiredDaysPerWeek:  days,
		RequiredHoursPerWeek: hours(weeklyHours),
		WeekdayPreferences:   prefs,
	}
}

// tueFirst ranks Tuesday > Wednesday > Thursday > Monday > Friday.
func tueFirst() []time.Weekday {
	return []time.Weekday{time.Tuesday, time.Wednesday, time.Thursday, time.Monday, time.Friday}
}

func holiday(d generic.Date) attendance.HolidayMark {
	return attendance.HolidayMark{ID: "h-" + d.String(), Date: d, Kind: attendance.KindPublicHoliday}
}

func officeDay(d generic.Date, h float64) attendance.DailyEntry {
	return attendance.DailyEntry{ID: "e-" + d.String(), Date: d, WasInOffice: true, HoursWorked: hours(h)}
}

func at(d generic.Date, hour, minute int) time.Time {
	return time.Date(d.Year, d.Month, d.Day, hour, minute, 0, 0, time.UTC)
}

func closedSession(id string, entry, exit time.Time) attendance.PresenceSession {
	return attendance.PresenceSession{ID: id, EntryTime: entry, ExitTime: &exit, Confidence: 0.9}
}

func assertHours(t *testing.T, want string, got generic.Amount) {
	t.Helper()
	assert.Truef(t, decimal.RequireFromString(want).Equal(got.Value),
		"want %s hours, got %s", want, got.Value.String())
}
