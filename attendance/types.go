// Package attendance implements the office-quota engine: monthly
// requirements from a weekly policy, progress from recorded days, ranked
// office-day suggestions, and the conversion of presence sessions into
// daily entries.
package attendance

import (
	"time"

	"github.com/warp/office-quota/generic"
)

// =============================================================================
// OFFICE POLICY
// =============================================================================

// UnrankedPriority is the priority given to a weekday missing from the
// preference list. A validated policy never produces it.
const UnrankedPriority = 999

// OfficePolicy is the user's weekly office commitment.
type OfficePolicy struct {
	RequiredDaysPerWeek  int
	RequiredHoursPerWeek generic.Amount

	// WeekdayPreferences holds Monday-Friday in preference order, most
	// preferred first.
	WeekdayPreferences []time.Weekday

	UpdatedAt time.Time
}

// Rank returns the preference index of wd, or UnrankedPriority.
func (p OfficePolicy) Rank(wd time.Weekday) int {
	for i, pref := range p.WeekdayPreferences {
		if pref == wd {
			return i
		}
	}
	return UnrankedPriority
}

// DefaultWeekdayPreferences is Monday to Friday in calendar order.
func DefaultWeekdayPreferences() []time.Weekday {
	return []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}
}

// =============================================================================
// HOLIDAYS
// =============================================================================

type HolidayKind string

const (
	KindPublicHoliday HolidayKind = "public_holiday"
	KindVacation      HolidayKind = "vacation"
)

// HolidayMark excludes a date from the office requirement. Several marks
// may share a date; exclusions are counted once per date.
type HolidayMark struct {
	ID          string
	Date        generic.Date
	Description string
	Kind        HolidayKind
}

// =============================================================================
// DAILY ENTRY
// =============================================================================

// DailyEntry is the per-day attendance record. There is at most one per date.
type DailyEntry struct {
	ID          string
	Date        generic.Date
	WasInOffice bool
	HoursWorked generic.Amount
	Notes       string
	UpdatedAt   time.Time
}

// =============================================================================
// PRESENCE SESSION
// =============================================================================

// PresenceSession is one arrival-to-departure interval reported by the
// location sensor. ExitTime is nil while the user is still in the office.
type PresenceSession struct {
	ID         string
	EntryTime  time.Time
	ExitTime   *time.Time
	Confidence float64
}

func (s PresenceSession) IsOpen() bool { return s.ExitTime == nil }

// Date is the calendar day the session belongs to (its entry day).
func (s PresenceSession) Date() generic.Date { return generic.DateOf(s.EntryTime) }

// =============================================================================
// DERIVED RESULTS
// =============================================================================

type MonthlyRequirements struct {
	Month                generic.Period
	RequiredDays         int
	RequiredHours        generic.Amount
	TotalWeekdaysInMonth int
	HolidaysCount        int
}

// MonthProgress compares recorded office days against the requirement.
// Remaining and percentage values are derived on read.
type MonthProgress struct {
	Month          generic.Period
	RequiredDays   int
	CompletedDays  int
	RequiredHours  generic.Amount
	CompletedHours generic.Amount
}

// SuggestedDay is one recommended office day. Lower Priority is better.
type SuggestedDay struct {
	Date      generic.Date
	DayOfWeek time.Weekday
	Reason    string
	Priority  int
}

// SuggestionPlan is the ordered suggestion list plus how far it falls short
// of the days still needed.
type SuggestionPlan struct {
	Month      generic.Period
	Days       []SuggestedDay
	TargetDays int
	Shortfall  int
}
