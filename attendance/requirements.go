/*
requirements.go - Monthly office requirement

PURPOSE:
  Turns a weekly commitment ("3 days / 24 hours per week") into a concrete
  target for one month, after removing holidays and vacation days.

ALGORITHM:
  1. Exclude holiday dates that fall Monday-Friday. Weekend marks are
     ignored since weekends never count toward the requirement.
  2. weekdays = Monday-Friday dates in the month minus the exclusions
  3. requiredDays = ceil(weekdays * daysPerWeek / 5)
  4. requiredHours = requiredDays * hoursPerWeek / daysPerWeek

EXAMPLE:
  A 20-weekday month with 2 public holidays and a 5-day policy:
  weekdays = 18, requiredDays = 18.

  A 20-weekday month and a 3-day / 24h policy:
  requiredDays = ceil(20*3/5) = 12, requiredHours = 12*24/3 = 96.
*/
package attendance

import (
	"github.com/shopspring/decimal"
	"github.com/warp/office-quota/generic"
)

// CalculateRequirements computes the month's required office days and hours.
// A nil policy yields ErrConfigurationMissing.
func CalculateRequirements(month generic.Period, policy *OfficePolicy, holidays []HolidayMark) (MonthlyRequirements, error) {
	if policy == nil {
		return MonthlyRequirements{}, ErrConfigurationMissing
	}

	excluded := ExcludedWeekdays(month, holidays)

	weekdays := 0
	for _, d := range month.Weekdays() {
		if !excluded[d] {
			weekdays++
		}
	}

	requiredDays := ceilDiv(weekdays*policy.RequiredDaysPerWeek, 5)

	// Multiply before dividing so 12 * 40/3 stays exactly 160.
	requiredHours := policy.RequiredHoursPerWeek.
		Mul(decimal.NewFromInt(int64(requiredDays))).
		Div(decimal.NewFromInt(int64(policy.RequiredDaysPerWeek)))

	return MonthlyRequirements{
		Month:                month,
		RequiredDays:         requiredDays,
		RequiredHours:        requiredHours,
		TotalWeekdaysInMonth: weekdays,
		HolidaysCount:        len(excluded),
	}, nil
}

// ExcludedWeekdays returns the distinct Monday-Friday holiday dates inside
// the period.
func ExcludedWeekdays(period generic.Period, holidays []HolidayMark) map[generic.Date]bool {
	excluded := make(map[generic.Date]bool)
	for _, h := range holidays {
		if h.Date.IsWorkday() && period.Contains(h.Date) {
			excluded[h.Date] = true
		}
	}
	return excluded
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
