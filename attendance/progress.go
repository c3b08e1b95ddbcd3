package attendance

import (
	"github.com/shopspring/decimal"
	"github.com/warp/office-quota/generic"
)

var hundred = decimal.NewFromInt(100)

// hoursScale is the precision at which remaining hours are settled. Session
// hours such as 8h20m are repeating decimals, and their sums may miss a
// target by a few units in the last digit.
const hoursScale = 2

// TrackProgress counts the office days and hours recorded against a month's
// requirement. Entries are expected to belong to req.Month; the caller
// filters them.
func TrackProgress(req MonthlyRequirements, entries []DailyEntry) MonthProgress {
	progress := MonthProgress{
		Month:          req.Month,
		RequiredDays:   req.RequiredDays,
		RequiredHours:  req.RequiredHours,
		CompletedHours: generic.ZeroHours(),
	}
	for _, e := range entries {
		if !e.WasInOffice {
			continue
		}
		progress.CompletedDays++
		progress.CompletedHours = progress.CompletedHours.Add(e.HoursWorked)
	}
	return progress
}

func (p MonthProgress) RemainingDays() int {
	if p.CompletedDays >= p.RequiredDays {
		return 0
	}
	return p.RequiredDays - p.CompletedDays
}

// RemainingHours is rounded to hoursScale and floored at zero.
func (p MonthProgress) RemainingHours() generic.Amount {
	gap := p.RequiredHours.Sub(p.CompletedHours)
	gap.Value = gap.Value.Round(hoursScale)
	return gap.NonNegative()
}

// DaysPercentComplete is in [0, 100]; 0 when nothing is required.
func (p MonthProgress) DaysPercentComplete() decimal.Decimal {
	return percent(decimal.NewFromInt(int64(p.CompletedDays)), decimal.NewFromInt(int64(p.RequiredDays)))
}

// HoursPercentComplete is in [0, 100]; 0 when nothing is required.
func (p MonthProgress) HoursPercentComplete() decimal.Decimal {
	return percent(p.CompletedHours.Value, p.RequiredHours.Value)
}

func (p MonthProgress) IsComplete() bool {
	return p.CompletedDays >= p.RequiredDays && p.RemainingHours().IsZero()
}

func percent(done, required decimal.Decimal) decimal.Decimal {
	if required.IsZero() {
		return decimal.Zero
	}
	return decimal.Min(hundred, done.Mul(hundred).Div(required))
}
