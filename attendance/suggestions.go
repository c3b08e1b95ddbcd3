/*
suggestions.go - Recommended office days

PURPOSE:
  Answers "which days should I go in to still make this month's quota?"
  The answer is a chronological list of future weekdays, spread evenly over
  the weeks left in the month and biased toward preferred weekdays.

ALGORITHM:
  1. daysForHours = ceil(remainingHours / 8)
  2. target = max(remainingDays, daysForHours); nothing to do if <= 0
  3. Candidates = weekdays from max(today, month start) to month end that
     are not already office days and not holidays
  4. Bucket candidates by ISO week, oldest week first
  5. For each bucket, take ceil(stillNeeded / weeksLeft) days (all of
     stillNeeded in the last bucket), capped at the bucket size, choosing
     the best-ranked weekdays and breaking ties by date
  6. Label each pick with its preference tier and the gap it closes

SHORTFALL:
  When the month runs out of candidates the list is shorter than the
  target. SuggestionPlan.Shortfall reports by how much.

EXAMPLE:
  4 days needed, 2 weeks left, preferences Tue > Wed > Thu > Mon > Fri:
  week 1 gets ceil(4/2) = 2 days (Tue, Wed), week 2 gets the remaining 2.
*/
package attendance

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/office-quota/generic"
)

// averageOfficeDayHours converts an hour gap into a day count. It is only
// used to size the suggestion target.
var averageOfficeDayHours = decimal.NewFromInt(8)

// SuggestionInput is one immutable snapshot for the engine.
type SuggestionInput struct {
	Month    generic.Period
	Policy   OfficePolicy
	Progress MonthProgress
	Today    generic.Date

	// OfficeDays are dates in the month already recorded as office days.
	OfficeDays []generic.Date

	// ExcludedDates are weekday holiday dates; see ExcludedWeekdays.
	ExcludedDates []generic.Date
}

// Suggest returns the recommended office days for the rest of the month.
func Suggest(in SuggestionInput) SuggestionPlan {
	plan := SuggestionPlan{Month: in.Month, Days: []SuggestedDay{}}

	remainingDays := in.Progress.RemainingDays()
	remainingHours := in.Progress.RemainingHours()

	daysForHours := 0
	if remainingHours.IsPositive() {
		daysForHours = int(remainingHours.Value.Div(averageOfficeDayHours).Ceil().IntPart())
	}
	target := max(remainingDays, daysForHours)
	if target <= 0 {
		return plan
	}
	plan.TargetDays = target

	buckets := weekBuckets(candidateDays(in))
	note := gapNote(remainingDays, daysForHours, remainingHours)

	stillNeeded := target
	for i, bucket := range buckets {
		if stillNeeded <= 0 {
			break
		}
		weeksRemaining := len(buckets) - i

		n := stillNeeded
		if weeksRemaining > 1 {
			n = ceilDiv(stillNeeded, weeksRemaining)
		}
		n = min(n, len(bucket))

		for _, d := range pickPreferred(bucket, in.Policy, n) {
			priority := in.Policy.Rank(d.Weekday())
			plan.Days = append(plan.Days, SuggestedDay{
				Date:      d,
				DayOfWeek: d.Weekday(),
				Reason:    tierLabel(priority) + " - " + note,
				Priority:  priority,
			})
		}
		stillNeeded -= n
	}

	plan.Shortfall = max(0, target-len(plan.Days))
	return plan
}

// candidateDays lists the open weekdays from today to the end of the month.
func candidateDays(in SuggestionInput) []generic.Date {
	taken := make(map[generic.Date]bool, len(in.OfficeDays)+len(in.ExcludedDates))
	for _, d := range in.OfficeDays {
		taken[d] = true
	}
	for _, d := range in.ExcludedDates {
		taken[d] = true
	}

	var days []generic.Date
	for _, d := range in.Month.ClampStart(in.Today).Weekdays() {
		if !taken[d] {
			days = append(days, d)
		}
	}
	return days
}

// weekBuckets groups chronologically sorted days by ISO week, oldest first.
func weekBuckets(days []generic.Date) [][]generic.Date {
	var buckets [][]generic.Date
	var current generic.ISOWeek
	for _, d := range days {
		w := d.ISOWeek()
		if len(buckets) == 0 || w != current {
			buckets = append(buckets, nil)
			current = w
		}
		buckets[len(buckets)-1] = append(buckets[len(buckets)-1], d)
	}
	return buckets
}

// pickPreferred returns the n best-ranked days of a week in date order.
func pickPreferred(week []generic.Date, policy OfficePolicy, n int) []generic.Date {
	ranked := make([]generic.Date, len(week))
	copy(ranked, week)
	sort.SliceStable(ranked, func(i, j int) bool {
		pi, pj := policy.Rank(ranked[i].Weekday()), policy.Rank(ranked[j].Weekday())
		if pi != pj {
			return pi < pj
		}
		return ranked[i].Before(ranked[j])
	})

	picked := ranked[:n]
	sort.Slice(picked, func(i, j int) bool { return picked[i].Before(picked[j]) })
	return picked
}

func tierLabel(priority int) string {
	switch {
	case priority == 0:
		return "Top preference"
	case priority <= 2:
		return "Preferred"
	default:
		return "Available"
	}
}

// gapNote describes what the suggestions are closing. The hour gap is shown
// when it needs more days than the day gap.
func gapNote(remainingDays, daysForHours int, remainingHours generic.Amount) string {
	if daysForHours > remainingDays {
		return fmt.Sprintf("%s hours still needed this month", remainingHours.Value.StringFixed(1))
	}
	if remainingDays == 1 {
		return "1 office day still needed this month"
	}
	return fmt.Sprintf("%d office days still needed this month", remainingDays)
}
