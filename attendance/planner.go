/*
planner.go - Store-backed month evaluation

PURPOSE:
  Loads the policy, holiday and entry snapshots for a month and runs the
  pure pipeline over them:

    CalculateRequirements -> TrackProgress -> Suggest

  Evaluate is the pure half and is shared with the Watcher. Planner adds
  store access and the current date.

ERRORS:
  - ErrConfigurationMissing when no policy is saved
  - *generic.StoreError when a store read fails
*/
package attendance

import (
	"context"
	"time"

	"github.com/warp/office-quota/generic"
)

// MonthSnapshot is everything the pipeline reads for one month.
type MonthSnapshot struct {
	Month    generic.Period
	Policy   *OfficePolicy
	Holidays []HolidayMark
	Entries  []DailyEntry
}

// MonthPlan is the full pipeline output for one month.
type MonthPlan struct {
	Requirements MonthlyRequirements
	Progress     MonthProgress
	Suggestions  SuggestionPlan
}

// Evaluate runs the pipeline on snap. It is pure: the same snapshot and
// date always produce the same plan.
func Evaluate(snap MonthSnapshot, today generic.Date) (MonthPlan, error) {
	return EvaluateContext(context.Background(), snap, today)
}

// EvaluateContext is Evaluate with cancellation checked between stages.
func EvaluateContext(ctx context.Context, snap MonthSnapshot, today generic.Date) (MonthPlan, error) {
	req, err := CalculateRequirements(snap.Month, snap.Policy, snap.Holidays)
	if err != nil {
		return MonthPlan{}, err
	}
	if err := ctx.Err(); err != nil {
		return MonthPlan{}, err
	}

	entries := entriesIn(snap.Month, snap.Entries)
	progress := TrackProgress(req, entries)
	if err := ctx.Err(); err != nil {
		return MonthPlan{}, err
	}

	var officeDays []generic.Date
	for _, e := range entries {
		if e.WasInOffice {
			officeDays = append(officeDays, e.Date)
		}
	}
	var excluded []generic.Date
	for d := range ExcludedWeekdays(snap.Month, snap.Holidays) {
		excluded = append(excluded, d)
	}

	suggestions := Suggest(SuggestionInput{
		Month:         snap.Month,
		Policy:        *snap.Policy,
		Progress:      progress,
		Today:         today,
		OfficeDays:    officeDays,
		ExcludedDates: excluded,
	})

	return MonthPlan{Requirements: req, Progress: progress, Suggestions: suggestions}, nil
}

func entriesIn(month generic.Period, entries []DailyEntry) []DailyEntry {
	var in []DailyEntry
	for _, e := range entries {
		if month.Contains(e.Date) {
			in = append(in, e)
		}
	}
	return in
}

// =============================================================================
// PLANNER
// =============================================================================

type Planner struct {
	Policies PolicyStore
	Holidays HolidayStore
	Entries  EntryStore

	Now      func() time.Time
	Location *time.Location
}

func NewPlanner(store Store) *Planner {
	return &Planner{
		Policies: store,
		Holidays: store,
		Entries:  store,
		Now:      time.Now,
		Location: time.Local,
	}
}

// Today is the current date in the planner's location.
func (p *Planner) Today() generic.Date {
	return generic.Today(p.Now, p.Location)
}

// Snapshot reads the month's policy, holidays and entries.
func (p *Planner) Snapshot(ctx context.Context, month generic.Period) (MonthSnapshot, error) {
	policy, err := p.Policies.GetPolicy(ctx)
	if err != nil {
		return MonthSnapshot{}, generic.WrapStore("get policy", err)
	}
	holidays, err := p.Holidays.ListHolidays(ctx, month.Start, month.End)
	if err != nil {
		return MonthSnapshot{}, generic.WrapStore("list holidays", err)
	}
	entries, err := p.Entries.ListEntries(ctx, month.Start, month.End)
	if err != nil {
		return MonthSnapshot{}, generic.WrapStore("list entries", err)
	}
	return MonthSnapshot{Month: month, Policy: policy, Holidays: holidays, Entries: entries}, nil
}

func (p *Planner) Plan(ctx context.Context, month generic.Period) (MonthPlan, error) {
	snap, err := p.Snapshot(ctx, month)
	if err != nil {
		return MonthPlan{}, err
	}
	return EvaluateContext(ctx, snap, p.Today())
}

func (p *Planner) Requirements(ctx context.Context, month generic.Period) (MonthlyRequirements, error) {
	snap, err := p.Snapshot(ctx, month)
	if err != nil {
		return MonthlyRequirements{}, err
	}
	return CalculateRequirements(month, snap.Policy, snap.Holidays)
}

func (p *Planner) Progress(ctx context.Context, month generic.Period) (MonthProgress, error) {
	plan, err := p.Plan(ctx, month)
	if err != nil {
		return MonthProgress{}, err
	}
	return plan.Progress, nil
}

func (p *Planner) Suggestions(ctx context.Context, month generic.Period) (SuggestionPlan, error) {
	plan, err := p.Plan(ctx, month)
	if err != nil {
		return SuggestionPlan{}, err
	}
	return plan.Suggestions, nil
}
