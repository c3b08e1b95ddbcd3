/*
sessions.go - Presence sessions to worked hours

PURPOSE:
  The location sensor reports arrival and departure instants. Only time
  inside the work-hours window counts, and a single day never counts for
  more than MaxDailyHours.

RULES:
  - The window is Open..Close on the session's entry day, in the entry
    time's location
  - Entry is clipped up to Open, exit is clipped down to Close
  - A session entirely outside the window, or with exit before entry,
    counts 0
  - Open sessions (no exit) are ignored by DailyHours

EXAMPLE (window 07:00-19:00, cap 10h):
  09:00-17:00 -> 8h
  06:00-12:00 -> 5h  (clipped at 07:00)
  14:00-20:00 -> 5h  (clipped at 19:00)
  07:00-19:00 -> 12h raw, 10h counted
*/
package attendance

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/office-quota/generic"
)

// WorkWindow is the clock range in which presence counts as work.
type WorkWindow struct {
	Open  generic.Clock
	Close generic.Clock
}

func DefaultWorkWindow() WorkWindow {
	return WorkWindow{Open: generic.Clock{Hour: 7}, Close: generic.Clock{Hour: 19}}
}

// DefaultMaxDailyHours is the daily cap used when none is configured.
const DefaultMaxDailyHours = 10

// Aggregator converts sessions into hours. The zero value is not usable;
// build one with NewAggregator.
type Aggregator struct {
	Window        WorkWindow
	MaxDailyHours generic.Amount

	// Now is the clock used for open sessions.
	Now func() time.Time
}

func NewAggregator(window WorkWindow, maxDailyHours generic.Amount) *Aggregator {
	return &Aggregator{Window: window, MaxDailyHours: maxDailyHours, Now: time.Now}
}

// DailyTotal is the result of aggregating one day's sessions.
type DailyTotal struct {
	Counted  generic.Amount // capped at MaxDailyHours
	Raw      generic.Amount // uncapped, for diagnostics
	Sessions int            // closed sessions that were summed
	Capped   bool
}

// SessionHours returns the in-window hours between entry and exit.
func (a *Aggregator) SessionHours(entry, exit time.Time) generic.Amount {
	loc := entry.Location()
	day := generic.DateOf(entry)
	open := day.At(a.Window.Open, loc)
	closing := day.At(a.Window.Close, loc)

	start := entry
	if start.Before(open) {
		start = open
	}
	end := exit
	if end.After(closing) {
		end = closing
	}

	if start.After(closing) || end.Before(open) || end.Before(start) {
		return generic.ZeroHours()
	}
	return durationHours(end.Sub(start)).NonNegative()
}

// OpenSessionHours is SessionHours with the exit at the current time.
func (a *Aggregator) OpenSessionHours(entry time.Time) generic.Amount {
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	return a.SessionHours(entry, now())
}

// DailyHours sums the closed sessions and applies the daily cap.
func (a *Aggregator) DailyHours(sessions []PresenceSession) DailyTotal {
	raw := generic.ZeroHours()
	count := 0
	for _, s := range sessions {
		if s.IsOpen() {
			continue
		}
		raw = raw.Add(a.SessionHours(s.EntryTime, *s.ExitTime))
		count++
	}
	return DailyTotal{
		Counted:  raw.Min(a.MaxDailyHours),
		Raw:      raw,
		Sessions: count,
		Capped:   a.WouldBeCapped(raw),
	}
}

// WouldBeCapped reports whether raw exceeds the daily cap.
func (a *Aggregator) WouldBeCapped(raw generic.Amount) bool {
	return raw.GreaterThan(a.MaxDailyHours)
}

func durationHours(d time.Duration) generic.Amount {
	seconds := decimal.NewFromInt(int64(d / time.Second))
	return generic.Amount{Value: seconds.Div(decimal.NewFromInt(3600)), Unit: generic.UnitHours}
}
