package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/office-quota/generic"
)

// Synthesizer rebuilds the DailyEntry of a date from its presence sessions.
// It runs at arrival/departure boundaries and from the periodic sweep.
//
// Calls for different dates touch disjoint rows. Calls for the same date are
// not serialized here; the entry upsert is atomic per date in both stores.
type Synthesizer struct {
	Sessions   SessionStore
	Entries    EntryStore
	Aggregator *Aggregator
	Logger     *zap.Logger
	Now        func() time.Time
}

func NewSynthesizer(sessions SessionStore, entries EntryStore, agg *Aggregator, logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{
		Sessions:   sessions,
		Entries:    entries,
		Aggregator: agg,
		Logger:     logger,
		Now:        time.Now,
	}
}

// Synthesize writes the entry for date. With no closed sessions the day is
// recorded as not in office with zero hours.
func (s *Synthesizer) Synthesize(ctx context.Context, date generic.Date) (DailyEntry, error) {
	sessions, err := s.Sessions.ListSessionsForDate(ctx, date)
	if err != nil {
		return DailyEntry{}, fmt.Errorf("loading sessions for %s: %w", date, err)
	}

	var closed []PresenceSession
	for _, sess := range sessions {
		if !sess.IsOpen() {
			closed = append(closed, sess)
		}
	}

	existing, err := s.Entries.GetEntry(ctx, date)
	if err != nil {
		return DailyEntry{}, fmt.Errorf("loading entry for %s: %w", date, err)
	}

	entry := DailyEntry{
		ID:          uuid.NewString(),
		Date:        date,
		HoursWorked: generic.ZeroHours(),
		UpdatedAt:   s.now(),
	}
	if existing != nil {
		entry.ID = existing.ID
	}

	if len(closed) > 0 {
		total := s.Aggregator.DailyHours(closed)
		entry.WasInOffice = true
		entry.HoursWorked = total.Counted
		entry.Notes = sessionNote(total)

		if total.Capped {
			s.Logger.Info("daily hours capped",
				zap.Stringer("date", date),
				zap.String("raw_hours", total.Raw.Value.StringFixed(2)),
				zap.String("counted_hours", total.Counted.Value.StringFixed(2)),
			)
		}
	}

	saved, err := s.Entries.UpsertEntry(ctx, entry)
	if err != nil {
		return DailyEntry{}, fmt.Errorf("saving entry for %s: %w", date, err)
	}

	s.Logger.Debug("daily entry synthesized",
		zap.Stringer("date", date),
		zap.Bool("in_office", saved.WasInOffice),
		zap.Int("sessions", len(closed)),
		zap.String("hours", saved.HoursWorked.Value.StringFixed(2)),
	)
	return saved, nil
}

func (s *Synthesizer) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func sessionNote(total DailyTotal) string {
	noun := "sessions"
	if total.Sessions == 1 {
		noun = "session"
	}
	note := fmt.Sprintf("Auto-tracked from %d %s", total.Sessions, noun)
	if total.Capped {
		note += fmt.Sprintf(" (raw %sh, counted %sh)",
			total.Raw.Value.StringFixed(2), total.Counted.Value.StringFixed(2))
	}
	return note
}
