/*
scheduler.go - Periodic daily-entry synthesis

PURPOSE:
  The departure webhook synthesizes the day's entry, but a missed or late
  departure event leaves the day without one. The sweep re-synthesizes
  every recent date that has closed sessions.

DESIGN:
  - Runs a background goroutine with a configurable interval
  - Looks back LookbackDays days from today (today included)
  - Synthesis is idempotent, so re-running a date only refreshes it
  - A failing date is logged and does not stop the others

USAGE:
  sweep := NewSweepScheduler(store, synthesizer, logger)
  sweep.Start()
  // ... later
  sweep.Stop()

SEE ALSO:
  - handlers.go: Synthesize endpoint (manual synthesis)
  - attendance/synthesizer.go: Synthesizer
*/
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/office-quota/attendance"
	"github.com/warp/office-quota/generic"
)

// SweepScheduler periodically synthesizes recent daily entries.
type SweepScheduler struct {
	Sessions     attendance.SessionStore
	Synthesizer  *attendance.Synthesizer
	Interval     time.Duration
	LookbackDays int
	Enabled      bool
	Logger       *zap.Logger

	Now      func() time.Time
	Location *time.Location

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// SweepResult summarizes one sweep.
type SweepResult struct {
	Synthesized []generic.Date
	Failed      []generic.Date
}

// NewSweepScheduler creates a scheduler with a one hour interval and a
// seven day lookback.
func NewSweepScheduler(sessions attendance.SessionStore, synth *attendance.Synthesizer, logger *zap.Logger) *SweepScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SweepScheduler{
		Sessions:     sessions,
		Synthesizer:  synth,
		Interval:     time.Hour,
		LookbackDays: 7,
		Enabled:      true,
		Logger:       logger,
		Now:          time.Now,
		Location:     time.Local,
	}
}

// Start begins the scheduler.
func (s *SweepScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled {
		s.Logger.Info("sweep disabled, not starting")
		return
	}
	if s.ticker != nil {
		return
	}

	s.ticker = time.NewTicker(s.Interval)
	s.stop = make(chan struct{})
	s.wg.Add(1)

	go s.run()

	s.Logger.Info("sweep started",
		zap.Duration("interval", s.Interval),
		zap.Int("lookback_days", s.LookbackDays),
	)
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (s *SweepScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		s.ticker.Stop()
		close(s.stop)
		s.wg.Wait()
		s.ticker = nil
		s.Logger.Info("sweep stopped")
	}
}

func (s *SweepScheduler) run() {
	defer s.wg.Done()

	// Run immediately on start
	s.RunNow(context.Background())

	for {
		select {
		case <-s.ticker.C:
			s.RunNow(context.Background())
		case <-s.stop:
			return
		}
	}
}

// RunNow performs one sweep synchronously.
func (s *SweepScheduler) RunNow(ctx context.Context) SweepResult {
	var result SweepResult

	today := generic.Today(s.Now, s.Location)
	from := today.AddDays(-s.LookbackDays)

	sessions, err := s.Sessions.ListSessions(ctx, from, today)
	if err != nil {
		s.Logger.Error("sweep: listing sessions failed", zap.Error(err))
		return result
	}

	seen := make(map[generic.Date]bool)
	var dates []generic.Date
	for _, sess := range sessions {
		d := sess.Date()
		if sess.IsOpen() || seen[d] {
			continue
		}
		seen[d] = true
		dates = append(dates, d)
	}

	for _, d := range dates {
		if ctx.Err() != nil {
			break
		}
		if _, err := s.Synthesizer.Synthesize(ctx, d); err != nil {
			s.Logger.Error("sweep: synthesis failed", zap.Stringer("date", d), zap.Error(err))
			result.Failed = append(result.Failed, d)
			continue
		}
		result.Synthesized = append(result.Synthesized, d)
	}

	if len(result.Synthesized) > 0 || len(result.Failed) > 0 {
		s.Logger.Info("sweep completed",
			zap.Int("synthesized", len(result.Synthesized)),
			zap.Int("failed", len(result.Failed)),
		)
	}
	return result
}
