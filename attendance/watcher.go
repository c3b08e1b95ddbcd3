package attendance

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/office-quota/generic"
)

// WatchResult is one pipeline evaluation. Err carries
// ErrConfigurationMissing when the latest policy snapshot is nil.
type WatchResult struct {
	Generation uint64
	Plan       MonthPlan
	Err        error
}

// Watcher recomputes a month's plan whenever the policy, holiday or entry
// snapshot changes. Only the latest snapshot matters: a new snapshot cancels
// the computation in flight, and a result that has not been read yet is
// replaced by a newer one.
//
// Nothing is computed until each of the three sources has published once.
type Watcher struct {
	month  generic.Period
	today  func() generic.Date
	logger *zap.Logger

	updates chan func(*watchState)
	out     chan WatchResult
	done    chan struct{}
	wg      sync.WaitGroup

	mu     sync.Mutex
	latest uint64
	cancel context.CancelFunc
	closed bool
}

type watchState struct {
	policy   *OfficePolicy
	holidays []HolidayMark
	entries  []DailyEntry

	havePolicy, haveHolidays, haveEntries bool
}

func (s *watchState) ready() bool { return s.havePolicy && s.haveHolidays && s.haveEntries }

func NewWatcher(month generic.Period, today func() generic.Date, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Watcher{
		month:   month,
		today:   today,
		logger:  logger,
		updates: make(chan func(*watchState)),
		out:     make(chan WatchResult, 1),
		done:    make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()
	return w
}

// Results delivers the most recent plan. It is closed by Close.
func (w *Watcher) Results() <-chan WatchResult { return w.out }

// PublishPolicy replaces the policy snapshot. nil means "not configured".
func (w *Watcher) PublishPolicy(p *OfficePolicy) {
	var snap *OfficePolicy
	if p != nil {
		cp := *p
		cp.WeekdayPreferences = append([]time.Weekday(nil), p.WeekdayPreferences...)
		snap = &cp
	}
	w.publish(func(s *watchState) { s.policy, s.havePolicy = snap, true })
}

func (w *Watcher) PublishHolidays(h []HolidayMark) {
	snap := append([]HolidayMark(nil), h...)
	w.publish(func(s *watchState) { s.holidays, s.haveHolidays = snap, true })
}

func (w *Watcher) PublishEntries(e []DailyEntry) {
	snap := append([]DailyEntry(nil), e...)
	w.publish(func(s *watchState) { s.entries, s.haveEntries = snap, true })
}

func (w *Watcher) publish(apply func(*watchState)) {
	select {
	case w.updates <- apply:
	case <-w.done:
	}
}

// Close stops the watcher, abandons any computation in flight and closes
// Results.
func (w *Watcher) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	if w.cancel != nil {
		w.cancel()
	}
	close(w.done)
	w.mu.Unlock()

	w.wg.Wait()
	close(w.out)
}

func (w *Watcher) run() {
	defer w.wg.Done()

	var state watchState
	for {
		select {
		case apply := <-w.updates:
			apply(&state)
			if state.ready() {
				w.start(MonthSnapshot{
					Month:    w.month,
					Policy:   state.policy,
					Holidays: state.holidays,
					Entries:  state.entries,
				})
			}
		case <-w.done:
			return
		}
	}
}

// start supersedes the running computation with one for snap.
func (w *Watcher) start(snap MonthSnapshot) {
	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.latest++
	gen := w.latest
	w.mu.Unlock()

	today := w.today()
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		plan, err := EvaluateContext(ctx, snap, today)
		if ctx.Err() != nil {
			w.logger.Debug("plan superseded", zap.Uint64("generation", gen))
			return
		}
		w.deliver(WatchResult{Generation: gen, Plan: plan, Err: err})
	}()
}

func (w *Watcher) deliver(r WatchResult) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || r.Generation != w.latest {
		return
	}
	// Drop an unread older result; the buffer then always has room.
	select {
	case <-w.out:
	default:
	}
	select {
	case w.out <- r:
	default:
	}
}
