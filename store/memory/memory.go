// Package memory provides an in-memory attendance.Store (for testing/dev).
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/warp/office-quota/attendance"
	"github.com/warp/office-quota/generic"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	policy   *attendance.OfficePolicy
	holidays map[string]attendance.HolidayMark
	entries  map[generic.Date]attendance.DailyEntry
	sessions map[string]attendance.PresenceSession
}

var _ attendance.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		holidays: make(map[string]attendance.HolidayMark),
		entries:  make(map[generic.Date]attendance.DailyEntry),
		sessions: make(map[string]attendance.PresenceSession),
	}
}

// =============================================================================
// POLICY
// =============================================================================

func (m *Memory) GetPolicy(_ context.Context) (*attendance.OfficePolicy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.policy == nil {
		return nil, nil
	}
	cp := clonePolicy(*m.policy)
	return &cp, nil
}

func (m *Memory) SavePolicy(_ context.Context, p attendance.OfficePolicy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := clonePolicy(p)
	m.policy = &cp
	return nil
}

func clonePolicy(p attendance.OfficePolicy) attendance.OfficePolicy {
	p.WeekdayPreferences = append([]time.Weekday(nil), p.WeekdayPreferences...)
	return p
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (m *Memory) ListHolidays(_ context.Context, from, to generic.Date) ([]attendance.HolidayMark, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []attendance.HolidayMark
	for _, h := range m.holidays {
		if from.BeforeOrEqual(h.Date) && h.Date.BeforeOrEqual(to) {
			result = append(result, h)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *Memory) SaveHoliday(_ context.Context, h attendance.HolidayMark) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	m.holidays[h.ID] = h
	return nil
}

func (m *Memory) DeleteHoliday(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.holidays[id]; !ok {
		return fmt.Errorf("holiday %s: %w", id, generic.ErrNotFound)
	}
	delete(m.holidays, id)
	return nil
}

// =============================================================================
// ENTRIES
// =============================================================================

func (m *Memory) GetEntry(_ context.Context, date generic.Date) (*attendance.DailyEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[date]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m *Memory) ListEntries(_ context.Context, from, to generic.Date) ([]attendance.DailyEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []attendance.DailyEntry
	for d, e := range m.entries {
		if from.BeforeOrEqual(d) && d.BeforeOrEqual(to) {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

func (m *Memory) UpsertEntry(_ context.Context, e attendance.DailyEntry) (attendance.DailyEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.entries[e.Date]; ok {
		e.ID = existing.ID
	} else if e.ID == "" {
		e.ID = uuid.NewString()
	}
	m.entries[e.Date] = e
	return e, nil
}

func (m *Memory) DeleteEntry(_ context.Context, date generic.Date) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[date]; !ok {
		return fmt.Errorf("entry %s: %w", date, generic.ErrNotFound)
	}
	delete(m.entries, date)
	return nil
}

// =============================================================================
// SESSIONS
// =============================================================================

func (m *Memory) ListSessionsForDate(ctx context.Context, date generic.Date) ([]attendance.PresenceSession, error) {
	return m.ListSessions(ctx, date, date)
}

func (m *Memory) ListSessions(_ context.Context, from, to generic.Date) ([]attendance.PresenceSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []attendance.PresenceSession
	for _, s := range m.sessions {
		d := s.Date()
		if from.BeforeOrEqual(d) && d.BeforeOrEqual(to) {
			result = append(result, cloneSession(s))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EntryTime.Before(result[j].EntryTime) })
	return result, nil
}

func (m *Memory) OpenSession(_ context.Context) (*attendance.PresenceSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sessions {
		if s.IsOpen() {
			cp := cloneSession(s)
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *Memory) InsertSession(_ context.Context, s attendance.PresenceSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if _, ok := m.sessions[s.ID]; ok {
		return fmt.Errorf("session %s already exists: %w", s.ID, generic.ErrConflict)
	}
	if err := m.checkSingleOpen(s); err != nil {
		return err
	}
	m.sessions[s.ID] = cloneSession(s)
	return nil
}

func (m *Memory) UpdateSession(_ context.Context, s attendance.PresenceSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID]; !ok {
		return fmt.Errorf("session %s: %w", s.ID, generic.ErrNotFound)
	}
	if err := m.checkSingleOpen(s); err != nil {
		return err
	}
	m.sessions[s.ID] = cloneSession(s)
	return nil
}

// checkSingleOpen rejects s when it is open and another session already is.
func (m *Memory) checkSingleOpen(s attendance.PresenceSession) error {
	if !s.IsOpen() {
		return nil
	}
	for id, existing := range m.sessions {
		if id != s.ID && existing.IsOpen() {
			return fmt.Errorf("session %s is already open: %w", id, generic.ErrConflict)
		}
	}
	return nil
}

func (m *Memory) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("session %s: %w", id, generic.ErrNotFound)
	}
	delete(m.sessions, id)
	return nil
}

func cloneSession(s attendance.PresenceSession) attendance.PresenceSession {
	if s.ExitTime != nil {
		exit := *s.ExitTime
		s.ExitTime = &exit
	}
	return s
}
