/*
store.go - Persistence contracts for the attendance engine

PURPOSE:
  The engine only needs to read and write four kinds of rows. These
  interfaces are the whole contract; the engine never sees SQL.

KEY INTERFACES:
  PolicyStore:  The single current OfficePolicy (or none yet)
  HolidayStore: Holiday and vacation marks by date range
  EntryStore:   One DailyEntry per date, upserted by date
  SessionStore: Presence sessions, at most one open at a time

NOT-FOUND CONTRACT:
  Single-row getters return (nil, nil) when the row does not exist.
  Deletes of missing rows return generic.ErrNotFound.

IMPLEMENTATIONS:
  - store/sqlite: SQLite (production)
  - store/memory: In-memory (tests, dev)
*/
package attendance

import (
	"context"

	"github.com/warp/office-quota/generic"
)

type PolicyStore interface {
	// GetPolicy returns nil, nil when no policy has been saved.
	GetPolicy(ctx context.Context) (*OfficePolicy, error)
	SavePolicy(ctx context.Context, p OfficePolicy) error
}

type HolidayStore interface {
	// ListHolidays returns marks with from <= date <= to, ordered by date.
	ListHolidays(ctx context.Context, from, to generic.Date) ([]HolidayMark, error)
	SaveHoliday(ctx context.Context, h HolidayMark) error
	DeleteHoliday(ctx context.Context, id string) error
}

type EntryStore interface {
	GetEntry(ctx context.Context, date generic.Date) (*DailyEntry, error)
	// ListEntries returns entries with from <= date <= to, ordered by date.
	ListEntries(ctx context.Context, from, to generic.Date) ([]DailyEntry, error)
	// UpsertEntry inserts or replaces the entry for e.Date. When a row
	// already exists its ID is kept. The stored row is returned.
	UpsertEntry(ctx context.Context, e DailyEntry) (DailyEntry, error)
	DeleteEntry(ctx context.Context, date generic.Date) error
}

type SessionStore interface {
	// ListSessionsForDate returns the sessions whose entry time falls on date.
	ListSessionsForDate(ctx context.Context, date generic.Date) ([]PresenceSession, error)
	ListSessions(ctx context.Context, from, to generic.Date) ([]PresenceSession, error)
	// OpenSession returns the session without an exit time, or nil.
	OpenSession(ctx context.Context) (*PresenceSession, error)
	InsertSession(ctx context.Context, s PresenceSession) error
	UpdateSession(ctx context.Context, s PresenceSession) error
	DeleteSession(ctx context.Context, id string) error
}

// Store is the full set of contracts, implemented by both stores.
type Store interface {
	PolicyStore
	HolidayStore
	EntryStore
	SessionStore
}
