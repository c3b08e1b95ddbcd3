/*
Package sqlite provides a SQLite-backed implementation of attendance.Store.

PURPOSE:
  Persists the four kinds of rows the attendance engine reads and writes:
  the office policy, holiday marks, daily entries and presence sessions.

KEY TABLES:
  policies:          Single row (id = 1) holding the policy JSON
  holidays:          Holiday and vacation marks
  daily_entries:     One row per date (UNIQUE(date))
  presence_sessions: Sensor sessions; at most one with exit_time NULL

INVARIANTS ENFORCED BY SCHEMA:
  - idx_entries_date:       one entry per date, upsert keeps the row id
  - idx_one_open_session:   a second open session is rejected with
                            generic.ErrConflict

STORAGE FORMATS:
  - Dates are TEXT "YYYY-MM-DD"
  - Hours are TEXT decimal strings, so 7.25 round-trips exactly
  - Session instants are RFC3339Nano with offset; entry_date is the entry's
    calendar day in that offset. Sessions are ordered in Go after scanning

CONCURRENCY:
  Uses sync.RWMutex plus a single connection. SQLite's own locking makes
  each statement atomic; the mutex keeps read-modify-write paths (upsert
  then reload) consistent.

USAGE:
  store, err := sqlite.New("./data/officequota.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  planner := attendance.NewPlanner(store)

SEE ALSO:
  - attendance/store.go: Interface definitions
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/office-quota/attendance"
	"github.com/warp/office-quota/factory"
	"github.com/warp/office-quota/generic"
)

// Store implements attendance.Store using SQLite.
type Store struct {
	db       *sql.DB
	mu       sync.RWMutex
	policies *factory.PolicyFactory
}

var _ attendance.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: ":memory:" databases are per-connection.
	db.SetMaxOpenConns(1)

	store := &Store{db: db, policies: factory.NewPolicyFactory()}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Office policy (single row)
	CREATE TABLE IF NOT EXISTS policies (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		config_json TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Holiday and vacation marks
	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		kind TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_holidays_date
		ON holidays(date);

	-- Daily attendance entries
	CREATE TABLE IF NOT EXISTS daily_entries (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		was_in_office BOOLEAN NOT NULL DEFAULT FALSE,
		hours_worked TEXT NOT NULL DEFAULT '0',
		notes TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_entries_date
		ON daily_entries(date);

	-- Presence sessions from the location sensor
	CREATE TABLE IF NOT EXISTS presence_sessions (
		id TEXT PRIMARY KEY,
		entry_time TEXT NOT NULL,
		entry_date TEXT NOT NULL,
		exit_time TEXT,
		confidence REAL NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_entry_date
		ON presence_sessions(entry_date, entry_time);

	-- At most one open session
	CREATE UNIQUE INDEX IF NOT EXISTS idx_one_open_session
		ON presence_sessions((exit_time IS NULL))
		WHERE exit_time IS NULL;
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// POLICY STORE
// =============================================================================

// GetPolicy returns the saved policy, or nil if none has been saved.
func (s *Store) GetPolicy(ctx context.Context) (*attendance.OfficePolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var configJSON, updatedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT config_json, updated_at FROM policies WHERE id = 1`,
	).Scan(&configJSON, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, generic.WrapStore("get policy", err)
	}

	policy, err := s.policies.ParsePolicy(configJSON)
	if err != nil {
		return nil, generic.WrapStore("decode policy", err)
	}
	policy.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return policy, nil
}

// SavePolicy replaces the policy.
func (s *Store) SavePolicy(ctx context.Context, p attendance.OfficePolicy) error {
	configJSON, err := s.policies.MarshalPolicy(p)
	if err != nil {
		return err
	}

	updatedAt := p.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO policies (id, config_json, updated_at)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			config_json = excluded.config_json,
			updated_at = excluded.updated_at
	`, configJSON, updatedAt.Format(time.RFC3339))
	return generic.WrapStore("save policy", err)
}

// =============================================================================
// HOLIDAY STORE
// =============================================================================

// ListHolidays returns marks in [from, to] ordered by date.
func (s *Store) ListHolidays(ctx context.Context, from, to generic.Date) ([]attendance.HolidayMark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, description, kind
		FROM holidays
		WHERE date >= ? AND date <= ?
		ORDER BY date ASC, id ASC
	`, from.String(), to.String())
	if err != nil {
		return nil, generic.WrapStore("list holidays", err)
	}
	defer rows.Close()

	var holidays []attendance.HolidayMark
	for rows.Next() {
		var h attendance.HolidayMark
		var dateStr, kind string
		if err := rows.Scan(&h.ID, &dateStr, &h.Description, &kind); err != nil {
			return nil, generic.WrapStore("scan holiday", err)
		}
		if h.Date, err = generic.ParseDate(dateStr); err != nil {
			return nil, generic.WrapStore("scan holiday", err)
		}
		h.Kind = attendance.HolidayKind(kind)
		holidays = append(holidays, h)
	}
	return holidays, generic.WrapStore("list holidays", rows.Err())
}

// SaveHoliday inserts or updates a mark by ID.
func (s *Store) SaveHoliday(ctx context.Context, h attendance.HolidayMark) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO holidays (id, date, description, kind, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			description = excluded.description,
			kind = excluded.kind
	`, h.ID, h.Date.String(), h.Description, string(h.Kind), time.Now().Format(time.RFC3339))
	return generic.WrapStore("save holiday", err)
}

// DeleteHoliday deletes a mark by ID.
func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM holidays WHERE id = ?", id)
	return requireAffected("delete holiday", "holiday "+id, res, err)
}

// =============================================================================
// ENTRY STORE
// =============================================================================

const entryColumns = `id, date, was_in_office, hours_worked, notes, updated_at`

// GetEntry returns the entry for date, or nil.
func (s *Store) GetEntry(ctx context.Context, date generic.Date) (*attendance.DailyEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getEntry(ctx, date)
}

func (s *Store) getEntry(ctx context.Context, date generic.Date) (*attendance.DailyEntry, error) {
	entries, err := s.queryEntries(ctx,
		`SELECT `+entryColumns+` FROM daily_entries WHERE date = ?`, date.String())
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

// ListEntries returns entries in [from, to] ordered by date.
func (s *Store) ListEntries(ctx context.Context, from, to generic.Date) ([]attendance.DailyEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryEntries(ctx, `
		SELECT `+entryColumns+`
		FROM daily_entries
		WHERE date >= ? AND date <= ?
		ORDER BY date ASC
	`, from.String(), to.String())
}

// UpsertEntry writes the entry for e.Date, keeping the existing row id.
func (s *Store) UpsertEntry(ctx context.Context, e attendance.DailyEntry) (attendance.DailyEntry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO daily_entries (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			was_in_office = excluded.was_in_office,
			hours_worked = excluded.hours_worked,
			notes = excluded.notes,
			updated_at = excluded.updated_at
	`, e.ID, e.Date.String(), e.WasInOffice, e.HoursWorked.Value.String(), e.Notes,
		e.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return attendance.DailyEntry{}, generic.WrapStore("upsert entry", err)
	}

	saved, err := s.getEntry(ctx, e.Date)
	if err != nil {
		return attendance.DailyEntry{}, err
	}
	if saved == nil {
		return attendance.DailyEntry{}, generic.WrapStore("upsert entry", fmt.Errorf("entry %s missing after write", e.Date))
	}
	return *saved, nil
}

// DeleteEntry deletes the entry for date.
func (s *Store) DeleteEntry(ctx context.Context, date generic.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM daily_entries WHERE date = ?", date.String())
	return requireAffected("delete entry", "entry "+date.String(), res, err)
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]attendance.DailyEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, generic.WrapStore("query entries", err)
	}
	defer rows.Close()

	var entries []attendance.DailyEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, generic.WrapStore("scan entry", err)
		}
		entries = append(entries, e)
	}
	return entries, generic.WrapStore("query entries", rows.Err())
}

func scanEntry(rows *sql.Rows) (attendance.DailyEntry, error) {
	var e attendance.DailyEntry
	var dateStr, hoursStr, updatedAt string
	if err := rows.Scan(&e.ID, &dateStr, &e.WasInOffice, &hoursStr, &e.Notes, &updatedAt); err != nil {
		return e, err
	}

	date, err := generic.ParseDate(dateStr)
	if err != nil {
		return e, err
	}
	hours, err := decimal.NewFromString(hoursStr)
	if err != nil {
		return e, fmt.Errorf("hours_worked %q: %w", hoursStr, err)
	}

	e.Date = date
	e.HoursWorked = generic.Amount{Value: hours, Unit: generic.UnitHours}
	e.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return e, nil
}

// =============================================================================
// SESSION STORE
// =============================================================================

const sessionColumns = `id, entry_time, exit_time, confidence`

// ListSessionsForDate returns sessions that started on date.
func (s *Store) ListSessionsForDate(ctx context.Context, date generic.Date) ([]attendance.PresenceSession, error) {
	return s.ListSessions(ctx, date, date)
}

// ListSessions returns sessions that started in [from, to], oldest first.
func (s *Store) ListSessions(ctx context.Context, from, to generic.Date) ([]attendance.PresenceSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions, err := s.querySessions(ctx, `
		SELECT `+sessionColumns+`
		FROM presence_sessions
		WHERE entry_date >= ? AND entry_date <= ?
	`, from.String(), to.String())
	if err != nil {
		return nil, err
	}

	// entry_time keeps each row's own offset and a variable-length fraction,
	// so its text order is not chronological.
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].EntryTime.Before(sessions[j].EntryTime)
	})
	return sessions, nil
}

// OpenSession returns the session with no exit time, or nil.
func (s *Store) OpenSession(ctx context.Context) (*attendance.PresenceSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions, err := s.querySessions(ctx,
		`SELECT `+sessionColumns+` FROM presence_sessions WHERE exit_time IS NULL LIMIT 1`)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, nil
	}
	return &sessions[0], nil
}

// InsertSession stores a new session. A second open session is rejected
// with generic.ErrConflict.
func (s *Store) InsertSession(ctx context.Context, sess attendance.PresenceSession) error {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO presence_sessions (id, entry_time, entry_date, exit_time, confidence)
		VALUES (?, ?, ?, ?, ?)
	`, sess.ID, sess.EntryTime.Format(time.RFC3339Nano), sess.Date().String(),
		formatExit(sess.ExitTime), sess.Confidence)
	if isUniqueViolation(err) {
		return fmt.Errorf("session %s: %w", sess.ID, generic.ErrConflict)
	}
	return generic.WrapStore("insert session", err)
}

// UpdateSession rewrites an existing session.
func (s *Store) UpdateSession(ctx context.Context, sess attendance.PresenceSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE presence_sessions
		SET entry_time = ?, entry_date = ?, exit_time = ?, confidence = ?
		WHERE id = ?
	`, sess.EntryTime.Format(time.RFC3339Nano), sess.Date().String(),
		formatExit(sess.ExitTime), sess.Confidence, sess.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("session %s: %w", sess.ID, generic.ErrConflict)
	}
	return requireAffected("update session", "session "+sess.ID, res, err)
}

// DeleteSession deletes a session by ID.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM presence_sessions WHERE id = ?", id)
	return requireAffected("delete session", "session "+id, res, err)
}

func (s *Store) querySessions(ctx context.Context, query string, args ...any) ([]attendance.PresenceSession, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, generic.WrapStore("query sessions", err)
	}
	defer rows.Close()

	var sessions []attendance.PresenceSession
	for rows.Next() {
		var sess attendance.PresenceSession
		var entryStr string
		var exitStr sql.NullString
		if err := rows.Scan(&sess.ID, &entryStr, &exitStr, &sess.Confidence); err != nil {
			return nil, generic.WrapStore("scan session", err)
		}
		if sess.EntryTime, err = time.Parse(time.RFC3339Nano, entryStr); err != nil {
			return nil, generic.WrapStore("scan session", err)
		}
		if exitStr.Valid {
			exit, err := time.Parse(time.RFC3339Nano, exitStr.String)
			if err != nil {
				return nil, generic.WrapStore("scan session", err)
			}
			sess.ExitTime = &exit
		}
		sessions = append(sessions, sess)
	}
	return sessions, generic.WrapStore("query sessions", rows.Err())
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"presence_sessions", "daily_entries", "holidays", "policies"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return generic.WrapStore("reset "+table, err)
		}
	}
	return nil
}

func formatExit(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339Nano)
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func requireAffected(op, what string, res sql.Result, err error) error {
	if err != nil {
		return generic.WrapStore(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return generic.WrapStore(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, generic.ErrNotFound)
	}
	return nil
}
