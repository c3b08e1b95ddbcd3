// Package storetest holds the behavior every attendance.Store must share.
// Each store package runs Run against its own constructor.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/office-quota/attendance"
	"github.com/warp/office-quota/generic"
)

// Run executes the contract suite. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) attendance.Store) {
	t.Run("Policy", func(t *testing.T) { testPolicy(t, newStore(t)) })
	t.Run("Holidays", func(t *testing.T) { testHolidays(t, newStore(t)) })
	t.Run("EntryUpsertKeepsID", func(t *testing.T) { testEntryUpsert(t, newStore(t)) })
	t.Run("EntryRangeAndDelete", func(t *testing.T) { testEntryRange(t, newStore(t)) })
	t.Run("Sessions", func(t *testing.T) { testSessions(t, newStore(t)) })
	t.Run("SessionsChronological", func(t *testing.T) { testSessionsChronological(t, newStore(t)) })
	t.Run("OneOpenSession", func(t *testing.T) { testOneOpenSession(t, newStore(t)) })
}

func day(d int) generic.Date {
	return generic.NewDate(2025, time.March, d)
}

func at(d generic.Date, hour int) time.Time {
	return time.Date(d.Year, d.Month, d.Day, hour, 0, 0, 0, time.UTC)
}

func testPolicy(t *testing.T, store attendance.Store) {
	ctx := context.Background()

	// GIVEN: An empty store
	p, err := store.GetPolicy(ctx)
	require.NoError(t, err)
	assert.Nil(t, p, "no policy before the first save")

	// WHEN: Saving twice
	first := attendance.OfficePolicy{
		RequiredDaysPerWeek:  3,
		RequiredHoursPerWeek: generic.Hours(24),
		WeekdayPreferences:   attendance.DefaultWeekdayPreferences(),
	}
	require.NoError(t, store.SavePolicy(ctx, first))

	second := first
	second.RequiredDaysPerWeek = 2
	second.RequiredHoursPerWeek = generic.Hours(17.5)
	second.WeekdayPreferences = []time.Weekday{time.Tuesday, time.Thursday, time.Monday, time.Wednesday, time.Friday}
	require.NoError(t, store.SavePolicy(ctx, second))

	// THEN: The last save wins
	got, err := store.GetPolicy(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.RequiredDaysPerWeek)
	assert.True(t, got.RequiredHoursPerWeek.Value.Equal(generic.Hours(17.5).Value))
	assert.Equal(t, second.WeekdayPreferences, got.WeekdayPreferences)
}

func testHolidays(t *testing.T, store attendance.Store) {
	ctx := context.Background()

	marks := []attendance.HolidayMark{
		{ID: "h3", Date: day(20), Description: "Spring break", Kind: attendance.KindVacation},
		{ID: "h1", Date: day(3), Description: "Founders day", Kind: attendance.KindPublicHoliday},
		{ID: "h2", Date: generic.NewDate(2025, time.April, 1), Kind: attendance.KindPublicHoliday},
	}
	for _, h := range marks {
		require.NoError(t, store.SaveHoliday(ctx, h))
	}

	march, err := store.ListHolidays(ctx, day(1), day(31))
	require.NoError(t, err)
	require.Len(t, march, 2)
	assert.Equal(t, "h1", march[0].ID, "ordered by date")
	assert.Equal(t, "Founders day", march[0].Description)
	assert.Equal(t, attendance.KindVacation, march[1].Kind)

	require.NoError(t, store.DeleteHoliday(ctx, "h1"))
	march, err = store.ListHolidays(ctx, day(1), day(31))
	require.NoError(t, err)
	assert.Len(t, march, 1)

	err = store.DeleteHoliday(ctx, "missing")
	assert.ErrorIs(t, err, generic.ErrNotFound)
}

func testEntryUpsert(t *testing.T, store attendance.Store) {
	ctx := context.Background()

	// GIVEN: A manual entry
	first, err := store.UpsertEntry(ctx, attendance.DailyEntry{
		ID: "entry-1", Date: day(4), WasInOffice: true, HoursWorked: generic.Hours(6.5), Notes: "manual",
	})
	require.NoError(t, err)
	assert.Equal(t, "entry-1", first.ID)

	// WHEN: Writing the same date with another ID
	second, err := store.UpsertEntry(ctx, attendance.DailyEntry{
		ID: "entry-2", Date: day(4), WasInOffice: true, HoursWorked: generic.Hours(8.25), Notes: "synthesized",
	})
	require.NoError(t, err)

	// THEN: The row keeps its identity and takes the new values
	assert.Equal(t, "entry-1", second.ID)
	got, err := store.GetEntry(ctx, day(4))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "entry-1", got.ID)
	assert.Equal(t, "synthesized", got.Notes)
	assert.True(t, got.HoursWorked.Value.Equal(generic.Hours(8.25).Value))

	missing, err := store.GetEntry(ctx, day(5))
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func testEntryRange(t *testing.T, store attendance.Store) {
	ctx := context.Background()

	for _, d := range []int{10, 3, 31, 17} {
		_, err := store.UpsertEntry(ctx, attendance.DailyEntry{Date: day(d), WasInOffice: true, HoursWorked: generic.Hours(8)})
		require.NoError(t, err)
	}

	entries, err := store.ListEntries(ctx, day(3), day(17))
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, day(3), entries[0].Date)
	assert.Equal(t, day(17), entries[2].Date)
	for _, e := range entries {
		assert.NotEmpty(t, e.ID, "store assigns an ID when none is given")
	}

	require.NoError(t, store.DeleteEntry(ctx, day(10)))
	assert.ErrorIs(t, store.DeleteEntry(ctx, day(10)), generic.ErrNotFound)
}

func testSessions(t *testing.T, store attendance.Store) {
	ctx := context.Background()
	d := day(5)

	pm := at(d, 17)
	require.NoError(t, store.InsertSession(ctx, attendance.PresenceSession{ID: "pm", EntryTime: at(d, 13), ExitTime: &pm, Confidence: 0.8}))
	am := at(d, 12)
	require.NoError(t, store.InsertSession(ctx, attendance.PresenceSession{ID: "am", EntryTime: at(d, 8), ExitTime: &am, Confidence: 0.95}))
	next := at(d.AddDays(1), 10)
	require.NoError(t, store.InsertSession(ctx, attendance.PresenceSession{ID: "next", EntryTime: at(d.AddDays(1), 9), ExitTime: &next}))

	sessions, err := store.ListSessionsForDate(ctx, d)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "am", sessions[0].ID, "ordered by entry time")
	assert.True(t, sessions[0].EntryTime.Equal(at(d, 8)))
	require.NotNil(t, sessions[0].ExitTime)
	assert.True(t, sessions[0].ExitTime.Equal(am))
	assert.InDelta(t, 0.95, sessions[0].Confidence, 1e-9)

	all, err := store.ListSessions(ctx, d, d.AddDays(1))
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, store.DeleteSession(ctx, "next"))
	assert.ErrorIs(t, store.DeleteSession(ctx, "next"), generic.ErrNotFound)
}

func testSessionsChronological(t *testing.T, store attendance.Store) {
	ctx := context.Background()
	plusTwo := time.FixedZone("UTC+2", 2*60*60)

	// GIVEN: Sessions on one local day recorded with different offsets
	// and sub-second fractions
	starts := []struct {
		id    string
		entry time.Time
	}{
		{"whole-second", time.Date(2025, time.March, 7, 10, 0, 0, 0, time.UTC)},
		{"utc-0830", time.Date(2025, time.March, 7, 8, 30, 0, 0, time.UTC)},
		{"half-second", time.Date(2025, time.March, 7, 10, 0, 0, 500_000_000, time.UTC)},
		{"plus-two-0900", time.Date(2025, time.March, 7, 9, 0, 0, 0, plusTwo)}, // 07:00 UTC
	}
	for _, s := range starts {
		exit := s.entry.Add(10 * time.Minute)
		require.NoError(t, store.InsertSession(ctx, attendance.PresenceSession{ID: s.id, EntryTime: s.entry, ExitTime: &exit}))
	}

	// WHEN: Listing the day
	sessions, err := store.ListSessions(ctx, day(7), day(7))
	require.NoError(t, err)

	// THEN: They come back in instant order, not text order
	ids := make([]string, len(sessions))
	for i, s := range sessions {
		ids[i] = s.ID
	}
	assert.Equal(t, []string{"plus-two-0900", "utc-0830", "whole-second", "half-second"}, ids)
}

func testOneOpenSession(t *testing.T, store attendance.Store) {
	ctx := context.Background()
	d := day(6)

	// GIVEN: One open session
	open, err := store.OpenSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, open)

	require.NoError(t, store.InsertSession(ctx, attendance.PresenceSession{ID: "first", EntryTime: at(d, 8)}))

	open, err = store.OpenSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, "first", open.ID)

	err = store.InsertSession(ctx, attendance.PresenceSession{ID: "overlap", EntryTime: at(d, 9)})
	assert.ErrorIs(t, err, generic.ErrConflict)

	// WHEN: Closing it
	exit := at(d, 12)
	open.ExitTime = &exit
	require.NoError(t, store.UpdateSession(ctx, *open))

	// THEN: No session is open and a new one may start
	open, err = store.OpenSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, open)
	require.NoError(t, store.InsertSession(ctx, attendance.PresenceSession{ID: "second", EntryTime: at(d, 13)}))

	err = store.UpdateSession(ctx, attendance.PresenceSession{ID: "ghost", EntryTime: at(d, 9)})
	assert.ErrorIs(t, err, generic.ErrNotFound)
}
