package attendance_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/warp/office-quota/attendance"
	"github.com/warp/office-quota/store/memory"
)

func newTestSynthesizer(t *testing.T) (*attendance.Synthesizer, *memory.Memory) {
	t.Helper()
	store := memory.NewMemory()
	synth := attendance.NewSynthesizer(store, store, defaultAggregator(), zaptest.NewLogger(t))
	synth.Now = func() time.Time { return at(feb(10), 20, 0) }
	return synth, store
}

func TestSynthesize_FromClosedSessions(t *testing.T) {
	// GIVEN: Two closed sessions and one open session on Feb 10
	synth, store := newTestSynthesizer(t)
	ctx := context.Background()
	day := feb(10)

	require.NoError(t, store.InsertSession(ctx, closedSession("am", at(day, 8, 0), at(day, 12, 0))))
	require.NoError(t, store.InsertSession(ctx, closedSession("pm", at(day, 13, 0), at(day, 17, 0))))
	require.NoError(t, store.InsertSession(ctx, attendance.PresenceSession{ID: "open", EntryTime: at(day, 18, 0)}))

	// WHEN: Synthesizing the day
	entry, err := synth.Synthesize(ctx, day)
	require.NoError(t, err)

	// THEN: An office day with 8 hours is stored
	assert.True(t, entry.WasInOffice)
	assertHours(t, "8", entry.HoursWorked)
	assert.Equal(t, "Auto-tracked from 2 sessions", entry.Notes)
	assert.NotEmpty(t, entry.ID)

	stored, err := store.GetEntry(ctx, day)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, entry.ID, stored.ID)
}

func TestSynthesize_CappedNote(t *testing.T) {
	synth, store := newTestSynthesizer(t)
	ctx := context.Background()
	day := feb(10)
	require.NoError(t, store.InsertSession(ctx, closedSession("long", at(day, 7, 0), at(day, 19, 0))))

	entry, err := synth.Synthesize(ctx, day)
	require.NoError(t, err)

	assertHours(t, "10", entry.HoursWorked)
	assert.Equal(t, "Auto-tracked from 1 session (raw 12.00h, counted 10.00h)", entry.Notes)
}

func TestSynthesize_KeepsExistingEntryID(t *testing.T) {
	// GIVEN: A manual entry already recorded for the day
	synth, store := newTestSynthesizer(t)
	ctx := context.Background()
	day := feb(10)

	manual, err := store.UpsertEntry(ctx, attendance.DailyEntry{ID: "manual-1", Date: day, HoursWorked: hours(2)})
	require.NoError(t, err)
	require.NoError(t, store.InsertSession(ctx, closedSession("s", at(day, 9, 0), at(day, 15, 0))))

	// WHEN: Synthesizing twice
	first, err := synth.Synthesize(ctx, day)
	require.NoError(t, err)
	second, err := synth.Synthesize(ctx, day)
	require.NoError(t, err)

	// THEN: The row identity never changes and the result is stable
	assert.Equal(t, manual.ID, first.ID)
	assert.Equal(t, manual.ID, second.ID)
	assertHours(t, "6", second.HoursWorked)

	entries, err := store.ListEntries(ctx, day, day)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSynthesize_NoClosedSessions(t *testing.T) {
	// GIVEN: Only an open session
	synth, store := newTestSynthesizer(t)
	ctx := context.Background()
	day := feb(10)
	require.NoError(t, store.InsertSession(ctx, attendance.PresenceSession{ID: "open", EntryTime: at(day, 9, 0)}))

	// WHEN: Synthesizing
	entry, err := synth.Synthesize(ctx, day)
	require.NoError(t, err)

	// THEN: The day is recorded as not in office
	assert.False(t, entry.WasInOffice)
	assertHours(t, "0", entry.HoursWorked)
	assert.Empty(t, entry.Notes)
}
