/*
handlers_test.go - HTTP tests for the API handlers

Tests for:
- Policy setup and the configuration_missing precondition
- Holiday and entry CRUD with validation
- Presence webhooks (arrival, departure, synthesis)
- Month views (requirements, progress, suggestions)
*/
package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/warp/office-quota/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// Monday Feb 17 2025, noon UTC.
var testNow = time.Date(2025, time.February, 17, 12, 0, 0, 0, time.UTC)

type testServer struct {
	t       *testing.T
	handler *Handler
	router  http.Handler
	store   *memory.Memory
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.NewMemory()
	h := NewHandler(store, nil, zaptest.NewLogger(t))
	h.SetClock(func() time.Time { return testNow }, time.UTC)
	return &testServer{t: t, handler: h, router: NewRouter(h), store: store}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	s.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

const threeDayPolicy = `{
	"required_days_per_week": 3,
	"required_hours_per_week": 24,
	"weekday_preferences": ["tuesday", "wednesday", "thursday", "monday", "friday"]
}`

func (s *testServer) configure() {
	s.t.Helper()
	rec := s.do(http.MethodPut, "/api/policy", threeDayPolicy)
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
}

// =============================================================================
// POLICY
// =============================================================================

func TestPolicy_MissingIsPreconditionFailed(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{
		"/api/policy",
		"/api/months/2025-02/requirements",
		"/api/months/2025-02/progress",
		"/api/months/2025-02/suggestions",
	} {
		rec := s.do(http.MethodGet, path, "")
		assert.Equal(t, http.StatusPreconditionFailed, rec.Code, path)
		assert.Equal(t, "configuration_missing", decode[ErrorResponse](t, rec).Code, path)
	}
}

func TestPolicy_PutAndGet(t *testing.T) {
	s := newTestServer(t)
	s.configure()

	rec := s.do(http.MethodGet, "/api/policy", "")
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[PolicyDTO](t, rec)
	assert.Equal(t, 3, got.RequiredDaysPerWeek)
	assert.Equal(t, 24.0, got.RequiredHoursPerWeek)
	assert.Equal(t, []string{"tuesday", "wednesday", "thursday", "monday", "friday"}, got.WeekdayPreferences)
	assert.Equal(t, "2025-02-17T12:00:00Z", got.UpdatedAt)
}

func TestPolicy_PutInvalid(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPut, "/api/policy", `{"required_days_per_week": 7, "required_hours_per_week": 24}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "validation_error", resp.Code)
	assert.Equal(t, "required_days_per_week", resp.Details)

	rec = s.do(http.MethodPut, "/api/policy", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Nothing was saved
	assert.Equal(t, http.StatusPreconditionFailed, s.do(http.MethodGet, "/api/policy", "").Code)
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func TestHolidays_CreateListDelete(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/holidays", `{"date": "2025-02-18", "description": "Team offsite"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[HolidayDTO](t, rec)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "public_holiday", created.Kind)

	rec = s.do(http.MethodPost, "/api/holidays", `{"date": "2025-03-03", "kind": "vacation"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Default range is the current month
	rec = s.do(http.MethodGet, "/api/holidays", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]HolidayDTO](t, rec), 1)

	rec = s.do(http.MethodGet, "/api/holidays?from=2025-01-01&to=2025-12-31", "")
	assert.Len(t, decode[[]HolidayDTO](t, rec), 2)

	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/api/holidays/"+created.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, "/api/holidays/"+created.ID, "").Code)
}

func TestHolidays_Invalid(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/holidays", `{"date": "2025-02-18", "kind": "sick"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", decode[ErrorResponse](t, rec).Code)

	rec = s.do(http.MethodPost, "/api/holidays", `{"date": "18.02.2025"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_input", decode[ErrorResponse](t, rec).Code)

	rec = s.do(http.MethodGet, "/api/holidays?from=2025-03-01&to=2025-02-01", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// ENTRIES
// =============================================================================

func TestEntries_UpsertGetDelete(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPut, "/api/entries/2025-02-03", `{"was_in_office": true, "hours_worked": 7.5, "notes": "manual"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := decode[EntryDTO](t, rec)
	assert.Equal(t, "2025-02-03", first.Date)
	assert.Equal(t, 7.5, first.HoursWorked)

	// Upsert keeps the row ID
	rec = s.do(http.MethodPut, "/api/entries/2025-02-03", `{"was_in_office": true, "hours_worked": 8}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, first.ID, decode[EntryDTO](t, rec).ID)

	rec = s.do(http.MethodGet, "/api/entries/2025-02-03", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 8.0, decode[EntryDTO](t, rec).HoursWorked)

	rec = s.do(http.MethodGet, "/api/entries?from=2025-02-01&to=2025-02-28", "")
	assert.Len(t, decode[[]EntryDTO](t, rec), 1)

	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/api/entries/2025-02-03", "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/entries/2025-02-03", "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, "/api/entries/2025-02-03", "").Code)
}

func TestEntries_Invalid(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPut, "/api/entries/2025-02-03", `{"was_in_office": true, "hours_worked": 25}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "hours_worked", decode[ErrorResponse](t, rec).Details)

	rec = s.do(http.MethodPut, "/api/entries/2025-02-03", `{"was_in_office": true, "hours_worked": -1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/entries/yesterday", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// PRESENCE
// =============================================================================

func TestPresence_ArrivalDepartureSynthesizes(t *testing.T) {
	s := newTestServer(t)

	// GIVEN: An arrival at 09:00
	rec := s.do(http.MethodPost, "/api/presence/arrival", `{"at": "2025-02-17T09:00:00Z", "confidence": 0.9}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	arrival := decode[PresenceEventResponse](t, rec)
	assert.True(t, arrival.Session.Open)
	assert.Equal(t, 3.0, arrival.Session.Hours, "open session counts up to now")

	// AND: A second arrival is rejected while the first is open
	rec = s.do(http.MethodPost, "/api/presence/arrival", `{"at": "2025-02-17T10:00:00Z"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// WHEN: Departing at 17:30
	rec = s.do(http.MethodPost, "/api/presence/departure", `{"at": "2025-02-17T17:30:00Z"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	departure := decode[PresenceEventResponse](t, rec)

	// THEN: The session is closed and the day's entry is written
	assert.False(t, departure.Session.Open)
	assert.Equal(t, 8.5, departure.Session.Hours)
	require.NotNil(t, departure.Entry)
	assert.True(t, departure.Entry.WasInOffice)
	assert.Equal(t, 8.5, departure.Entry.HoursWorked)
	assert.Equal(t, "Auto-tracked from 1 session", departure.Entry.Notes)

	rec = s.do(http.MethodGet, "/api/presence/sessions?date=2025-02-17", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]SessionDTO](t, rec), 1)
}

func TestPresence_DepartureWithoutArrival(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/presence/departure", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPresence_DepartureBeforeArrival(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated,
		s.do(http.MethodPost, "/api/presence/arrival", `{"at": "2025-02-17T09:00:00Z"}`).Code)

	rec := s.do(http.MethodPost, "/api/presence/departure", `{"at": "2025-02-17T08:00:00Z"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "exit_time", decode[ErrorResponse](t, rec).Details)
}

func TestPresence_DefaultsToNow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/presence/arrival", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "2025-02-17T12:00:00Z", decode[PresenceEventResponse](t, rec).Session.EntryTime)
}

func TestSynthesize_Endpoint(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/synthesize/2025-02-14", "")
	require.Equal(t, http.StatusOK, rec.Code)
	entry := decode[EntryDTO](t, rec)
	assert.False(t, entry.WasInOffice)
	assert.Equal(t, 0.0, entry.HoursWorked)
}

// =============================================================================
// MONTH VIEWS
// =============================================================================

func TestMonth_Views(t *testing.T) {
	// GIVEN: A 3-day policy, a holiday on Feb 18 and one office day
	s := newTestServer(t)
	s.configure()
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/holidays", `{"date": "2025-02-18"}`).Code)
	require.Equal(t, http.StatusOK,
		s.do(http.MethodPut, "/api/entries/2025-02-04", `{"was_in_office": true, "hours_worked": 8}`).Code)

	// WHEN/THEN: Requirements
	rec := s.do(http.MethodGet, "/api/months/2025-02/requirements", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	req := decode[RequirementsDTO](t, rec)
	assert.Equal(t, "2025-02", req.Month)
	assert.Equal(t, 19, req.TotalWeekdaysInMonth)
	assert.Equal(t, 1, req.HolidaysCount)
	assert.Equal(t, 12, req.RequiredDays)
	assert.Equal(t, 96.0, req.RequiredHours)

	// Progress
	rec = s.do(http.MethodGet, "/api/months/2025-02/progress", "")
	require.Equal(t, http.StatusOK, rec.Code)
	prog := decode[ProgressDTO](t, rec)
	assert.Equal(t, 1, prog.CompletedDays)
	assert.Equal(t, 11, prog.RemainingDays)
	assert.Equal(t, 88.0, prog.RemainingHours)
	assert.Equal(t, 8.3, prog.DaysPercentComplete)
	assert.False(t, prog.IsComplete)

	// Suggestions: 11 days wanted, only 9 open weekdays left from Feb 17
	rec = s.do(http.MethodGet, "/api/months/2025-02/suggestions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	plan := decode[SuggestionPlanDTO](t, rec)
	assert.Equal(t, 11, plan.TargetDays)
	assert.Equal(t, 2, plan.Shortfall)
	require.Len(t, plan.Days, 9)
	assert.Equal(t, "2025-02-17", plan.Days[0].Date)
	assert.Equal(t, "monday", plan.Days[0].DayOfWeek)
	for _, d := range plan.Days {
		assert.NotEqual(t, "2025-02-18", d.Date)
	}
}

func TestMonth_InvalidMonth(t *testing.T) {
	s := newTestServer(t)
	s.configure()

	rec := s.do(http.MethodGet, "/api/months/2025-13/requirements", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
