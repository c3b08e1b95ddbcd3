/*
handlers.go - HTTP API handlers for the office quota tracker

PURPOSE:
  Exposes the attendance engine via REST API. This is the orchestration
  layer: it loads snapshots from the store, runs the planner, accepts
  sensor events and triggers daily-entry synthesis.

ENDPOINTS:
  Policy:
    GET    /api/policy                      Current policy (412 if none)
    PUT    /api/policy                      Replace policy

  Holidays:
    GET    /api/holidays?from=&to=          List marks (default: this month)
    POST   /api/holidays                    Create mark
    DELETE /api/holidays/{id}               Delete mark

  Entries:
    GET    /api/entries?from=&to=           List entries (default: this month)
    GET    /api/entries/{date}              Get one entry
    PUT    /api/entries/{date}              Upsert entry
    DELETE /api/entries/{date}              Delete entry

  Presence (sensor integration):
    POST   /api/presence/arrival            Open a session
    POST   /api/presence/departure          Close the open session, synthesize
    GET    /api/presence/sessions?date=     Sessions of a day

  Month views:
    GET    /api/months/{month}/requirements
    GET    /api/months/{month}/progress
    GET    /api/months/{month}/suggestions

  Maintenance:
    POST   /api/synthesize/{date}           Rebuild a day's entry from sessions

ERROR HANDLING:
  - 400: Validation errors, malformed dates or bodies
  - 404: Row not found
  - 409: Conflict (a session is already open)
  - 412: No policy configured yet
  - 500: Store failures

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/office-quota/attendance"
	"github.com/warp/office-quota/factory"
	"github.com/warp/office-quota/generic"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store         attendance.Store
	Planner       *attendance.Planner
	Synthesizer   *attendance.Synthesizer
	PolicyFactory *factory.PolicyFactory
	Logger        *zap.Logger

	Now      func() time.Time
	Location *time.Location
}

// NewHandler creates a new handler with the given store and aggregator.
func NewHandler(store attendance.Store, agg *attendance.Aggregator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if agg == nil {
		agg = attendance.NewAggregator(attendance.DefaultWorkWindow(),
			generic.NewAmountFromInt(attendance.DefaultMaxDailyHours, generic.UnitHours))
	}
	return &Handler{
		Store:         store,
		Planner:       attendance.NewPlanner(store),
		Synthesizer:   attendance.NewSynthesizer(store, store, agg, logger.Named("synthesizer")),
		PolicyFactory: factory.NewPolicyFactory(),
		Logger:        logger,
		Now:           time.Now,
		Location:      time.Local,
	}
}

// SetClock points every time-dependent component at now and loc.
func (h *Handler) SetClock(now func() time.Time, loc *time.Location) {
	h.Now = now
	h.Location = loc
	h.Planner.Now = now
	h.Planner.Location = loc
	h.Synthesizer.Now = now
	h.Synthesizer.Aggregator.Now = now
}

func (h *Handler) today() generic.Date {
	return generic.Today(h.Now, h.Location)
}

// =============================================================================
// POLICY HANDLERS
// =============================================================================

// GetPolicy returns the current policy.
func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	policy, err := h.Store.GetPolicy(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if policy == nil {
		h.writeDomainError(w, attendance.ErrConfigurationMissing)
		return
	}
	writeJSON(w, http.StatusOK, h.toPolicyDTO(*policy))
}

// PutPolicy validates and replaces the policy.
func (h *Handler) PutPolicy(w http.ResponseWriter, r *http.Request) {
	var req factory.PolicyJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	policy, err := h.PolicyFactory.FromJSON(req)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	policy.UpdatedAt = h.Now()

	if err := h.Store.SavePolicy(r.Context(), *policy); err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.Logger.Info("policy saved",
		zap.Int("days_per_week", policy.RequiredDaysPerWeek),
		zap.String("hours_per_week", policy.RequiredHoursPerWeek.Value.String()),
	)
	writeJSON(w, http.StatusOK, h.toPolicyDTO(*policy))
}

func (h *Handler) toPolicyDTO(p attendance.OfficePolicy) PolicyDTO {
	dto := PolicyDTO{PolicyJSON: h.PolicyFactory.ToJSON(p)}
	if !p.UpdatedAt.IsZero() {
		dto.UpdatedAt = p.UpdatedAt.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================

// ListHolidays returns marks in ?from=&to=, defaulting to the current month.
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	period, err := h.rangeParams(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	holidays, err := h.Store.ListHolidays(r.Context(), period.Start, period.End)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	result := make([]HolidayDTO, len(holidays))
	for i, hol := range holidays {
		result[i] = toHolidayDTO(hol)
	}
	writeJSON(w, http.StatusOK, result)
}

// CreateHoliday adds a holiday or vacation mark.
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req CreateHolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	date, err := generic.ParseDate(req.Date)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	kind := attendance.HolidayKind(req.Kind)
	if kind == "" {
		kind = attendance.KindPublicHoliday
	}
	mark := attendance.HolidayMark{
		ID:          uuid.NewString(),
		Date:        date,
		Description: req.Description,
		Kind:        kind,
	}
	if err := attendance.ValidateHoliday(mark); err != nil {
		h.writeDomainError(w, err)
		return
	}

	if err := h.Store.SaveHoliday(r.Context(), mark); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toHolidayDTO(mark))
}

// DeleteHoliday removes a mark by ID.
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteHoliday(r.Context(), id); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// ENTRY HANDLERS
// =============================================================================

// ListEntries returns entries in ?from=&to=, defaulting to the current month.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	period, err := h.rangeParams(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	entries, err := h.Store.ListEntries(r.Context(), period.Start, period.End)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	result := make([]EntryDTO, len(entries))
	for i, e := range entries {
		result[i] = toEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, result)
}

// GetEntry returns the entry for {date}.
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	date, err := generic.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	entry, err := h.Store.GetEntry(r.Context(), date)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if entry == nil {
		h.writeDomainError(w, fmt.Errorf("entry %s: %w", date, generic.ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(*entry))
}

// PutEntry records a manual entry for {date}.
func (h *Handler) PutEntry(w http.ResponseWriter, r *http.Request) {
	date, err := generic.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	var req UpsertEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	entry := attendance.DailyEntry{
		ID:          uuid.NewString(),
		Date:        date,
		WasInOffice: req.WasInOffice,
		HoursWorked: generic.Amount{Value: decimal.NewFromFloat(req.HoursWorked), Unit: generic.UnitHours},
		Notes:       req.Notes,
		UpdatedAt:   h.Now(),
	}
	if err := attendance.ValidateEntry(entry); err != nil {
		h.writeDomainError(w, err)
		return
	}

	saved, err := h.Store.UpsertEntry(r.Context(), entry)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(saved))
}

// DeleteEntry removes the entry for {date}.
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	date, err := generic.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if err := h.Store.DeleteEntry(r.Context(), date); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PRESENCE HANDLERS
// =============================================================================

// Arrival opens a presence session. Only one session may be open.
func (h *Handler) Arrival(w http.ResponseWriter, r *http.Request) {
	at, confidence, err := h.decodePresenceEvent(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	ctx := r.Context()
	open, err := h.Store.OpenSession(ctx)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if open != nil {
		h.writeDomainError(w, fmt.Errorf("session %s is still open: %w", open.ID, generic.ErrConflict))
		return
	}

	session := attendance.PresenceSession{
		ID:         uuid.NewString(),
		EntryTime:  at,
		Confidence: confidence,
	}
	if err := attendance.ValidateSession(session); err != nil {
		h.writeDomainError(w, err)
		return
	}
	if err := h.Store.InsertSession(ctx, session); err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.Logger.Info("arrival recorded", zap.String("session_id", session.ID), zap.Time("at", at))
	writeJSON(w, http.StatusCreated, PresenceEventResponse{Session: toSessionDTO(session, h.Synthesizer.Aggregator)})
}

// Departure closes the open session and synthesizes that day's entry.
func (h *Handler) Departure(w http.ResponseWriter, r *http.Request) {
	at, _, err := h.decodePresenceEvent(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	ctx := r.Context()
	session, err := h.Store.OpenSession(ctx)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if session == nil {
		h.writeDomainError(w, fmt.Errorf("open session: %w", generic.ErrNotFound))
		return
	}

	session.ExitTime = &at
	if err := attendance.ValidateSession(*session); err != nil {
		h.writeDomainError(w, err)
		return
	}
	if err := h.Store.UpdateSession(ctx, *session); err != nil {
		h.writeDomainError(w, err)
		return
	}

	entry, err := h.Synthesizer.Synthesize(ctx, session.Date())
	if err != nil {
		h.Logger.Error("synthesis after departure failed",
			zap.String("session_id", session.ID), zap.Error(err))
		h.writeDomainError(w, err)
		return
	}

	h.Logger.Info("departure recorded",
		zap.String("session_id", session.ID),
		zap.Time("at", at),
		zap.String("day_hours", entry.HoursWorked.Value.StringFixed(2)),
	)
	dto := toEntryDTO(entry)
	writeJSON(w, http.StatusOK, PresenceEventResponse{Session: toSessionDTO(*session, h.Synthesizer.Aggregator), Entry: &dto})
}

// ListSessions returns the sessions of ?date= (default today).
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	date := h.today()
	if s := r.URL.Query().Get("date"); s != "" {
		var err error
		if date, err = generic.ParseDate(s); err != nil {
			h.writeDomainError(w, err)
			return
		}
	}

	sessions, err := h.Store.ListSessionsForDate(r.Context(), date)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	result := make([]SessionDTO, len(sessions))
	for i, s := range sessions {
		result[i] = toSessionDTO(s, h.Synthesizer.Aggregator)
	}
	writeJSON(w, http.StatusOK, result)
}

// Synthesize rebuilds the entry for {date} from its sessions.
func (h *Handler) Synthesize(w http.ResponseWriter, r *http.Request) {
	date, err := generic.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	entry, err := h.Synthesizer.Synthesize(r.Context(), date)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(entry))
}

func (h *Handler) decodePresenceEvent(r *http.Request) (time.Time, float64, error) {
	var req PresenceEventRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return time.Time{}, 0, &attendance.ValidationError{Field: "body", Message: err.Error()}
		}
	}

	at := h.Now().In(h.Location)
	if req.At != "" {
		parsed, err := time.Parse(time.RFC3339, req.At)
		if err != nil {
			return time.Time{}, 0, &attendance.ValidationError{Field: "at", Message: "must be RFC3339"}
		}
		at = parsed.In(h.Location)
	}
	return at, req.Confidence, nil
}

// =============================================================================
// MONTH HANDLERS
// =============================================================================

// GetRequirements returns the required days/hours for {month}.
func (h *Handler) GetRequirements(w http.ResponseWriter, r *http.Request) {
	month, err := generic.ParseMonth(chi.URLParam(r, "month"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	req, err := h.Planner.Requirements(r.Context(), month)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequirementsDTO(req))
}

// GetProgress returns completed/remaining metrics for {month}.
func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	month, err := generic.ParseMonth(chi.URLParam(r, "month"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	progress, err := h.Planner.Progress(r.Context(), month)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProgressDTO(progress))
}

// GetSuggestions returns the recommended office days for {month}.
func (h *Handler) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	month, err := generic.ParseMonth(chi.URLParam(r, "month"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	plan, err := h.Planner.Suggestions(r.Context(), month)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if plan.Shortfall > 0 {
		h.Logger.Warn("not enough open days to meet quota",
			zap.String("month", month.Label()),
			zap.Int("target_days", plan.TargetDays),
			zap.Int("shortfall", plan.Shortfall),
		)
	}
	writeJSON(w, http.StatusOK, toSuggestionPlanDTO(plan))
}

// =============================================================================
// HELPERS
// =============================================================================

// rangeParams reads ?from=&to=, defaulting to the current month.
func (h *Handler) rangeParams(r *http.Request) (generic.Period, error) {
	today := h.today()
	period := generic.MonthPeriod(today.Year, today.Month)

	q := r.URL.Query()
	if s := q.Get("from"); s != "" {
		d, err := generic.ParseDate(s)
		if err != nil {
			return generic.Period{}, err
		}
		period.Start = d
	}
	if s := q.Get("to"); s != "" {
		d, err := generic.ParseDate(s)
		if err != nil {
			return generic.Period{}, err
		}
		period.End = d
	}
	return generic.NewPeriod(period.Start, period.End)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps engine and store errors to HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	var verr *attendance.ValidationError
	switch {
	case errors.Is(err, attendance.ErrConfigurationMissing):
		writeJSON(w, http.StatusPreconditionFailed, ErrorResponse{
			Error: "office policy not configured", Code: "configuration_missing",
		})
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: verr.Error(), Code: "validation_error", Details: verr.Field,
		})
	case generic.IsClientError(err):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "invalid_input"})
	case generic.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "not_found"})
	case errors.Is(err, generic.ErrConflict):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "conflict"})
	default:
		h.Logger.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: "internal error", Code: "store_failure", Details: err.Error(),
		})
	}
}
