/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the
  attendance types (decimal hours, civil dates) from the wire format
  (float hours, "YYYY-MM-DD" strings).

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers via attendance.Validate*, not in DTOs.
  DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/policy.go: PolicyJSON type
*/
package api

import (
	"time"

	"github.com/warp/office-quota/attendance"
	"github.com/warp/office-quota/factory"
)

// =============================================================================
// POLICY
// =============================================================================

// PolicyDTO represents the office policy in API responses.
type PolicyDTO struct {
	factory.PolicyJSON
	UpdatedAt string `json:"updated_at,omitempty"`
}

// =============================================================================
// HOLIDAYS
// =============================================================================

type HolidayDTO struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
}

type CreateHolidayRequest struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
}

func toHolidayDTO(h attendance.HolidayMark) HolidayDTO {
	return HolidayDTO{
		ID:          h.ID,
		Date:        h.Date.String(),
		Description: h.Description,
		Kind:        string(h.Kind),
	}
}

// =============================================================================
// ENTRIES
// =============================================================================

type EntryDTO struct {
	ID          string  `json:"id"`
	Date        string  `json:"date"`
	WasInOffice bool    `json:"was_in_office"`
	HoursWorked float64 `json:"hours_worked"`
	Notes       string  `json:"notes,omitempty"`
	UpdatedAt   string  `json:"updated_at,omitempty"`
}

type UpsertEntryRequest struct {
	WasInOffice bool    `json:"was_in_office"`
	HoursWorked float64 `json:"hours_worked"`
	Notes       string  `json:"notes"`
}

func toEntryDTO(e attendance.DailyEntry) EntryDTO {
	dto := EntryDTO{
		ID:          e.ID,
		Date:        e.Date.String(),
		WasInOffice: e.WasInOffice,
		HoursWorked: e.HoursWorked.Float64(),
		Notes:       e.Notes,
	}
	if !e.UpdatedAt.IsZero() {
		dto.UpdatedAt = e.UpdatedAt.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// PRESENCE
// =============================================================================

type SessionDTO struct {
	ID         string  `json:"id"`
	EntryTime  string  `json:"entry_time"`
	ExitTime   *string `json:"exit_time,omitempty"`
	Confidence float64 `json:"confidence"`
	Open       bool    `json:"open"`
	Hours      float64 `json:"hours"` // in-window hours, up to now for an open session
}

// PresenceEventRequest is sent by the sensor integration on arrival and
// departure. At defaults to the server's current time.
type PresenceEventRequest struct {
	At         string  `json:"at,omitempty"`
	Confidence float64 `json:"confidence"`
}

type PresenceEventResponse struct {
	Session SessionDTO `json:"session"`
	Entry   *EntryDTO  `json:"entry,omitempty"`
}

func toSessionDTO(s attendance.PresenceSession, agg *attendance.Aggregator) SessionDTO {
	dto := SessionDTO{
		ID:         s.ID,
		EntryTime:  s.EntryTime.Format(time.RFC3339),
		Confidence: s.Confidence,
		Open:       s.IsOpen(),
	}
	if s.ExitTime != nil {
		exit := s.ExitTime.Format(time.RFC3339)
		dto.ExitTime = &exit
		dto.Hours = agg.SessionHours(s.EntryTime, *s.ExitTime).Float64()
	} else {
		dto.Hours = agg.OpenSessionHours(s.EntryTime).Float64()
	}
	return dto
}

// =============================================================================
// MONTH VIEWS
// =============================================================================

type RequirementsDTO struct {
	Month                string  `json:"month"`
	RequiredDays         int     `json:"required_days"`
	RequiredHours        float64 `json:"required_hours"`
	TotalWeekdaysInMonth int     `json:"total_weekdays_in_month"`
	HolidaysCount        int     `json:"holidays_count"`
}

type ProgressDTO struct {
	Month                string  `json:"month"`
	RequiredDays         int     `json:"required_days"`
	CompletedDays        int     `json:"completed_days"`
	RemainingDays        int     `json:"remaining_days"`
	RequiredHours        float64 `json:"required_hours"`
	CompletedHours       float64 `json:"completed_hours"`
	RemainingHours       float64 `json:"remaining_hours"`
	DaysPercentComplete  float64 `json:"days_percent_complete"`
	HoursPercentComplete float64 `json:"hours_percent_complete"`
	IsComplete           bool    `json:"is_complete"`
}

type SuggestedDayDTO struct {
	Date      string `json:"date"`
	DayOfWeek string `json:"day_of_week"`
	Reason    string `json:"reason"`
	Priority  int    `json:"priority"`
}

type SuggestionPlanDTO struct {
	Month      string            `json:"month"`
	TargetDays int               `json:"target_days"`
	Shortfall  int               `json:"shortfall"`
	Days       []SuggestedDayDTO `json:"days"`
}

func toRequirementsDTO(r attendance.MonthlyRequirements) RequirementsDTO {
	return RequirementsDTO{
		Month:                r.Month.Label(),
		RequiredDays:         r.RequiredDays,
		RequiredHours:        r.RequiredHours.Float64(),
		TotalWeekdaysInMonth: r.TotalWeekdaysInMonth,
		HolidaysCount:        r.HolidaysCount,
	}
}

func toProgressDTO(p attendance.MonthProgress) ProgressDTO {
	return ProgressDTO{
		Month:                p.Month.Label(),
		RequiredDays:         p.RequiredDays,
		CompletedDays:        p.CompletedDays,
		RemainingDays:        p.RemainingDays(),
		RequiredHours:        p.RequiredHours.Float64(),
		CompletedHours:       p.CompletedHours.Float64(),
		RemainingHours:       p.RemainingHours().Float64(),
		DaysPercentComplete:  p.DaysPercentComplete().Round(1).InexactFloat64(),
		HoursPercentComplete: p.HoursPercentComplete().Round(1).InexactFloat64(),
		IsComplete:           p.IsComplete(),
	}
}

func toSuggestionPlanDTO(p attendance.SuggestionPlan) SuggestionPlanDTO {
	days := make([]SuggestedDayDTO, len(p.Days))
	for i, d := range p.Days {
		days[i] = SuggestedDayDTO{
			Date:      d.Date.String(),
			DayOfWeek: factory.WeekdayName(d.DayOfWeek),
			Reason:    d.Reason,
			Priority:  d.Priority,
		}
	}
	return SuggestionPlanDTO{
		Month:      p.Month.Label(),
		TargetDays: p.TargetDays,
		Shortfall:  p.Shortfall,
		Days:       days,
	}
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}
