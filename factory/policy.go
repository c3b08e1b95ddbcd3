/*
Package factory converts office policies to and from JSON.

PURPOSE:
  The policy travels as JSON in two places: the HTTP API and the
  policies table in SQLite. Both go through this package so weekday names,
  decimal hours and validation are handled once.

JSON SCHEMA:
  {
    "required_days_per_week": 3,
    "required_hours_per_week": 24,
    "weekday_preferences": ["tuesday", "wednesday", "thursday", "monday", "friday"]
  }

  Weekday names are case-insensitive and accept three-letter forms ("tue").

KEY FEATURES:
  - Validates with attendance.ValidatePolicy (never clamps)
  - Defaults weekday_preferences to Monday..Friday when omitted
  - Round-trips: ParsePolicy(MarshalPolicy(p)) == p

USAGE:
  f := factory.NewPolicyFactory()
  policy, err := f.ParsePolicy(jsonString)
  if errors.Is(err, attendance.ErrValidation) {
      // reject the request
  }

SEE ALSO:
  - attendance/validate.go: Range rules
  - store/sqlite/sqlite.go: Stores the marshaled form
*/
package factory

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/office-quota/attendance"
	"github.com/warp/office-quota/generic"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// PolicyJSON is the JSON representation of an office policy.
type PolicyJSON struct {
	RequiredDaysPerWeek  int      `json:"required_days_per_week"`
	RequiredHoursPerWeek float64  `json:"required_hours_per_week"`
	WeekdayPreferences   []string `json:"weekday_preferences,omitempty"`
}

// =============================================================================
// POLICY FACTORY
// =============================================================================

// PolicyFactory converts JSON policies to Go structs.
type PolicyFactory struct{}

// NewPolicyFactory creates a new policy factory.
func NewPolicyFactory() *PolicyFactory {
	return &PolicyFactory{}
}

// ParsePolicy parses and validates a JSON policy.
func (f *PolicyFactory) ParsePolicy(jsonStr string) (*attendance.OfficePolicy, error) {
	var pj PolicyJSON
	if err := json.Unmarshal([]byte(jsonStr), &pj); err != nil {
		return nil, fmt.Errorf("failed to parse policy JSON: %w", err)
	}
	return f.FromJSON(pj)
}

// FromJSON converts and validates a PolicyJSON.
func (f *PolicyFactory) FromJSON(pj PolicyJSON) (*attendance.OfficePolicy, error) {
	prefs := attendance.DefaultWeekdayPreferences()
	if len(pj.WeekdayPreferences) > 0 {
		prefs = make([]time.Weekday, 0, len(pj.WeekdayPreferences))
		for _, name := range pj.WeekdayPreferences {
			wd, err := ParseWeekday(name)
			if err != nil {
				return nil, &attendance.ValidationError{Field: "weekday_preferences", Message: err.Error()}
			}
			prefs = append(prefs, wd)
		}
	}

	policy := &attendance.OfficePolicy{
		RequiredDaysPerWeek:  pj.RequiredDaysPerWeek,
		RequiredHoursPerWeek: generic.Amount{Value: decimal.NewFromFloat(pj.RequiredHoursPerWeek), Unit: generic.UnitHours},
		WeekdayPreferences:   prefs,
	}
	if err := attendance.ValidatePolicy(*policy); err != nil {
		return nil, err
	}
	return policy, nil
}

// ToJSON converts a policy to its JSON form.
func (f *PolicyFactory) ToJSON(p attendance.OfficePolicy) PolicyJSON {
	names := make([]string, len(p.WeekdayPreferences))
	for i, wd := range p.WeekdayPreferences {
		names[i] = WeekdayName(wd)
	}
	return PolicyJSON{
		RequiredDaysPerWeek:  p.RequiredDaysPerWeek,
		RequiredHoursPerWeek: p.RequiredHoursPerWeek.Float64(),
		WeekdayPreferences:   names,
	}
}

// MarshalPolicy returns the JSON string stored for p.
func (f *PolicyFactory) MarshalPolicy(p attendance.OfficePolicy) (string, error) {
	b, err := json.Marshal(f.ToJSON(p))
	if err != nil {
		return "", fmt.Errorf("failed to marshal policy: %w", err)
	}
	return string(b), nil
}

// =============================================================================
// WEEKDAY NAMES
// =============================================================================

// ParseWeekday accepts full or three-letter English weekday names.
func ParseWeekday(name string) (time.Weekday, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		full := strings.ToLower(wd.String())
		if n == full || n == full[:3] {
			return wd, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", name)
}

// WeekdayName returns the lower-case English name, e.g. "monday".
func WeekdayName(wd time.Weekday) string {
	return strings.ToLower(wd.String())
}
