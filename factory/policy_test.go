package factory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/office-quota/attendance"
	"github.com/warp/office-quota/factory"
)

func TestParsePolicy_FullDocument(t *testing.T) {
	// GIVEN: A policy with named preferences in mixed case and short forms
	f := factory.NewPolicyFactory()
	doc := `{
		"required_days_per_week": 3,
		"required_hours_per_week": 22.5,
		"weekday_preferences": ["Tuesday", "wed", "THU", "monday", "fri"]
	}`

	// WHEN: Parsing
	p, err := f.ParsePolicy(doc)
	require.NoError(t, err)

	// THEN: Values are converted without loss
	assert.Equal(t, 3, p.RequiredDaysPerWeek)
	assert.Equal(t, "22.5", p.RequiredHoursPerWeek.Value.String())
	assert.Equal(t, []time.Weekday{time.Tuesday, time.Wednesday, time.Thursday, time.Monday, time.Friday},
		p.WeekdayPreferences)
}

func TestParsePolicy_DefaultsPreferences(t *testing.T) {
	p, err := factory.NewPolicyFactory().ParsePolicy(`{"required_days_per_week": 2, "required_hours_per_week": 16}`)
	require.NoError(t, err)
	assert.Equal(t, attendance.DefaultWeekdayPreferences(), p.WeekdayPreferences)
}

func TestParsePolicy_Rejects(t *testing.T) {
	cases := map[string]string{
		"malformed":          `{"required_days_per_week": `,
		"days out of range":  `{"required_days_per_week": 6, "required_hours_per_week": 16}`,
		"hours out of range": `{"required_days_per_week": 2, "required_hours_per_week": 45}`,
		"unknown weekday": `{"required_days_per_week": 2, "required_hours_per_week": 16,
			"weekday_preferences": ["mon", "tue", "wed", "thu", "someday"]}`,
		"weekend preference": `{"required_days_per_week": 2, "required_hours_per_week": 16,
			"weekday_preferences": ["mon", "tue", "wed", "thu", "sat"]}`,
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := factory.NewPolicyFactory().ParsePolicy(doc)
			assert.Error(t, err)
		})
	}
}

func TestParsePolicy_UnknownWeekdayIsValidationError(t *testing.T) {
	_, err := factory.NewPolicyFactory().ParsePolicy(`{"required_days_per_week": 2, "required_hours_per_week": 16,
		"weekday_preferences": ["mon", "tue", "wed", "thu", "funday"]}`)

	var verr *attendance.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "weekday_preferences", verr.Field)
}

func TestMarshalPolicy_RoundTrip(t *testing.T) {
	f := factory.NewPolicyFactory()
	original, err := f.ParsePolicy(`{"required_days_per_week": 4, "required_hours_per_week": 30,
		"weekday_preferences": ["fri", "thu", "wed", "tue", "mon"]}`)
	require.NoError(t, err)

	doc, err := f.MarshalPolicy(*original)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"required_days_per_week": 4,
		"required_hours_per_week": 30,
		"weekday_preferences": ["friday", "thursday", "wednesday", "tuesday", "monday"]
	}`, doc)

	again, err := f.ParsePolicy(doc)
	require.NoError(t, err)
	assert.Equal(t, original.WeekdayPreferences, again.WeekdayPreferences)
	assert.True(t, original.RequiredHoursPerWeek.Equal(again.RequiredHoursPerWeek))
}

func TestParseWeekday(t *testing.T) {
	wd, err := factory.ParseWeekday(" Sat ")
	require.NoError(t, err)
	assert.Equal(t, time.Saturday, wd)

	_, err = factory.ParseWeekday("tues")
	assert.Error(t, err)

	assert.Equal(t, "wednesday", factory.WeekdayName(time.Wednesday))
}
