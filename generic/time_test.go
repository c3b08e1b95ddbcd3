package generic_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/office-quota/generic"
)

// =============================================================================
// DATE
// =============================================================================

func TestParseDate(t *testing.T) {
	d, err := generic.ParseDate("2025-03-14")
	require.NoError(t, err)
	assert.Equal(t, generic.NewDate(2025, time.March, 14), d)
	assert.Equal(t, "2025-03-14", d.String())

	_, err = generic.ParseDate("14/03/2025")
	assert.ErrorIs(t, err, generic.ErrInvalidDate)
	assert.True(t, generic.IsClientError(err))
}

func TestNewDate_Normalizes(t *testing.T) {
	assert.Equal(t, generic.NewDate(2025, time.February, 1), generic.NewDate(2025, time.January, 32))
	assert.Equal(t, generic.NewDate(2024, time.December, 31), generic.NewDate(2025, time.January, 1).AddDays(-1))
}

func TestToday_UsesLocation(t *testing.T) {
	// 23:30 UTC on Mar 14 is already Mar 15 in UTC+2
	now := func() time.Time { return time.Date(2025, time.March, 14, 23, 30, 0, 0, time.UTC) }
	plusTwo := time.FixedZone("UTC+2", 2*60*60)

	assert.Equal(t, generic.NewDate(2025, time.March, 14), generic.Today(now, time.UTC))
	assert.Equal(t, generic.NewDate(2025, time.March, 15), generic.Today(now, plusTwo))
}

func TestDate_Compare(t *testing.T) {
	a := generic.NewDate(2025, time.March, 14)
	b := generic.NewDate(2025, time.April, 1)

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.True(t, a.BeforeOrEqual(a))
	assert.True(t, a.AfterOrEqual(a))
	assert.Equal(t, 0, a.Compare(a))
	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.True(t, generic.NewDate(2024, time.December, 31).Before(a))
}

func TestDate_WeekdayProperties(t *testing.T) {
	sat := generic.NewDate(2025, time.March, 1)
	mon := generic.NewDate(2025, time.March, 3)

	assert.Equal(t, time.Saturday, sat.Weekday())
	assert.True(t, sat.IsWeekend())
	assert.False(t, sat.IsWorkday())
	assert.True(t, mon.IsWorkday())

	assert.True(t, generic.IsWeekday(time.Friday))
	assert.False(t, generic.IsWeekday(time.Sunday))
}

func TestDate_ISOWeek(t *testing.T) {
	// Dec 30 2024 (Monday) belongs to ISO week 1 of 2025
	w := generic.NewDate(2024, time.December, 30).ISOWeek()
	assert.Equal(t, generic.ISOWeek{Year: 2025, Week: 1}, w)
	assert.Equal(t, "2025-W01", w.String())

	// Sunday closes the week
	assert.Equal(t,
		generic.NewDate(2025, time.March, 3).ISOWeek(),
		generic.NewDate(2025, time.March, 9).ISOWeek())
	assert.NotEqual(t,
		generic.NewDate(2025, time.March, 9).ISOWeek(),
		generic.NewDate(2025, time.March, 10).ISOWeek())
}

func TestDate_JSON(t *testing.T) {
	type payload struct {
		Date generic.Date `json:"date"`
	}

	b, err := json.Marshal(payload{Date: generic.NewDate(2025, time.March, 14)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2025-03-14"}`, string(b))

	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2025-12-01"}`), &p))
	assert.Equal(t, generic.NewDate(2025, time.December, 1), p.Date)

	assert.Error(t, json.Unmarshal([]byte(`{"date":"tomorrow"}`), &p))
}

func TestDate_At(t *testing.T) {
	d := generic.NewDate(2025, time.March, 14)
	got := d.At(generic.Clock{Hour: 7, Minute: 30}, time.UTC)

	assert.Equal(t, time.Date(2025, time.March, 14, 7, 30, 0, 0, time.UTC), got)
	assert.Equal(t, d, generic.DateOf(got))
}

// =============================================================================
// CLOCK
// =============================================================================

func TestParseClock(t *testing.T) {
	c, err := generic.ParseClock("07:30")
	require.NoError(t, err)
	assert.Equal(t, generic.Clock{Hour: 7, Minute: 30}, c)
	assert.Equal(t, 450, c.Minutes())
	assert.Equal(t, "07:30", c.String())

	for _, bad := range []string{"7", "25:00", "07:61", "seven"} {
		_, err := generic.ParseClock(bad)
		assert.Error(t, err, bad)
	}
}
