/*
Package generic provides the calendar and quantity primitives shared by the
attendance engine, the stores and the API.

PURPOSE:
  Attendance math mixes calendar days, ISO weeks, clock times and fractional
  hours. Keeping those primitives here lets the domain package stay focused
  on quota rules while storage and transport reuse the same types.

KEY CONCEPTS:
  - Date:    A civil calendar day (time.go)
  - Period:  An inclusive date range, usually a month (period.go)
  - Clock:   A time of day for the work-hours window (time.go)
  - Amount:  A decimal quantity with a unit, e.g. 7.5 hours (this file)

DESIGN PRINCIPLES:
  1. Precision: hours are decimal.Decimal so sums of session fractions and
     percentages do not drift
  2. Value types: everything here is comparable and safe to copy
  3. No I/O: nothing in this package touches a clock, a store or a logger

USAGE:
  month := generic.MonthPeriod(2025, time.March)
  worked := generic.Hours(7.5).Add(generic.Hours(1.25))

SEE ALSO:
  - errors.go: Shared sentinel errors and StoreError
  - attendance/: The quota engine built on these types
*/
package generic

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Quantity with unit
// =============================================================================

type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

type Unit string

const UnitHours Unit = "hours"

func NewAmount(value float64, unit Unit) Amount {
	return Amount{Value: decimal.NewFromFloat(value), Unit: unit}
}

func NewAmountFromInt(value int, unit Unit) Amount {
	return Amount{Value: decimal.NewFromInt(int64(value)), Unit: unit}
}

// Hours is shorthand for NewAmount(h, UnitHours).
func Hours(h float64) Amount { return NewAmount(h, UnitHours) }

// ZeroHours is the additive identity for hour sums.
func ZeroHours() Amount { return Amount{Value: decimal.Zero, Unit: UnitHours} }

func (a Amount) Zero() Amount                 { return Amount{Value: decimal.Zero, Unit: a.Unit} }
func (a Amount) Add(b Amount) Amount          { return Amount{Value: a.Value.Add(b.Value), Unit: a.Unit} }
func (a Amount) Sub(b Amount) Amount          { return Amount{Value: a.Value.Sub(b.Value), Unit: a.Unit} }
func (a Amount) Mul(s decimal.Decimal) Amount { return Amount{Value: a.Value.Mul(s), Unit: a.Unit} }
func (a Amount) Div(s decimal.Decimal) Amount { return Amount{Value: a.Value.Div(s), Unit: a.Unit} }
func (a Amount) IsZero() bool                 { return a.Value.IsZero() }
func (a Amount) IsPositive() bool             { return a.Value.IsPositive() }
func (a Amount) Equal(b Amount) bool          { return a.Value.Equal(b.Value) }
func (a Amount) GreaterThan(b Amount) bool    { return a.Value.GreaterThan(b.Value) }
func (a Amount) LessThan(b Amount) bool       { return a.Value.LessThan(b.Value) }

func (a Amount) Min(b Amount) Amount {
	if a.LessThan(b) {
		return a
	}
	return b
}

func (a Amount) Max(b Amount) Amount {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// NonNegative floors a at zero.
func (a Amount) NonNegative() Amount { return a.Max(a.Zero()) }

// Float64 is for display and JSON only; never feed it back into arithmetic.
func (a Amount) Float64() float64 { return a.Value.InexactFloat64() }

func (a Amount) String() string {
	return fmt.Sprintf("%s %s", a.Value.StringFixed(2), a.Unit)
}
