// Package depreciation implements the depreciation engine's pure core:
// per-period method calculations, asset state derivation, amortization
// schedule projection, and recurring-schedule date math. Nothing in this
// package touches persistence; all inputs, including the current date,
// are explicit so results are deterministic.
package depreciation

import (
	"errors"

	"github.com/shopspring/decimal"

	"aktiva/internal/models"
)

// Computation errors, rejected at the method-library boundary.
var (
	ErrNegativePurchasePrice = errors.New("purchase price must not be negative")
	ErrNegativeSalvageValue  = errors.New("salvage value must not be negative")
	ErrSalvageExceedsPrice   = errors.New("salvage value exceeds purchase price")
	ErrInvalidUsefulLife     = errors.New("useful life months must be positive")
	ErrUnknownMethod         = errors.New("unknown depreciation method")
	ErrMissingUnitEstimate   = errors.New("total estimated units must be positive")
	ErrNegativeUsage         = errors.New("usage units must not be negative")
)

var (
	two    = decimal.NewFromInt(2)
	twelve = decimal.NewFromInt(12)
)

// Terms are the financial parameters a method calculation needs. For
// pre-depreciated assets these are the original (full-life) values; the
// month index passed alongside accounts for periods consumed before
// migration.
type Terms struct {
	PurchasePrice    decimal.Decimal
	SalvageValue     decimal.Decimal
	UsefulLifeMonths int

	// Annual declining-balance rate. Zero derives the double-declining
	// rate 2 / usefulLifeYears.
	AnnualRate decimal.Decimal

	// Lifetime unit estimate for units-of-production.
	TotalUnits int64
}

// Validate checks the numeric preconditions shared by all methods.
func (t Terms) Validate() error {
	if t.PurchasePrice.IsNegative() {
		return ErrNegativePurchasePrice
	}
	if t.SalvageValue.IsNegative() {
		return ErrNegativeSalvageValue
	}
	if t.SalvageValue.GreaterThan(t.PurchasePrice) {
		return ErrSalvageExceedsPrice
	}
	if t.UsefulLifeMonths <= 0 {
		return ErrInvalidUsefulLife
	}
	return nil
}

// DepreciableBase returns purchase price minus salvage value.
func (t Terms) DepreciableBase() decimal.Decimal {
	return t.PurchasePrice.Sub(t.SalvageValue)
}

// monthlyRate returns the declining-balance rate per month.
func (t Terms) monthlyRate() decimal.Decimal {
	if !t.AnnualRate.IsZero() {
		return t.AnnualRate.Div(twelve)
	}
	// 2 / years / 12 == 2 / months
	return two.Div(decimal.NewFromInt(int64(t.UsefulLifeMonths)))
}

// StraightLineMonthly returns one month of straight-line depreciation:
// the depreciable base spread evenly over the useful life, clamped so the
// book value never drops below salvage.
func StraightLineMonthly(t Terms, bookValue decimal.Decimal) (decimal.Decimal, error) {
	if err := t.Validate(); err != nil {
		return decimal.Zero, err
	}
	amount := t.DepreciableBase().
		Div(decimal.NewFromInt(int64(t.UsefulLifeMonths))).
		Round(2)
	return clampToSalvage(amount, bookValue, t.SalvageValue), nil
}

// DecliningBalanceMonthly returns one month of declining-balance
// depreciation on the current book value. The final life month takes the
// remaining distance to salvage so the asset finishes fully depreciated.
func DecliningBalanceMonthly(t Terms, monthIndex int, bookValue decimal.Decimal) (decimal.Decimal, error) {
	if err := t.Validate(); err != nil {
		return decimal.Zero, err
	}
	if monthIndex >= t.UsefulLifeMonths {
		remainder := bookValue.Sub(t.SalvageValue)
		if remainder.IsNegative() {
			remainder = decimal.Zero
		}
		return remainder.Round(2), nil
	}
	amount := bookValue.Mul(t.monthlyRate()).Round(2)
	return clampToSalvage(amount, bookValue, t.SalvageValue), nil
}

// SumOfYearsDigitsMonthly returns one month of sum-of-years-digits
// depreciation, front-loaded by weighting each month with the months of
// life remaining at its start.
func SumOfYearsDigitsMonthly(t Terms, monthIndex int, bookValue decimal.Decimal) (decimal.Decimal, error) {
	if err := t.Validate(); err != nil {
		return decimal.Zero, err
	}
	n := int64(t.UsefulLifeMonths)
	if monthIndex < 1 || int64(monthIndex) > n {
		return decimal.Zero, nil
	}
	remaining := n - int64(monthIndex) + 1
	digits := n * (n + 1) / 2
	amount := t.DepreciableBase().
		Mul(decimal.NewFromInt(remaining)).
		Div(decimal.NewFromInt(digits)).
		Round(2)
	return clampToSalvage(amount, bookValue, t.SalvageValue), nil
}

// UnitsOfProductionAmount returns depreciation proportional to the usage
// units consumed in the period relative to the lifetime estimate.
func UnitsOfProductionAmount(t Terms, unitsUsed int64, bookValue decimal.Decimal) (decimal.Decimal, error) {
	if err := t.Validate(); err != nil {
		return decimal.Zero, err
	}
	if t.TotalUnits <= 0 {
		return decimal.Zero, ErrMissingUnitEstimate
	}
	if unitsUsed < 0 {
		return decimal.Zero, ErrNegativeUsage
	}
	amount := t.DepreciableBase().
		Mul(decimal.NewFromInt(unitsUsed)).
		Div(decimal.NewFromInt(t.TotalUnits)).
		Round(2)
	return clampToSalvage(amount, bookValue, t.SalvageValue), nil
}

// MonthlyAmount dispatches one month of depreciation for the given method.
// monthIndex is the 1-based position within the full useful life. unitsUsed
// is consulted only by units-of-production.
func MonthlyAmount(method models.DepreciationMethod, t Terms, monthIndex int, bookValue decimal.Decimal, unitsUsed int64) (decimal.Decimal, error) {
	switch method {
	case models.MethodStraightLine:
		return StraightLineMonthly(t, bookValue)
	case models.MethodDecliningBalance:
		return DecliningBalanceMonthly(t, monthIndex, bookValue)
	case models.MethodSumOfYearsDigits:
		return SumOfYearsDigitsMonthly(t, monthIndex, bookValue)
	case models.MethodUnitsOfProduction:
		return UnitsOfProductionAmount(t, unitsUsed, bookValue)
	default:
		return decimal.Zero, ErrUnknownMethod
	}
}

// clampToSalvage caps amount so bookValue - amount never falls below
// salvage, and never returns a negative amount. A zero result for an
// asset at salvage value means "fully depreciated, nothing further".
func clampToSalvage(amount, bookValue, salvage decimal.Decimal) decimal.Decimal {
	if amount.IsNegative() {
		return decimal.Zero
	}
	room := bookValue.Sub(salvage)
	if room.IsNegative() {
		room = decimal.Zero
	}
	if amount.GreaterThan(room) {
		return room
	}
	return amount
}
