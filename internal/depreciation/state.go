package depreciation

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"aktiva/internal/models"
)

// Eligibility failures. Each configuration gap is reported distinctly so
// batch results can name the missing field.
var (
	ErrMissingPrice      = errors.New("asset has no purchase price")
	ErrMissingMethod     = errors.New("asset has no depreciation method configured")
	ErrMissingUsefulLife = errors.New("asset has no useful life configured")
	ErrMissingStartDate  = errors.New("asset has no depreciation start date")
	ErrAssetInactive     = errors.New("asset is inactive")
	ErrFullyDepreciated  = errors.New("asset is already fully depreciated")
	ErrStartDateInFuture = errors.New("depreciation start date is after the calculation date")
)

// Basis anchors an asset's depreciation timeline. For migrated assets the
// system entry date is period zero and the original purchase terms drive
// the per-month amounts; months depreciated in the predecessor system are
// carried as an offset into the useful life.
type Basis struct {
	// Start is period zero: the depreciation start date, or the system
	// entry date for pre-depreciated assets.
	Start time.Time

	// Terms over the full useful life (original values for migrated assets).
	Terms Terms

	// MonthOffset is how many life months were consumed before this
	// system took over. Zero for assets purchased under this system.
	MonthOffset int

	// OpeningBook is the book value at period zero.
	OpeningBook decimal.Decimal

	// OpeningAccumulated is depreciation already applied before period
	// zero (the prior depreciation amount for migrated assets).
	OpeningAccumulated decimal.Decimal
}

// RemainingMonths is the number of life months left to depreciate from
// period zero onward.
func (b Basis) RemainingMonths() int {
	remaining := b.Terms.UsefulLifeMonths - b.MonthOffset
	if remaining < 0 {
		return 0
	}
	return remaining
}

// MonthStart returns the calendar date on which the given life month
// begins. monthIndex is 1-based over the full useful life.
func (b Basis) MonthStart(monthIndex int) time.Time {
	return b.Start.AddDate(0, monthIndex-b.MonthOffset-1, 0)
}

// BasisFor derives the depreciation basis from an asset's financial facet,
// honouring the pre-depreciation anchor when present. Missing required
// fields are reported via the distinct eligibility errors.
func BasisFor(a *models.Asset) (Basis, error) {
	if a.DepreciationMethod == "" || a.DepreciationMethod == models.MethodNone {
		return Basis{}, ErrMissingMethod
	}

	if a.IsPreDepreciated {
		if a.OriginalPurchasePrice.IsZero() {
			return Basis{}, ErrMissingPrice
		}
		if a.OriginalUsefulLifeMonths <= 0 {
			return Basis{}, ErrMissingUsefulLife
		}
		if a.SystemEntryDate == nil {
			return Basis{}, ErrMissingStartDate
		}
		return Basis{
			Start: *a.SystemEntryDate,
			Terms: Terms{
				PurchasePrice:    a.OriginalPurchasePrice,
				SalvageValue:     a.SalvageValue,
				UsefulLifeMonths: a.OriginalUsefulLifeMonths,
				AnnualRate:       a.DecliningBalanceRate,
				TotalUnits:       a.TotalEstimatedUnits,
			},
			MonthOffset:        a.PriorDepreciationMonths,
			OpeningBook:        a.SystemEntryBookValue,
			OpeningAccumulated: a.PriorDepreciationAmount,
		}, nil
	}

	if a.PurchasePrice.IsZero() {
		return Basis{}, ErrMissingPrice
	}
	if a.UsefulLifeMonths <= 0 {
		return Basis{}, ErrMissingUsefulLife
	}
	if a.DepreciationStartDate == nil {
		return Basis{}, ErrMissingStartDate
	}
	return Basis{
		Start: *a.DepreciationStartDate,
		Terms: Terms{
			PurchasePrice:    a.PurchasePrice,
			SalvageValue:     a.SalvageValue,
			UsefulLifeMonths: a.UsefulLifeMonths,
			AnnualRate:       a.DecliningBalanceRate,
			TotalUnits:       a.TotalEstimatedUnits,
		},
		OpeningBook: a.PurchasePrice,
	}, nil
}

// State describes where an asset stands relative to a calculation date:
// how many life months are due, what has already been committed, and the
// book value the next period starts from.
type State struct {
	Basis

	// MonthsElapsed counts due life months from period zero through the
	// calculation date, capped at the remaining useful life. The month
	// containing the start date is due immediately.
	MonthsElapsed int

	// MonthsDepreciated is how many months this system has committed.
	MonthsDepreciated int

	// BookValue at the start of the next uncalculated period.
	BookValue decimal.Decimal
}

// PendingMonths is how many due months have not been calculated yet.
// Zero means "nothing to do", which is not an error.
func (s State) PendingMonths() int {
	pending := s.MonthsElapsed - s.MonthsDepreciated
	if pending < 0 {
		return 0
	}
	return pending
}

// NextMonthIndex is the 1-based full-life index of the next month to
// depreciate.
func (s State) NextMonthIndex() int {
	return s.MonthOffset + s.MonthsDepreciated + 1
}

// StateFor derives the asset's depreciation state at calcDate. It returns
// a distinct error for each eligibility failure; an eligible asset with
// zero pending months is returned without error.
func StateFor(a *models.Asset, calcDate time.Time) (*State, error) {
	if !a.IsActive {
		return nil, ErrAssetInactive
	}
	if a.IsFullyDepreciated {
		return nil, ErrFullyDepreciated
	}

	basis, err := BasisFor(a)
	if err != nil {
		return nil, err
	}
	if err := basis.Terms.Validate(); err != nil {
		return nil, err
	}
	if calcDate.Before(basis.Start) {
		return nil, ErrStartDateInFuture
	}

	elapsed := MonthsBetween(basis.Start, calcDate) + 1
	if remaining := basis.RemainingMonths(); elapsed > remaining {
		elapsed = remaining
	}

	book := basis.OpeningBook.Sub(a.AccumulatedDepreciation)
	if book.LessThan(basis.Terms.SalvageValue) {
		book = basis.Terms.SalvageValue
	}

	return &State{
		Basis:             basis,
		MonthsElapsed:     elapsed,
		MonthsDepreciated: a.PeriodsDepreciated,
		BookValue:         book,
	}, nil
}

// MonthsBetween returns the number of whole calendar months from from to
// to, zero if to precedes from. Month-end dates are handled by walking
// back until the candidate no longer overshoots.
func MonthsBetween(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	for months > 0 && from.AddDate(0, months, 0).After(to) {
		months--
	}
	return months
}
