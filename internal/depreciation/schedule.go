package depreciation

import (
	"time"

	"github.com/shopspring/decimal"

	"aktiva/internal/models"
)

// Entry is one row of a projected amortization table.
type Entry struct {
	Period      int             `json:"period"`
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Accumulated decimal.Decimal `json:"accumulated_depreciation"`
	BookValue   decimal.Decimal `json:"book_value"`
	IsCompleted bool            `json:"is_completed"`
}

// Generate projects the full monthly amortization table for an asset,
// one entry per remaining life month, simulating the running book value
// rather than reading the ledger. It never mutates anything and is
// deterministic for a given asset state and now.
//
// A nil result means the asset lacks the configuration for a schedule;
// that is "no schedule available", not an error. Units-of-production
// assets have no projectable schedule because future usage is unknown.
func Generate(a *models.Asset, now time.Time) []Entry {
	basis, err := BasisFor(a)
	if err != nil {
		return nil
	}
	if err := basis.Terms.Validate(); err != nil {
		return nil
	}
	if a.DepreciationMethod == models.MethodUnitsOfProduction {
		return nil
	}

	remaining := basis.RemainingMonths()
	if remaining == 0 {
		return nil
	}

	book := basis.OpeningBook
	accumulated := basis.OpeningAccumulated
	entries := make([]Entry, 0, remaining)

	for period := 1; period <= remaining; period++ {
		monthIndex := basis.MonthOffset + period
		amount, err := MonthlyAmount(a.DepreciationMethod, basis.Terms, monthIndex, book, 0)
		if err != nil {
			return nil
		}
		book = book.Sub(amount)
		accumulated = accumulated.Add(amount)

		date := basis.MonthStart(monthIndex)
		entries = append(entries, Entry{
			Period:      period,
			Date:        date,
			Amount:      amount,
			Accumulated: accumulated,
			BookValue:   book,
			IsCompleted: !date.After(now),
		})
	}
	return entries
}
