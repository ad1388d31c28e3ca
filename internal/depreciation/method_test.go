package depreciation

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"aktiva/internal/models"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestStraightLineMonthly(t *testing.T) {
	t.Run("even_spread_over_useful_life", func(t *testing.T) {
		terms := Terms{PurchasePrice: d("120000"), SalvageValue: d("0"), UsefulLifeMonths: 24}
		amount, err := StraightLineMonthly(terms, d("120000"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !amount.Equal(d("5000")) {
			t.Errorf("expected 5000, got %s", amount)
		}
	})

	t.Run("salvage_reduces_the_base", func(t *testing.T) {
		terms := Terms{PurchasePrice: d("60000"), SalvageValue: d("12000"), UsefulLifeMonths: 48}
		amount, err := StraightLineMonthly(terms, d("60000"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !amount.Equal(d("1000")) {
			t.Errorf("expected 1000, got %s", amount)
		}
	})

	t.Run("clamped_so_book_value_never_drops_below_salvage", func(t *testing.T) {
		terms := Terms{PurchasePrice: d("60000"), SalvageValue: d("12000"), UsefulLifeMonths: 48}
		amount, err := StraightLineMonthly(terms, d("12500"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !amount.Equal(d("500")) {
			t.Errorf("expected clamp to 500, got %s", amount)
		}
	})

	t.Run("zero_at_salvage_value", func(t *testing.T) {
		terms := Terms{PurchasePrice: d("60000"), SalvageValue: d("12000"), UsefulLifeMonths: 48}
		amount, err := StraightLineMonthly(terms, d("12000"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !amount.IsZero() {
			t.Errorf("expected 0 at salvage, got %s", amount)
		}
	})

	t.Run("full_life_sums_to_the_depreciable_base", func(t *testing.T) {
		terms := Terms{PurchasePrice: d("120000"), SalvageValue: d("0"), UsefulLifeMonths: 24}
		book := terms.PurchasePrice
		total := decimal.Zero
		for i := 0; i < terms.UsefulLifeMonths; i++ {
			amount, err := StraightLineMonthly(terms, book)
			if err != nil {
				t.Fatalf("month %d: %v", i+1, err)
			}
			book = book.Sub(amount)
			total = total.Add(amount)
		}
		if !total.Equal(d("120000")) {
			t.Errorf("expected total 120000, got %s", total)
		}
		if !book.IsZero() {
			t.Errorf("expected final book value 0, got %s", book)
		}
	})
}

func TestDecliningBalanceMonthly(t *testing.T) {
	t.Run("double_declining_on_current_book_value", func(t *testing.T) {
		terms := Terms{PurchasePrice: d("10000"), SalvageValue: d("1000"), UsefulLifeMonths: 24}
		amount, err := DecliningBalanceMonthly(terms, 1, d("10000"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// 10000 * (2/24) = 833.33
		if !amount.Equal(d("833.33")) {
			t.Errorf("expected 833.33, got %s", amount)
		}
	})

	t.Run("explicit_annual_rate", func(t *testing.T) {
		terms := Terms{PurchasePrice: d("10000"), SalvageValue: d("0"), UsefulLifeMonths: 60, AnnualRate: d("0.3")}
		amount, err := DecliningBalanceMonthly(terms, 1, d("10000"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// 10000 * 0.3/12 = 250
		if !amount.Equal(d("250")) {
			t.Errorf("expected 250, got %s", amount)
		}
	})

	t.Run("final_month_takes_the_remainder_to_salvage", func(t *testing.T) {
		terms := Terms{PurchasePrice: d("10000"), SalvageValue: d("1000"), UsefulLifeMonths: 24}
		amount, err := DecliningBalanceMonthly(terms, 24, d("1390.55"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !amount.Equal(d("390.55")) {
			t.Errorf("expected 390.55, got %s", amount)
		}
	})

	t.Run("full_life_ends_exactly_at_salvage", func(t *testing.T) {
		terms := Terms{PurchasePrice: d("10000"), SalvageValue: d("1000"), UsefulLifeMonths: 24}
		book := terms.PurchasePrice
		for i := 1; i <= terms.UsefulLifeMonths; i++ {
			amount, err := DecliningBalanceMonthly(terms, i, book)
			if err != nil {
				t.Fatalf("month %d: %v", i, err)
			}
			book = book.Sub(amount)
		}
		if !book.Equal(d("1000")) {
			t.Errorf("expected final book value 1000, got %s", book)
		}
	})
}

func TestSumOfYearsDigitsMonthly(t *testing.T) {
	terms := Terms{PurchasePrice: d("7800"), SalvageValue: d("0"), UsefulLifeMonths: 12}

	t.Run("front_loaded_weights", func(t *testing.T) {
		first, err := SumOfYearsDigitsMonthly(terms, 1, d("7800"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// 7800 * 12/78 = 1200
		if !first.Equal(d("1200")) {
			t.Errorf("expected 1200, got %s", first)
		}

		last, err := SumOfYearsDigitsMonthly(terms, 12, d("7800"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// 7800 * 1/78 = 100
		if !last.Equal(d("100")) {
			t.Errorf("expected 100, got %s", last)
		}
	})

	t.Run("full_life_sums_to_the_depreciable_base", func(t *testing.T) {
		book := terms.PurchasePrice
		total := decimal.Zero
		for i := 1; i <= terms.UsefulLifeMonths; i++ {
			amount, err := SumOfYearsDigitsMonthly(terms, i, book)
			if err != nil {
				t.Fatalf("month %d: %v", i, err)
			}
			book = book.Sub(amount)
			total = total.Add(amount)
		}
		if !total.Equal(d("7800")) {
			t.Errorf("expected total 7800, got %s", total)
		}
	})

	t.Run("out_of_range_month_index_yields_zero", func(t *testing.T) {
		amount, err := SumOfYearsDigitsMonthly(terms, 13, d("100"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !amount.IsZero() {
			t.Errorf("expected 0 past the useful life, got %s", amount)
		}
	})
}

func TestUnitsOfProductionAmount(t *testing.T) {
	terms := Terms{PurchasePrice: d("9000"), SalvageValue: d("0"), UsefulLifeMonths: 36, TotalUnits: 90000}

	t.Run("proportional_to_usage", func(t *testing.T) {
		amount, err := UnitsOfProductionAmount(terms, 1000, d("9000"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !amount.Equal(d("100")) {
			t.Errorf("expected 100, got %s", amount)
		}
	})

	t.Run("zero_usage_yields_zero", func(t *testing.T) {
		amount, err := UnitsOfProductionAmount(terms, 0, d("9000"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !amount.IsZero() {
			t.Errorf("expected 0, got %s", amount)
		}
	})

	t.Run("missing_unit_estimate", func(t *testing.T) {
		bad := terms
		bad.TotalUnits = 0
		if _, err := UnitsOfProductionAmount(bad, 1000, d("9000")); !errors.Is(err, ErrMissingUnitEstimate) {
			t.Errorf("expected ErrMissingUnitEstimate, got %v", err)
		}
	})

	t.Run("negative_usage_rejected", func(t *testing.T) {
		if _, err := UnitsOfProductionAmount(terms, -1, d("9000")); !errors.Is(err, ErrNegativeUsage) {
			t.Errorf("expected ErrNegativeUsage, got %v", err)
		}
	})
}

func TestTermsValidate(t *testing.T) {
	cases := []struct {
		name  string
		terms Terms
		want  error
	}{
		{"negative_price", Terms{PurchasePrice: d("-1"), UsefulLifeMonths: 12}, ErrNegativePurchasePrice},
		{"negative_salvage", Terms{PurchasePrice: d("100"), SalvageValue: d("-1"), UsefulLifeMonths: 12}, ErrNegativeSalvageValue},
		{"salvage_above_price", Terms{PurchasePrice: d("100"), SalvageValue: d("200"), UsefulLifeMonths: 12}, ErrSalvageExceedsPrice},
		{"zero_useful_life", Terms{PurchasePrice: d("100")}, ErrInvalidUsefulLife},
		{"valid", Terms{PurchasePrice: d("100"), SalvageValue: d("10"), UsefulLifeMonths: 12}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.terms.Validate(); !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestMonthlyAmount(t *testing.T) {
	terms := Terms{PurchasePrice: d("120000"), SalvageValue: d("0"), UsefulLifeMonths: 24}

	t.Run("dispatches_by_method", func(t *testing.T) {
		amount, err := MonthlyAmount(models.MethodStraightLine, terms, 1, d("120000"), 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !amount.Equal(d("5000")) {
			t.Errorf("expected 5000, got %s", amount)
		}
	})

	t.Run("unknown_method", func(t *testing.T) {
		if _, err := MonthlyAmount(models.MethodNone, terms, 1, d("120000"), 0); !errors.Is(err, ErrUnknownMethod) {
			t.Errorf("expected ErrUnknownMethod, got %v", err)
		}
	})
}
