package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"aktiva/internal/models"
	"aktiva/internal/pagination"
	"aktiva/internal/testutil"
)

var (
	calcDate = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	price    = decimal.NewFromInt(120000)
)

func TestRunBatch(t *testing.T) {
	t.Run("mixed_success_and_failure", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewDepreciationService(db, 4, nil, nil)
		cat := testutil.CreateTestCategory(t, db)

		for i := 0; i < 8; i++ {
			testutil.CreateTestAsset(t, db, cat.ID, price, decimal.Zero, 24, calcDate)
		}
		for i := 0; i < 2; i++ {
			testutil.CreateTestUnconfiguredAsset(t, db, cat.ID, price)
		}

		result, err := svc.RunBatch(context.Background(), BatchConfig{CalculationDate: calcDate})
		testutil.AssertNoError(t, err)

		exec := result.Execution
		if exec.Status != models.ExecutionCompleted {
			t.Errorf("expected completed status, got %s", exec.Status)
		}
		if exec.AssetsProcessed != 10 {
			t.Errorf("expected 10 assets processed, got %d", exec.AssetsProcessed)
		}
		if exec.SuccessfulCalculations != 8 {
			t.Errorf("expected 8 successes, got %d", exec.SuccessfulCalculations)
		}
		if exec.FailedCalculations != 2 {
			t.Errorf("expected 2 failures, got %d", exec.FailedCalculations)
		}
		// 8 assets at 120000/24 = 5000 each.
		if !exec.TotalDepreciation.Equal(decimal.NewFromInt(40000)) {
			t.Errorf("expected total 40000, got %s", exec.TotalDepreciation)
		}
		if exec.Reference == "" {
			t.Error("expected a run reference")
		}
		if exec.CompletedAt == nil {
			t.Error("expected completed_at to be set")
		}

		if len(result.Outcomes) != 10 {
			t.Fatalf("expected 10 outcomes, got %d", len(result.Outcomes))
		}
		for _, o := range result.Outcomes {
			if o.Status == OutcomeFailed && o.Reason == "" {
				t.Errorf("asset %d: failed outcome should carry a reason", o.AssetID)
			}
		}

		if len(result.Subtotals) != 1 {
			t.Fatalf("expected one category subtotal, got %d", len(result.Subtotals))
		}
		st := result.Subtotals[0]
		if st.CategoryID != cat.ID || st.AssetCount != 8 || !st.Total.Equal(decimal.NewFromInt(40000)) {
			t.Errorf("unexpected subtotal: %+v", st)
		}

		// The run and its records are persisted.
		var records int64
		db.Model(&models.DepreciationRecord{}).Count(&records)
		if records != 8 {
			t.Errorf("expected 8 depreciation records, got %d", records)
		}
		persisted, err := svc.GetExecution(exec.ID)
		testutil.AssertNoError(t, err)
		if persisted.Status != models.ExecutionCompleted {
			t.Errorf("expected persisted status completed, got %s", persisted.Status)
		}
	})

	t.Run("updates_asset_financials", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewDepreciationService(db, 1, nil, nil)
		cat := testutil.CreateTestCategory(t, db)
		asset := testutil.CreateTestAsset(t, db, cat.ID, price, decimal.Zero, 24, calcDate)

		_, err := svc.RunBatch(context.Background(), BatchConfig{CalculationDate: calcDate})
		testutil.AssertNoError(t, err)

		var updated models.Asset
		testutil.AssertNoError(t, db.First(&updated, asset.ID).Error)
		if !updated.CurrentBookValue.Equal(decimal.NewFromInt(115000)) {
			t.Errorf("expected book value 115000, got %s", updated.CurrentBookValue)
		}
		if !updated.AccumulatedDepreciation.Equal(decimal.NewFromInt(5000)) {
			t.Errorf("expected accumulated 5000, got %s", updated.AccumulatedDepreciation)
		}
		if updated.PeriodsDepreciated != 1 {
			t.Errorf("expected 1 period depreciated, got %d", updated.PeriodsDepreciated)
		}
		if updated.IsFullyDepreciated {
			t.Error("asset should not be fully depreciated after one period")
		}
		if updated.NextDepreciationDate == nil {
			t.Error("expected a next depreciation date")
		}
	})

	t.Run("dry_run_commits_nothing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewDepreciationService(db, 4, nil, nil)
		cat := testutil.CreateTestCategory(t, db)
		asset := testutil.CreateTestAsset(t, db, cat.ID, price, decimal.Zero, 24, calcDate)

		result, err := svc.RunBatch(context.Background(), BatchConfig{CalculationDate: calcDate, DryRun: true})
		testutil.AssertNoError(t, err)

		if !result.DryRun {
			t.Error("result should be flagged as a dry run")
		}
		if result.Execution.SuccessfulCalculations != 1 {
			t.Errorf("expected 1 success, got %d", result.Execution.SuccessfulCalculations)
		}
		if !result.Execution.TotalDepreciation.Equal(decimal.NewFromInt(5000)) {
			t.Errorf("expected total 5000, got %s", result.Execution.TotalDepreciation)
		}

		var executions, records int64
		db.Model(&models.DepreciationExecution{}).Count(&executions)
		db.Model(&models.DepreciationRecord{}).Count(&records)
		if executions != 0 || records != 0 {
			t.Errorf("dry run persisted %d executions and %d records", executions, records)
		}

		var unchanged models.Asset
		testutil.AssertNoError(t, db.First(&unchanged, asset.ID).Error)
		if !unchanged.CurrentBookValue.Equal(price) || unchanged.PeriodsDepreciated != 0 {
			t.Error("dry run must not mutate the asset")
		}
	})

	t.Run("second_run_same_date_skips", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewDepreciationService(db, 1, nil, nil)
		cat := testutil.CreateTestCategory(t, db)
		testutil.CreateTestAsset(t, db, cat.ID, price, decimal.Zero, 24, calcDate)

		_, err := svc.RunBatch(context.Background(), BatchConfig{CalculationDate: calcDate})
		testutil.AssertNoError(t, err)

		second, err := svc.RunBatch(context.Background(), BatchConfig{CalculationDate: calcDate})
		testutil.AssertNoError(t, err)

		if second.Execution.SkippedAssets != 1 {
			t.Errorf("expected 1 skipped asset, got %d", second.Execution.SkippedAssets)
		}
		if second.Execution.SuccessfulCalculations != 0 {
			t.Errorf("expected no successes, got %d", second.Execution.SuccessfulCalculations)
		}
		if !second.Execution.TotalDepreciation.IsZero() {
			t.Errorf("expected zero total, got %s", second.Execution.TotalDepreciation)
		}
	})

	t.Run("granularity_batches_multiple_months", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewDepreciationService(db, 1, nil, nil)
		cat := testutil.CreateTestCategory(t, db)
		asset := testutil.CreateTestAsset(t, db, cat.ID, price, decimal.Zero, 24, calcDate)

		result, err := svc.RunBatch(context.Background(), BatchConfig{
			CalculationDate: calcDate.AddDate(0, 2, 0),
			Granularity:     models.CadenceQuarterly,
		})
		testutil.AssertNoError(t, err)

		if !result.Execution.TotalDepreciation.Equal(decimal.NewFromInt(15000)) {
			t.Errorf("expected total 15000 for three months, got %s", result.Execution.TotalDepreciation)
		}

		var updated models.Asset
		testutil.AssertNoError(t, db.First(&updated, asset.ID).Error)
		if updated.PeriodsDepreciated != 3 {
			t.Errorf("expected 3 periods depreciated, got %d", updated.PeriodsDepreciated)
		}

		var records int64
		db.Model(&models.DepreciationRecord{}).Where("asset_id = ?", asset.ID).Count(&records)
		if records != 3 {
			t.Errorf("expected 3 records, got %d", records)
		}
	})

	t.Run("completes_the_useful_life", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewDepreciationService(db, 1, nil, nil)
		cat := testutil.CreateTestCategory(t, db)
		asset := testutil.CreateTestAsset(t, db, cat.ID, price, decimal.Zero, 2, calcDate)

		_, err := svc.RunBatch(context.Background(), BatchConfig{
			CalculationDate: calcDate.AddDate(0, 6, 0),
			Granularity:     models.CadenceAnnually,
		})
		testutil.AssertNoError(t, err)

		var updated models.Asset
		testutil.AssertNoError(t, db.First(&updated, asset.ID).Error)
		if !updated.IsFullyDepreciated {
			t.Error("asset should be fully depreciated")
		}
		if !updated.CurrentBookValue.IsZero() {
			t.Errorf("expected book value 0, got %s", updated.CurrentBookValue)
		}
		if updated.NextDepreciationDate != nil {
			t.Error("fully depreciated asset should have no next depreciation date")
		}
	})

	t.Run("category_filters", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewDepreciationService(db, 4, nil, nil)
		catA := testutil.CreateTestCategory(t, db)
		catB := testutil.CreateTestCategory(t, db)
		testutil.CreateTestAsset(t, db, catA.ID, price, decimal.Zero, 24, calcDate)
		testutil.CreateTestAsset(t, db, catB.ID, price, decimal.Zero, 24, calcDate)

		included, err := svc.RunBatch(context.Background(), BatchConfig{
			CalculationDate:    calcDate,
			IncludeCategoryIDs: []uint{catA.ID},
			DryRun:             true,
		})
		testutil.AssertNoError(t, err)
		if included.Execution.AssetsProcessed != 1 {
			t.Errorf("expected 1 asset with include filter, got %d", included.Execution.AssetsProcessed)
		}

		excluded, err := svc.RunBatch(context.Background(), BatchConfig{
			CalculationDate:    calcDate,
			ExcludeCategoryIDs: []uint{catA.ID},
			DryRun:             true,
		})
		testutil.AssertNoError(t, err)
		if excluded.Execution.AssetsProcessed != 1 {
			t.Errorf("expected 1 asset with exclude filter, got %d", excluded.Execution.AssetsProcessed)
		}
		if excluded.Outcomes[0].CategoryID != catB.ID {
			t.Errorf("exclude filter selected the wrong category")
		}
	})

	t.Run("cancelled_context", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewDepreciationService(db, 1, nil, nil)
		cat := testutil.CreateTestCategory(t, db)
		testutil.CreateTestAsset(t, db, cat.ID, price, decimal.Zero, 24, calcDate)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result, err := svc.RunBatch(ctx, BatchConfig{CalculationDate: calcDate})
		testutil.AssertNoError(t, err)
		if result.Execution.Status != models.ExecutionCancelled {
			t.Errorf("expected cancelled status, got %s", result.Execution.Status)
		}
		if len(result.Outcomes) != 0 {
			t.Errorf("expected no outcomes after cancellation, got %d", len(result.Outcomes))
		}
	})

	t.Run("invalid_configuration", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewDepreciationService(db, 1, nil, nil)

		_, err := svc.RunBatch(context.Background(), BatchConfig{})
		testutil.AssertAppError(t, err, "INVALID_CALCULATION_DATE")

		_, err = svc.RunBatch(context.Background(), BatchConfig{
			CalculationDate: calcDate,
			Granularity:     models.Cadence("weekly"),
		})
		testutil.AssertAppError(t, err, "INVALID_CADENCE")
	})

	t.Run("units_of_production_uses_the_usage_source", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		cat := testutil.CreateTestCategory(t, db)
		asset := testutil.CreateTestAssetWithMethod(t, db, cat.ID, models.MethodUnitsOfProduction, decimal.NewFromInt(9000), decimal.Zero, 36, calcDate)
		testutil.AssertNoError(t, db.Model(asset).Update("total_estimated_units", 90000).Error)

		usage := func(a *models.Asset, periodEnd time.Time) (int64, error) { return 1000, nil }
		svc := NewDepreciationService(db, 1, usage, nil)

		result, err := svc.RunBatch(context.Background(), BatchConfig{CalculationDate: calcDate})
		testutil.AssertNoError(t, err)
		if result.Execution.SuccessfulCalculations != 1 {
			t.Fatalf("expected 1 success, got %d", result.Execution.SuccessfulCalculations)
		}
		// 9000 * 1000/90000 = 100
		if !result.Execution.TotalDepreciation.Equal(decimal.NewFromInt(100)) {
			t.Errorf("expected total 100, got %s", result.Execution.TotalDepreciation)
		}

		noUsage := NewDepreciationService(db, 1, nil, nil)
		second, err := noUsage.RunBatch(context.Background(), BatchConfig{
			CalculationDate: calcDate.AddDate(0, 1, 0),
			DryRun:          true,
		})
		testutil.AssertNoError(t, err)
		if second.Execution.FailedCalculations != 1 {
			t.Errorf("expected failure without a usage source, got %d failures", second.Execution.FailedCalculations)
		}
	})

	t.Run("adjustment_between_read_and_commit_is_preserved", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		cat := testutil.CreateTestCategory(t, db)
		asset := testutil.CreateTestAssetWithMethod(t, db, cat.ID, models.MethodUnitsOfProduction, decimal.NewFromInt(9000), decimal.Zero, 36, calcDate)
		testutil.AssertNoError(t, db.Model(asset).Update("total_estimated_units", 90000).Error)

		// The usage hook fires after the run has read the asset and before
		// it commits, which is exactly the window an adjustment can race.
		adjuster := NewDepreciationService(db, 1, nil, nil)
		adjusted := false
		usage := func(a *models.Asset, periodEnd time.Time) (int64, error) {
			if !adjusted {
				adjusted = true
				_, err := adjuster.RecordManualAdjustment(a.ID, decimal.NewFromInt(1000), "impairment during close", nil)
				testutil.AssertNoError(t, err)
			}
			return 1000, nil
		}
		svc := NewDepreciationService(db, 1, usage, nil)

		result, err := svc.RunBatch(context.Background(), BatchConfig{CalculationDate: calcDate})
		testutil.AssertNoError(t, err)
		if result.Execution.SkippedAssets != 1 {
			t.Errorf("expected the stale commit to be skipped, got %d skipped and %d successes",
				result.Execution.SkippedAssets, result.Execution.SuccessfulCalculations)
		}

		var updated models.Asset
		testutil.AssertNoError(t, db.First(&updated, asset.ID).Error)
		if !updated.AccumulatedDepreciation.Equal(decimal.NewFromInt(1000)) {
			t.Errorf("expected accumulated 1000 from the adjustment alone, got %s", updated.AccumulatedDepreciation)
		}
		if !updated.CurrentBookValue.Equal(decimal.NewFromInt(8000)) {
			t.Errorf("expected book value 8000, got %s", updated.CurrentBookValue)
		}

		// The ledger still reproduces the asset's accumulated depreciation.
		var records []models.DepreciationRecord
		testutil.AssertNoError(t, db.Where("asset_id = ?", asset.ID).Find(&records).Error)
		sum := decimal.Zero
		for _, r := range records {
			sum = sum.Add(r.Amount)
		}
		if !sum.Equal(updated.AccumulatedDepreciation) {
			t.Errorf("ledger sums to %s but the asset carries %s", sum, updated.AccumulatedDepreciation)
		}
	})
}

func TestPreviewSchedule(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewDepreciationService(db, 1, nil, nil)
	cat := testutil.CreateTestCategory(t, db)

	t.Run("projects_the_full_table", func(t *testing.T) {
		asset := testutil.CreateTestAsset(t, db, cat.ID, price, decimal.Zero, 24, calcDate)
		entries, err := svc.PreviewSchedule(asset.ID, calcDate)
		testutil.AssertNoError(t, err)
		if len(entries) != 24 {
			t.Fatalf("expected 24 entries, got %d", len(entries))
		}
		if !entries[0].Amount.Equal(decimal.NewFromInt(5000)) {
			t.Errorf("expected first amount 5000, got %s", entries[0].Amount)
		}
	})

	t.Run("empty_for_unconfigured_asset", func(t *testing.T) {
		asset := testutil.CreateTestUnconfiguredAsset(t, db, cat.ID, price)
		entries, err := svc.PreviewSchedule(asset.ID, calcDate)
		testutil.AssertNoError(t, err)
		if entries == nil {
			t.Fatal("expected an empty table, not nil")
		}
		if len(entries) != 0 {
			t.Errorf("expected no entries, got %d", len(entries))
		}
	})

	t.Run("asset_not_found", func(t *testing.T) {
		_, err := svc.PreviewSchedule(99999, calcDate)
		testutil.AssertAppError(t, err, "ASSET_NOT_FOUND")
	})
}

func TestListExecutions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewDepreciationService(db, 1, nil, nil)
	cat := testutil.CreateTestCategory(t, db)
	testutil.CreateTestAsset(t, db, cat.ID, price, decimal.Zero, 24, calcDate)

	_, err := svc.RunBatch(context.Background(), BatchConfig{CalculationDate: calcDate})
	testutil.AssertNoError(t, err)
	_, err = svc.RunBatch(context.Background(), BatchConfig{CalculationDate: calcDate.AddDate(0, 1, 0)})
	testutil.AssertNoError(t, err)

	page := pagination.PageRequest{Page: 1, PageSize: 10}

	resp, err := svc.ListExecutions(page, ExecutionFilter{})
	testutil.AssertNoError(t, err)
	if resp.TotalItems != 2 {
		t.Errorf("expected 2 executions, got %d", resp.TotalItems)
	}

	completed := models.ExecutionCompleted
	resp, err = svc.ListExecutions(page, ExecutionFilter{Status: &completed})
	testutil.AssertNoError(t, err)
	if resp.TotalItems != 2 {
		t.Errorf("expected 2 completed executions, got %d", resp.TotalItems)
	}

	from := calcDate.AddDate(0, 1, 0)
	resp, err = svc.ListExecutions(page, ExecutionFilter{FromDate: &from})
	testutil.AssertNoError(t, err)
	if resp.TotalItems != 1 {
		t.Errorf("expected 1 execution from %s, got %d", from.Format("2006-01-02"), resp.TotalItems)
	}

	t.Run("get_execution_not_found", func(t *testing.T) {
		_, err := svc.GetExecution(99999)
		testutil.AssertAppError(t, err, "EXECUTION_NOT_FOUND")
	})
}

func TestRecordManualAdjustment(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewDepreciationService(db, 1, nil, nil)
	cat := testutil.CreateTestCategory(t, db)

	t.Run("valid", func(t *testing.T) {
		asset := testutil.CreateTestAsset(t, db, cat.ID, price, decimal.Zero, 24, calcDate)
		record, err := svc.RecordManualAdjustment(asset.ID, decimal.NewFromInt(10000), "impairment after flood damage", nil)
		testutil.AssertNoError(t, err)

		if !record.IsManualAdjustment {
			t.Error("record should be flagged as a manual adjustment")
		}
		if record.AdjustmentReason != "impairment after flood damage" {
			t.Errorf("unexpected reason %q", record.AdjustmentReason)
		}
		if !record.BookValueAfter.Equal(decimal.NewFromInt(110000)) {
			t.Errorf("expected book value after 110000, got %s", record.BookValueAfter)
		}

		var updated models.Asset
		testutil.AssertNoError(t, db.First(&updated, asset.ID).Error)
		if !updated.CurrentBookValue.Equal(decimal.NewFromInt(110000)) {
			t.Errorf("expected asset book value 110000, got %s", updated.CurrentBookValue)
		}
		if !updated.AccumulatedDepreciation.Equal(decimal.NewFromInt(10000)) {
			t.Errorf("expected accumulated 10000, got %s", updated.AccumulatedDepreciation)
		}
	})

	t.Run("writing_down_to_salvage_completes_the_asset", func(t *testing.T) {
		asset := testutil.CreateTestAsset(t, db, cat.ID, decimal.NewFromInt(5000), decimal.NewFromInt(1000), 12, calcDate)
		_, err := svc.RecordManualAdjustment(asset.ID, decimal.NewFromInt(4000), "early disposal", nil)
		testutil.AssertNoError(t, err)

		var updated models.Asset
		testutil.AssertNoError(t, db.First(&updated, asset.ID).Error)
		if !updated.IsFullyDepreciated {
			t.Error("asset written down to salvage should be fully depreciated")
		}
	})

	t.Run("rejects_non_positive_amount", func(t *testing.T) {
		asset := testutil.CreateTestAsset(t, db, cat.ID, price, decimal.Zero, 24, calcDate)
		_, err := svc.RecordManualAdjustment(asset.ID, decimal.Zero, "noop", nil)
		testutil.AssertAppError(t, err, "INVALID_ADJUSTMENT_AMOUNT")
	})

	t.Run("rejects_amount_below_salvage", func(t *testing.T) {
		asset := testutil.CreateTestAsset(t, db, cat.ID, decimal.NewFromInt(5000), decimal.NewFromInt(1000), 12, calcDate)
		_, err := svc.RecordManualAdjustment(asset.ID, decimal.NewFromInt(4500), "too deep", nil)
		testutil.AssertAppError(t, err, "ADJUSTMENT_EXCEEDS_BOOK_VALUE")
	})

	t.Run("rejects_fully_depreciated_asset", func(t *testing.T) {
		asset := testutil.CreateTestAsset(t, db, cat.ID, price, decimal.Zero, 24, calcDate)
		testutil.AssertNoError(t, db.Model(asset).Update("is_fully_depreciated", true).Error)
		_, err := svc.RecordManualAdjustment(asset.ID, decimal.NewFromInt(100), "late", nil)
		testutil.AssertAppError(t, err, "ASSET_FULLY_DEPRECIATED")
	})

	t.Run("asset_not_found", func(t *testing.T) {
		_, err := svc.RecordManualAdjustment(99999, decimal.NewFromInt(100), "ghost", nil)
		testutil.AssertAppError(t, err, "ASSET_NOT_FOUND")
	})
}
