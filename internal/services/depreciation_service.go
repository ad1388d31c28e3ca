package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"aktiva/internal/depreciation"
	apperrors "aktiva/internal/errors"
	"aktiva/internal/logger"
	"aktiva/internal/models"
	"aktiva/internal/pagination"
	"aktiva/internal/uuid"
)

// errAlreadyCalculated signals that a concurrent run committed the same
// period first. The asset is reported as skipped, not failed.
var errAlreadyCalculated = errors.New("period already calculated by a concurrent run")

// depreciationService runs batch depreciation and serves run history.
type depreciationService struct {
	db          *gorm.DB
	concurrency int
	usage       UnitsUsageFn
	progress    ProgressReporter
}

// NewDepreciationService creates a new DepreciationServicer. usage may be
// nil when no units-of-production source exists; progress may be nil when
// no progress sink is wired.
func NewDepreciationService(db *gorm.DB, concurrency int, usage UnitsUsageFn, progress ProgressReporter) DepreciationServicer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &depreciationService{
		db:          db,
		concurrency: concurrency,
		usage:       usage,
		progress:    progress,
	}
}

// RunBatch executes one batch depreciation run over all matching assets.
// Asset-level failures are isolated; the run itself fails only when the
// run cannot be set up or finalized. A cancelled context finalizes the
// run as cancelled with the counts committed so far.
func (s *depreciationService) RunBatch(ctx context.Context, cfg BatchConfig) (*ExecutionResult, error) {
	if cfg.CalculationDate.IsZero() {
		return nil, apperrors.ErrInvalidCalculationDate
	}
	if cfg.Granularity == "" {
		cfg.Granularity = models.CadenceMonthly
	}
	if !cfg.Granularity.Valid() {
		return nil, apperrors.ErrInvalidCadence
	}

	execution := &models.DepreciationExecution{
		CalculationDate: cfg.CalculationDate,
		Granularity:     cfg.Granularity,
		Status:          models.ExecutionPending,
		ScheduleID:      cfg.ScheduleID,
		TriggeredByID:   cfg.TriggeredByID,
	}
	execution.SetIncludeCategories(cfg.IncludeCategoryIDs)
	execution.SetExcludeCategories(cfg.ExcludeCategoryIDs)

	// A dry run mutates nothing, including run history. The execution is
	// assembled in memory so the response shape matches a real run.
	if cfg.DryRun {
		execution.Reference = uuid.New()
	} else {
		if err := s.db.Create(execution).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	started := time.Now()
	s.transition(execution, models.ExecutionRunning, cfg.DryRun, map[string]interface{}{
		"status":     models.ExecutionRunning,
		"started_at": started,
	})
	execution.StartedAt = &started

	assets, err := s.loadAssets(cfg)
	if err != nil {
		s.finalize(execution, cfg.DryRun, models.ExecutionFailed, started, nil, err.Error())
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	outcomes := s.processAll(ctx, execution, assets, cfg)

	status := models.ExecutionCompleted
	if ctx.Err() != nil {
		status = models.ExecutionCancelled
	}
	s.finalize(execution, cfg.DryRun, status, started, outcomes, "")

	result := &ExecutionResult{
		Execution: execution,
		Outcomes:  outcomes,
		Subtotals: subtotals(assets, outcomes),
		DryRun:    cfg.DryRun,
	}
	return result, nil
}

// loadAssets selects the active, not yet fully depreciated assets that
// match the run's category filters.
func (s *depreciationService) loadAssets(cfg BatchConfig) ([]models.Asset, error) {
	query := s.db.Preload("Category").
		Where("is_active = ? AND is_fully_depreciated = ?", true, false)
	if len(cfg.IncludeCategoryIDs) > 0 {
		query = query.Where("category_id IN ?", cfg.IncludeCategoryIDs)
	}
	if len(cfg.ExcludeCategoryIDs) > 0 {
		query = query.Where("category_id NOT IN ?", cfg.ExcludeCategoryIDs)
	}

	var assets []models.Asset
	if err := query.Order("id").Find(&assets).Error; err != nil {
		return nil, err
	}
	return assets, nil
}

// processAll fans the assets out over a bounded worker pool. Assets not
// reached before cancellation are left out of the outcome list.
func (s *depreciationService) processAll(ctx context.Context, execution *models.DepreciationExecution, assets []models.Asset, cfg BatchConfig) []AssetOutcome {
	var (
		mu        sync.Mutex
		outcomes  = make([]AssetOutcome, 0, len(assets))
		processed atomic.Int64
	)

	var executionID *uint
	if !cfg.DryRun {
		id := execution.ID
		executionID = &id
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i := range assets {
		asset := &assets[i]
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			outcome := s.processAsset(asset, cfg, executionID)

			mu.Lock()
			outcomes = append(outcomes, outcome)
			mu.Unlock()

			if s.progress != nil {
				s.progress.Report(execution.Reference, int(processed.Add(1)), len(assets))
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].AssetID < outcomes[j].AssetID })
	return outcomes
}

// processAsset calculates and, unless the run is a dry run, commits the
// pending periods for one asset. The commit is guarded by a conditional
// update on periods_depreciated and accumulated_depreciation, so each
// period is applied at most once even under concurrent runs and a manual
// adjustment committed after the asset was read is never overwritten.
func (s *depreciationService) processAsset(asset *models.Asset, cfg BatchConfig, executionID *uint) AssetOutcome {
	outcome := AssetOutcome{
		AssetID:    asset.ID,
		AssetTag:   asset.Tag,
		CategoryID: asset.CategoryID,
		Amount:     decimal.Zero,
	}

	state, err := depreciation.StateFor(asset, cfg.CalculationDate)
	if err != nil {
		outcome.Status = OutcomeFailed
		outcome.Reason = err.Error()
		return outcome
	}

	pending := state.PendingMonths()
	if pending == 0 {
		outcome.Status = OutcomeSkipped
		outcome.Reason = "no periods due"
		return outcome
	}
	months := pending
	if limit := cfg.Granularity.Months(); months > limit {
		months = limit
	}

	book := state.BookValue
	accumulated := asset.AccumulatedDepreciation
	total := decimal.Zero
	records := make([]models.DepreciationRecord, 0, months)

	for k := 0; k < months; k++ {
		monthIndex := state.NextMonthIndex() + k
		periodStart := state.MonthStart(monthIndex)
		periodEnd := periodStart.AddDate(0, 1, -1)

		var units int64
		if asset.DepreciationMethod == models.MethodUnitsOfProduction {
			if s.usage == nil {
				outcome.Status = OutcomeFailed
				outcome.Reason = "no usage source configured for units of production"
				return outcome
			}
			units, err = s.usage(asset, periodEnd)
			if err != nil {
				outcome.Status = OutcomeFailed
				outcome.Reason = err.Error()
				return outcome
			}
		}

		amount, err := depreciation.MonthlyAmount(asset.DepreciationMethod, state.Terms, monthIndex, book, units)
		if err != nil {
			outcome.Status = OutcomeFailed
			outcome.Reason = err.Error()
			return outcome
		}

		records = append(records, models.DepreciationRecord{
			AssetID:                 asset.ID,
			PeriodIndex:             monthIndex,
			PeriodMonths:            1,
			PeriodStart:             periodStart,
			PeriodEnd:               periodEnd,
			DepreciationDate:        cfg.CalculationDate,
			Method:                  asset.DepreciationMethod,
			BookValueBefore:         book,
			Amount:                  amount,
			BookValueAfter:          book.Sub(amount),
			AccumulatedDepreciation: accumulated.Add(amount),
			TriggeredByID:           cfg.TriggeredByID,
		})
		book = book.Sub(amount)
		accumulated = accumulated.Add(amount)
		total = total.Add(amount)
	}

	periodsAfter := state.MonthsDepreciated + months
	fully := periodsAfter >= state.RemainingMonths() ||
		!book.GreaterThan(state.Terms.SalvageValue)

	outcome.Amount = total
	outcome.PeriodMonths = months

	if cfg.DryRun {
		outcome.Status = OutcomeSuccess
		return outcome
	}

	var nextDate *time.Time
	if !fully {
		next := state.MonthStart(state.NextMonthIndex() + months)
		nextDate = &next
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Asset{}).
			Where("id = ? AND periods_depreciated = ? AND accumulated_depreciation = ?",
				asset.ID, state.MonthsDepreciated, asset.AccumulatedDepreciation).
			Updates(map[string]interface{}{
				"accumulated_depreciation": accumulated,
				"current_book_value":       book,
				"periods_depreciated":      periodsAfter,
				"is_fully_depreciated":     fully,
				"last_depreciation_date":   cfg.CalculationDate,
				"next_depreciation_date":   nextDate,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errAlreadyCalculated
		}

		for i := range records {
			records[i].ExecutionID = executionID
		}
		return tx.Create(&records).Error
	})
	if errors.Is(err, errAlreadyCalculated) {
		outcome.Status = OutcomeSkipped
		outcome.Amount = decimal.Zero
		outcome.PeriodMonths = 0
		outcome.Reason = errAlreadyCalculated.Error()
		return outcome
	}
	if err != nil {
		logger.Get().Errorw("failed to commit depreciation",
			"asset_id", asset.ID,
			"error", err,
		)
		outcome.Status = OutcomeFailed
		outcome.Amount = decimal.Zero
		outcome.PeriodMonths = 0
		outcome.Reason = "failed to commit depreciation"
		return outcome
	}

	outcome.Status = OutcomeSuccess
	return outcome
}

// transition moves the execution to a new status, persisting unless the
// run is a dry run.
func (s *depreciationService) transition(execution *models.DepreciationExecution, next models.ExecutionStatus, dryRun bool, updates map[string]interface{}) {
	if !execution.Status.CanTransition(next) {
		return
	}
	execution.Status = next
	if dryRun {
		return
	}
	if err := s.db.Model(execution).Updates(updates).Error; err != nil {
		logger.Get().Errorw("failed to update execution status",
			"execution_id", execution.ID,
			"status", next,
			"error", err,
		)
	}
}

// finalize writes the run's terminal state and aggregate counters exactly
// once.
func (s *depreciationService) finalize(execution *models.DepreciationExecution, dryRun bool, status models.ExecutionStatus, started time.Time, outcomes []AssetOutcome, errMessage string) {
	total := decimal.Zero
	var succeeded, failed, skipped int
	for _, o := range outcomes {
		switch o.Status {
		case OutcomeSuccess:
			succeeded++
			total = total.Add(o.Amount)
		case OutcomeFailed:
			failed++
		case OutcomeSkipped:
			skipped++
		}
	}

	completed := time.Now()
	execution.AssetsProcessed = len(outcomes)
	execution.SuccessfulCalculations = succeeded
	execution.FailedCalculations = failed
	execution.SkippedAssets = skipped
	execution.TotalDepreciation = total
	execution.DurationMillis = completed.Sub(started).Milliseconds()
	execution.ErrorMessage = errMessage
	execution.CompletedAt = &completed

	s.transition(execution, status, dryRun, map[string]interface{}{
		"status":                  status,
		"assets_processed":        execution.AssetsProcessed,
		"successful_calculations": execution.SuccessfulCalculations,
		"failed_calculations":     execution.FailedCalculations,
		"skipped_assets":          execution.SkippedAssets,
		"total_depreciation":      execution.TotalDepreciation,
		"duration_millis":         execution.DurationMillis,
		"error_message":           execution.ErrorMessage,
		"completed_at":            execution.CompletedAt,
	})
}

// subtotals aggregates successful outcomes per asset category.
func subtotals(assets []models.Asset, outcomes []AssetOutcome) []CategorySubtotal {
	names := make(map[uint]string, len(assets))
	for i := range assets {
		names[assets[i].CategoryID] = assets[i].Category.Name
	}

	byCategory := make(map[uint]*CategorySubtotal)
	for _, o := range outcomes {
		if o.Status != OutcomeSuccess {
			continue
		}
		st, ok := byCategory[o.CategoryID]
		if !ok {
			st = &CategorySubtotal{
				CategoryID:   o.CategoryID,
				CategoryName: names[o.CategoryID],
				Total:        decimal.Zero,
			}
			byCategory[o.CategoryID] = st
		}
		st.AssetCount++
		st.Total = st.Total.Add(o.Amount)
	}

	result := make([]CategorySubtotal, 0, len(byCategory))
	for _, st := range byCategory {
		result = append(result, *st)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CategoryID < result[j].CategoryID })
	return result
}

// PreviewSchedule projects the asset's amortization table without writing
// anything. An asset without enough configuration yields an empty table.
func (s *depreciationService) PreviewSchedule(assetID uint, now time.Time) ([]depreciation.Entry, error) {
	var asset models.Asset
	if err := s.db.First(&asset, assetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAssetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	entries := depreciation.Generate(&asset, now)
	if entries == nil {
		entries = []depreciation.Entry{}
	}
	return entries, nil
}

// ListExecutions retrieves a paginated run history, newest first.
func (s *depreciationService) ListExecutions(page pagination.PageRequest, filter ExecutionFilter) (*pagination.PageResponse[models.DepreciationExecution], error) {
	page.Defaults()

	base := s.db.Model(&models.DepreciationExecution{})
	if filter.Status != nil {
		base = base.Where("status = ?", *filter.Status)
	}
	if filter.ScheduleID != nil {
		base = base.Where("schedule_id = ?", *filter.ScheduleID)
	}
	if filter.FromDate != nil {
		base = base.Where("calculation_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		base = base.Where("calculation_date <= ?", *filter.ToDate)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var executions []models.DepreciationExecution
	if err := base.Order("created_at DESC").Scopes(pagination.Paginate(page)).Find(&executions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(executions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetExecution retrieves a single run by ID.
func (s *depreciationService) GetExecution(executionID uint) (*models.DepreciationExecution, error) {
	var execution models.DepreciationExecution
	if err := s.db.First(&execution, executionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrExecutionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &execution, nil
}

// RecordManualAdjustment writes a one-off depreciation adjustment outside
// the periodic engine, for impairments and partial disposals. The commit
// carries the same periods_depreciated plus accumulated_depreciation guard
// as batch runs, so adjustments and runs racing each other lose cleanly
// instead of overwriting one another.
func (s *depreciationService) RecordManualAdjustment(assetID uint, amount decimal.Decimal, reason string, triggeredByID *uint) (*models.DepreciationRecord, error) {
	if !amount.IsPositive() {
		return nil, apperrors.ErrInvalidAdjustmentAmount
	}

	var asset models.Asset
	if err := s.db.First(&asset, assetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAssetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if asset.IsFullyDepreciated {
		return nil, apperrors.ErrAssetFullyDepreciated
	}

	book := asset.CurrentBookValue
	after := book.Sub(amount)
	if after.LessThan(asset.SalvageValue) {
		return nil, apperrors.ErrAdjustmentExceedsBook
	}

	accumulated := asset.AccumulatedDepreciation.Add(amount)
	fully := after.Equal(asset.SalvageValue)
	now := time.Now()

	record := &models.DepreciationRecord{
		AssetID:                 asset.ID,
		PeriodIndex:             0,
		PeriodMonths:            0,
		PeriodStart:             now,
		PeriodEnd:               now,
		DepreciationDate:        now,
		Method:                  asset.DepreciationMethod,
		BookValueBefore:         book,
		Amount:                  amount,
		BookValueAfter:          after,
		AccumulatedDepreciation: accumulated,
		IsManualAdjustment:      true,
		AdjustmentReason:        reason,
		TriggeredByID:           triggeredByID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Asset{}).
			Where("id = ? AND periods_depreciated = ? AND accumulated_depreciation = ?",
				asset.ID, asset.PeriodsDepreciated, asset.AccumulatedDepreciation).
			Updates(map[string]interface{}{
				"accumulated_depreciation": accumulated,
				"current_book_value":       after,
				"is_fully_depreciated":     fully,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errAlreadyCalculated
		}
		return tx.Create(record).Error
	})
	if errors.Is(err, errAlreadyCalculated) {
		return nil, apperrors.ErrConcurrentModification
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return record, nil
}
