package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"aktiva/internal/logger"
	"aktiva/internal/models"
	"aktiva/internal/services"
)

// RunHandler executes scheduled batch depreciation tasks.
type RunHandler struct {
	depreciationService services.DepreciationServicer
	scheduleService     services.ScheduleServicer
}

// NewRunHandler creates a new RunHandler.
func NewRunHandler(depreciationService services.DepreciationServicer, scheduleService services.ScheduleServicer) *RunHandler {
	return &RunHandler{
		depreciationService: depreciationService,
		scheduleService:     scheduleService,
	}
}

// HandleRun processes one scheduled batch run task. A schedule deleted or
// paused after enqueueing is skipped without error so the task is not
// retried.
func (h *RunHandler) HandleRun(ctx context.Context, task *asynq.Task) error {
	var payload DepreciationRunPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	calcDate, err := time.Parse("2006-01-02", payload.CalculationDate)
	if err != nil {
		return fmt.Errorf("parse calculation date: %v: %w", err, asynq.SkipRetry)
	}

	schedule, err := h.scheduleService.GetScheduleByID(payload.ScheduleID)
	if err != nil {
		logger.Get().Warnw("schedule gone, skipping run",
			"schedule_id", payload.ScheduleID,
			"error", err,
		)
		return nil
	}
	if !schedule.IsActive {
		logger.Get().Infow("schedule paused, skipping run", "schedule_id", schedule.ID)
		return nil
	}

	scheduleID := schedule.ID
	result, err := h.depreciationService.RunBatch(ctx, services.BatchConfig{
		CalculationDate:    calcDate,
		Granularity:        granularityFor(schedule.Cadence),
		IncludeCategoryIDs: schedule.IncludeCategories(),
		ExcludeCategoryIDs: schedule.ExcludeCategories(),
		ScheduleID:         &scheduleID,
	})
	if err != nil {
		return fmt.Errorf("run batch for schedule %d: %w", scheduleID, err)
	}

	if err := h.scheduleService.MarkExecuted(scheduleID, calcDate); err != nil {
		logger.Get().Errorw("failed to mark schedule executed",
			"schedule_id", scheduleID,
			"error", err,
		)
	}

	logger.Get().Infow("scheduled depreciation run finished",
		"schedule_id", scheduleID,
		"execution_ref", result.Execution.Reference,
		"status", result.Execution.Status,
		"assets_processed", result.Execution.AssetsProcessed,
		"total_depreciation", result.Execution.TotalDepreciation,
	)
	return nil
}

// granularityFor maps a schedule cadence to the batch run granularity.
func granularityFor(cadence models.Cadence) models.Cadence {
	if cadence.Valid() {
		return cadence
	}
	return models.CadenceMonthly
}
