package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"aktiva/internal/depreciation"
	apperrors "aktiva/internal/errors"
	"aktiva/internal/models"
	"aktiva/internal/pagination"
)

// scheduleService manages recurring depreciation schedules.
type scheduleService struct {
	db *gorm.DB
}

// NewScheduleService creates a new ScheduleServicer.
func NewScheduleService(db *gorm.DB) ScheduleServicer {
	return &scheduleService{db: db}
}

// CreateSchedule creates a new recurring schedule.
func (s *scheduleService) CreateSchedule(input CreateScheduleInput) (*models.DepreciationSchedule, error) {
	if input.Name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "schedule name is required")
	}
	if !input.Cadence.Valid() {
		return nil, apperrors.ErrInvalidCadence
	}
	if input.ExecutionDay < 1 || input.ExecutionDay > 31 {
		return nil, apperrors.ErrInvalidExecutionDay
	}

	var count int64
	if err := s.db.Model(&models.DepreciationSchedule{}).
		Where("name = ?", input.Name).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateSchedule
	}

	schedule := &models.DepreciationSchedule{
		Name:         input.Name,
		Cadence:      input.Cadence,
		ExecutionDay: input.ExecutionDay,
		IsActive:     true,
		CreatedByID:  input.CreatedByID,
	}
	schedule.SetIncludeCategories(input.IncludeCategoryIDs)
	schedule.SetExcludeCategories(input.ExcludeCategoryIDs)

	if err := s.db.Create(schedule).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	deriveNextExecution(schedule)
	return schedule, nil
}

// GetSchedules retrieves a paginated list of schedules, optionally
// filtered by active state.
func (s *scheduleService) GetSchedules(page pagination.PageRequest, isActive *bool) (*pagination.PageResponse[models.DepreciationSchedule], error) {
	page.Defaults()

	base := s.db.Model(&models.DepreciationSchedule{})
	if isActive != nil {
		base = base.Where("is_active = ?", *isActive)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var schedules []models.DepreciationSchedule
	if err := base.Order("name").Scopes(pagination.Paginate(page)).Find(&schedules).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for i := range schedules {
		deriveNextExecution(&schedules[i])
	}

	result := pagination.NewPageResponse(schedules, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetScheduleByID retrieves a schedule by ID.
func (s *scheduleService) GetScheduleByID(scheduleID uint) (*models.DepreciationSchedule, error) {
	var schedule models.DepreciationSchedule
	if err := s.db.First(&schedule, scheduleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrScheduleNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	deriveNextExecution(&schedule)
	return &schedule, nil
}

// UpdateSchedule updates an existing schedule.
func (s *scheduleService) UpdateSchedule(scheduleID uint, input UpdateScheduleInput) (*models.DepreciationSchedule, error) {
	schedule, err := s.GetScheduleByID(scheduleID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if input.Name != nil && *input.Name != "" {
		updates["name"] = *input.Name
	}
	if input.Cadence != nil {
		if !input.Cadence.Valid() {
			return nil, apperrors.ErrInvalidCadence
		}
		updates["cadence"] = *input.Cadence
	}
	if input.ExecutionDay != nil {
		if *input.ExecutionDay < 1 || *input.ExecutionDay > 31 {
			return nil, apperrors.ErrInvalidExecutionDay
		}
		updates["execution_day"] = *input.ExecutionDay
	}
	if input.IncludeCategoryIDs != nil {
		schedule.SetIncludeCategories(input.IncludeCategoryIDs)
		updates["include_category_ids"] = schedule.IncludeCategoryIDs
	}
	if input.ExcludeCategoryIDs != nil {
		schedule.SetExcludeCategories(input.ExcludeCategoryIDs)
		updates["exclude_category_ids"] = schedule.ExcludeCategoryIDs
	}

	if len(updates) > 0 {
		if err := s.db.Model(schedule).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	deriveNextExecution(schedule)
	return schedule, nil
}

// DeleteSchedule soft-deletes a schedule. Past executions are detached so
// run history survives the schedule.
func (s *scheduleService) DeleteSchedule(scheduleID uint) error {
	schedule, err := s.GetScheduleByID(scheduleID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.DepreciationExecution{}).
			Where("schedule_id = ?", scheduleID).
			Update("schedule_id", nil).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(schedule).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// SetActive pauses or resumes a schedule.
func (s *scheduleService) SetActive(scheduleID uint, active bool) (*models.DepreciationSchedule, error) {
	schedule, err := s.GetScheduleByID(scheduleID)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(schedule).Update("is_active", active).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	schedule.IsActive = active
	deriveNextExecution(schedule)
	return schedule, nil
}

// DueSchedules returns the active schedules whose next execution date
// falls on or before asOf. The next date is anchored on the last
// execution (or creation, for schedules that never ran), so a schedule
// missed on its execution day stays due until it runs instead of
// silently waiting for the next cadence occurrence.
func (s *scheduleService) DueSchedules(asOf time.Time) ([]models.DepreciationSchedule, error) {
	var schedules []models.DepreciationSchedule
	if err := s.db.Where("is_active = ?", true).Find(&schedules).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	due := make([]models.DepreciationSchedule, 0, len(schedules))
	for i := range schedules {
		sched := &schedules[i]
		next := nextOccurrence(sched)
		if next.After(asOf) && !depreciation.SameDay(next, asOf) {
			continue
		}
		sched.NextExecutionDate = &next
		due = append(due, *sched)
	}
	return due, nil
}

// MarkExecuted records that a schedule ran. The next occurrence is
// derived strictly after this date, so the run is not triggered twice.
func (s *scheduleService) MarkExecuted(scheduleID uint, executedAt time.Time) error {
	if err := s.db.Model(&models.DepreciationSchedule{}).
		Where("id = ?", scheduleID).
		Update("last_executed_at", executedAt).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// deriveNextExecution fills the transient next-execution field. The date
// can lie in the past when the schedule missed a poll; it is the date the
// schedule should run at next, not the next calendar occurrence.
func deriveNextExecution(schedule *models.DepreciationSchedule) {
	if !schedule.IsActive {
		schedule.NextExecutionDate = nil
		return
	}
	next := nextOccurrence(schedule)
	schedule.NextExecutionDate = &next
}

// nextOccurrence computes the first execution date strictly after the
// last run, or on/after creation when the schedule never ran.
func nextOccurrence(schedule *models.DepreciationSchedule) time.Time {
	anchor := schedule.CreatedAt
	if schedule.LastExecutedAt != nil {
		anchor = schedule.LastExecutedAt.AddDate(0, 0, 1)
	}
	return depreciation.NextExecutionDate(schedule.Cadence, schedule.ExecutionDay, anchor)
}
