package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "aktiva/internal/errors"
	"aktiva/internal/models"
	"aktiva/internal/pagination"
	"aktiva/internal/services"
)

// ScheduleHandler handles recurring-schedule requests.
type ScheduleHandler struct {
	scheduleService services.ScheduleServicer
	auditService    services.AuditServicer
}

// NewScheduleHandler creates a new ScheduleHandler.
func NewScheduleHandler(scheduleService services.ScheduleServicer, auditService services.AuditServicer) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: scheduleService, auditService: auditService}
}

// CreateScheduleRequest represents the request payload for creating a schedule.
type CreateScheduleRequest struct {
	Name               string         `json:"name" binding:"required,min=1,max=100"`
	Cadence            models.Cadence `json:"cadence" binding:"required,cadence"`
	ExecutionDay       int            `json:"execution_day" binding:"required,min=1,max=31"`
	IncludeCategoryIDs []uint         `json:"include_category_ids"`
	ExcludeCategoryIDs []uint         `json:"exclude_category_ids"`
}

// UpdateScheduleRequest represents the request payload for updating a schedule.
type UpdateScheduleRequest struct {
	Name               *string         `json:"name" binding:"omitempty,min=1,max=100"`
	Cadence            *models.Cadence `json:"cadence" binding:"omitempty,cadence"`
	ExecutionDay       *int            `json:"execution_day" binding:"omitempty,min=1,max=31"`
	IncludeCategoryIDs []uint          `json:"include_category_ids"`
	ExcludeCategoryIDs []uint          `json:"exclude_category_ids"`
}

// SetActiveRequest represents the request payload for pausing or resuming
// a schedule.
type SetActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// CreateSchedule handles schedule creation
// @Summary     Create a recurring schedule
// @Description Create a recurring depreciation schedule with a cadence and execution day
// @Tags        schedules
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateScheduleRequest true "Schedule details"
// @Success     201 {object} models.DepreciationSchedule "Schedule created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Duplicate schedule name"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /schedules [post]
func (h *ScheduleHandler) CreateSchedule(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	schedule, err := h.scheduleService.CreateSchedule(services.CreateScheduleInput{
		Name:               req.Name,
		Cadence:            req.Cadence,
		ExecutionDay:       req.ExecutionDay,
		IncludeCategoryIDs: req.IncludeCategoryIDs,
		ExcludeCategoryIDs: req.ExcludeCategoryIDs,
		CreatedByID:        userID,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_SCHEDULE", "schedule", schedule.ID, c.ClientIP(),
		map[string]interface{}{"name": req.Name, "cadence": req.Cadence, "execution_day": req.ExecutionDay})

	c.JSON(http.StatusCreated, gin.H{"schedule": schedule})
}

// GetSchedules handles the retrieval of schedules
// @Summary     List schedules
// @Description Get a paginated list of recurring depreciation schedules
// @Tags        schedules
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Param       is_active query bool false "Filter by active state"
// @Success     200 {object} pagination.PageResponse[models.DepreciationSchedule] "List of schedules"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /schedules [get]
func (h *ScheduleHandler) GetSchedules(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	isActive, err := parseBoolQuery(c, "is_active")
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.scheduleService.GetSchedules(page, isActive)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetScheduleByID handles the retrieval of a specific schedule
// @Summary     Get schedule by ID
// @Description Get a specific recurring schedule with its derived next execution date
// @Tags        schedules
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Schedule ID"
// @Success     200 {object} models.DepreciationSchedule "Schedule details"
// @Failure     400 {object} ErrorResponse "Invalid schedule ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Schedule not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /schedules/{id} [get]
func (h *ScheduleHandler) GetScheduleByID(c *gin.Context) {
	scheduleID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	schedule, err := h.scheduleService.GetScheduleByID(scheduleID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"schedule": schedule})
}

// UpdateSchedule handles updating a schedule
// @Summary     Update schedule
// @Description Update a recurring schedule's name, cadence, execution day, or filters
// @Tags        schedules
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Schedule ID"
// @Param       request body UpdateScheduleRequest true "Updated schedule details"
// @Success     200 {object} models.DepreciationSchedule "Updated schedule"
// @Failure     400 {object} ErrorResponse "Invalid input or schedule ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Schedule not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /schedules/{id} [put]
func (h *ScheduleHandler) UpdateSchedule(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	scheduleID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	schedule, err := h.scheduleService.UpdateSchedule(scheduleID, services.UpdateScheduleInput{
		Name:               req.Name,
		Cadence:            req.Cadence,
		ExecutionDay:       req.ExecutionDay,
		IncludeCategoryIDs: req.IncludeCategoryIDs,
		ExcludeCategoryIDs: req.ExcludeCategoryIDs,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_SCHEDULE", "schedule", schedule.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"schedule": schedule})
}

// SetScheduleActive handles pausing or resuming a schedule
// @Summary     Pause or resume schedule
// @Description Set a schedule's active state; paused schedules are skipped by the worker
// @Tags        schedules
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Schedule ID"
// @Param       request body SetActiveRequest true "Active state"
// @Success     200 {object} models.DepreciationSchedule "Updated schedule"
// @Failure     400 {object} ErrorResponse "Invalid input or schedule ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Schedule not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /schedules/{id}/active [put]
func (h *ScheduleHandler) SetScheduleActive(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	scheduleID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	schedule, err := h.scheduleService.SetActive(scheduleID, *req.IsActive)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "SET_SCHEDULE_ACTIVE", "schedule", schedule.ID, c.ClientIP(),
		map[string]interface{}{"is_active": *req.IsActive})

	c.JSON(http.StatusOK, gin.H{"schedule": schedule})
}

// DeleteSchedule handles deleting a schedule
// @Summary     Delete schedule
// @Description Delete a recurring schedule, detaching its past executions
// @Tags        schedules
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Schedule ID"
// @Success     200 {object} MessageResponse "Schedule deleted"
// @Failure     400 {object} ErrorResponse "Invalid schedule ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Schedule not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /schedules/{id} [delete]
func (h *ScheduleHandler) DeleteSchedule(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	scheduleID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.scheduleService.DeleteSchedule(scheduleID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_SCHEDULE", "schedule", scheduleID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Schedule deleted successfully"})
}
