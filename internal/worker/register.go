package worker

import (
	"github.com/hibiken/asynq"

	"aktiva/internal/services"
)

// RegisterHandlers wires all task handlers into the asynq mux.
func RegisterHandlers(mux *asynq.ServeMux, depreciationService services.DepreciationServicer, scheduleService services.ScheduleServicer) {
	runHandler := NewRunHandler(depreciationService, scheduleService)
	mux.HandleFunc(TypeDepreciationRun, runHandler.HandleRun)
}
