// Package worker runs scheduled depreciation in the background: a poller
// turns due schedules into queue tasks, and a task handler executes the
// batch runs with progress published to Redis.
package worker

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// TypeDepreciationRun is the task type for a scheduled batch run.
const TypeDepreciationRun = "depreciation:run"

// DepreciationRunPayload is the payload of a scheduled batch run task.
type DepreciationRunPayload struct {
	ScheduleID      uint   `json:"schedule_id"`
	CalculationDate string `json:"calculation_date"`
}

// NewDepreciationRunTask builds the queue task for a schedule due on the
// given date. The task ID embeds schedule and date so re-enqueueing the
// same run is deduplicated by the queue.
func NewDepreciationRunTask(scheduleID uint, calculationDate time.Time) (*asynq.Task, []asynq.Option, error) {
	date := calculationDate.Format("2006-01-02")
	payload, err := json.Marshal(DepreciationRunPayload{
		ScheduleID:      scheduleID,
		CalculationDate: date,
	})
	if err != nil {
		return nil, nil, err
	}

	opts := []asynq.Option{
		asynq.TaskID(fmt.Sprintf("%s:%d:%s", TypeDepreciationRun, scheduleID, date)),
		asynq.MaxRetry(3),
		asynq.Timeout(30 * time.Minute),
	}
	return asynq.NewTask(TypeDepreciationRun, payload), opts, nil
}
