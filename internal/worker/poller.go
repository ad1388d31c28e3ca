package worker

import (
	"context"
	"time"

	"github.com/hibiken/asynq"

	"aktiva/internal/logger"
	"aktiva/internal/services"
)

// Poller periodically checks for due schedules and enqueues their runs.
// Task IDs keyed by schedule and date make repeated polls idempotent.
type Poller struct {
	scheduleService services.ScheduleServicer
	client          *asynq.Client
	interval        time.Duration
}

// NewPoller creates a new Poller.
func NewPoller(scheduleService services.ScheduleServicer, client *asynq.Client, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Poller{
		scheduleService: scheduleService,
		client:          client,
		interval:        interval,
	}
}

// Run polls until the context is cancelled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(time.Now())
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			p.poll(now)
		}
	}
}

func (p *Poller) poll(now time.Time) {
	due, err := p.scheduleService.DueSchedules(now)
	if err != nil {
		logger.Get().Errorw("failed to load due schedules", "error", err)
		return
	}

	for _, schedule := range due {
		task, opts, err := NewDepreciationRunTask(schedule.ID, now)
		if err != nil {
			logger.Get().Errorw("failed to build run task",
				"schedule_id", schedule.ID,
				"error", err,
			)
			continue
		}

		info, err := p.client.Enqueue(task, opts...)
		if err != nil {
			// Duplicate task IDs mean the run is already queued.
			logger.Get().Debugw("enqueue skipped",
				"schedule_id", schedule.ID,
				"error", err,
			)
			continue
		}
		logger.Get().Infow("scheduled depreciation run enqueued",
			"schedule_id", schedule.ID,
			"task_id", info.ID,
			"queue", info.Queue,
		)
	}
}
