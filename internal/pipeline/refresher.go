package pipeline

import (
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Refreshable is told to reload the persisted entry view.
type Refreshable interface {
	Refresh()
}

// Refresher signals a Refreshable on a fixed interval. Ticks that would
// overlap a running refresh are rescheduled.
type Refresher struct {
	scheduler gocron.Scheduler
	target    Refreshable
	interval  time.Duration
	logger    *zap.SugaredLogger
}

// NewRefresher creates a refresher; it does nothing until Start.
func NewRefresher(target Refreshable, interval time.Duration, logger *zap.SugaredLogger) (*Refresher, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create scheduler")
	}
	return &Refresher{
		scheduler: scheduler,
		target:    target,
		interval:  interval,
		logger:    logger,
	}, nil
}

// Start schedules the refresh job and starts the scheduler.
func (r *Refresher) Start() error {
	j, err := r.scheduler.NewJob(
		gocron.DurationJob(r.interval),
		gocron.NewTask(r.target.Refresh),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return errors.Wrap(err, "failed to schedule refresh")
	}
	r.logger.Debugw("refresh job scheduled", "id", j.ID(), "interval", r.interval)
	r.scheduler.Start()
	return nil
}

// Stop shuts the scheduler down and waits for a running refresh.
func (r *Refresher) Stop() error {
	return r.scheduler.Shutdown()
}
