package scheduler

import (
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/i474232898/sunnyweather/internal/screen"
)

// Refresher is the set of open screens the scheduler keeps fresh.
type Refresher interface {
	Each(fn func(c *screen.Controller))
}

// Scheduler periodically refreshes every open screen. Ticks that land while a
// screen is still refreshing are coalesced by the screen itself.
type Scheduler struct {
	scheduler *gocron.Scheduler
	screens   Refresher
	interval  time.Duration
	logger    *zap.Logger
}

// New creates a new Scheduler. An interval <= 0 disables it.
func New(screens Refresher, interval time.Duration, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		screens:   screens,
		interval:  interval,
		logger:    logger.Named("scheduler"),
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.logger.Info("auto refresh disabled")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).WaitForSchedule().Do(func() {
		s.RefreshAll()
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("auto refresh started", zap.Duration("interval", s.interval))
	return nil
}

// RefreshAll triggers a refresh on every open screen and returns how many
// new fetches were started.
func (s *Scheduler) RefreshAll() int {
	started, coalesced := 0, 0
	s.screens.Each(func(c *screen.Controller) {
		if c.Refresh() {
			started++
		} else {
			coalesced++
		}
	})
	s.logger.Debug("auto refresh tick", zap.Int("started", started), zap.Int("coalesced", coalesced))
	return started
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
