package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"treinopp/internal/logger"
)

// Scheduler runs the fee sweep on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	sweeper *Sweeper
	timeout time.Duration
}

func NewScheduler(sweeper *Sweeper, schedule string) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(),
		sweeper: sweeper,
		timeout: 5 * time.Minute,
	}

	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Info("Fee sweep scheduler started")
}

// Stop prevents new runs and waits for a running sweep or ctx, whichever ends first.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		logger.Warn("Fee sweep still running at shutdown")
	}
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.sweeper.Run(ctx, time.Now()); err != nil {
		logger.Error("Scheduled fee sweep failed", "error", err)
	}
}
