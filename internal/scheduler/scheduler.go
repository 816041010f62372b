// Package scheduler runs the periodic evaluation sweep on a cron cadence.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Sweeper is the operation the scheduler drives on each tick.
type Sweeper interface {
	EvaluateAll(ctx context.Context) error
}

// Refresher precomputes decomposition results on its own cadence.
type Refresher interface {
	RefreshActive(ctx context.Context) error
}

// Scheduler manages the cron tasks around the evaluation service.
type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	logger  *logrus.Logger
	ctx     context.Context
}

// NewScheduler creates a scheduler. Schedules use six-field cron expressions
// with a leading seconds field.
func NewScheduler(ctx context.Context, sweeper Sweeper, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		sweeper: sweeper,
		logger:  logger,
		ctx:     ctx,
	}
}

// Register adds the evaluation sweep under the given cron expression.
func (s *Scheduler) Register(sweepCron string) error {
	if _, err := s.cron.AddFunc(sweepCron, s.sweepTask); err != nil {
		return fmt.Errorf("register evaluation sweep: %w", err)
	}
	return nil
}

// RegisterRefresh adds the decomposition refresh under the given cron
// expression.
func (s *Scheduler) RegisterRefresh(refreshCron string, refresher Refresher) error {
	if _, err := s.cron.AddFunc(refreshCron, func() {
		s.logger.Info("running decomposition refresh")
		if err := refresher.RefreshActive(s.ctx); err != nil {
			s.logger.WithError(err).Error("decomposition refresh failed")
		}
	}); err != nil {
		return fmt.Errorf("register decomposition refresh: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// RunSweepNow executes the evaluation sweep immediately, outside the
// schedule. Used for manual triggers and run-on-start.
func (s *Scheduler) RunSweepNow() {
	s.sweepTask()
}

func (s *Scheduler) sweepTask() {
	s.logger.Info("running evaluation sweep")
	if err := s.sweeper.EvaluateAll(s.ctx); err != nil {
		s.logger.WithError(err).Error("evaluation sweep failed")
	}
}
