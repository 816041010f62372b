package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// RetentionStore is the storage surface for data-retention cleanup.
type RetentionStore interface {
	DeletePredictionsBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteObservationsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionConfig defines how long evaluation data is kept.
type RetentionConfig struct {
	PredictionRetention  time.Duration
	ObservationRetention time.Duration
	Interval             time.Duration
}

// RetentionService periodically deletes predictions and observations that
// have aged out of every evaluation window.
type RetentionService struct {
	store  RetentionStore
	logger *logrus.Logger
	cfg    RetentionConfig
	cancel context.CancelFunc
}

func NewRetentionService(store RetentionStore, logger *logrus.Logger, cfg RetentionConfig) *RetentionService {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	return &RetentionService{store: store, logger: logger, cfg: cfg}
}

// Start begins periodic cleanup. An initial pass runs immediately.
func (s *RetentionService) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.logger.WithFields(logrus.Fields{
		"prediction_retention":  s.cfg.PredictionRetention,
		"observation_retention": s.cfg.ObservationRetention,
		"interval":              s.cfg.Interval,
	}).Info("starting retention service")

	go func() {
		if err := s.RunCleanup(ctx); err != nil {
			s.logger.WithError(err).Error("initial retention cleanup failed")
		}

		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.RunCleanup(ctx); err != nil {
					s.logger.WithError(err).Error("retention cleanup failed")
				}
			}
		}
	}()
}

// Stop halts periodic cleanup.
func (s *RetentionService) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.logger.Info("retention service stopped")
}

// RunCleanup performs one cleanup pass.
func (s *RetentionService) RunCleanup(ctx context.Context) error {
	now := time.Now().UTC()

	if s.cfg.PredictionRetention > 0 {
		deleted, err := s.store.DeletePredictionsBefore(ctx, now.Add(-s.cfg.PredictionRetention))
		if err != nil {
			return fmt.Errorf("prediction cleanup: %w", err)
		}
		if deleted > 0 {
			s.logger.WithField("deleted", deleted).Info("removed aged-out predictions")
		}
	}

	if s.cfg.ObservationRetention > 0 {
		deleted, err := s.store.DeleteObservationsBefore(ctx, now.Add(-s.cfg.ObservationRetention))
		if err != nil {
			return fmt.Errorf("observation cleanup: %w", err)
		}
		if deleted > 0 {
			s.logger.WithField("deleted", deleted).Info("removed aged-out observations")
		}
	}

	return nil
}
