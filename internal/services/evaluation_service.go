// Package services wires the statistical core to storage, caching, and
// notification collaborators, and runs the periodic evaluation sweep.
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/forecastsight/forecastsight-go/internal/database"
	"github.com/forecastsight/forecastsight-go/internal/models"
	"github.com/forecastsight/forecastsight-go/internal/quality"
)

// PredictionStore is the storage surface the evaluation service needs.
type PredictionStore interface {
	ListActiveModels(ctx context.Context) ([]database.ForecastModel, error)
	GetPredictionHistory(ctx context.Context, modelID string, since time.Time) ([]models.PredictionRecord, error)
	SaveRetrainingTrigger(ctx context.Context, trigger *models.RetrainingTrigger) error
}

// ReportCache is the caching surface the evaluation service needs.
type ReportCache interface {
	GetReport(ctx context.Context, modelID string) (*quality.ModelPerformanceReport, bool)
	SetReport(ctx context.Context, report *quality.ModelPerformanceReport)
}

// EvaluationConfig bounds the evaluation windows and sweep concurrency.
type EvaluationConfig struct {
	RecentWindow     time.Duration
	BaselineWindow   time.Duration
	MinHistoryPoints int
	MaxConcurrent    int
}

// EvaluationService computes model performance reports: accuracy metrics,
// bias analysis, degradation detection, and retraining triggers. Reports are
// cached per model; the sweep evaluates every active model on a schedule.
type EvaluationService struct {
	store    PredictionStore
	cache    ReportCache
	detector *quality.Detector
	notifier RetrainingNotifier
	logger   *logrus.Logger
	cfg      EvaluationConfig
}

func NewEvaluationService(store PredictionStore, reportCache ReportCache, notifier RetrainingNotifier, logger *logrus.Logger, cfg EvaluationConfig) *EvaluationService {
	if cfg.MinHistoryPoints < 1 {
		cfg.MinHistoryPoints = 5
	}
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	return &EvaluationService{
		store:    store,
		cache:    reportCache,
		detector: quality.NewDetector(logger, cfg.RecentWindow, cfg.BaselineWindow),
		notifier: notifier,
		logger:   logger,
		cfg:      cfg,
	}
}

// EvaluateModel produces a performance report for one model, serving from
// cache when a fresh report exists. Sections that cannot be computed from the
// available history are left nil and the report is marked incomplete; only
// storage failures surface as errors.
func (s *EvaluationService) EvaluateModel(ctx context.Context, modelID string) (*quality.ModelPerformanceReport, error) {
	if s.cache != nil {
		if report, ok := s.cache.GetReport(ctx, modelID); ok {
			return report, nil
		}
	}

	windowEnd := time.Now().UTC()
	windowStart := windowEnd.Add(-(s.cfg.RecentWindow + s.cfg.BaselineWindow))

	history, err := s.store.GetPredictionHistory(ctx, modelID, windowStart)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for model %s: %w", modelID, err)
	}

	actualized := 0
	for i := range history {
		if history[i].IsActualized() {
			actualized++
		}
	}
	if actualized < s.cfg.MinHistoryPoints {
		s.logger.WithFields(logrus.Fields{
			"model_id":   modelID,
			"actualized": actualized,
			"required":   s.cfg.MinHistoryPoints,
		}).Warn("insufficient actualized history, emitting incomplete report")
		report := quality.GenerateReport(modelID, windowStart, windowEnd, nil, nil, nil)
		return report, nil
	}

	metrics, err := quality.EvaluateAccuracy(history)
	if err != nil {
		s.logger.WithField("model_id", modelID).WithError(err).Warn("accuracy metrics unavailable")
		metrics = nil
	}
	bias, err := quality.AnalyzeBias(history)
	if err != nil {
		s.logger.WithField("model_id", modelID).WithError(err).Warn("bias analysis unavailable")
		bias = nil
	}
	degradation := s.detector.DetectDegradation(modelID, history)

	report := quality.GenerateReport(modelID, windowStart, windowEnd, metrics, bias, degradation)

	if report.Trigger != nil {
		if err := s.store.SaveRetrainingTrigger(ctx, report.Trigger); err != nil {
			return nil, fmt.Errorf("failed to save retraining trigger for model %s: %w", modelID, err)
		}
		if err := s.notifier.NotifyRetraining(ctx, report.Trigger); err != nil {
			s.logger.WithField("model_id", modelID).WithError(err).Error("retraining notification failed")
		}
	}

	if s.cache != nil {
		s.cache.SetReport(ctx, report)
	}
	return report, nil
}

// EvaluateAll runs EvaluateModel for every active model, at most
// MaxConcurrent models in flight. Per-model failures are logged and counted;
// the sweep itself fails only when the model list cannot be loaded.
func (s *EvaluationService) EvaluateAll(ctx context.Context) error {
	activeModels, err := s.store.ListActiveModels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models for evaluation sweep: %w", err)
	}
	if len(activeModels) == 0 {
		s.logger.Info("evaluation sweep skipped: no active models")
		return nil
	}

	start := time.Now()
	sem := make(chan struct{}, s.cfg.MaxConcurrent)
	var wg sync.WaitGroup
	var mu sync.Mutex
	failures := 0

	for _, m := range activeModels {
		wg.Add(1)
		go func(modelID string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if _, err := s.EvaluateModel(ctx, modelID); err != nil {
				s.logger.WithField("model_id", modelID).WithError(err).Error("model evaluation failed")
				mu.Lock()
				failures++
				mu.Unlock()
			}
		}(m.ID)
	}
	wg.Wait()

	s.logger.WithFields(logrus.Fields{
		"models":   len(activeModels),
		"failures": failures,
		"duration": time.Since(start),
	}).Info("evaluation sweep completed")
	return nil
}
