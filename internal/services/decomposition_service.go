package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/forecastsight/forecastsight-go/internal/database"
	"github.com/forecastsight/forecastsight-go/internal/decomposition"
	"github.com/forecastsight/forecastsight-go/internal/models"
)

// SeriesStore loads the observed series decomposition operates on.
type SeriesStore interface {
	GetSeriesObservations(ctx context.Context, seriesKey string, from, to time.Time) (*models.TimeSeries, error)
}

// ModelCatalog lists the models whose series the refresh sweep decomposes.
type ModelCatalog interface {
	ListActiveModels(ctx context.Context) ([]database.ForecastModel, error)
}

// DecompositionCache is the caching surface for decomposition results.
type DecompositionCache interface {
	GetDecomposition(ctx context.Context, seriesKey string, algorithm decomposition.Algorithm) (*decomposition.Result, bool)
	SetDecomposition(ctx context.Context, seriesKey string, result *decomposition.Result)
}

// DecompositionSweepConfig controls the scheduled refresh of cached
// decompositions: which algorithm runs, with what parameters, and how far
// back the observation window reaches.
type DecompositionSweepConfig struct {
	Algorithm decomposition.Algorithm
	Params    decomposition.Params
	Lookback  time.Duration
}

// DecompositionService runs the decomposition engine over stored series and
// caches results per series and algorithm. A scheduled refresh keeps the
// cache warm for every active model's series.
type DecompositionService struct {
	store   SeriesStore
	catalog ModelCatalog
	cache   DecompositionCache
	engine  *decomposition.Engine
	logger  *logrus.Logger
	cfg     DecompositionSweepConfig
}

func NewDecompositionService(store SeriesStore, catalog ModelCatalog, resultCache DecompositionCache, engine *decomposition.Engine, logger *logrus.Logger, cfg DecompositionSweepConfig) *DecompositionService {
	if cfg.Algorithm == "" {
		cfg.Algorithm = decomposition.AlgorithmSTL
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = 30 * 24 * time.Hour
	}
	return &DecompositionService{
		store:   store,
		catalog: catalog,
		cache:   resultCache,
		engine:  engine,
		logger:  logger,
		cfg:     cfg,
	}
}

// Decompose loads the series observed in [from, to) and runs the selected
// algorithm over it. Cached results are served without touching storage.
func (s *DecompositionService) Decompose(ctx context.Context, seriesKey string, algorithm decomposition.Algorithm, params decomposition.Params, from, to time.Time) (*decomposition.Result, error) {
	if s.cache != nil {
		if result, ok := s.cache.GetDecomposition(ctx, seriesKey, algorithm); ok {
			return result, nil
		}
	}
	return s.compute(ctx, seriesKey, algorithm, params, from, to)
}

// RefreshActive recomputes the configured decomposition for every active
// model's series over the lookback window and re-caches the results,
// bypassing any cached entry. Per-series failures are logged and counted;
// the refresh itself fails only when the model list cannot be loaded.
func (s *DecompositionService) RefreshActive(ctx context.Context) error {
	activeModels, err := s.catalog.ListActiveModels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models for decomposition refresh: %w", err)
	}
	if len(activeModels) == 0 {
		s.logger.Info("decomposition refresh skipped: no active models")
		return nil
	}

	to := time.Now().UTC()
	from := to.Add(-s.cfg.Lookback)
	failures := 0
	for _, m := range activeModels {
		if _, err := s.compute(ctx, m.SeriesKey, s.cfg.Algorithm, s.cfg.Params, from, to); err != nil {
			s.logger.WithFields(logrus.Fields{
				"model_id":   m.ID,
				"series_key": m.SeriesKey,
			}).WithError(err).Warn("decomposition refresh failed for series")
			failures++
		}
	}

	s.logger.WithFields(logrus.Fields{
		"models":   len(activeModels),
		"failures": failures,
	}).Info("decomposition refresh completed")
	return nil
}

func (s *DecompositionService) compute(ctx context.Context, seriesKey string, algorithm decomposition.Algorithm, params decomposition.Params, from, to time.Time) (*decomposition.Result, error) {
	series, err := s.store.GetSeriesObservations(ctx, seriesKey, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load series %s: %w", seriesKey, err)
	}

	result, err := s.engine.Decompose(series, algorithm, params)
	if err != nil {
		return nil, fmt.Errorf("decomposition of series %s failed: %w", seriesKey, err)
	}

	s.logger.WithFields(logrus.Fields{
		"series_key": seriesKey,
		"algorithm":  algorithm,
		"points":     series.Len(),
	}).Debug("series decomposed")

	if s.cache != nil {
		s.cache.SetDecomposition(ctx, seriesKey, result)
	}
	return result, nil
}
