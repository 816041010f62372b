// Package cache stores computed evaluation artifacts in Redis so repeated
// requests within a TTL window do not recompute decompositions or reports.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/forecastsight/forecastsight-go/internal/decomposition"
	"github.com/forecastsight/forecastsight-go/internal/quality"
)

const (
	reportKeyPrefix        = "fsight:report:"
	decompositionKeyPrefix = "fsight:decomp:"
)

// Stats tracks cache performance counters.
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
}

// ResultCache caches performance reports per model and decomposition results
// per series and algorithm. Entries are JSON-serialized and expire via Redis
// TTLs; a cache failure is always treated as a miss, never an error.
type ResultCache struct {
	redis            *redis.Client
	logger           *logrus.Logger
	reportTTL        time.Duration
	decompositionTTL time.Duration

	statsMu sync.RWMutex
	stats   Stats
}

// NewResultCache creates a Redis-backed result cache.
func NewResultCache(redisClient *redis.Client, logger *logrus.Logger, reportTTL, decompositionTTL time.Duration) *ResultCache {
	return &ResultCache{
		redis:            redisClient,
		logger:           logger,
		reportTTL:        reportTTL,
		decompositionTTL: decompositionTTL,
	}
}

// GetReport retrieves the cached performance report for a model.
func (c *ResultCache) GetReport(ctx context.Context, modelID string) (*quality.ModelPerformanceReport, bool) {
	var report quality.ModelPerformanceReport
	if !c.get(ctx, reportKeyPrefix+modelID, &report) {
		return nil, false
	}
	return &report, true
}

// SetReport caches a model's performance report under the report TTL.
func (c *ResultCache) SetReport(ctx context.Context, report *quality.ModelPerformanceReport) {
	c.set(ctx, reportKeyPrefix+report.ModelID, report, c.reportTTL)
}

// GetDecomposition retrieves a cached decomposition result for a series and
// algorithm combination.
func (c *ResultCache) GetDecomposition(ctx context.Context, seriesKey string, algorithm decomposition.Algorithm) (*decomposition.Result, bool) {
	var result decomposition.Result
	if !c.get(ctx, decompositionKey(seriesKey, algorithm), &result) {
		return nil, false
	}
	return &result, true
}

// SetDecomposition caches a decomposition result under the decomposition TTL.
func (c *ResultCache) SetDecomposition(ctx context.Context, seriesKey string, result *decomposition.Result) {
	c.set(ctx, decompositionKey(seriesKey, result.Algorithm), result, c.decompositionTTL)
}

// InvalidateModel drops the cached report for a model, forcing the next read
// to recompute. Used after new actuals arrive for the model.
func (c *ResultCache) InvalidateModel(ctx context.Context, modelID string) error {
	if err := c.redis.Del(ctx, reportKeyPrefix+modelID).Err(); err != nil {
		return fmt.Errorf("error invalidating report cache for %s: %w", modelID, err)
	}
	return nil
}

// Clear removes all cached reports and decompositions.
func (c *ResultCache) Clear(ctx context.Context) error {
	for _, pattern := range []string{reportKeyPrefix + "*", decompositionKeyPrefix + "*"} {
		var keys []string
		iter := c.redis.Scan(ctx, 0, pattern, 0).Iterator()
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("error scanning cache keys: %w", err)
		}
		if len(keys) == 0 {
			continue
		}
		if err := c.redis.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("error clearing cache: %w", err)
		}
	}
	return nil
}

// GetStats returns current cache statistics.
func (c *ResultCache) GetStats() Stats {
	c.statsMu.RLock()
	defer c.statsMu.RUnlock()
	return c.stats
}

// LogStats logs current cache performance statistics.
func (c *ResultCache) LogStats() {
	stats := c.GetStats()
	total := stats.Hits + stats.Misses
	hitRate := float64(0)
	if total > 0 {
		hitRate = float64(stats.Hits) / float64(total) * 100
	}

	c.logger.WithFields(logrus.Fields{
		"hits":     stats.Hits,
		"misses":   stats.Misses,
		"sets":     stats.Sets,
		"hit_rate": hitRate,
	}).Info("result cache stats")
}

func (c *ResultCache) get(ctx context.Context, key string, dest interface{}) bool {
	data, err := c.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		c.miss()
		return false
	}
	if err != nil {
		c.logger.WithField("key", key).WithError(err).Warn("cache read failed, treating as miss")
		c.miss()
		return false
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		c.logger.WithField("key", key).WithError(err).Warn("cache entry corrupt, treating as miss")
		c.miss()
		return false
	}

	c.statsMu.Lock()
	c.stats.Hits++
	c.statsMu.Unlock()
	return true
}

func (c *ResultCache) set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.WithField("key", key).WithError(err).Warn("cache serialization failed")
		return
	}

	if err := c.redis.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.WithField("key", key).WithError(err).Warn("cache write failed")
		return
	}

	c.statsMu.Lock()
	c.stats.Sets++
	c.statsMu.Unlock()
}

func (c *ResultCache) miss() {
	c.statsMu.Lock()
	c.stats.Misses++
	c.statsMu.Unlock()
}

func decompositionKey(seriesKey string, algorithm decomposition.Algorithm) string {
	return fmt.Sprintf("%s%s:%s", decompositionKeyPrefix, seriesKey, algorithm)
}
