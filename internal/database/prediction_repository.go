package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/forecastsight/forecastsight-go/internal/models"
	"github.com/forecastsight/forecastsight-go/internal/stats"
)

// ForecastModel is a registered forecasting model whose predictions are
// tracked for quality evaluation.
type ForecastModel struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	SeriesKey string    `json:"series_key" db:"series_key"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DatabasePool defines the interface for database pool operations.
// This interface allows for both real pool and mock pool implementations.
type DatabasePool interface {
	// QueryRow executes a query that is expected to return at most one row.
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	// Exec executes a query without returning any rows.
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	// Query executes a query that returns rows.
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// PredictionRepository handles database operations for forecast models,
// their prediction history, and retraining triggers. Value columns are
// NUMERIC in the schema and are scanned through decimal before conversion,
// so database rounding behavior stays independent of float parsing.
type PredictionRepository struct {
	pool DatabasePool
}

// NewPredictionRepository creates a new prediction repository.
func NewPredictionRepository(pool DatabasePool) *PredictionRepository {
	return &PredictionRepository{
		pool: pool,
	}
}

// ListActiveModels returns all models currently enrolled in evaluation.
func (r *PredictionRepository) ListActiveModels(ctx context.Context) ([]ForecastModel, error) {
	query := `
		SELECT id, name, series_key, is_active, created_at, updated_at
		FROM forecast_models
		WHERE is_active = true
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active models: %w", err)
	}
	defer rows.Close()

	var result []ForecastModel
	for rows.Next() {
		var m ForecastModel
		err := rows.Scan(
			&m.ID,
			&m.Name,
			&m.SeriesKey,
			&m.IsActive,
			&m.CreatedAt,
			&m.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan forecast model: %w", err)
		}
		result = append(result, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating forecast models: %w", err)
	}

	return result, nil
}

// GetPredictionHistory returns the model's predictions from since onward,
// oldest first. Records whose outcome has not been observed yet come back
// with a nil ActualValue.
func (r *PredictionRepository) GetPredictionHistory(ctx context.Context, modelID string, since time.Time) ([]models.PredictionRecord, error) {
	query := `
		SELECT id, model_id, predicted_at, predicted_value, actual_value,
		       confidence, lower_bound, upper_bound
		FROM predictions
		WHERE model_id = $1 AND predicted_at >= $2
		ORDER BY predicted_at
	`

	rows, err := r.pool.Query(ctx, query, modelID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction history: %w", err)
	}
	defer rows.Close()

	var history []models.PredictionRecord
	for rows.Next() {
		var record models.PredictionRecord
		var predicted decimal.Decimal
		var actual, lower, upper decimal.NullDecimal
		err := rows.Scan(
			&record.ID,
			&record.ModelID,
			&record.Timestamp,
			&predicted,
			&actual,
			&record.Confidence,
			&lower,
			&upper,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prediction record: %w", err)
		}
		record.PredictedValue = predicted.InexactFloat64()
		record.ActualValue = nullDecimalToFloat(actual)
		record.LowerBound = nullDecimalToFloat(lower)
		record.UpperBound = nullDecimalToFloat(upper)
		history = append(history, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prediction history: %w", err)
	}

	return history, nil
}

// InsertPrediction stores a new prediction and returns its assigned ID.
func (r *PredictionRepository) InsertPrediction(ctx context.Context, record *models.PredictionRecord) (string, error) {
	if err := record.Validate(); err != nil {
		return "", fmt.Errorf("invalid prediction record: %w", err)
	}

	query := `
		INSERT INTO predictions (model_id, predicted_at, predicted_value, confidence, lower_bound, upper_bound)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id string
	err := r.pool.QueryRow(ctx, query,
		record.ModelID,
		record.Timestamp,
		decimal.NewFromFloat(record.PredictedValue),
		record.Confidence,
		floatToNullDecimal(record.LowerBound),
		floatToNullDecimal(record.UpperBound),
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to insert prediction: %w", err)
	}

	return id, nil
}

// RecordActual fills in the realized outcome for a stored prediction.
func (r *PredictionRepository) RecordActual(ctx context.Context, predictionID string, actual float64) error {
	query := `
		UPDATE predictions
		SET actual_value = $2, actualized_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND actual_value IS NULL
	`

	result, err := r.pool.Exec(ctx, query, predictionID, decimal.NewFromFloat(actual))
	if err != nil {
		return fmt.Errorf("failed to record actual value: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("prediction %s not found or already actualized", predictionID)
	}

	return nil
}

// SaveRetrainingTrigger persists a trigger emitted by degradation detection.
func (r *PredictionRepository) SaveRetrainingTrigger(ctx context.Context, trigger *models.RetrainingTrigger) error {
	query := `
		INSERT INTO retraining_triggers (model_id, trigger_type, trigger_value, threshold, priority, recommended_action, triggered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		trigger.ModelID,
		trigger.TriggerType,
		decimal.NewFromFloat(trigger.TriggerValue),
		decimal.NewFromFloat(trigger.Threshold),
		trigger.Priority,
		trigger.RecommendedAction,
		trigger.TriggeredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save retraining trigger: %w", err)
	}

	return nil
}

// DeletePredictionsBefore removes actualized predictions older than cutoff.
// Pending predictions are kept regardless of age so late actuals can still
// land.
func (r *PredictionRepository) DeletePredictionsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM predictions
		WHERE predicted_at < $1 AND actual_value IS NOT NULL
	`

	result, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old predictions: %w", err)
	}

	return result.RowsAffected(), nil
}

// DeleteObservationsBefore removes series observations older than cutoff.
func (r *PredictionRepository) DeleteObservationsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM series_observations
		WHERE observed_at < $1
	`

	result, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old observations: %w", err)
	}

	return result.RowsAffected(), nil
}

// GetSeriesObservations loads the observed series a model forecasts, for use
// as decomposition input. Observations are keyed by the model's series_key.
func (r *PredictionRepository) GetSeriesObservations(ctx context.Context, seriesKey string, from, to time.Time) (*models.TimeSeries, error) {
	query := `
		SELECT observed_at, value
		FROM series_observations
		WHERE series_key = $1 AND observed_at >= $2 AND observed_at < $3
		ORDER BY observed_at
	`

	rows, err := r.pool.Query(ctx, query, seriesKey, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get series observations: %w", err)
	}
	defer rows.Close()

	var points []models.TimePoint
	for rows.Next() {
		var observedAt time.Time
		var value decimal.Decimal
		if err := rows.Scan(&observedAt, &value); err != nil {
			return nil, fmt.Errorf("failed to scan series observation: %w", err)
		}
		points = append(points, models.TimePoint{Timestamp: observedAt, Value: value.InexactFloat64()})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating series observations: %w", err)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("no observations for series %s in [%s, %s): %w",
			seriesKey, from.Format(time.RFC3339), to.Format(time.RFC3339), stats.ErrNoData)
	}

	return models.NewTimeSeries(points)
}

func nullDecimalToFloat(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	f := d.Decimal.InexactFloat64()
	return &f
}

func floatToNullDecimal(f *float64) decimal.NullDecimal {
	if f == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: decimal.NewFromFloat(*f), Valid: true}
}
