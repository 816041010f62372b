package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forecastsight/forecastsight-go/internal/models"
	"github.com/forecastsight/forecastsight-go/internal/stats"
)

// MockPoolAdapter wraps pgxmock.PgxPoolIface to implement DatabasePool interface
type MockPoolAdapter struct {
	mock pgxmock.PgxPoolIface
}

func NewMockPoolAdapter(mock pgxmock.PgxPoolIface) DatabasePool {
	return &MockPoolAdapter{mock: mock}
}

func (m *MockPoolAdapter) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return m.mock.QueryRow(ctx, sql, args...)
}

func (m *MockPoolAdapter) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	result, err := m.mock.Exec(ctx, sql, args...)
	if err == nil {
		rows := result.RowsAffected()
		return pgconn.NewCommandTag(fmt.Sprintf("UPDATE %d", rows)), nil
	}
	return pgconn.CommandTag{}, err
}

func (m *MockPoolAdapter) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return m.mock.Query(ctx, sql, args...)
}

func newMockRepository(t *testing.T) (*PredictionRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	return NewPredictionRepository(NewMockPoolAdapter(mockPool)), mockPool
}

func TestPredictionRepository_ListActiveModels(t *testing.T) {
	repo, mockPool := newMockRepository(t)
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	rows := pgxmock.NewRows([]string{"id", "name", "series_key", "is_active", "created_at", "updated_at"}).
		AddRow("model-1", "daily demand", "sku-1001", true, now, now).
		AddRow("model-2", "weekly demand", "sku-2002", true, now, now)
	mockPool.ExpectQuery("SELECT id, name, series_key").WillReturnRows(rows)

	result, err := repo.ListActiveModels(context.Background())
	require.NoError(t, err)

	require.Len(t, result, 2)
	assert.Equal(t, "model-1", result[0].ID)
	assert.Equal(t, "sku-1001", result[0].SeriesKey)
	assert.True(t, result[1].IsActive)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPredictionRepository_ListActiveModelsQueryError(t *testing.T) {
	repo, mockPool := newMockRepository(t)
	mockPool.ExpectQuery("SELECT id, name, series_key").WillReturnError(fmt.Errorf("connection refused"))

	_, err := repo.ListActiveModels(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list active models")
}

func TestPredictionRepository_GetPredictionHistory(t *testing.T) {
	repo, mockPool := newMockRepository(t)
	since := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	predictedAt := since.Add(24 * time.Hour)

	rows := pgxmock.NewRows([]string{
		"id", "model_id", "predicted_at", "predicted_value", "actual_value",
		"confidence", "lower_bound", "upper_bound",
	}).
		AddRow("p-1", "model-1", predictedAt, decimal.NewFromFloat(105.5),
			decimal.NullDecimal{Decimal: decimal.NewFromFloat(100.0), Valid: true},
			0.9,
			decimal.NullDecimal{Decimal: decimal.NewFromFloat(95.0), Valid: true},
			decimal.NullDecimal{Decimal: decimal.NewFromFloat(115.0), Valid: true}).
		AddRow("p-2", "model-1", predictedAt.Add(24*time.Hour), decimal.NewFromFloat(108.25),
			decimal.NullDecimal{}, 0.85, decimal.NullDecimal{}, decimal.NullDecimal{})
	mockPool.ExpectQuery("SELECT id, model_id, predicted_at").
		WithArgs("model-1", since).
		WillReturnRows(rows)

	history, err := repo.GetPredictionHistory(context.Background(), "model-1", since)
	require.NoError(t, err)

	require.Len(t, history, 2)
	assert.Equal(t, "p-1", history[0].ID)
	assert.InDelta(t, 105.5, history[0].PredictedValue, 1e-9)
	require.NotNil(t, history[0].ActualValue)
	assert.InDelta(t, 100.0, *history[0].ActualValue, 1e-9)
	require.NotNil(t, history[0].LowerBound)
	assert.InDelta(t, 95.0, *history[0].LowerBound, 1e-9)

	assert.True(t, history[0].IsActualized())
	assert.False(t, history[1].IsActualized())
	assert.Nil(t, history[1].LowerBound)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPredictionRepository_InsertPrediction(t *testing.T) {
	repo, mockPool := newMockRepository(t)
	predictedAt := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	lower, upper := 90.0, 110.0
	record := &models.PredictionRecord{
		ModelID:        "model-1",
		Timestamp:      predictedAt,
		PredictedValue: 100,
		Confidence:     0.9,
		LowerBound:     &lower,
		UpperBound:     &upper,
	}

	mockPool.ExpectQuery("INSERT INTO predictions").
		WithArgs("model-1", predictedAt, decimal.NewFromFloat(100),
			0.9, floatToNullDecimal(&lower), floatToNullDecimal(&upper)).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("p-42"))

	id, err := repo.InsertPrediction(context.Background(), record)
	require.NoError(t, err)
	assert.Equal(t, "p-42", id)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPredictionRepository_InsertPredictionRejectsInvalid(t *testing.T) {
	repo, _ := newMockRepository(t)
	record := &models.PredictionRecord{
		ModelID:        "model-1",
		Timestamp:      time.Now(),
		PredictedValue: 100,
		Confidence:     1.5,
	}

	_, err := repo.InsertPrediction(context.Background(), record)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid prediction record")
}

func TestPredictionRepository_RecordActual(t *testing.T) {
	t.Run("updates pending prediction", func(t *testing.T) {
		repo, mockPool := newMockRepository(t)
		mockPool.ExpectExec("UPDATE predictions").
			WithArgs("p-1", decimal.NewFromFloat(101.5)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.RecordActual(context.Background(), "p-1", 101.5)
		require.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("unknown or already actualized prediction", func(t *testing.T) {
		repo, mockPool := newMockRepository(t)
		mockPool.ExpectExec("UPDATE predictions").
			WithArgs("p-404", decimal.NewFromFloat(101.5)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.RecordActual(context.Background(), "p-404", 101.5)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found or already actualized")
	})
}

func TestPredictionRepository_SaveRetrainingTrigger(t *testing.T) {
	repo, mockPool := newMockRepository(t)
	triggeredAt := time.Date(2025, 6, 3, 12, 0, 0, 0, time.UTC)
	trigger := &models.RetrainingTrigger{
		ModelID:           "model-1",
		TriggerType:       "mape_degradation",
		TriggerValue:      42.5,
		Threshold:         20,
		Priority:          "high",
		RecommendedAction: "retrain model on recent data and re-validate against the holdout window",
		TriggeredAt:       triggeredAt,
	}

	mockPool.ExpectExec("INSERT INTO retraining_triggers").
		WithArgs("model-1", "mape_degradation", decimal.NewFromFloat(42.5),
			decimal.NewFromFloat(20), "high", trigger.RecommendedAction, triggeredAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.SaveRetrainingTrigger(context.Background(), trigger)
	require.NoError(t, err)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPredictionRepository_DeletePredictionsBefore(t *testing.T) {
	repo, mockPool := newMockRepository(t)
	cutoff := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	mockPool.ExpectExec("DELETE FROM predictions").
		WithArgs(cutoff).
		WillReturnResult(pgxmock.NewResult("DELETE", 42))

	deleted, err := repo.DeletePredictionsBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(42), deleted)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPredictionRepository_DeleteObservationsBefore(t *testing.T) {
	repo, mockPool := newMockRepository(t)
	cutoff := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	mockPool.ExpectExec("DELETE FROM series_observations").
		WithArgs(cutoff).
		WillReturnResult(pgxmock.NewResult("DELETE", 7))

	deleted, err := repo.DeleteObservationsBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(7), deleted)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPredictionRepository_GetSeriesObservations(t *testing.T) {
	repo, mockPool := newMockRepository(t)
	from := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(72 * time.Hour)

	rows := pgxmock.NewRows([]string{"observed_at", "value"}).
		AddRow(from, decimal.NewFromFloat(100)).
		AddRow(from.Add(24*time.Hour), decimal.NewFromFloat(102.5)).
		AddRow(from.Add(48*time.Hour), decimal.NewFromFloat(98.75))
	mockPool.ExpectQuery("SELECT observed_at, value").
		WithArgs("sku-1001", from, to).
		WillReturnRows(rows)

	series, err := repo.GetSeriesObservations(context.Background(), "sku-1001", from, to)
	require.NoError(t, err)

	assert.Equal(t, 3, series.Len())
	assert.InDelta(t, 102.5, series.At(1).Value, 1e-9)
	assert.Equal(t, from, series.At(0).Timestamp)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPredictionRepository_GetSeriesObservationsEmpty(t *testing.T) {
	repo, mockPool := newMockRepository(t)
	from := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(time.Hour)

	mockPool.ExpectQuery("SELECT observed_at, value").
		WithArgs("sku-empty", from, to).
		WillReturnRows(pgxmock.NewRows([]string{"observed_at", "value"}))

	_, err := repo.GetSeriesObservations(context.Background(), "sku-empty", from, to)
	assert.ErrorIs(t, err, stats.ErrNoData)
}
