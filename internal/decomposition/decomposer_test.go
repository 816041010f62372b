package decomposition

import (
	"io"
	"math"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forecastsight/forecastsight-go/internal/models"
	"github.com/forecastsight/forecastsight-go/internal/stats"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func seasonalSeries(t *testing.T, n int) *models.TimeSeries {
	t.Helper()
	values := make([]float64, n)
	for i := range values {
		values[i] = 100 + 10*math.Sin(2*math.Pi*float64(i)/12)
	}
	ts, err := models.NewTimeSeriesFromValues(values, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 24*time.Hour)
	require.NoError(t, err)
	return ts
}

func TestEngineDecomposeDispatch(t *testing.T) {
	engine := NewEngine(testLogger(), nil)
	ts := seasonalSeries(t, 48)

	t.Run("fourier", func(t *testing.T) {
		result, err := engine.Decompose(ts, AlgorithmFourier, Params{MaxFrequencies: 10})
		require.NoError(t, err)
		assert.Equal(t, AlgorithmFourier, result.Algorithm)
		assert.NotEmpty(t, result.Fourier)
		assert.Nil(t, result.STL)
	})

	t.Run("stl", func(t *testing.T) {
		result, err := engine.Decompose(ts, AlgorithmSTL, Params{Period: 12})
		require.NoError(t, err)
		require.NotNil(t, result.STL)
		assert.Greater(t, result.STL.SeasonalStrength, 0.8)
	})

	t.Run("wavelet", func(t *testing.T) {
		result, err := engine.Decompose(ts, AlgorithmWavelet, Params{Levels: 3})
		require.NoError(t, err)
		assert.Len(t, result.Wavelet, 3)
	})

	t.Run("seasonal adjust", func(t *testing.T) {
		result, err := engine.Decompose(ts, AlgorithmSeasonalAdjust, Params{Period: 12, AROrder: 1})
		require.NoError(t, err)
		require.NotNil(t, result.SeasonalAdjustment)
		assert.Len(t, result.SeasonalAdjustment.SeasonalFactors, 12)
	})

	t.Run("unknown algorithm", func(t *testing.T) {
		_, err := engine.Decompose(ts, Algorithm("prophet"), Params{})
		assert.ErrorIs(t, err, stats.ErrDegenerateInput)
	})
}

func TestEngineSTLPropagatesInsufficientData(t *testing.T) {
	engine := NewEngine(testLogger(), nil)
	ts := seasonalSeries(t, 20)

	_, err := engine.Decompose(ts, AlgorithmSTL, Params{Period: 12})
	assert.ErrorIs(t, err, stats.ErrInsufficientData)
}

func TestEngineSTLDispatchDefaultsToRobust(t *testing.T) {
	engine := NewEngine(testLogger(), nil)

	// A single spike separates the robust and non-robust fits: the robust
	// iteration downweights it, the non-robust one absorbs it.
	values := make([]float64, 48)
	for i := range values {
		values[i] = 100 + 10*math.Sin(2*math.Pi*float64(i)/12)
	}
	values[30] += 80
	ts, err := models.NewTimeSeriesFromValues(values, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 24*time.Hour)
	require.NoError(t, err)

	unset, err := engine.Decompose(ts, AlgorithmSTL, Params{Period: 12})
	require.NoError(t, err)

	robust, err := engine.STL(ts, DefaultSTLOptions(12))
	require.NoError(t, err)
	assert.Equal(t, robust.Seasonal, unset.STL.Seasonal)
	assert.Equal(t, robust.Trend, unset.STL.Trend)

	nonRobust := false
	optOut, err := engine.Decompose(ts, AlgorithmSTL, Params{Period: 12, Robust: &nonRobust})
	require.NoError(t, err)
	assert.NotEqual(t, robust.Seasonal, optOut.STL.Seasonal)
}
