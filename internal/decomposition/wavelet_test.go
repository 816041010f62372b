package decomposition

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forecastsight/forecastsight-go/internal/stats"
)

func TestTransformWaveletLevelSizes(t *testing.T) {
	values := make([]float64, 16)
	for i := range values {
		values[i] = float64(i)
	}

	levels, err := TransformWavelet(values, 3)
	require.NoError(t, err)
	require.Len(t, levels, 3)

	assert.Equal(t, 1, levels[0].Level)
	assert.Len(t, levels[0].Coefficients, 8)
	assert.Len(t, levels[1].Coefficients, 4)
	assert.Len(t, levels[2].Coefficients, 2)
}

func TestTransformWaveletHaarCoefficients(t *testing.T) {
	// First-level Haar details are pairwise (a-b)/sqrt(2).
	values := []float64{4, 2, 6, 0}
	levels, err := TransformWavelet(values, 1)
	require.NoError(t, err)

	details := levels[0].Coefficients
	require.Len(t, details, 2)
	assert.InDelta(t, 2/math.Sqrt2, details[0], 1e-10)
	assert.InDelta(t, 6/math.Sqrt2, details[1], 1e-10)
}

func TestTransformWaveletOddLengthCarriesTrailingSample(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	levels, err := TransformWavelet(values, 2)
	require.NoError(t, err)

	// Level 1: two pairs plus a carried sample leaves a length-3
	// approximation, so level 2 still produces one detail coefficient.
	require.Len(t, levels, 2)
	assert.Len(t, levels[0].Coefficients, 2)
	assert.Len(t, levels[1].Coefficients, 1)
}

func TestTransformWaveletFrequenciesAndLocalization(t *testing.T) {
	values := make([]float64, 32)
	for i := range values {
		values[i] = math.Sin(float64(i) * 0.9)
	}

	levels, err := TransformWavelet(values, 2)
	require.NoError(t, err)

	for _, level := range levels {
		base := 0.5 / math.Pow(2, float64(level.Level))
		require.Len(t, level.Frequencies, len(level.Coefficients))
		assert.InDelta(t, base, level.Frequencies[len(level.Frequencies)-1], 1e-10,
			"last frequency should reach the level base frequency")

		total := 0.0
		for _, e := range level.TimeLocalization {
			assert.GreaterOrEqual(t, e, 0.0)
			total += e
		}
		assert.InDelta(t, 1.0, total, 1e-9, "energy localization should be normalized")
	}
}

func TestTransformWaveletTruncatesExtraLevels(t *testing.T) {
	levels, err := TransformWavelet([]float64{1, 2, 3, 4}, 10)
	require.NoError(t, err)
	// 4 -> 2 -> 1: only two levels are possible.
	assert.Len(t, levels, 2)
}

func TestTransformWaveletErrors(t *testing.T) {
	_, err := TransformWavelet([]float64{1}, 1)
	assert.ErrorIs(t, err, stats.ErrInsufficientData)

	_, err = TransformWavelet([]float64{1, 2}, 0)
	assert.ErrorIs(t, err, stats.ErrDegenerateInput)
}
