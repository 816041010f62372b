package decomposition

import (
	"fmt"
	"math"

	"github.com/forecastsight/forecastsight-go/internal/stats"
)

// WaveletLevel holds the detail coefficients produced at one level of the
// Haar transform, plus coarse frequency estimates and a normalized
// energy-based time-localization vector.
type WaveletLevel struct {
	Level            int       `json:"level"`
	Coefficients     []float64 `json:"coefficients"`
	Frequencies      []float64 `json:"frequencies"`
	TimeLocalization []float64 `json:"time_localization"`
}

// TransformWavelet computes a multi-level Haar discrete wavelet transform.
// Each level pairwise combines adjacent samples of the running approximation
// into approximation (a+b)/sqrt(2) and detail (a-b)/sqrt(2); an odd trailing
// sample is carried into the next approximation unchanged. Requesting more
// levels than the halving series length allows truncates the output.
func TransformWavelet(values []float64, levels int) ([]WaveletLevel, error) {
	if len(values) < 2 {
		return nil, fmt.Errorf("wavelet transform requires at least 2 points, got %d: %w", len(values), stats.ErrInsufficientData)
	}
	if levels < 1 {
		return nil, fmt.Errorf("wavelet transform requires at least 1 level, got %d: %w", levels, stats.ErrDegenerateInput)
	}

	sqrt2 := math.Sqrt2
	approximation := make([]float64, len(values))
	copy(approximation, values)

	result := make([]WaveletLevel, 0, levels)
	for level := 1; level <= levels && len(approximation) >= 2; level++ {
		pairs := len(approximation) / 2
		details := make([]float64, pairs)
		next := make([]float64, 0, pairs+1)
		for i := 0; i < pairs; i++ {
			a := approximation[2*i]
			b := approximation[2*i+1]
			next = append(next, (a+b)/sqrt2)
			details[i] = (a - b) / sqrt2
		}
		if len(approximation)%2 == 1 {
			next = append(next, approximation[len(approximation)-1])
		}

		result = append(result, WaveletLevel{
			Level:            level,
			Coefficients:     details,
			Frequencies:      levelFrequencies(level, pairs),
			TimeLocalization: energyLocalization(details),
		})
		approximation = next
	}
	return result, nil
}

// levelFrequencies estimates a coarse per-coefficient frequency: the level's
// base frequency 0.5/2^level scaled linearly across the coefficient index.
func levelFrequencies(level, count int) []float64 {
	baseFreq := 0.5 / math.Pow(2, float64(level))
	freqs := make([]float64, count)
	for i := 0; i < count; i++ {
		freqs[i] = baseFreq * float64(i+1) / float64(count)
	}
	return freqs
}

// energyLocalization normalizes squared coefficients to a unit-sum energy
// profile over time positions. A zero-energy level yields all zeros.
func energyLocalization(coefficients []float64) []float64 {
	localization := make([]float64, len(coefficients))
	total := 0.0
	for _, c := range coefficients {
		total += c * c
	}
	if total == 0 {
		return localization
	}
	for i, c := range coefficients {
		localization[i] = c * c / total
	}
	return localization
}
