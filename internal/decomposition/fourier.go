package decomposition

import (
	"fmt"
	"math"
	"sort"

	"github.com/forecastsight/forecastsight-go/internal/stats"
)

// significanceThreshold gates which harmonics are retained. This value is
// internal to the Fourier analyzer and intentionally independent of any
// pattern-acceptance thresholds used by higher-level consumers.
const significanceThreshold = 0.05

// FourierComponent describes one retained harmonic of the periodogram.
// Significance is a heuristic transform of amplitude and variance, not a
// calibrated p-value; it must not be read with hypothesis-testing semantics.
type FourierComponent struct {
	Frequency    float64 `json:"frequency"`
	Amplitude    float64 `json:"amplitude"`
	Phase        float64 `json:"phase"`
	Period       float64 `json:"period"`
	Significance float64 `json:"significance"`
}

// AnalyzeFourier runs a DFT-based periodogram scan over the series after
// removing its OLS linear trend. Harmonics k = 1..min(maxFrequencies, n/2)
// are scored and only components with significance above the 0.05 gate are
// returned, sorted by descending amplitude.
func AnalyzeFourier(values []float64, maxFrequencies int) ([]FourierComponent, error) {
	n := len(values)
	if n < 4 {
		return nil, fmt.Errorf("fourier analysis requires at least 4 points, got %d: %w", n, stats.ErrInsufficientData)
	}
	if maxFrequencies < 1 {
		maxFrequencies = n / 2
	}

	detrended := stats.Detrend(values)
	variance := stats.Variance(detrended)
	if variance == 0 {
		// A perfectly linear series has no oscillatory structure.
		return []FourierComponent{}, nil
	}

	maxK := n / 2
	if maxFrequencies < maxK {
		maxK = maxFrequencies
	}

	components := make([]FourierComponent, 0, maxK)
	for k := 1; k <= maxK; k++ {
		var re, im float64
		for i := 0; i < n; i++ {
			angle := 2 * math.Pi * float64(k) * float64(i) / float64(n)
			re += detrended[i] * math.Cos(angle)
			im += detrended[i] * math.Sin(angle)
		}

		amplitude := 2 * math.Sqrt(re*re+im*im) / float64(n)
		// Heuristic significance. The naive tail-mass form
		// exp(-amp^2*n/(2*var)) shrinks toward 0 for strong harmonics, so
		// the complement is used: scores near 1 mean strong, and the 0.05
		// gate below keeps anything above it. An approximation, not a
		// rigorous spectral test.
		significance := 1 - math.Exp(-amplitude*amplitude*float64(n)/(2*variance))
		if significance <= significanceThreshold {
			continue
		}

		components = append(components, FourierComponent{
			Frequency:    float64(k) / float64(n),
			Amplitude:    amplitude,
			Phase:        math.Atan2(im, re),
			Period:       float64(n) / float64(k),
			Significance: significance,
		})
	}

	sort.Slice(components, func(i, j int) bool {
		return components[i].Amplitude > components[j].Amplitude
	})
	return components, nil
}

// ReconstructFourier rebuilds a length-n signal from retained components.
// Together with the removed linear trend this approximates the original
// series; the error is proportional to the mass of discarded harmonics.
func ReconstructFourier(components []FourierComponent, n int) []float64 {
	signal := make([]float64, n)
	for _, c := range components {
		for i := 0; i < n; i++ {
			signal[i] += c.Amplitude * math.Cos(2*math.Pi*c.Frequency*float64(i)-c.Phase)
		}
	}
	return signal
}
