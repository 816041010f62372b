package decomposition

import (
	"fmt"
	"math"

	"github.com/forecastsight/forecastsight-go/internal/stats"
)

// STLOptions parameterizes the iterative trend/seasonal/remainder fit.
type STLOptions struct {
	// Period is the caller-declared sampling period of the seasonal cycle.
	Period int
	// SeasonalSpan is the seasonal smoothing span ns (points per subseries
	// window). Defaults to 7.
	SeasonalSpan int
	// Robust enables MAD-based biweight reweighting between iterations.
	Robust bool
	// MaxIterations bounds the loop: 15 when robust, 2 otherwise. The hard
	// cap guarantees termination.
	MaxIterations int
}

// DefaultSTLOptions returns the standard robust configuration for a period.
func DefaultSTLOptions(period int) STLOptions {
	return STLOptions{
		Period:        period,
		SeasonalSpan:  7,
		Robust:        true,
		MaxIterations: 15,
	}
}

// DecompositionResult holds an additive trend/seasonal/remainder split.
// The invariant trend[i]+seasonal[i]+remainder[i] == value[i] holds exactly
// by construction (remainder is computed as the residual).
//
// SeasonalStrength and TrendStrength are stored raw: degenerate inputs can
// push them outside [0,1]. Use the *Clamped accessors for display and keep
// the raw values for diagnostics.
type DecompositionResult struct {
	Trend            []float64 `json:"trend"`
	Seasonal         []float64 `json:"seasonal"`
	Remainder        []float64 `json:"remainder"`
	SeasonalStrength float64   `json:"seasonal_strength"`
	TrendStrength    float64   `json:"trend_strength"`
}

// SeasonalStrengthClamped returns the seasonal strength limited to [0,1].
func (r *DecompositionResult) SeasonalStrengthClamped() float64 {
	return clamp01(r.SeasonalStrength)
}

// TrendStrengthClamped returns the trend strength limited to [0,1].
func (r *DecompositionResult) TrendStrengthClamped() float64 {
	return clamp01(r.TrendStrength)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// DecomposeSTL runs the iterative STL-style procedure: moving-average
// initial trend, seasonal-subseries Loess smoothing, zero-phase low-pass
// detrending of the seasonal, Loess trend re-estimation, and (when robust)
// biweight reweighting from the remainder between iterations.
func DecomposeSTL(values []float64, opts STLOptions) (*DecompositionResult, error) {
	n := len(values)
	if opts.Period < 2 {
		return nil, fmt.Errorf("stl period must be at least 2, got %d: %w", opts.Period, stats.ErrDegenerateInput)
	}
	if n < 2*opts.Period {
		return nil, fmt.Errorf("stl requires at least %d points for period %d, got %d: %w",
			2*opts.Period, opts.Period, n, stats.ErrInsufficientData)
	}

	ns := opts.SeasonalSpan
	if ns < 2 {
		ns = 7
	}
	maxIter := opts.MaxIterations
	if maxIter < 1 {
		if opts.Robust {
			maxIter = 15
		} else {
			maxIter = 2
		}
	}

	period := opts.Period
	// Trend smoothing span per the STL guideline nt = 1.5*period/(1-1.5/ns).
	nt := int(math.Ceil(1.5 * float64(period) / (1 - 1.5/float64(ns))))
	trendBandwidth := float64(nt) / float64(n)
	if trendBandwidth > 1 {
		trendBandwidth = 1
	}

	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 1
	}

	trend := stats.MovingAverage(values, period)
	seasonal := make([]float64, n)
	remainder := make([]float64, n)
	detrended := make([]float64, n)

	for iter := 0; iter < maxIter; iter++ {
		for i := range values {
			detrended[i] = values[i] - trend[i]
		}

		if err := smoothSubseries(detrended, seasonal, weights, period, ns); err != nil {
			return nil, err
		}

		// Remove residual trend leaked into the seasonal estimate. The
		// forward+backward pass cancels the single pole's phase shift.
		lowPassed := lowPassFilter(seasonal, period)
		for i := range seasonal {
			seasonal[i] -= lowPassed[i]
		}

		deseasonalized := make([]float64, n)
		for i := range values {
			deseasonalized[i] = values[i] - seasonal[i]
		}
		newTrend, err := stats.LoessSmoothWeighted(deseasonalized, trendBandwidth, weights)
		if err != nil {
			return nil, fmt.Errorf("stl trend smoothing: %w", err)
		}
		trend = newTrend

		for i := range values {
			remainder[i] = values[i] - seasonal[i] - trend[i]
		}

		if opts.Robust && iter < maxIter-1 {
			if !updateRobustnessWeights(remainder, weights) {
				break
			}
		}
	}

	detrendedVar := make([]float64, n)
	deseasonalizedResidual := make([]float64, n)
	for i := range values {
		detrendedVar[i] = seasonal[i] + remainder[i]
		deseasonalizedResidual[i] = trend[i] + remainder[i]
	}
	remainderVar := stats.Variance(remainder)

	result := &DecompositionResult{
		Trend:     trend,
		Seasonal:  seasonal,
		Remainder: remainder,
	}
	if v := stats.Variance(detrendedVar); v > 0 {
		result.SeasonalStrength = 1 - remainderVar/v
	}
	if v := stats.Variance(deseasonalizedResidual); v > 0 {
		result.TrendStrength = 1 - remainderVar/v
	}
	return result, nil
}

// smoothSubseries groups detrended points by position within the period,
// Loess-smooths each subseries independently, and reassembles the seasonal
// estimate in place.
func smoothSubseries(detrended, seasonal, weights []float64, period, ns int) error {
	n := len(detrended)
	for pos := 0; pos < period; pos++ {
		var sub, subWeights []float64
		var indices []int
		for i := pos; i < n; i += period {
			sub = append(sub, detrended[i])
			subWeights = append(subWeights, weights[i])
			indices = append(indices, i)
		}
		if len(sub) == 1 {
			seasonal[indices[0]] = sub[0]
			continue
		}
		bandwidth := float64(ns) / float64(len(sub))
		if bandwidth > 1 {
			bandwidth = 1
		}
		smoothed, err := stats.LoessSmoothWeighted(sub, bandwidth, subWeights)
		if err != nil {
			return fmt.Errorf("stl seasonal subseries %d: %w", pos, err)
		}
		for j, idx := range indices {
			seasonal[idx] = smoothed[j]
		}
	}
	return nil
}

// lowPassFilter applies a single-pole IIR smoother forward then backward so
// the combined pass has zero phase distortion.
func lowPassFilter(values []float64, span int) []float64 {
	n := len(values)
	if n == 0 {
		return nil
	}
	alpha := 2.0 / (float64(span) + 1)

	forward := make([]float64, n)
	forward[0] = values[0]
	for i := 1; i < n; i++ {
		forward[i] = forward[i-1] + alpha*(values[i]-forward[i-1])
	}

	result := make([]float64, n)
	result[n-1] = forward[n-1]
	for i := n - 2; i >= 0; i-- {
		result[i] = result[i+1] + alpha*(forward[i]-result[i+1])
	}
	return result
}

// updateRobustnessWeights recomputes biweight robustness weights from the
// remainder. Points beyond 6*MAD get weight 0. Returns false when the
// remainder has collapsed to zero scale and further iterations cannot
// change the fit.
func updateRobustnessWeights(remainder, weights []float64) bool {
	h := 6 * stats.MedianAbsoluteDeviation(remainder)
	if h == 0 {
		return false
	}
	for i, r := range remainder {
		u := math.Abs(r) / h
		if u >= 1 {
			weights[i] = 0
			continue
		}
		weights[i] = (1 - u*u) * (1 - u*u)
	}
	return true
}
