// Package stats provides the shared numeric primitives used by the
// decomposition and forecast-quality engines: regression, smoothing, robust
// location/scale estimates, and small linear-system solving.
//
// All functions are pure and operate on plain float64 slices; inputs are
// never mutated.
package stats

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// Variance returns the sample variance, or 0 when fewer than two values are
// supplied.
func Variance(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.Variance(values, nil)
}

// Skewness returns the sample skewness, or 0 when fewer than three values are
// supplied.
func Skewness(values []float64) float64 {
	if len(values) < 3 {
		return 0
	}
	return stat.Skew(values, nil)
}

// Median returns the middle value of the input (average of the two middle
// values for even lengths). Returns 0 for an empty slice.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// MedianAbsoluteDeviation returns the median of absolute deviations from the
// median, a robust scale estimate.
func MedianAbsoluteDeviation(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	med := Median(values)
	deviations := make([]float64, len(values))
	for i, v := range values {
		deviations[i] = math.Abs(v - med)
	}
	return Median(deviations)
}

// Correlation returns the Pearson correlation of x and y. Unlike the raw
// definition it returns 0 (not NaN) when either series has zero variance or
// when lengths mismatch, so callers can treat the result as a plain score.
func Correlation(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return 0
	}
	if Variance(x) == 0 || Variance(y) == 0 {
		return 0
	}
	return stat.Correlation(x, y, nil)
}

// LinearRegression fits y = slope*x + intercept by ordinary least squares.
// A constant x vector has no defined slope and yields ErrDegenerateInput.
func LinearRegression(x, y []float64) (slope, intercept float64, err error) {
	if len(x) != len(y) {
		return 0, 0, fmt.Errorf("regression inputs have mismatched lengths %d and %d: %w", len(x), len(y), ErrDegenerateInput)
	}
	if len(x) < 2 {
		return 0, 0, fmt.Errorf("regression requires at least 2 points, got %d: %w", len(x), ErrInsufficientData)
	}
	n := float64(len(x))
	var sumX, sumY, sumXY, sumXX float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumXX += x[i] * x[i]
	}
	denom := n*sumXX - sumX*sumX
	if math.Abs(denom) < 1e-12 {
		return 0, 0, fmt.Errorf("regression x values have zero variance: %w", ErrDegenerateInput)
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept, nil
}

// Detrend subtracts the OLS linear trend from the series. When the trend is
// undefined (fewer than 2 points) the series is returned mean-centered.
func Detrend(values []float64) []float64 {
	x := make([]float64, len(values))
	for i := range x {
		x[i] = float64(i)
	}
	detrended := make([]float64, len(values))
	slope, intercept, err := LinearRegression(x, values)
	if err != nil {
		mean := Mean(values)
		for i, v := range values {
			detrended[i] = v - mean
		}
		return detrended
	}
	for i, v := range values {
		detrended[i] = v - (slope*float64(i) + intercept)
	}
	return detrended
}

// MovingAverage returns a centered moving average. The window is clipped at
// the series boundaries (it shrinks at the edges) rather than padding.
func MovingAverage(values []float64, window int) []float64 {
	n := len(values)
	result := make([]float64, n)
	if window < 1 {
		window = 1
	}
	for i := 0; i < n; i++ {
		lo := i - window/2
		hi := lo + window - 1
		if lo < 0 {
			lo = 0
		}
		if hi > n-1 {
			hi = n - 1
		}
		sum := 0.0
		for j := lo; j <= hi; j++ {
			sum += values[j]
		}
		result[i] = sum / float64(hi-lo+1)
	}
	return result
}

// LoessSmooth applies tricube-weighted local linear regression. bandwidth is
// the smoothing span as a fraction of the series length, in (0,1].
func LoessSmooth(values []float64, bandwidth float64) ([]float64, error) {
	return LoessSmoothWeighted(values, bandwidth, nil)
}

// LoessSmoothWeighted is LoessSmooth with optional per-point robustness
// weights (nil means uniform). Used by the robust STL iterations.
func LoessSmoothWeighted(values []float64, bandwidth float64, robustness []float64) ([]float64, error) {
	n := len(values)
	if n == 0 {
		return nil, fmt.Errorf("loess on empty series: %w", ErrNoData)
	}
	if bandwidth <= 0 || bandwidth > 1 {
		return nil, fmt.Errorf("loess bandwidth must be in (0,1], got %f: %w", bandwidth, ErrDegenerateInput)
	}
	if robustness != nil && len(robustness) != n {
		return nil, fmt.Errorf("robustness weights length %d does not match series length %d: %w", len(robustness), n, ErrDegenerateInput)
	}
	h := int(math.Ceil(bandwidth * float64(n)))
	if h < 1 {
		h = 1
	}
	smoothed := make([]float64, n)
	for i := 0; i < n; i++ {
		lo := i - h
		hi := i + h
		if lo < 0 {
			lo = 0
		}
		if hi > n-1 {
			hi = n - 1
		}
		var sw, swx, swy, swxx, swxy float64
		for j := lo; j <= hi; j++ {
			u := math.Abs(float64(i-j)) / float64(h)
			if u > 1 {
				continue
			}
			w := math.Pow(1-u*u*u, 3)
			if robustness != nil {
				w *= robustness[j]
			}
			if w <= 0 {
				continue
			}
			x := float64(j)
			sw += w
			swx += w * x
			swy += w * values[j]
			swxx += w * x * x
			swxy += w * x * values[j]
		}
		if sw == 0 {
			smoothed[i] = values[i]
			continue
		}
		denom := sw*swxx - swx*swx
		if math.Abs(denom) < 1e-12 {
			smoothed[i] = swy / sw
			continue
		}
		slope := (sw*swxy - swx*swy) / denom
		intercept := (swy - slope*swx) / sw
		smoothed[i] = slope*float64(i) + intercept
	}
	return smoothed, nil
}

// SolveLinearSystem solves A·x = b by Gaussian elimination with partial
// pivoting. A numerically zero pivot yields ErrSingularSystem.
func SolveLinearSystem(a [][]float64, b []float64) ([]float64, error) {
	n := len(b)
	if len(a) != n {
		return nil, fmt.Errorf("system has %d rows but %d right-hand values: %w", len(a), n, ErrDegenerateInput)
	}
	// Work on an augmented copy so the caller's matrices stay untouched.
	aug := make([][]float64, n)
	for i := 0; i < n; i++ {
		if len(a[i]) != n {
			return nil, fmt.Errorf("row %d has %d columns, want %d: %w", i, len(a[i]), n, ErrDegenerateInput)
		}
		aug[i] = make([]float64, n+1)
		copy(aug[i], a[i])
		aug[i][n] = b[i]
	}

	for col := 0; col < n; col++ {
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(aug[row][col]) > math.Abs(aug[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(aug[pivot][col]) < 1e-12 {
			return nil, fmt.Errorf("pivot collapse at column %d: %w", col, ErrSingularSystem)
		}
		aug[col], aug[pivot] = aug[pivot], aug[col]
		for row := col + 1; row < n; row++ {
			factor := aug[row][col] / aug[col][col]
			for k := col; k <= n; k++ {
				aug[row][k] -= factor * aug[col][k]
			}
		}
	}

	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := aug[i][n]
		for j := i + 1; j < n; j++ {
			sum -= aug[i][j] * x[j]
		}
		x[i] = sum / aug[i][i]
	}
	return x, nil
}

// Difference returns the lagged differences values[i] - values[i-lag].
// The result is len(values)-lag long.
func Difference(values []float64, lag int) []float64 {
	if lag < 1 || lag >= len(values) {
		return nil
	}
	diff := make([]float64, len(values)-lag)
	for i := lag; i < len(values); i++ {
		diff[i-lag] = values[i] - values[i-lag]
	}
	return diff
}
