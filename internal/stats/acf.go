package stats

import "fmt"

// ACF returns the autocorrelation function for lags 0..maxLag, computed as
// normalized autocovariance against the full-series mean and variance.
func ACF(values []float64, maxLag int) ([]float64, error) {
	n := len(values)
	if n < 2 {
		return nil, fmt.Errorf("acf requires at least 2 points, got %d: %w", n, ErrInsufficientData)
	}
	if maxLag >= n {
		maxLag = n - 1
	}
	if maxLag < 0 {
		maxLag = 0
	}

	mean := Mean(values)
	denom := 0.0
	for _, v := range values {
		d := v - mean
		denom += d * d
	}
	if denom == 0 {
		return nil, fmt.Errorf("acf of constant series: %w", ErrDegenerateInput)
	}

	acf := make([]float64, maxLag+1)
	for k := 0; k <= maxLag; k++ {
		sum := 0.0
		for i := k; i < n; i++ {
			sum += (values[i] - mean) * (values[i-k] - mean)
		}
		acf[k] = sum / denom
	}
	return acf, nil
}

// YuleWalker fits an AR(order) model by solving the Toeplitz system that
// relates autocorrelations to the autoregressive coefficients. A collapsed
// pivot surfaces as ErrSingularSystem; callers should retry with a lower
// order.
func YuleWalker(values []float64, order int) ([]float64, error) {
	if order < 1 {
		return nil, fmt.Errorf("ar order must be positive, got %d: %w", order, ErrDegenerateInput)
	}
	if len(values) <= order {
		return nil, fmt.Errorf("ar(%d) fit requires more than %d points, got %d: %w", order, order, len(values), ErrInsufficientData)
	}
	acf, err := ACF(values, order)
	if err != nil {
		return nil, err
	}

	a := make([][]float64, order)
	b := make([]float64, order)
	for i := 0; i < order; i++ {
		a[i] = make([]float64, order)
		for j := 0; j < order; j++ {
			lag := i - j
			if lag < 0 {
				lag = -lag
			}
			a[i][j] = acf[lag]
		}
		b[i] = acf[i+1]
	}

	coeffs, err := SolveLinearSystem(a, b)
	if err != nil {
		return nil, fmt.Errorf("yule-walker system for order %d: %w", order, err)
	}
	return coeffs, nil
}

// PACF returns the partial autocorrelation function for lags 1..maxLag. For
// each lag k the Yule-Walker system of order k is solved and the last
// coefficient taken as PACF[k]; index 0 holds the conventional value 1.
func PACF(values []float64, maxLag int) ([]float64, error) {
	if maxLag < 1 {
		return nil, fmt.Errorf("pacf requires maxLag >= 1, got %d: %w", maxLag, ErrDegenerateInput)
	}
	if maxLag >= len(values) {
		maxLag = len(values) - 1
	}

	pacf := make([]float64, maxLag+1)
	pacf[0] = 1
	for k := 1; k <= maxLag; k++ {
		coeffs, err := YuleWalker(values, k)
		if err != nil {
			return nil, fmt.Errorf("pacf at lag %d: %w", k, err)
		}
		pacf[k] = coeffs[k-1]
	}
	return pacf, nil
}
