package decomposition

import (
	"fmt"
	"math"
	"time"

	"github.com/forecastsight/forecastsight-go/internal/stats"
)

// Outlier classification codes.
const (
	OutlierAdditive   = "AO"
	OutlierLevelShift = "LS"
)

// Minimum history for the autoregressive fit step.
const minSeasonalAdjustPoints = 10

// Outlier flags a single detected anomaly in the input series.
type Outlier struct {
	Index  int     `json:"index"`
	Type   string  `json:"type"`
	Impact float64 `json:"impact"`
}

// SeasonalAdjustmentOptions parameterizes the X13-style pipeline.
type SeasonalAdjustmentOptions struct {
	// Period is the seasonal period in observations.
	Period int
	// AROrder is the order of the autoregressive fit on the differenced
	// series. On ErrSingularSystem the caller should retry with a lower
	// order.
	AROrder int
	// AdjustTradingDays normalizes each seasonal period by the ratio of its
	// business-day count to AverageTradingDays.
	AdjustTradingDays bool
	// AdjustHolidays applies the calendar provider's per-date factors.
	AdjustHolidays bool
	// AverageTradingDays is the fixed reference count per period. Defaults
	// to 21 (average business days per month).
	AverageTradingDays float64
}

// SeasonalAdjustmentResult is the output of the X13-style pipeline. The
// additive identity seasonal[i]+trend[i]+irregular[i] == value[i] holds
// exactly against the raw input: log-transform and calendar effects are
// folded back into the seasonal component.
type SeasonalAdjustmentResult struct {
	Seasonal  []float64 `json:"seasonal"`
	Trend     []float64 `json:"trend"`
	Irregular []float64 `json:"irregular"`
	// SeasonalFactors maps position-within-period to its extracted factor:
	// additive and mean-centered on the untransformed path, multiplicative
	// (exp of the log-space factor) when the log transform was selected.
	SeasonalFactors map[int]float64 `json:"seasonal_factors"`
	Outliers        []Outlier       `json:"outliers"`
	// ARCoefficients are the Yule-Walker coefficients fitted on the
	// differenced series, kept as a diagnostic.
	ARCoefficients []float64 `json:"ar_coefficients"`
	LogTransformed bool      `json:"log_transformed"`
}

// SeasonalAdjust runs the pragmatic X13-style pipeline: optional automatic
// log transform, rolling-MAD outlier detection with AO/LS classification,
// Yule-Walker AR fit on the differenced series, within-period seasonal
// factor extraction, and trading-day/holiday adjustment via the calendar
// provider.
func SeasonalAdjust(values []float64, timestamps []time.Time, calendar CalendarProvider, opts SeasonalAdjustmentOptions) (*SeasonalAdjustmentResult, error) {
	n := len(values)
	if opts.Period < 2 {
		return nil, fmt.Errorf("seasonal adjustment period must be at least 2, got %d: %w", opts.Period, stats.ErrDegenerateInput)
	}
	if n < 2*opts.Period || n < minSeasonalAdjustPoints {
		return nil, fmt.Errorf("seasonal adjustment requires at least %d points for period %d, got %d: %w",
			maxInt(2*opts.Period, minSeasonalAdjustPoints), opts.Period, n, stats.ErrInsufficientData)
	}
	if len(timestamps) != n {
		return nil, fmt.Errorf("timestamps length %d does not match series length %d: %w", len(timestamps), n, stats.ErrDegenerateInput)
	}
	if opts.AverageTradingDays <= 0 {
		opts.AverageTradingDays = 21
	}

	// Prior calendar adjustment: divide out holiday factors and the
	// trading-day ratio before decomposing.
	calendarEffect := calendarEffects(timestamps, calendar, opts)
	adjusted := make([]float64, n)
	for i, v := range values {
		adjusted[i] = v / calendarEffect[i]
	}

	// Automatic log transform for strongly dispersed or skewed series.
	work, logTransformed := maybeLogTransform(adjusted)

	outliers := detectOutliers(work, n)

	arCoeffs, err := fitAutoregression(work, opts)
	if err != nil {
		return nil, err
	}

	// Simplified seasonal extraction: average detrended values at each
	// within-period position, centered to sum to zero across the period.
	trend := stats.MovingAverage(work, opts.Period)
	factors := seasonalFactors(work, trend, opts.Period)

	seasonalW := make([]float64, n)
	irregularW := make([]float64, n)
	for i := range work {
		seasonalW[i] = factors[i%opts.Period]
		irregularW[i] = work[i] - trend[i] - seasonalW[i]
	}

	// Map back to the original scale. The irregular and trend are expressed
	// in raw units and the seasonal absorbs the log/calendar effects so the
	// additive identity holds exactly against the input values.
	trendOut := make([]float64, n)
	irregularOut := make([]float64, n)
	seasonalOut := make([]float64, n)
	for i := range values {
		if logTransformed {
			trendOut[i] = math.Exp(trend[i])
			irregularOut[i] = (adjusted[i] - math.Exp(trend[i]+seasonalW[i])) * calendarEffect[i]
		} else {
			trendOut[i] = trend[i]
			irregularOut[i] = irregularW[i] * calendarEffect[i]
		}
		seasonalOut[i] = values[i] - trendOut[i] - irregularOut[i]
	}

	outFactors := make(map[int]float64, opts.Period)
	for pos, f := range factors {
		if logTransformed {
			outFactors[pos] = math.Exp(f)
		} else {
			outFactors[pos] = f
		}
	}

	return &SeasonalAdjustmentResult{
		Seasonal:        seasonalOut,
		Trend:           trendOut,
		Irregular:       irregularOut,
		SeasonalFactors: outFactors,
		Outliers:        outliers,
		ARCoefficients:  arCoeffs,
		LogTransformed:  logTransformed,
	}, nil
}

// calendarEffects resolves the combined multiplicative calendar effect per
// observation: holiday factor times the trading-day ratio of the period the
// observation falls in. Effects default to 1 when no calendar is supplied.
func calendarEffects(timestamps []time.Time, calendar CalendarProvider, opts SeasonalAdjustmentOptions) []float64 {
	n := len(timestamps)
	effects := make([]float64, n)
	for i := range effects {
		effects[i] = 1
	}
	if calendar == nil {
		return effects
	}

	if opts.AdjustHolidays {
		for i, ts := range timestamps {
			if f := calendar.HolidayFactor(ts); f > 0 {
				effects[i] *= f
			}
		}
	}
	if opts.AdjustTradingDays {
		for start := 0; start < n; start += opts.Period {
			end := start + opts.Period - 1
			if end > n-1 {
				end = n - 1
			}
			days := calendar.TradingDays(timestamps[start], timestamps[end])
			if days <= 0 {
				continue
			}
			ratio := float64(days) / opts.AverageTradingDays
			for i := start; i <= end; i++ {
				effects[i] *= ratio
			}
		}
	}
	return effects
}

// maybeLogTransform switches to log space when the coefficient of variation
// exceeds 0.5 or absolute skewness exceeds 1, provided all values are
// strictly positive.
func maybeLogTransform(values []float64) ([]float64, bool) {
	mean := stats.Mean(values)
	for _, v := range values {
		if v <= 0 {
			return values, false
		}
	}
	cv := 0.0
	if mean != 0 {
		cv = math.Sqrt(stats.Variance(values)) / math.Abs(mean)
	}
	if cv <= 0.5 && math.Abs(stats.Skewness(values)) <= 1 {
		return values, false
	}
	logged := make([]float64, len(values))
	for i, v := range values {
		logged[i] = math.Log(v)
	}
	return logged, true
}

// detectOutliers scans with a rolling window of size min(30, n/3), flags
// points whose robust z-score exceeds 3.5, and classifies each as a level
// shift when the 5-point means before and after the point differ by more
// than twice the local robust scale, otherwise as an additive outlier.
func detectOutliers(values []float64, n int) []Outlier {
	window := n / 3
	if window > 30 {
		window = 30
	}
	if window < 5 {
		window = 5
	}

	var outliers []Outlier
	for i := 0; i < n; i++ {
		lo := i - window/2
		hi := i + window/2
		if lo < 0 {
			lo = 0
		}
		if hi > n-1 {
			hi = n - 1
		}
		local := values[lo : hi+1]
		med := stats.Median(local)
		scale := stats.MedianAbsoluteDeviation(local)
		if scale == 0 {
			// More than half the window is identical; fall back to the
			// window standard deviation expressed on the MAD scale.
			scale = math.Sqrt(stats.Variance(local)) / 1.4826
		}
		if scale == 0 {
			continue
		}

		score := math.Abs(values[i]-med) / (1.4826 * scale)
		if score <= 3.5 {
			continue
		}

		outliers = append(outliers, Outlier{
			Index:  i,
			Type:   classifyOutlier(values, i, scale),
			Impact: values[i] - med,
		})
	}
	return outliers
}

// classifyOutlier distinguishes a level shift (the series settles at a new
// mean after the point) from a one-off additive outlier.
func classifyOutlier(values []float64, index int, scale float64) string {
	before := windowMean(values, index-5, index-1)
	after := windowMean(values, index+1, index+5)
	if math.IsNaN(before) || math.IsNaN(after) {
		return OutlierAdditive
	}
	if math.Abs(after-before) > 2*scale {
		return OutlierLevelShift
	}
	return OutlierAdditive
}

func windowMean(values []float64, lo, hi int) float64 {
	if lo < 0 {
		lo = 0
	}
	if hi > len(values)-1 {
		hi = len(values) - 1
	}
	if lo > hi {
		return math.NaN()
	}
	sum := 0.0
	for i := lo; i <= hi; i++ {
		sum += values[i]
	}
	return sum / float64(hi-lo+1)
}

// fitAutoregression differences the series (seasonally first when the period
// exceeds 1, then once regularly) and fits AR coefficients by Yule-Walker.
func fitAutoregression(values []float64, opts SeasonalAdjustmentOptions) ([]float64, error) {
	if opts.AROrder < 1 {
		return nil, nil
	}
	differenced := values
	if opts.Period > 1 {
		differenced = stats.Difference(differenced, opts.Period)
	}
	differenced = stats.Difference(differenced, 1)
	if len(differenced) <= opts.AROrder {
		return nil, fmt.Errorf("ar(%d) fit after differencing leaves %d points: %w", opts.AROrder, len(differenced), stats.ErrInsufficientData)
	}
	coeffs, err := stats.YuleWalker(differenced, opts.AROrder)
	if err != nil {
		return nil, fmt.Errorf("seasonal adjustment ar fit: %w", err)
	}
	return coeffs, nil
}

// seasonalFactors averages detrended values at each within-period position
// and centers the factors to sum to zero across the period.
func seasonalFactors(values, trend []float64, period int) []float64 {
	sums := make([]float64, period)
	counts := make([]float64, period)
	for i := range values {
		pos := i % period
		sums[pos] += values[i] - trend[i]
		counts[pos]++
	}
	factors := make([]float64, period)
	total := 0.0
	for pos := range factors {
		if counts[pos] > 0 {
			factors[pos] = sums[pos] / counts[pos]
		}
		total += factors[pos]
	}
	center := total / float64(period)
	for pos := range factors {
		factors[pos] -= center
	}
	return factors
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
