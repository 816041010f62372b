// Package decomposition provides four interchangeable decomposers over an
// ordered numeric series: Fourier/periodogram analysis, iterative STL-style
// trend/seasonal/remainder decomposition, a multi-level Haar wavelet
// transform, and an X13-style seasonal-adjustment pipeline with outlier
// detection and calendar-effect adjustment.
//
// The routines are pragmatic heuristics in the spirit of the corresponding
// econometric procedures, not certified estimators. All entry points are
// pure, synchronous, and safe to call concurrently.
package decomposition

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/forecastsight/forecastsight-go/internal/models"
	"github.com/forecastsight/forecastsight-go/internal/stats"
)

// Algorithm selects a decomposer in the Decompose dispatch.
type Algorithm string

const (
	AlgorithmFourier        Algorithm = "fourier"
	AlgorithmSTL            Algorithm = "stl"
	AlgorithmWavelet        Algorithm = "wavelet"
	AlgorithmSeasonalAdjust Algorithm = "seasonalAdjust"
)

// Params carries per-algorithm parameters for the string-dispatched API.
// Only the fields relevant to the selected algorithm are read. Robust is a
// pointer so the unset case keeps the robust STL default; only an explicit
// false opts out.
type Params struct {
	Period            int   `json:"period"`
	MaxFrequencies    int   `json:"max_frequencies"`
	Levels            int   `json:"levels"`
	SeasonalSpan      int   `json:"seasonal_span"`
	Robust            *bool `json:"robust,omitempty"`
	AROrder           int   `json:"ar_order"`
	AdjustTradingDays bool  `json:"adjust_trading_days"`
	AdjustHolidays    bool  `json:"adjust_holidays"`
}

// Result is the tagged union returned by Decompose; exactly one payload
// field is populated, matching the Algorithm tag.
type Result struct {
	Algorithm          Algorithm                 `json:"algorithm"`
	Fourier            []FourierComponent        `json:"fourier,omitempty"`
	STL                *DecompositionResult      `json:"stl,omitempty"`
	Wavelet            []WaveletLevel            `json:"wavelet,omitempty"`
	SeasonalAdjustment *SeasonalAdjustmentResult `json:"seasonal_adjustment,omitempty"`
}

// Engine exposes the decomposers over immutable TimeSeries inputs.
type Engine struct {
	logger   *logrus.Logger
	calendar CalendarProvider
}

// NewEngine creates a decomposition engine. The calendar provider may be nil
// when no trading-day or holiday adjustment is required.
func NewEngine(logger *logrus.Logger, calendar CalendarProvider) *Engine {
	return &Engine{logger: logger, calendar: calendar}
}

// Fourier analyzes the series' periodogram. See AnalyzeFourier.
func (e *Engine) Fourier(ts *models.TimeSeries, maxFrequencies int) ([]FourierComponent, error) {
	components, err := AnalyzeFourier(ts.Values(), maxFrequencies)
	if err != nil {
		return nil, err
	}
	e.logger.WithFields(logrus.Fields{
		"points":     ts.Len(),
		"components": len(components),
	}).Debug("Fourier analysis completed")
	return components, nil
}

// STL runs the iterative STL-style decomposition. See DecomposeSTL.
func (e *Engine) STL(ts *models.TimeSeries, opts STLOptions) (*DecompositionResult, error) {
	result, err := DecomposeSTL(ts.Values(), opts)
	if err != nil {
		return nil, err
	}
	e.logger.WithFields(logrus.Fields{
		"points":            ts.Len(),
		"period":            opts.Period,
		"seasonal_strength": result.SeasonalStrength,
		"trend_strength":    result.TrendStrength,
	}).Debug("STL decomposition completed")
	return result, nil
}

// Wavelet runs the multi-level Haar transform. See TransformWavelet.
func (e *Engine) Wavelet(ts *models.TimeSeries, levels int) ([]WaveletLevel, error) {
	return TransformWavelet(ts.Values(), levels)
}

// SeasonalAdjust runs the X13-style pipeline with the engine's calendar
// provider. See the package-level SeasonalAdjust.
func (e *Engine) SeasonalAdjust(ts *models.TimeSeries, opts SeasonalAdjustmentOptions) (*SeasonalAdjustmentResult, error) {
	result, err := SeasonalAdjust(ts.Values(), ts.Timestamps(), e.calendar, opts)
	if err != nil {
		return nil, err
	}
	e.logger.WithFields(logrus.Fields{
		"points":          ts.Len(),
		"period":          opts.Period,
		"outliers":        len(result.Outliers),
		"log_transformed": result.LogTransformed,
	}).Debug("seasonal adjustment completed")
	return result, nil
}

// Decompose dispatches to the decomposer named by algorithm and wraps the
// output in a tagged Result.
func (e *Engine) Decompose(ts *models.TimeSeries, algorithm Algorithm, params Params) (*Result, error) {
	result := &Result{Algorithm: algorithm}
	switch algorithm {
	case AlgorithmFourier:
		components, err := e.Fourier(ts, params.MaxFrequencies)
		if err != nil {
			return nil, err
		}
		result.Fourier = components
	case AlgorithmSTL:
		opts := DefaultSTLOptions(params.Period)
		if params.SeasonalSpan > 0 {
			opts.SeasonalSpan = params.SeasonalSpan
		}
		if params.Robust != nil && !*params.Robust {
			opts.Robust = false
			opts.MaxIterations = 2
		}
		stlResult, err := e.STL(ts, opts)
		if err != nil {
			return nil, err
		}
		result.STL = stlResult
	case AlgorithmWavelet:
		levels, err := e.Wavelet(ts, params.Levels)
		if err != nil {
			return nil, err
		}
		result.Wavelet = levels
	case AlgorithmSeasonalAdjust:
		adjustment, err := e.SeasonalAdjust(ts, SeasonalAdjustmentOptions{
			Period:            params.Period,
			AROrder:           params.AROrder,
			AdjustTradingDays: params.AdjustTradingDays,
			AdjustHolidays:    params.AdjustHolidays,
		})
		if err != nil {
			return nil, err
		}
		result.SeasonalAdjustment = adjustment
	default:
		return nil, fmt.Errorf("unknown decomposition algorithm %q: %w", algorithm, stats.ErrDegenerateInput)
	}
	return result, nil
}
