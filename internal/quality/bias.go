package quality

import (
	"fmt"

	"github.com/forecastsight/forecastsight-go/internal/models"
	"github.com/forecastsight/forecastsight-go/internal/stats"
)

// Bias direction labels.
const (
	BiasOverforecast  = "overforecast"
	BiasUnderforecast = "underforecast"
	BiasNeutral       = "neutral"
)

// Bias pattern labels.
const (
	BiasPatternSystematic = "systematic"
	BiasPatternSeasonal   = "seasonal"
	BiasPatternRandom     = "random"
)

// Bias trend labels.
const (
	BiasTrendIncreasing = "increasing"
	BiasTrendDecreasing = "decreasing"
	BiasTrendStable     = "stable"
)

// Thresholds for bias classification, in mean-percentage-error points and
// correlation units. These are heuristic cutoffs, not significance tests.
const (
	neutralBiasThreshold      = 2.0
	significantBiasThreshold  = 5.0
	systematicCorrThreshold   = 0.3
	trendCorrThreshold        = 0.2
	seasonalVarianceThreshold = 1.0
	minPointsForTrend         = 5
)

// BiasAnalysis summarizes the structure of forecast errors: overall level,
// direction, pattern, drift over time, and per-period seasonal bias.
type BiasAnalysis struct {
	OverallBias     float64            `json:"overall_bias"`
	BiasDirection   string             `json:"bias_direction"`
	SignificantBias bool               `json:"significant_bias"`
	BiasPattern     string             `json:"bias_pattern"`
	MeanBias        float64            `json:"mean_bias"`
	MedianBias      float64            `json:"median_bias"`
	BiasTrend       string             `json:"bias_trend"`
	SeasonalBias    map[string]float64 `json:"seasonal_bias"`
}

// AnalyzeBias examines the actualized records' errors. MeanBias and
// MedianBias are expressed in mean-percentage-error points; OverallBias is
// the mean raw error (predicted - actual).
func AnalyzeBias(history []models.PredictionRecord) (*BiasAnalysis, error) {
	var rawErrors, pctErrors, timeIndex []float64
	pctByPeriod := make(map[string][]float64)

	idx := 0.0
	for _, r := range history {
		if !r.IsActualized() {
			continue
		}
		err := r.PredictedValue - *r.ActualValue
		rawErrors = append(rawErrors, err)
		timeIndex = append(timeIndex, idx)
		idx++
		if *r.ActualValue != 0 {
			pct := err / *r.ActualValue * 100
			pctErrors = append(pctErrors, pct)
			label := r.Timestamp.Weekday().String()
			pctByPeriod[label] = append(pctByPeriod[label], pct)
		}
	}
	if len(rawErrors) == 0 {
		return nil, fmt.Errorf("bias analysis requires actualized predictions: %w", stats.ErrNoData)
	}

	meanBias := stats.Mean(pctErrors)
	analysis := &BiasAnalysis{
		OverallBias:     stats.Mean(rawErrors),
		MeanBias:        meanBias,
		MedianBias:      stats.Median(pctErrors),
		SignificantBias: meanBias > significantBiasThreshold || meanBias < -significantBiasThreshold,
		BiasDirection:   biasDirection(meanBias),
		SeasonalBias:    seasonalBias(pctByPeriod),
	}

	timeCorr := stats.Correlation(timeIndex, rawErrors)
	analysis.BiasPattern = biasPattern(timeCorr, analysis.SeasonalBias)
	analysis.BiasTrend = biasTrend(timeCorr, len(rawErrors))
	return analysis, nil
}

func biasDirection(meanBias float64) string {
	// Neutral only strictly inside the band; exactly +-2 is directional.
	switch {
	case meanBias >= neutralBiasThreshold:
		return BiasOverforecast
	case meanBias <= -neutralBiasThreshold:
		return BiasUnderforecast
	default:
		return BiasNeutral
	}
}

// biasPattern labels the error structure: correlated with time means
// systematic, high dispersion of per-period mean errors means seasonal,
// anything else is treated as random.
func biasPattern(timeCorr float64, seasonal map[string]float64) string {
	if timeCorr > systematicCorrThreshold || timeCorr < -systematicCorrThreshold {
		return BiasPatternSystematic
	}
	var periodMeans []float64
	for _, m := range seasonal {
		periodMeans = append(periodMeans, m)
	}
	if stats.Variance(periodMeans) > seasonalVarianceThreshold {
		return BiasPatternSeasonal
	}
	return BiasPatternRandom
}

func biasTrend(timeCorr float64, points int) string {
	if points < minPointsForTrend {
		return BiasTrendStable
	}
	switch {
	case timeCorr > trendCorrThreshold:
		return BiasTrendIncreasing
	case timeCorr < -trendCorrThreshold:
		return BiasTrendDecreasing
	default:
		return BiasTrendStable
	}
}

// seasonalBias reduces grouped percentage errors to their per-period means.
// Period labels come from the records' own timestamps.
func seasonalBias(grouped map[string][]float64) map[string]float64 {
	result := make(map[string]float64, len(grouped))
	for label, errs := range grouped {
		result[label] = stats.Mean(errs)
	}
	return result
}
