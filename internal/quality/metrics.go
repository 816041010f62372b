// Package quality measures forecast accuracy against realized outcomes:
// point metrics, bias-pattern analysis, degradation detection over rolling
// windows, and performance-report assembly.
//
// All computations are pure transforms over the supplied records; nothing is
// persisted or cached here.
package quality

import (
	"fmt"
	"math"

	"github.com/forecastsight/forecastsight-go/internal/models"
	"github.com/forecastsight/forecastsight-go/internal/stats"
)

// AccuracyMetrics holds the derived point-accuracy measures for one
// evaluation. Values are recomputed on every call and never persisted by
// this package.
type AccuracyMetrics struct {
	MAPE       float64 `json:"mape"`
	RMSE       float64 `json:"rmse"`
	MAE        float64 `json:"mae"`
	Bias       float64 `json:"bias"`
	Accuracy   float64 `json:"accuracy"`
	R2         float64 `json:"r2"`
	TheilU     float64 `json:"theil_u"`
	SampleSize int     `json:"sample_size"`
}

// ComputeAccuracyMetrics derives all point metrics from paired actual and
// predicted values. MAPE averages |a-p|/a over points with non-zero actuals
// only; zero-actual points are excluded rather than treated as infinite
// error.
func ComputeAccuracyMetrics(actual, predicted []float64) (*AccuracyMetrics, error) {
	if len(actual) != len(predicted) {
		return nil, fmt.Errorf("actual has %d points but predicted has %d: %w", len(actual), len(predicted), stats.ErrDegenerateInput)
	}
	n := len(actual)
	if n < 1 {
		return nil, fmt.Errorf("accuracy metrics require at least one actualized pair: %w", stats.ErrNoData)
	}

	var sumAbsPct float64
	var pctCount int
	var sumSq, sumAbs, sumErr float64
	var sumSqActual, sumSqPredicted float64
	for i := 0; i < n; i++ {
		err := predicted[i] - actual[i]
		sumErr += err
		sumAbs += math.Abs(err)
		sumSq += err * err
		sumSqActual += actual[i] * actual[i]
		sumSqPredicted += predicted[i] * predicted[i]
		if actual[i] != 0 {
			sumAbsPct += math.Abs(err / actual[i])
			pctCount++
		}
	}

	m := &AccuracyMetrics{SampleSize: n}
	if pctCount > 0 {
		m.MAPE = sumAbsPct / float64(pctCount) * 100
	}
	m.RMSE = math.Sqrt(sumSq / float64(n))
	m.MAE = sumAbs / float64(n)
	m.Bias = sumErr / float64(n)
	m.Accuracy = math.Max(0, 100-m.MAPE)
	m.R2 = rSquared(actual, predicted)
	m.TheilU = theilU(m.RMSE, sumSqActual, sumSqPredicted, n)
	return m, nil
}

// EvaluateAccuracy filters the history down to actualized records and
// computes metrics over them.
func EvaluateAccuracy(history []models.PredictionRecord) (*AccuracyMetrics, error) {
	actual, predicted := actualizedPairs(history)
	return ComputeAccuracyMetrics(actual, predicted)
}

func actualizedPairs(history []models.PredictionRecord) (actual, predicted []float64) {
	for _, r := range history {
		if !r.IsActualized() {
			continue
		}
		actual = append(actual, *r.ActualValue)
		predicted = append(predicted, r.PredictedValue)
	}
	return actual, predicted
}

// rSquared returns 1 - SS_res/SS_tot, or 1 when SS_tot is zero (a constant
// actual series that the prediction matched or not is judged by SS_res via
// the other metrics).
func rSquared(actual, predicted []float64) float64 {
	mean := stats.Mean(actual)
	var ssRes, ssTot float64
	for i := range actual {
		ssRes += (actual[i] - predicted[i]) * (actual[i] - predicted[i])
		ssTot += (actual[i] - mean) * (actual[i] - mean)
	}
	if ssTot == 0 {
		return 1
	}
	return 1 - ssRes/ssTot
}

// theilU is RMS(a-p) / (RMS(a) + RMS(p)); 0 when both series are all zero.
func theilU(rmse, sumSqActual, sumSqPredicted float64, n int) float64 {
	denom := math.Sqrt(sumSqActual/float64(n)) + math.Sqrt(sumSqPredicted/float64(n))
	if denom == 0 {
		return 0
	}
	return rmse / denom
}
