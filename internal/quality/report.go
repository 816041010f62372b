package quality

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/forecastsight/forecastsight-go/internal/models"
)

// Alert severity labels reuse the degradation severity scale.
const mapeAlertThreshold = 20.0

// Alert is a severity-tagged, human-readable finding attached to a report.
type Alert struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// ModelPerformanceReport is the assembled view of one evaluation: metrics,
// bias findings, the degradation verdict, and derived recommendations.
// Incomplete is set instead of failing when a section could not be computed,
// so consumers render a labeled empty section rather than crash.
type ModelPerformanceReport struct {
	ReportID        string                    `json:"report_id"`
	ModelID         string                    `json:"model_id"`
	GeneratedAt     time.Time                 `json:"generated_at"`
	WindowStart     time.Time                 `json:"window_start"`
	WindowEnd       time.Time                 `json:"window_end"`
	Metrics         *AccuracyMetrics          `json:"metrics,omitempty"`
	Bias            *BiasAnalysis             `json:"bias,omitempty"`
	Degradation     *DegradationAssessment    `json:"degradation,omitempty"`
	Trigger         *models.RetrainingTrigger `json:"trigger,omitempty"`
	Recommendations []string                  `json:"recommendations"`
	Alerts          []Alert                   `json:"alerts"`
	Incomplete      bool                      `json:"incomplete"`
}

// GenerateReport assembles the evaluation sections into one report and
// derives natural-language recommendations and alerts. Any nil section marks
// the report incomplete; assembly itself never fails.
func GenerateReport(modelID string, windowStart, windowEnd time.Time, metrics *AccuracyMetrics, bias *BiasAnalysis, degradation *DegradationAssessment) *ModelPerformanceReport {
	report := &ModelPerformanceReport{
		ReportID:    uuid.NewString(),
		ModelID:     modelID,
		GeneratedAt: time.Now().UTC(),
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		Metrics:     metrics,
		Bias:        bias,
		Degradation: degradation,
		Incomplete:  metrics == nil || bias == nil || degradation == nil,
	}
	report.Trigger = BuildRetrainingTrigger(degradation)

	if metrics != nil {
		if metrics.MAPE > mapeAlertThreshold {
			report.Alerts = append(report.Alerts, Alert{
				Severity: SeverityHigh,
				Message:  fmt.Sprintf("MAPE %.1f%% exceeds the %.0f%% accuracy threshold; retraining recommended", metrics.MAPE, mapeAlertThreshold),
			})
			report.Recommendations = append(report.Recommendations,
				"Retrain the model: mean absolute percentage error exceeds the acceptable threshold.")
		}
		if metrics.TheilU >= 1 {
			report.Recommendations = append(report.Recommendations,
				fmt.Sprintf("Theil's U of %.2f indicates the forecast is no better than the series scale; review model inputs.", metrics.TheilU))
		}
	}

	if bias != nil && bias.SignificantBias {
		report.Alerts = append(report.Alerts, Alert{
			Severity: SeverityMedium,
			Message:  fmt.Sprintf("significant %s bias (mean %.1f%%); review feature engineering", bias.BiasDirection, bias.MeanBias),
		})
		report.Recommendations = append(report.Recommendations,
			fmt.Sprintf("Investigate the systematic %s tendency: mean percentage error is %.1f%%.", bias.BiasDirection, bias.MeanBias))
	}

	if degradation != nil && degradation.IsDetected {
		report.Alerts = append(report.Alerts, Alert{
			Severity: degradation.Severity,
			Message:  fmt.Sprintf("accuracy degraded %.1f%% against the baseline window", degradation.DegradationRate),
		})
		if degradation.TriggersRetraining {
			report.Recommendations = append(report.Recommendations,
				"Schedule retraining: recent accuracy has degraded beyond the retraining threshold.")
		}
	}

	if report.Incomplete {
		report.Alerts = append(report.Alerts, Alert{
			Severity: SeverityLow,
			Message:  "report is incomplete: one or more sections could not be computed from the available history",
		})
	}
	if len(report.Recommendations) == 0 && !report.Incomplete {
		report.Recommendations = append(report.Recommendations,
			"Model performance is within configured thresholds; no action required.")
	}
	return report
}
