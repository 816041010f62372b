package quality

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reportWindow() (time.Time, time.Time) {
	end := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	return end.Add(-7 * 24 * time.Hour), end
}

func TestGenerateReportHealthyModel(t *testing.T) {
	start, end := reportWindow()
	metrics := &AccuracyMetrics{MAPE: 4, Accuracy: 96, R2: 0.95, TheilU: 0.1, SampleSize: 30}
	bias := &BiasAnalysis{BiasDirection: BiasNeutral, BiasPattern: BiasPatternRandom, BiasTrend: BiasTrendStable}
	degradation := &DegradationAssessment{ModelID: "m1", Severity: SeverityLow}

	report := GenerateReport("m1", start, end, metrics, bias, degradation)

	assert.NotEmpty(t, report.ReportID)
	assert.Equal(t, "m1", report.ModelID)
	assert.Equal(t, start, report.WindowStart)
	assert.Equal(t, end, report.WindowEnd)
	assert.False(t, report.Incomplete)
	assert.Nil(t, report.Trigger)
	assert.Empty(t, report.Alerts)
	require.Len(t, report.Recommendations, 1)
	assert.Contains(t, report.Recommendations[0], "no action required")
}

func TestGenerateReportHighMAPE(t *testing.T) {
	start, end := reportWindow()
	metrics := &AccuracyMetrics{MAPE: 35, Accuracy: 65, SampleSize: 30}
	bias := &BiasAnalysis{BiasDirection: BiasNeutral}
	degradation := &DegradationAssessment{ModelID: "m1", Severity: SeverityLow}

	report := GenerateReport("m1", start, end, metrics, bias, degradation)

	require.Len(t, report.Alerts, 1)
	assert.Equal(t, SeverityHigh, report.Alerts[0].Severity)
	assert.Contains(t, report.Alerts[0].Message, "retraining recommended")
	require.NotEmpty(t, report.Recommendations)
	assert.Contains(t, report.Recommendations[0], "Retrain the model")
}

func TestGenerateReportTheilURecommendation(t *testing.T) {
	start, end := reportWindow()
	metrics := &AccuracyMetrics{MAPE: 10, TheilU: 1.2, SampleSize: 30}
	bias := &BiasAnalysis{BiasDirection: BiasNeutral}
	degradation := &DegradationAssessment{ModelID: "m1", Severity: SeverityLow}

	report := GenerateReport("m1", start, end, metrics, bias, degradation)

	found := false
	for _, rec := range report.Recommendations {
		if strings.Contains(rec, "Theil's U") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestGenerateReportSignificantBias(t *testing.T) {
	start, end := reportWindow()
	metrics := &AccuracyMetrics{MAPE: 8, SampleSize: 30}
	bias := &BiasAnalysis{
		BiasDirection:   BiasOverforecast,
		SignificantBias: true,
		MeanBias:        7.5,
	}
	degradation := &DegradationAssessment{ModelID: "m1", Severity: SeverityLow}

	report := GenerateReport("m1", start, end, metrics, bias, degradation)

	require.Len(t, report.Alerts, 1)
	assert.Equal(t, SeverityMedium, report.Alerts[0].Severity)
	assert.Contains(t, report.Alerts[0].Message, BiasOverforecast)
	require.NotEmpty(t, report.Recommendations)
	assert.Contains(t, report.Recommendations[0], "overforecast")
}

func TestGenerateReportDegradationTrigger(t *testing.T) {
	start, end := reportWindow()
	metrics := &AccuracyMetrics{MAPE: 12, SampleSize: 30}
	bias := &BiasAnalysis{BiasDirection: BiasNeutral}
	degradation := &DegradationAssessment{
		ModelID:            "m1",
		IsDetected:         true,
		Severity:           SeverityHigh,
		DegradationRate:    45,
		TriggersRetraining: true,
		EvaluatedAt:        end,
	}

	report := GenerateReport("m1", start, end, metrics, bias, degradation)

	require.NotNil(t, report.Trigger)
	assert.Equal(t, "mape_degradation", report.Trigger.TriggerType)

	require.Len(t, report.Alerts, 1)
	assert.Equal(t, SeverityHigh, report.Alerts[0].Severity)
	assert.Contains(t, report.Alerts[0].Message, "degraded")

	found := false
	for _, rec := range report.Recommendations {
		if strings.Contains(rec, "Schedule retraining") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestGenerateReportIncompleteSections(t *testing.T) {
	start, end := reportWindow()

	report := GenerateReport("m1", start, end, nil, nil, nil)

	assert.True(t, report.Incomplete)
	assert.Nil(t, report.Metrics)
	assert.Nil(t, report.Trigger)
	require.Len(t, report.Alerts, 1)
	assert.Equal(t, SeverityLow, report.Alerts[0].Severity)
	assert.Contains(t, report.Alerts[0].Message, "incomplete")
	assert.Empty(t, report.Recommendations)
}

func TestGenerateReportUniqueIDs(t *testing.T) {
	start, end := reportWindow()
	a := GenerateReport("m1", start, end, nil, nil, nil)
	b := GenerateReport("m1", start, end, nil, nil, nil)

	assert.NotEqual(t, a.ReportID, b.ReportID)
}
