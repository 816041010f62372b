package quality

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/forecastsight/forecastsight-go/internal/models"
)

// Degradation severity labels.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Degradation-rate thresholds, in percent MAPE increase over baseline.
const (
	highDegradationRate    = 20.0
	mediumDegradationRate  = 10.0
	lowDegradationRate     = 5.0
	mediumTriggerThreshold = 15.0
)

// DegradationAssessment is the verdict of one recent-vs-baseline comparison.
// Assessments are computed fresh per invocation and never mutated in place.
type DegradationAssessment struct {
	ModelID            string    `json:"model_id"`
	IsDetected         bool      `json:"is_detected"`
	Severity           string    `json:"severity"`
	DegradationRate    float64   `json:"degradation_rate"`
	TriggersRetraining bool      `json:"triggers_retraining"`
	RecentMAPE         float64   `json:"recent_mape"`
	BaselineMAPE       float64   `json:"baseline_mape"`
	EvaluatedAt        time.Time `json:"evaluated_at"`
}

// Detector compares a recent window of prediction accuracy against a
// historical baseline window.
type Detector struct {
	logger         *logrus.Logger
	recentWindow   time.Duration
	baselineWindow time.Duration
}

// NewDetector creates a detector. Non-positive windows fall back to the
// defaults of 7 days recent and 30 days baseline.
func NewDetector(logger *logrus.Logger, recentWindow, baselineWindow time.Duration) *Detector {
	if recentWindow <= 0 {
		recentWindow = 7 * 24 * time.Hour
	}
	if baselineWindow <= 0 {
		baselineWindow = 30 * 24 * time.Hour
	}
	return &Detector{logger: logger, recentWindow: recentWindow, baselineWindow: baselineWindow}
}

// DetectDegradation splits the history into a recent window (anchored at the
// latest actualized record) and the baseline window preceding it, then
// compares MAPE across the two.
//
// Degradation detection runs on a best-effort monitoring cadence: any
// insufficient-data condition is converted into a "not detected" assessment
// with a logged warning instead of an error, so the pipeline never halts.
func (d *Detector) DetectDegradation(modelID string, history []models.PredictionRecord) *DegradationAssessment {
	assessment := &DegradationAssessment{
		ModelID:     modelID,
		Severity:    SeverityLow,
		EvaluatedAt: time.Now().UTC(),
	}

	anchor, ok := latestActualized(history)
	if !ok {
		d.logger.WithField("model_id", modelID).Warn("degradation check skipped: no actualized predictions")
		return assessment
	}

	recentStart := anchor.Add(-d.recentWindow)
	baselineStart := recentStart.Add(-d.baselineWindow)

	var recent, baseline []models.PredictionRecord
	for _, r := range history {
		if !r.IsActualized() {
			continue
		}
		switch {
		case r.Timestamp.After(recentStart):
			recent = append(recent, r)
		case r.Timestamp.After(baselineStart):
			baseline = append(baseline, r)
		}
	}

	recentMetrics, err := EvaluateAccuracy(recent)
	if err != nil {
		d.logger.WithFields(logrus.Fields{"model_id": modelID, "window": "recent"}).
			WithError(err).Warn("degradation check skipped: recent window unusable")
		return assessment
	}
	baselineMetrics, err := EvaluateAccuracy(baseline)
	if err != nil {
		d.logger.WithFields(logrus.Fields{"model_id": modelID, "window": "baseline"}).
			WithError(err).Warn("degradation check skipped: baseline window unusable")
		return assessment
	}

	assessment.RecentMAPE = recentMetrics.MAPE
	assessment.BaselineMAPE = baselineMetrics.MAPE
	if baselineMetrics.MAPE == 0 {
		if recentMetrics.MAPE > 0 {
			d.logger.WithField("model_id", modelID).Warn("degradation check skipped: zero baseline MAPE")
		}
		return assessment
	}

	rate := (recentMetrics.MAPE - baselineMetrics.MAPE) / baselineMetrics.MAPE * 100
	assessment.DegradationRate = rate

	switch {
	case rate > highDegradationRate:
		assessment.IsDetected = true
		assessment.Severity = SeverityHigh
		assessment.TriggersRetraining = true
	case rate > mediumDegradationRate:
		assessment.IsDetected = true
		assessment.Severity = SeverityMedium
		assessment.TriggersRetraining = rate > mediumTriggerThreshold
	case rate > lowDegradationRate:
		assessment.IsDetected = true
		assessment.Severity = SeverityLow
	}
	return assessment
}

// BuildRetrainingTrigger converts a triggering assessment into the value
// object handed to the notification collaborator. Returns nil when the
// assessment does not call for retraining.
func BuildRetrainingTrigger(assessment *DegradationAssessment) *models.RetrainingTrigger {
	if assessment == nil || !assessment.TriggersRetraining {
		return nil
	}
	threshold := highDegradationRate
	if assessment.Severity == SeverityMedium {
		threshold = mediumTriggerThreshold
	}
	return &models.RetrainingTrigger{
		ModelID:           assessment.ModelID,
		TriggerType:       "mape_degradation",
		TriggerValue:      assessment.DegradationRate,
		Threshold:         threshold,
		Priority:          assessment.Severity,
		RecommendedAction: "retrain model on recent data and re-validate against the holdout window",
		TriggeredAt:       assessment.EvaluatedAt,
	}
}

func latestActualized(history []models.PredictionRecord) (time.Time, bool) {
	var latest time.Time
	found := false
	for _, r := range history {
		if r.IsActualized() && r.Timestamp.After(latest) {
			latest = r.Timestamp
			found = true
		}
	}
	return latest, found
}
