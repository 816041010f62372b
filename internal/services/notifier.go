package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/forecastsight/forecastsight-go/internal/models"
)

// RetrainingNotifier delivers retraining triggers to whatever system acts on
// them. The evaluation service does not care how delivery happens.
type RetrainingNotifier interface {
	NotifyRetraining(ctx context.Context, trigger *models.RetrainingTrigger) error
}

// LogNotifier is the default notifier: it records the trigger in the
// structured log, where downstream tooling picks it up.
type LogNotifier struct {
	logger *logrus.Logger
}

func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyRetraining(_ context.Context, trigger *models.RetrainingTrigger) error {
	n.logger.WithFields(logrus.Fields{
		"model_id":           trigger.ModelID,
		"trigger_type":       trigger.TriggerType,
		"trigger_value":      trigger.TriggerValue,
		"threshold":          trigger.Threshold,
		"priority":           trigger.Priority,
		"recommended_action": trigger.RecommendedAction,
	}).Warn("model retraining triggered")
	return nil
}
