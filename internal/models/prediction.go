package models

import (
	"fmt"
	"time"
)

// PredictionRecord pairs a model's forecast with the realized outcome once it
// has been observed. Only actualized records (ActualValue != nil) participate
// in accuracy computation.
type PredictionRecord struct {
	ID             string    `json:"id"`
	ModelID        string    `json:"model_id"`
	Timestamp      time.Time `json:"timestamp"`
	PredictedValue float64   `json:"predicted_value"`
	ActualValue    *float64  `json:"actual_value,omitempty"`
	Confidence     float64   `json:"confidence"`
	LowerBound     *float64  `json:"lower_bound,omitempty"`
	UpperBound     *float64  `json:"upper_bound,omitempty"`
}

// IsActualized reports whether the realized outcome has been recorded.
func (p *PredictionRecord) IsActualized() bool {
	return p.ActualValue != nil
}

// Validate checks structural invariants on the record.
func (p *PredictionRecord) Validate() error {
	if p.Confidence < 0 || p.Confidence > 1 {
		return fmt.Errorf("confidence must be within [0,1], got %f", p.Confidence)
	}
	if p.LowerBound != nil && p.UpperBound != nil && *p.LowerBound > *p.UpperBound {
		return fmt.Errorf("lower bound %f exceeds upper bound %f", *p.LowerBound, *p.UpperBound)
	}
	return nil
}

// RetrainingTrigger is a value object handed to the notification collaborator
// when degradation warrants retraining. It is not retained by the core.
type RetrainingTrigger struct {
	ModelID           string    `json:"model_id"`
	TriggerType       string    `json:"trigger_type"`
	TriggerValue      float64   `json:"trigger_value"`
	Threshold         float64   `json:"threshold"`
	Priority          string    `json:"priority"`
	RecommendedAction string    `json:"recommended_action"`
	TriggeredAt       time.Time `json:"triggered_at"`
}
