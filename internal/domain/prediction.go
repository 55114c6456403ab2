package domain

import (
	"time"

	"github.com/google/uuid"
)

// Prediction is the result of one pipeline run. It is created per call and
// never retained by the core.
type Prediction struct {
	Model     string        `json:"model"`
	Inputs    FeatureVector `json:"inputs"`
	FWI       float64       `json:"fwi"`
	RiskLevel RiskLevel     `json:"risk_level"`
}

// PredictionEvent is the record published downstream for every served
// prediction.
type PredictionEvent struct {
	ID          string        `json:"id"`
	Model       string        `json:"model"`
	Inputs      FeatureVector `json:"inputs"`
	FWI         float64       `json:"fwi"`
	RiskLevel   RiskLevel     `json:"risk_level"`
	Advisory    string        `json:"advisory"`
	Source      string        `json:"source,omitempty"`
	PredictedAt time.Time     `json:"predicted_at"`
}

// NewPredictionEvent stamps a prediction with a fresh ID and the current
// time from the package clock.
func NewPredictionEvent(p Prediction, source string) PredictionEvent {
	return PredictionEvent{
		ID:          uuid.NewString(),
		Model:       p.Model,
		Inputs:      p.Inputs,
		FWI:         p.FWI,
		RiskLevel:   p.RiskLevel,
		Advisory:    p.RiskLevel.Advisory(),
		Source:      source,
		PredictedAt: clock.Now().UTC(),
	}
}
