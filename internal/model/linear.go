package model

import (
	"fmt"

	"github.com/couchcryptid/fwi-service/internal/domain"
)

// LinearParams is the JSON export of a fitted linear regressor such as Ridge.
type LinearParams struct {
	FeatureNames []string  `json:"feature_names"`
	Coef         []float64 `json:"coef"`
	Intercept    float64   `json:"intercept"`
}

// Linear predicts intercept + coef·x.
type Linear struct {
	coef      [domain.NumFeatures]float64
	intercept float64
}

// NewLinear validates the exported coefficients.
func NewLinear(p LinearParams) (*Linear, error) {
	if err := CheckFeatureNames(p.FeatureNames); err != nil {
		return nil, err
	}
	if len(p.Coef) != domain.NumFeatures {
		return nil, fmt.Errorf("coef has %d entries, want %d", len(p.Coef), domain.NumFeatures)
	}
	if !domain.IsFinite(p.Intercept) {
		return nil, fmt.Errorf("intercept is not finite")
	}
	m := &Linear{intercept: p.Intercept}
	for i, c := range p.Coef {
		if !domain.IsFinite(c) {
			return nil, fmt.Errorf("coef of %s is not finite", domain.FeatureNames[i])
		}
		m.coef[i] = c
	}
	return m, nil
}

func (m *Linear) Predict(x domain.NormalizedVector) (float64, error) {
	y := m.intercept
	for i, c := range m.coef {
		y += c * x[i]
	}
	return y, nil
}
