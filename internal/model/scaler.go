package model

import (
	"fmt"

	"github.com/couchcryptid/fwi-service/internal/domain"
)

// StandardScalerParams is the JSON export of a fitted StandardScaler.
type StandardScalerParams struct {
	FeatureNames []string  `json:"feature_names"`
	Mean         []float64 `json:"mean"`
	Scale        []float64 `json:"scale"`
}

// StandardScaler applies (x - mean) / scale per feature.
type StandardScaler struct {
	mean  [domain.NumFeatures]float64
	scale [domain.NumFeatures]float64
}

// NewStandardScaler validates the fitted parameters.
func NewStandardScaler(p StandardScalerParams) (*StandardScaler, error) {
	if err := CheckFeatureNames(p.FeatureNames); err != nil {
		return nil, err
	}
	if len(p.Mean) != domain.NumFeatures || len(p.Scale) != domain.NumFeatures {
		return nil, fmt.Errorf("scaler has %d means and %d scales, want %d", len(p.Mean), len(p.Scale), domain.NumFeatures)
	}

	s := &StandardScaler{}
	for i := range domain.NumFeatures {
		if !domain.IsFinite(p.Mean[i]) {
			return nil, fmt.Errorf("mean of %s is not finite", domain.FeatureNames[i])
		}
		if !domain.IsFinite(p.Scale[i]) || p.Scale[i] == 0 {
			return nil, fmt.Errorf("scale of %s must be finite and non-zero, got %g", domain.FeatureNames[i], p.Scale[i])
		}
		s.mean[i] = p.Mean[i]
		s.scale[i] = p.Scale[i]
	}
	return s, nil
}

// Transform scales v feature by feature.
func (s *StandardScaler) Transform(v domain.FeatureVector) domain.NormalizedVector {
	var out domain.NormalizedVector
	for i, x := range v.Values() {
		out[i] = (x - s.mean[i]) / s.scale[i]
	}
	return out
}
