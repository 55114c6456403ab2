// Package model evaluates the pre-trained FWI regressors and the fitted
// feature scaler. All types are immutable after construction and safe for
// concurrent use.
package model

import (
	"fmt"

	"github.com/couchcryptid/fwi-service/internal/domain"
)

// Predictor is the single capability every trained model exposes.
type Predictor interface {
	Predict(x domain.NormalizedVector) (float64, error)
}

// Normalizer converts raw features into the space the models were trained on.
type Normalizer interface {
	Transform(v domain.FeatureVector) domain.NormalizedVector
}

// Kind identifies a model family in the artifact manifest.
type Kind string

const (
	KindRidge        Kind = "ridge"
	KindDecisionTree Kind = "decision_tree"
	KindRandomForest Kind = "random_forest"
	KindSVR          Kind = "svr"
)

// ParseKind validates a manifest kind string.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindRidge, KindDecisionTree, KindRandomForest, KindSVR:
		return k, nil
	default:
		return "", fmt.Errorf("unsupported model kind %q", s)
	}
}

// CheckFeatureNames verifies that an artifact was fitted on the expected
// columns in the expected order.
func CheckFeatureNames(names []string) error {
	if len(names) != domain.NumFeatures {
		return fmt.Errorf("feature_names has %d entries, want %d", len(names), domain.NumFeatures)
	}
	for i, want := range domain.FeatureNames {
		if names[i] != want {
			return fmt.Errorf("feature_names[%d] is %q, want %q", i, names[i], want)
		}
	}
	return nil
}
