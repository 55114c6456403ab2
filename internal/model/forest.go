package model

import (
	"errors"
	"fmt"

	"github.com/couchcryptid/fwi-service/internal/domain"
)

// ForestParams is the JSON export of a fitted random forest regressor.
type ForestParams struct {
	FeatureNames []string     `json:"feature_names"`
	Estimators   []TreeParams `json:"estimators"`
}

// Forest averages the predictions of its trees.
type Forest struct {
	trees []*Tree
}

// NewForest validates every estimator.
func NewForest(p ForestParams) (*Forest, error) {
	if err := CheckFeatureNames(p.FeatureNames); err != nil {
		return nil, err
	}
	if len(p.Estimators) == 0 {
		return nil, errors.New("forest has no estimators")
	}
	trees := make([]*Tree, len(p.Estimators))
	for i, tp := range p.Estimators {
		t, err := NewTree(tp)
		if err != nil {
			return nil, fmt.Errorf("estimator %d: %w", i, err)
		}
		trees[i] = t
	}
	return &Forest{trees: trees}, nil
}

func (f *Forest) Predict(x domain.NormalizedVector) (float64, error) {
	var sum float64
	for i, t := range f.trees {
		y, err := t.Predict(x)
		if err != nil {
			return 0, fmt.Errorf("estimator %d: %w", i, err)
		}
		sum += y
	}
	return sum / float64(len(f.trees)), nil
}

// Size returns the number of trees.
func (f *Forest) Size() int { return len(f.trees) }
