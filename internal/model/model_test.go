package model

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/couchcryptid/fwi-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names() []string { return domain.FeatureNames[:] }

func unit(i int, v float64) domain.NormalizedVector {
	var x domain.NormalizedVector
	x[i] = v
	return x
}

// sampleTree splits on ISI, then on DMC or ISI again.
func sampleTree() TreeParams {
	return TreeParams{
		ChildrenLeft:  []int{1, 2, -1, -1, 5, -1, -1},
		ChildrenRight: []int{4, 3, -1, -1, 6, -1, -1},
		Feature:       []int{domain.FeatureISI, domain.FeatureDMC, -2, -2, domain.FeatureISI, -2, -2},
		Threshold:     []float64{0, 0, -2, -2, 1.2, -2, -2},
		Value:         []float64{7, 3.9, 2.1, 5.8, 20, 12.4, 31.5},
	}
}

func TestCheckFeatureNames(t *testing.T) {
	require.NoError(t, CheckFeatureNames(names()))

	swapped := append([]string(nil), names()...)
	swapped[0], swapped[1] = swapped[1], swapped[0]
	err := CheckFeatureNames(swapped)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `feature_names[0] is "RH"`)

	assert.Error(t, CheckFeatureNames(names()[:8]))
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("random_forest")
	require.NoError(t, err)
	assert.Equal(t, KindRandomForest, k)

	_, err = ParseKind("xgboost")
	assert.Error(t, err)
}

func TestStandardScaler(t *testing.T) {
	s, err := NewStandardScaler(StandardScalerParams{
		FeatureNames: names(),
		Mean:         []float64{30, 60, 15, 1, 80, 15, 5, 0.5, 0.5},
		Scale:        []float64{5, 10, 3, 2, 10, 10, 4, 0.5, 0.5},
	})
	require.NoError(t, err)

	got := s.Transform(domain.FeatureVector{Temperature: 25, RH: 50, Ws: 15, Rain: 0, FFMC: 85, DMC: 20, ISI: 5, Classes: 1, Region: 0})
	want := domain.NormalizedVector{-1, -1, 0, -0.5, 0.5, 0.5, 0, 1, -1}
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-12, domain.FeatureNames[i])
	}

	t.Run("rejects zero scale", func(t *testing.T) {
		_, err := NewStandardScaler(StandardScalerParams{
			FeatureNames: names(),
			Mean:         make([]float64, 9),
			Scale:        []float64{1, 1, 1, 0, 1, 1, 1, 1, 1},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Rain")
	})

	t.Run("rejects arity mismatch", func(t *testing.T) {
		_, err := NewStandardScaler(StandardScalerParams{FeatureNames: names(), Mean: make([]float64, 8), Scale: make([]float64, 9)})
		assert.Error(t, err)
	})

	t.Run("rejects NaN mean", func(t *testing.T) {
		mean := make([]float64, 9)
		mean[4] = math.NaN()
		scale := []float64{1, 1, 1, 1, 1, 1, 1, 1, 1}
		_, err := NewStandardScaler(StandardScalerParams{FeatureNames: names(), Mean: mean, Scale: scale})
		assert.Error(t, err)
	})
}

func TestLinear(t *testing.T) {
	m, err := NewLinear(LinearParams{
		FeatureNames: names(),
		Coef:         []float64{1, 2, 0, 0, 0, 0, 0, 0, -1},
		Intercept:    7,
	})
	require.NoError(t, err)

	y, err := m.Predict(domain.NormalizedVector{1, 1, 5, 5, 5, 5, 5, 5, 2})
	require.NoError(t, err)
	assert.InDelta(t, 8.0, y, 1e-12)

	_, err = NewLinear(LinearParams{FeatureNames: names(), Coef: []float64{1}})
	assert.Error(t, err)

	_, err = NewLinear(LinearParams{FeatureNames: names(), Coef: make([]float64, 9), Intercept: math.Inf(1)})
	assert.Error(t, err)
}

func TestTree_Predict(t *testing.T) {
	tree, err := NewTree(sampleTree())
	require.NoError(t, err)

	tests := []struct {
		name string
		x    domain.NormalizedVector
		want float64
	}{
		{name: "low ISI, low DMC", x: domain.NormalizedVector{}, want: 2.1},
		{name: "low ISI, high DMC", x: unit(domain.FeatureDMC, 0.5), want: 5.8},
		{name: "mid ISI", x: unit(domain.FeatureISI, 0.5), want: 12.4},
		{name: "threshold goes left", x: unit(domain.FeatureISI, 1.2), want: 12.4},
		{name: "high ISI", x: unit(domain.FeatureISI, 3), want: 31.5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			y, err := tree.Predict(tc.x)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, y, 1e-12)
		})
	}

	assert.Equal(t, 2, tree.Depth())
}

func TestNewTree_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *TreeParams)
		errMsg string
	}{
		{name: "empty", mutate: func(p *TreeParams) { *p = TreeParams{} }, errMsg: "no nodes"},
		{name: "length mismatch", mutate: func(p *TreeParams) { p.Threshold = p.Threshold[:3] }, errMsg: "differ in length"},
		{name: "one child", mutate: func(p *TreeParams) { p.ChildrenRight[1] = -1 }, errMsg: "exactly one child"},
		{name: "backward edge", mutate: func(p *TreeParams) { p.ChildrenLeft[4] = 0 }, errMsg: "out of range"},
		{name: "child past end", mutate: func(p *TreeParams) { p.ChildrenRight[4] = 7 }, errMsg: "out of range"},
		{name: "bad feature", mutate: func(p *TreeParams) { p.Feature[0] = 9 }, errMsg: "splits on feature"},
		{name: "NaN leaf", mutate: func(p *TreeParams) { p.Value[6] = math.NaN() }, errMsg: "not finite"},
		{name: "wrong feature names", mutate: func(p *TreeParams) { p.FeatureNames = []string{"a"} }, errMsg: "feature_names"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := sampleTree()
			tc.mutate(&p)
			_, err := NewTree(p)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

func TestForest(t *testing.T) {
	stump := TreeParams{
		ChildrenLeft:  []int{1, -1, -1},
		ChildrenRight: []int{2, -1, -1},
		Feature:       []int{domain.FeatureFFMC, -2, -2},
		Threshold:     []float64{0.3, -2, -2},
		Value:         []float64{7.5, 3, 14},
	}
	constant := TreeParams{ChildrenLeft: []int{-1}, ChildrenRight: []int{-1}, Feature: []int{-2}, Threshold: []float64{-2}, Value: []float64{8}}

	f, err := NewForest(ForestParams{FeatureNames: names(), Estimators: []TreeParams{sampleTree(), stump, constant}})
	require.NoError(t, err)
	assert.Equal(t, 3, f.Size())

	x := unit(domain.FeatureISI, 0.5)
	x[domain.FeatureFFMC] = 1
	y, err := f.Predict(x)
	require.NoError(t, err)
	assert.InDelta(t, (12.4+14+8)/3, y, 1e-12)

	_, err = NewForest(ForestParams{FeatureNames: names()})
	assert.Error(t, err)

	bad := sampleTree()
	bad.Feature[0] = -5
	_, err = NewForest(ForestParams{FeatureNames: names(), Estimators: []TreeParams{stump, bad}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "estimator 1")
}

func TestSVR_Kernels(t *testing.T) {
	sv := [][]float64{{1, 0, 0, 0, 0, 0, 0, 0, 0}}

	tests := []struct {
		name   string
		params SVRParams
		x      domain.NormalizedVector
		want   float64
	}{
		{
			name:   "rbf at support vector",
			params: SVRParams{Kernel: KernelRBF, Gamma: 0.5, DualCoef: []float64{3}, Intercept: 1},
			x:      unit(0, 1),
			want:   4,
		},
		{
			name:   "rbf one unit away",
			params: SVRParams{Kernel: KernelRBF, Gamma: 0.5, DualCoef: []float64{3}, Intercept: 1},
			x:      unit(0, 2),
			want:   1 + 3*math.Exp(-0.5),
		},
		{
			name:   "linear",
			params: SVRParams{Kernel: KernelLinear, DualCoef: []float64{2}, Intercept: 1},
			x:      unit(0, 3),
			want:   7,
		},
		{
			name:   "poly",
			params: SVRParams{Kernel: KernelPoly, Gamma: 1, Coef0: 1, Degree: 2, DualCoef: []float64{1}},
			x:      unit(0, 2),
			want:   9,
		},
		{
			name:   "sigmoid orthogonal",
			params: SVRParams{Kernel: KernelSigmoid, Gamma: 1, DualCoef: []float64{5}, Intercept: 2},
			x:      unit(1, 4),
			want:   2,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := tc.params
			p.FeatureNames = names()
			p.SupportVectors = sv
			m, err := NewSVR(p)
			require.NoError(t, err)
			y, err := m.Predict(tc.x)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, y, 1e-12)
		})
	}
}

func TestNewSVR_Invalid(t *testing.T) {
	base := func() SVRParams {
		return SVRParams{
			FeatureNames:   names(),
			Kernel:         KernelRBF,
			Gamma:          0.1,
			SupportVectors: [][]float64{make([]float64, 9)},
			DualCoef:       []float64{1},
		}
	}
	tests := []struct {
		name   string
		mutate func(p *SVRParams)
	}{
		{name: "no support vectors", mutate: func(p *SVRParams) { p.SupportVectors = nil }},
		{name: "dual coef count", mutate: func(p *SVRParams) { p.DualCoef = []float64{1, 2} }},
		{name: "short support vector", mutate: func(p *SVRParams) { p.SupportVectors = [][]float64{{1, 2}} }},
		{name: "zero gamma", mutate: func(p *SVRParams) { p.Gamma = 0 }},
		{name: "unknown kernel", mutate: func(p *SVRParams) { p.Kernel = "precomputed" }},
		{name: "poly degree", mutate: func(p *SVRParams) { p.Kernel = KernelPoly }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := base()
			tc.mutate(&p)
			_, err := NewSVR(p)
			assert.Error(t, err)
		})
	}
}

type stubPredictor struct {
	y   float64
	err error
}

func (s stubPredictor) Predict(domain.NormalizedVector) (float64, error) { return s.y, s.err }

func TestRegistry(t *testing.T) {
	r, err := NewRegistry(
		Entry{Name: "Ridge Regression", Kind: KindRidge, Predictor: stubPredictor{y: 4.2}},
		Entry{Name: "Broken", Kind: KindSVR, Predictor: stubPredictor{err: errors.New("boom")}},
		Entry{Name: "Overflow", Kind: KindSVR, Predictor: stubPredictor{y: math.Inf(1)}},
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"Ridge Regression", "Broken", "Overflow"}, r.Names())
	assert.True(t, r.Has("Broken"))
	assert.False(t, r.Has("broken"))

	y, err := r.Predict("Ridge Regression", domain.NormalizedVector{})
	require.NoError(t, err)
	assert.InDelta(t, 4.2, y, 1e-12)

	t.Run("unknown model never falls back", func(t *testing.T) {
		_, err := r.Predict("Gradient Boost", domain.NormalizedVector{})
		var uerr *domain.UnknownModelError
		require.ErrorAs(t, err, &uerr)
		assert.Equal(t, "Gradient Boost", uerr.Name)
		assert.Equal(t, r.Names(), uerr.Known)
	})

	t.Run("predictor error becomes inference error", func(t *testing.T) {
		_, err := r.Predict("Broken", domain.NormalizedVector{})
		var ierr *domain.InferenceError
		require.ErrorAs(t, err, &ierr)
		assert.Equal(t, "Broken", ierr.Model)
		assert.EqualError(t, errors.Unwrap(err), "boom")
	})

	t.Run("non-finite output becomes inference error", func(t *testing.T) {
		_, err := r.Predict("Overflow", domain.NormalizedVector{})
		assert.True(t, domain.IsInference(err))
	})
}

func TestNewRegistry_Invalid(t *testing.T) {
	_, err := NewRegistry()
	assert.Error(t, err)

	_, err = NewRegistry(Entry{Name: " ", Predictor: stubPredictor{}})
	assert.Error(t, err)

	_, err = NewRegistry(Entry{Name: "SVR"})
	assert.Error(t, err)

	_, err = NewRegistry(Entry{Name: "SVR", Predictor: stubPredictor{}}, Entry{Name: "SVR", Predictor: stubPredictor{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registered twice")
}

func TestRegistry_ConcurrentPredict(t *testing.T) {
	tree, err := NewTree(sampleTree())
	require.NoError(t, err)
	r, err := NewRegistry(Entry{Name: "Decision Tree", Kind: KindDecisionTree, Predictor: tree})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			x := unit(domain.FeatureISI, float64(i%4))
			y, err := r.Predict("Decision Tree", x)
			assert.NoError(t, err)
			assert.True(t, domain.IsFinite(y))
		}()
	}
	wg.Wait()
}

func TestDescribe(t *testing.T) {
	tree, err := NewTree(sampleTree())
	require.NoError(t, err)
	assert.Equal(t, "tree, 7 nodes, depth 2", Describe(tree))
	assert.Equal(t, "model.stubPredictor", Describe(stubPredictor{}))
}
