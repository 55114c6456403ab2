package model

import (
	"errors"
	"fmt"
	"math"

	"github.com/couchcryptid/fwi-service/internal/domain"
)

// Kernel names as exported by scikit-learn.
const (
	KernelRBF     = "rbf"
	KernelLinear  = "linear"
	KernelPoly    = "poly"
	KernelSigmoid = "sigmoid"
)

// SVRParams is the JSON export of a fitted epsilon-SVR.
type SVRParams struct {
	FeatureNames   []string    `json:"feature_names"`
	Kernel         string      `json:"kernel"`
	Gamma          float64     `json:"gamma"`
	Coef0          float64     `json:"coef0"`
	Degree         int         `json:"degree"`
	SupportVectors [][]float64 `json:"support_vectors"`
	DualCoef       []float64   `json:"dual_coef"`
	Intercept      float64     `json:"intercept"`
}

// SVR predicts intercept + Σ dual_coef[i]·K(sv[i], x).
type SVR struct {
	kernel    func(a, b *domain.NormalizedVector) float64
	support   []domain.NormalizedVector
	dualCoef  []float64
	intercept float64
}

// NewSVR validates the support vectors and builds the kernel.
func NewSVR(p SVRParams) (*SVR, error) {
	if err := CheckFeatureNames(p.FeatureNames); err != nil {
		return nil, err
	}
	if len(p.SupportVectors) == 0 {
		return nil, errors.New("svr has no support vectors")
	}
	if len(p.DualCoef) != len(p.SupportVectors) {
		return nil, fmt.Errorf("svr has %d dual coefficients for %d support vectors", len(p.DualCoef), len(p.SupportVectors))
	}
	if !domain.IsFinite(p.Intercept) {
		return nil, errors.New("intercept is not finite")
	}

	kernel, err := newKernel(p)
	if err != nil {
		return nil, err
	}

	support := make([]domain.NormalizedVector, len(p.SupportVectors))
	for i, sv := range p.SupportVectors {
		if len(sv) != domain.NumFeatures {
			return nil, fmt.Errorf("support vector %d has %d features, want %d", i, len(sv), domain.NumFeatures)
		}
		for j, v := range sv {
			if !domain.IsFinite(v) {
				return nil, fmt.Errorf("support vector %d feature %s is not finite", i, domain.FeatureNames[j])
			}
		}
		copy(support[i][:], sv)
	}

	return &SVR{
		kernel:    kernel,
		support:   support,
		dualCoef:  append([]float64(nil), p.DualCoef...),
		intercept: p.Intercept,
	}, nil
}

func newKernel(p SVRParams) (func(a, b *domain.NormalizedVector) float64, error) {
	needGamma := func() error {
		if !domain.IsFinite(p.Gamma) || p.Gamma <= 0 {
			return fmt.Errorf("%s kernel needs a positive gamma, got %g", p.Kernel, p.Gamma)
		}
		return nil
	}

	switch p.Kernel {
	case KernelRBF:
		if err := needGamma(); err != nil {
			return nil, err
		}
		gamma := p.Gamma
		return func(a, b *domain.NormalizedVector) float64 {
			var d float64
			for i := range a {
				diff := a[i] - b[i]
				d += diff * diff
			}
			return math.Exp(-gamma * d)
		}, nil
	case KernelLinear:
		return dot, nil
	case KernelPoly:
		if err := needGamma(); err != nil {
			return nil, err
		}
		if p.Degree < 1 {
			return nil, fmt.Errorf("poly kernel needs degree >= 1, got %d", p.Degree)
		}
		gamma, coef0, degree := p.Gamma, p.Coef0, float64(p.Degree)
		return func(a, b *domain.NormalizedVector) float64 {
			return math.Pow(gamma*dot(a, b)+coef0, degree)
		}, nil
	case KernelSigmoid:
		if err := needGamma(); err != nil {
			return nil, err
		}
		gamma, coef0 := p.Gamma, p.Coef0
		return func(a, b *domain.NormalizedVector) float64 {
			return math.Tanh(gamma*dot(a, b) + coef0)
		}, nil
	default:
		return nil, fmt.Errorf("unsupported kernel %q", p.Kernel)
	}
}

func dot(a, b *domain.NormalizedVector) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func (m *SVR) Predict(x domain.NormalizedVector) (float64, error) {
	y := m.intercept
	for i := range m.support {
		y += m.dualCoef[i] * m.kernel(&m.support[i], &x)
	}
	return y, nil
}
