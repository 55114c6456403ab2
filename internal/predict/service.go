// Package predict runs the inference pipeline: validate raw inputs,
// normalize them, dispatch to the selected model, and classify the result.
package predict

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/fwi-service/internal/domain"
	"github.com/couchcryptid/fwi-service/internal/model"
	"github.com/couchcryptid/fwi-service/internal/observability"
)

// Registry dispatches a normalized vector to a named model.
type Registry interface {
	Predict(name string, x domain.NormalizedVector) (float64, error)
	Names() []string
	Has(name string) bool
}

// Service is the stateless prediction pipeline. It holds only read-only
// references and is safe for concurrent use.
type Service struct {
	normalizer model.Normalizer
	registry   Registry
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// New creates a Service over a loaded scaler and registry.
func New(normalizer model.Normalizer, registry Registry, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		normalizer: normalizer,
		registry:   registry,
		logger:     logger,
		metrics:    metrics,
	}
}

// Run validates raw, then predicts with the named model. Errors are
// *domain.ValidationError, *domain.UnknownModelError or
// *domain.InferenceError, returned unwrapped.
func (s *Service) Run(ctx context.Context, raw map[string]any, modelName string) (domain.Prediction, error) {
	v, err := domain.ParseFeatures(raw)
	if err != nil {
		s.recordError(modelName, err)
		return domain.Prediction{}, err
	}
	return s.Predict(ctx, v, modelName)
}

// Predict runs the pipeline for an already parsed feature vector.
func (s *Service) Predict(ctx context.Context, v domain.FeatureVector, modelName string) (domain.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return domain.Prediction{}, err
	}
	if err := v.Validate(); err != nil {
		s.recordError(modelName, err)
		return domain.Prediction{}, err
	}

	start := time.Now()
	x := s.normalizer.Transform(v)
	fwi, err := s.registry.Predict(modelName, x)
	if err != nil {
		s.recordError(modelName, err)
		return domain.Prediction{}, err
	}

	p := domain.Prediction{
		Model:     modelName,
		Inputs:    v,
		FWI:       fwi,
		RiskLevel: domain.Classify(fwi),
	}

	s.observe(p, time.Since(start), false)
	return p, nil
}

// observe records a served prediction, computed or cached.
func (s *Service) observe(p domain.Prediction, elapsed time.Duration, cached bool) {
	s.metrics.PredictionDuration.WithLabelValues(p.Model).Observe(elapsed.Seconds())
	s.metrics.FWIValue.WithLabelValues(p.Model).Observe(p.FWI)
	s.metrics.Predictions.WithLabelValues(p.Model, p.RiskLevel.String()).Inc()
	s.logger.Debug("prediction served", "model", p.Model, "fwi", p.FWI, "risk_level", p.RiskLevel, "cached", cached)
}

// Models lists the registered model names in manifest order.
func (s *Service) Models() []string {
	return s.registry.Names()
}

// CheckReadiness returns nil once a scaler and at least one model are loaded.
func (s *Service) CheckReadiness(_ context.Context) error {
	if s.normalizer == nil || s.registry == nil {
		return errors.New("artifacts not loaded")
	}
	if len(s.registry.Names()) == 0 {
		return errors.New("no models registered")
	}
	return nil
}

func (s *Service) recordError(modelName string, err error) {
	kind := domain.ErrorKind(err)
	label := modelName
	if !s.registry.Has(modelName) {
		label = "unknown"
	}
	s.metrics.PredictionErrors.WithLabelValues(label, kind).Inc()

	if kind == "inference" {
		s.logger.Error("inference failed", "model", modelName, "error", err)
		return
	}
	s.logger.Debug("prediction rejected", "model", modelName, "kind", kind, "error", err)
}
