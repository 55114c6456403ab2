package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/fwi-service/internal/domain"
	"github.com/couchcryptid/fwi-service/internal/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 1 << 20

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Predictor runs the inference pipeline.
type Predictor interface {
	Run(ctx context.Context, raw map[string]any, modelName string) (domain.Prediction, error)
	Models() []string
}

// Publisher forwards served predictions downstream.
type Publisher interface {
	Publish(ctx context.Context, event domain.PredictionEvent) error
}

// Options configures the prediction routes.
type Options struct {
	// DefaultModel is used when a request does not name a model.
	DefaultModel string
	// Publisher is optional. When nil no events are published.
	Publisher Publisher
	// Metrics counts published events. When nil an unregistered set is used.
	Metrics *observability.Metrics
}

// Server exposes the prediction API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	predictor  Predictor
	opts       Options
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /v1/predict, /v1/models, /healthz,
// /readyz, and /metrics routes.
func NewServer(addr string, predictor Predictor, ready ReadinessChecker, opts Options, logger *slog.Logger) *Server {
	if opts.Metrics == nil {
		opts.Metrics = observability.NewUnregisteredMetrics()
	}
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		predictor: predictor,
		opts:      opts,
		logger:    logger,
	}

	mux.HandleFunc("POST /v1/predict", s.handlePredict)
	mux.HandleFunc("GET /v1/models", s.handleModels)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type predictRequest struct {
	Model  string         `json:"model"`
	Inputs map[string]any `json:"inputs"`
}

type predictResponse struct {
	Model     string               `json:"model"`
	FWI       float64              `json:"fwi"`
	RiskLevel domain.RiskLevel     `json:"risk_level"`
	Advisory  string               `json:"advisory"`
	Inputs    domain.FeatureVector `json:"inputs"`
}

type errorResponse struct {
	Error   string              `json:"error"`
	Message string              `json:"message"`
	Fields  []domain.FieldError `json:"fields,omitempty"`
	Models  []string            `json:"models,omitempty"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "malformed request body: " + err.Error()})
		return
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "malformed request body: unexpected data after JSON object"})
		return
	}

	modelName := req.Model
	if modelName == "" {
		modelName = s.opts.DefaultModel
	}

	p, err := s.predictor.Run(r.Context(), req.Inputs, modelName)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.publish(r.Context(), p)

	writeJSON(w, http.StatusOK, predictResponse{
		Model:     p.Model,
		FWI:       p.FWI,
		RiskLevel: p.RiskLevel,
		Advisory:  p.RiskLevel.Advisory(),
		Inputs:    p.Inputs,
	})
}

func (s *Server) handleModels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"models":  s.predictor.Models(),
		"default": s.opts.DefaultModel,
	})
}

// publish never fails the request; the prediction has already been served.
func (s *Server) publish(ctx context.Context, p domain.Prediction) {
	if s.opts.Publisher == nil {
		return
	}
	event := domain.NewPredictionEvent(p, "http")
	if err := s.opts.Publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.opts.Metrics.EventsPublished.WithLabelValues("error").Inc()
		s.logger.Warn("publish prediction event failed", "id", event.ID, "error", err)
		return
	}
	s.opts.Metrics.EventsPublished.WithLabelValues("success").Inc()
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var (
		verr *domain.ValidationError
		uerr *domain.UnknownModelError
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "validation", Message: err.Error(), Fields: verr.Fields})
	case errors.As(err, &uerr):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown_model", Message: err.Error(), Models: uerr.Known})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "canceled", Message: err.Error()})
	default:
		s.logger.Error("prediction failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: domain.ErrorKind(err), Message: err.Error()})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
