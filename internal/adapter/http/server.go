package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/couchcryptid/rain-prediction-service/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	headerRequestID = "X-Request-ID"

	// maxPopular caps the popular list after filtering to known locations.
	maxPopular = 5
)

var validate = validator.New()

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Readiness combines checkers; the first failure wins.
type Readiness []ReadinessChecker

func (r Readiness) CheckReadiness(ctx context.Context) error {
	for _, c := range r {
		if err := c.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Predictor is the prediction surface the API depends on.
type Predictor interface {
	Predict(ctx context.Context, location string) (domain.Prediction, error)
	Locations() ([]string, error)
}

// Server exposes the prediction API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	predictor  Predictor
	popular    []string
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and the
// /api/v1 prediction routes.
func NewServer(addr string, ready ReadinessChecker, predictor Predictor, popular []string, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		predictor: predictor,
		popular:   popular,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/v1/predict", s.handlePredict)
	mux.HandleFunc("GET /api/v1/locations", s.handleLocations)

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

type predictQuery struct {
	Location string `validate:"required,max=100"`
}

type predictResponse struct {
	RequestID string `json:"request_id"`
	domain.Prediction
}

type errorResponse struct {
	RequestID string `json:"request_id,omitempty"`
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(w, r)

	q := predictQuery{Location: strings.TrimSpace(r.URL.Query().Get("location"))}
	if err := validate.Struct(q); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			RequestID: requestID,
			Error:     "location query parameter is required and must be at most 100 characters",
		})
		return
	}

	pred, err := s.predictor.Predict(r.Context(), q.Location)
	if err != nil {
		status := statusFor(err)
		writeJSON(w, status, errorResponse{
			RequestID: requestID,
			Error:     err.Error(),
			Kind:      domain.OutcomeOf(err),
		})
		s.logger.Info("predict request failed", "request_id", requestID, "location", q.Location, "status", status)
		return
	}

	writeJSON(w, http.StatusOK, predictResponse{RequestID: requestID, Prediction: pred})
}

type locationsResponse struct {
	Count     int      `json:"count"`
	Locations []string `json:"locations"`
}

func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := s.predictor.Locations()
	if err != nil {
		writeJSON(w, statusFor(err), errorResponse{Error: err.Error(), Kind: domain.OutcomeOf(err)})
		return
	}

	if r.URL.Query().Get("popular") == "true" {
		known := make([]string, 0, len(s.popular))
		for _, p := range s.popular {
			if len(known) == maxPopular {
				break
			}
			if slices.Contains(locations, p) {
				known = append(known, p)
			}
		}
		locations = known
	}

	writeJSON(w, http.StatusOK, locationsResponse{Count: len(locations), Locations: locations})
}

// statusFor maps a prediction error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnknownLocation):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrObservationUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrModelNotReady):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// requestIDFrom reuses an inbound X-Request-ID or mints one, and echoes it.
func requestIDFrom(w http.ResponseWriter, r *http.Request) string {
	id := r.Header.Get(headerRequestID)
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set(headerRequestID, id)
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
