package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/couchcryptid/rain-prediction-service/internal/domain"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Predictor answers a single prediction request.
type Predictor interface {
	Predict(ctx context.Context, location string) (domain.Prediction, error)
}

// PredictionTransformer implements Transformer by running each request
// message through a Predictor. Prediction failures are reported in the
// outcome rather than returned, so the requester always gets an answer.
type PredictionTransformer struct {
	predictor Predictor
	clock     clockwork.Clock
	logger    *slog.Logger
}

func NewTransformer(predictor Predictor, clock clockwork.Clock, logger *slog.Logger) *PredictionTransformer {
	return &PredictionTransformer{
		predictor: predictor,
		clock:     clock,
		logger:    logger,
	}
}

// Transform returns an error only for undecodable messages or when ctx ends.
func (t *PredictionTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.PredictionOutcome, error) {
	req, err := ParseRequest(raw)
	if err != nil {
		return domain.PredictionOutcome{}, err
	}

	out := domain.PredictionOutcome{
		RequestID: req.RequestID,
		Location:  strings.TrimSpace(req.Location),
	}

	prediction, err := t.predictor.Predict(ctx, req.Location)
	if err != nil {
		if ctx.Err() != nil {
			return domain.PredictionOutcome{}, ctx.Err()
		}
		out.Outcome = domain.OutcomeOf(err)
		out.Error = err.Error()
		t.logger.Debug("request answered with error",
			"request_id", out.RequestID, "location", out.Location, "outcome", out.Outcome)
	} else {
		out.Outcome = domain.OutcomeSuccess
		out.Prediction = &prediction
	}
	out.ProcessedAt = t.clock.Now().UTC()
	return out, nil
}

// ParseRequest decodes a request message. The request ID comes from the
// body, then the request_id header, and is generated when both are absent.
func ParseRequest(raw domain.RawEvent) (domain.PredictionRequest, error) {
	var req domain.PredictionRequest
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return domain.PredictionRequest{}, fmt.Errorf("decode prediction request: %w", err)
	}
	if req.RequestID == "" {
		req.RequestID = raw.Headers["request_id"]
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	return req, nil
}
