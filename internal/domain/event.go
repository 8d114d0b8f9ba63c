package domain

import (
	"context"
	"time"
)

// RawEvent represents an unprocessed message from the request topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// PredictionRequest is the JSON body of a request message.
type PredictionRequest struct {
	Location  string `json:"location"`
	RequestID string `json:"request_id,omitempty"`
}

// PredictionOutcome is published for every request, successful or not.
// Outcome holds one of the Outcome* labels; Prediction is set only on success.
type PredictionOutcome struct {
	RequestID   string      `json:"request_id"`
	Location    string      `json:"location"`
	Outcome     string      `json:"outcome"`
	Error       string      `json:"error,omitempty"`
	Prediction  *Prediction `json:"prediction,omitempty"`
	ProcessedAt time.Time   `json:"processed_at"`
}
