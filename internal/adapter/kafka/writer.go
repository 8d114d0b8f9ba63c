package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/rain-prediction-service/internal/config"
	"github.com/couchcryptid/rain-prediction-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces prediction outcomes to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured outcome topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes and publishes outcomes in a single WriteMessages call.
// Outcomes for the same location share a key and therefore a partition.
func (w *Writer) LoadBatch(ctx context.Context, outcomes []domain.PredictionOutcome) error {
	if len(outcomes) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(outcomes))
	for i := range outcomes {
		msg, err := serializeToMessage(outcomes[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a PredictionOutcome into a Kafka message.
func serializeToMessage(outcome domain.PredictionOutcome) (kafkago.Message, error) {
	data, err := json.Marshal(outcome)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize prediction outcome: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(outcome.Location),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "request_id", Value: []byte(outcome.RequestID)},
			{Key: "outcome", Value: []byte(outcome.Outcome)},
			{Key: "processed_at", Value: []byte(outcome.ProcessedAt.Format(time.RFC3339))},
		},
	}, nil
}
