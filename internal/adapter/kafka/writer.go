package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/fwi-service/internal/config"
	"github.com/couchcryptid/fwi-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes prediction events to a Kafka topic.
type Writer struct {
	writer  messageWriter
	timeout time.Duration
	logger  *slog.Logger
}

// NewWriter creates a Kafka producer for the configured prediction topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaPredictionTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: cfg.KafkaWriteTimeout,
	}
	return &Writer{writer: w, timeout: cfg.KafkaWriteTimeout, logger: logger}
}

// Publish writes one event, keyed by model name so each model's events stay
// ordered within a partition.
func (w *Writer) Publish(ctx context.Context, event domain.PredictionEvent) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		return err
	}
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish prediction event %s: %w", event.ID, err)
	}
	w.logger.Debug("prediction event published", "id", event.ID, "model", event.Model)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a PredictionEvent into a Kafka message.
func serializeToMessage(event domain.PredictionEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize prediction event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.Model),
		Value: data,
		Time:  event.PredictedAt,
		Headers: []kafkago.Header{
			{Key: "event_id", Value: []byte(event.ID)},
			{Key: "risk_level", Value: []byte(event.RiskLevel.String())},
			{Key: "fwi", Value: []byte(strconv.FormatFloat(event.FWI, 'f', 4, 64))},
			{Key: "predicted_at", Value: []byte(event.PredictedAt.Format(time.RFC3339))},
		},
	}, nil
}
