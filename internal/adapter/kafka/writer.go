package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/storm-freeboard/internal/config"
	"github.com/couchcryptid/storm-freeboard/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes resolved design storm events to a Kafka topic.
// It implements lookup.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes and writes one event. Events for the same location share
// a key and therefore a partition.
func (w *Writer) Publish(ctx context.Context, event domain.DesignStormEvent) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish design storm event: %w", err)
	}
	w.logger.Debug("design storm event published", "topic", w.writer.Topic, "key", string(msg.Key))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a DesignStormEvent into a Kafka message.
func serializeToMessage(event domain.DesignStormEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize design storm event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(locationKey(event.Lat, event.Lon)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "duration", Value: []byte(event.Duration)},
			{Key: "ari", Value: []byte(event.ARI)},
			{Key: "unit", Value: []byte(event.Unit)},
			{Key: "retrieved_at", Value: []byte(event.RetrievedAt.Format(time.RFC3339))},
		},
	}, nil
}

func locationKey(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', 4, 64) + "," + strconv.FormatFloat(lon, 'f', 4, 64)
}
