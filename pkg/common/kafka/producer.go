package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/simple-clinic/clinic-sync/pkg/common/logger"
	"github.com/simple-clinic/clinic-sync/pkg/common/models"
)

// Publisher is the producing half the services depend on.
type Publisher interface {
	PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error
}

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		BatchSize:    1,
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{writer: writer}
}

func (p *Producer) PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error {
	message, event, err := encodeEvent(eventType, source, data)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		logger.Log.WithError(err).WithFields(map[string]interface{}{
			"event_id":   event.ID,
			"event_type": eventType,
		}).Error("Failed to publish event")
		return err
	}

	logger.Log.WithFields(map[string]interface{}{
		"event_id":   event.ID,
		"event_type": eventType,
		"topic":      p.writer.Topic,
	}).Debug("Event published")

	return nil
}

// PublishWithFallback publishes to primary and, when that fails, to
// fallback. It returns nil once either accepts the event.
func PublishWithFallback(ctx context.Context, primary, fallback Publisher, eventType, source string, data map[string]interface{}) error {
	err := primary.PublishEvent(ctx, eventType, source, data)
	if err == nil {
		return nil
	}
	entry := logger.Log.WithField("event_type", eventType)
	if fallback == nil {
		entry.WithError(err).Error("Failed to publish event, no dead-letter topic configured")
		return err
	}
	entry.WithError(err).Warn("Failed to publish event, sending to dead-letter topic")
	if dlqErr := fallback.PublishEvent(ctx, eventType, source, data); dlqErr != nil {
		entry.WithError(dlqErr).Error("Failed to publish event to dead-letter topic")
		return errors.Join(err, dlqErr)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

func encodeEvent(eventType, source string, data map[string]interface{}) (kafka.Message, models.Event, error) {
	event := models.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    source,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}

	eventBytes, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, event, fmt.Errorf("failed to marshal event: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(event.ID),
		Value: eventBytes,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(eventType)},
			{Key: "source", Value: []byte(source)},
		},
	}
	return message, event, nil
}
