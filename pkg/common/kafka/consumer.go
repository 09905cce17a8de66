package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
	"github.com/simple-clinic/clinic-sync/pkg/common/logger"
	"github.com/simple-clinic/clinic-sync/pkg/common/models"
)

// messageReader is the part of *kafka.Reader the consumer drives.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type EventHandler func(ctx context.Context, event models.Event) error

// RetryPolicy controls how a failed event is retried before it is given up on.
type RetryPolicy struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration

	// Retryable reports whether a handler error is transient. Nil, or a
	// zero MaxRetries, treats every error as permanent.
	Retryable func(error) bool
}

type ConsumerOptions struct {
	Retry RetryPolicy

	// DLQ receives events the handler could not process. Without one they
	// are logged and committed.
	DLQ    Publisher
	Source string
}

type Consumer struct {
	reader messageReader
	opts   ConsumerOptions
}

func NewConsumer(brokers []string, topic string, groupID string, opts ConsumerOptions) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})

	return newConsumer(reader, opts)
}

func newConsumer(reader messageReader, opts ConsumerOptions) *Consumer {
	if opts.Source == "" {
		opts.Source = "sync-consumer"
	}
	return &Consumer{reader: reader, opts: opts}
}

// Consume fetches events until ctx is done. A message is committed only once
// it has been handled, dead-lettered, or found undecodable. It returns an
// error when a failed event can be neither processed nor dead-lettered; the
// message is then left uncommitted for the next reader of the group.
func (c *Consumer) Consume(ctx context.Context, handler EventHandler) error {
	for {
		message, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Log.WithError(err).Error("Failed to fetch message")
			continue
		}

		event, err := DecodeEvent(message.Value)
		if err != nil {
			logger.Log.WithError(err).WithField("offset", message.Offset).Error("Failed to unmarshal event")
			c.commit(ctx, message)
			continue
		}

		if err := c.handle(ctx, handler, event); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fields := map[string]interface{}{
				"event_id":   event.ID,
				"event_type": event.Type,
				"offset":     message.Offset,
			}
			logger.Log.WithError(err).WithFields(fields).Error("Failed to process event")
			if err := c.deadLetter(ctx, event, err); err != nil {
				return fmt.Errorf("event %s: %w", event.ID, err)
			}
		}

		c.commit(ctx, message)
	}
}

func (c *Consumer) handle(ctx context.Context, handler EventHandler, event models.Event) error {
	policy := c.opts.Retry
	b := backoff.NewExponentialBackOff()
	if policy.InitialInterval > 0 {
		b.InitialInterval = policy.InitialInterval
	}
	if policy.MaxInterval > 0 {
		b.MaxInterval = policy.MaxInterval
	}
	b.MaxElapsedTime = 0

	attempt := 0
	op := func() error {
		attempt++
		err := handler(ctx, event)
		if err == nil {
			return nil
		}
		if policy.MaxRetries == 0 || policy.Retryable == nil || !policy.Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		logger.Log.WithError(err).WithFields(map[string]interface{}{
			"event_id": event.ID,
			"attempt":  attempt,
			"wait_ms":  wait.Milliseconds(),
		}).Warn("Retrying event")
	}

	return backoff.RetryNotify(op, backoff.WithContext(backoff.WithMaxRetries(b, policy.MaxRetries), ctx), notify)
}

func (c *Consumer) deadLetter(ctx context.Context, event models.Event, cause error) error {
	fields := map[string]interface{}{"event_id": event.ID, "event_type": event.Type}
	if c.opts.DLQ == nil {
		logger.Log.WithFields(fields).Error("Dropping event, no dead-letter topic configured")
		return nil
	}

	data := make(map[string]interface{}, len(event.Data)+3)
	for k, v := range event.Data {
		data[k] = v
	}
	data["original_event_id"] = event.ID
	data["original_event_type"] = event.Type
	data["error"] = cause.Error()

	if err := c.opts.DLQ.PublishEvent(ctx, event.Type, c.opts.Source, data); err != nil {
		return fmt.Errorf("dead-letter publish: %w", err)
	}
	logger.Log.WithFields(fields).Warn("Event sent to dead-letter topic")
	return nil
}

func (c *Consumer) commit(ctx context.Context, message kafka.Message) {
	if err := c.reader.CommitMessages(ctx, message); err != nil {
		logger.Log.WithError(err).Error("Failed to commit message")
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

func DecodeEvent(value []byte) (models.Event, error) {
	var event models.Event
	if err := json.Unmarshal(value, &event); err != nil {
		return models.Event{}, err
	}
	if event.Type == "" {
		return models.Event{}, errors.New("event type missing")
	}
	return event, nil
}

// DecodeData re-encodes one key of the event data into target.
func DecodeData(event models.Event, key string, target interface{}) error {
	raw, ok := event.Data[key]
	if !ok {
		return fmt.Errorf("%s payload missing", key)
	}
	bytes, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, target)
}
