package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/simple-clinic/clinic-sync/pkg/common/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// queueReader hands out queued messages and cancels the consume context once
// they run out.
type queueReader struct {
	mu        sync.Mutex
	messages  []kafka.Message
	committed []int64
	cancel    context.CancelFunc
}

func (r *queueReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		r.cancel()
		return kafka.Message{}, context.Canceled
	}
	msg := r.messages[0]
	r.messages = r.messages[1:]
	return msg, nil
}

func (r *queueReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *queueReader) Close() error { return nil }

type capturingPublisher struct {
	events []map[string]interface{}
	err    error
}

func (p *capturingPublisher) PublishEvent(ctx context.Context, eventType, source string, data map[string]interface{}) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, data)
	return nil
}

var errTransient = errors.New("lock held")

func syncMessage(t *testing.T, offset int64) kafka.Message {
	t.Helper()
	msg, _, err := encodeEvent(models.EventPatientSync, "sync-api", map[string]interface{}{"patients": []interface{}{}})
	require.NoError(t, err)
	msg.Offset = offset
	return msg
}

func newTestConsumer(t *testing.T, dlq Publisher, messages ...kafka.Message) (*Consumer, *queueReader, context.Context) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	reader := &queueReader{messages: messages, cancel: cancel}
	c := newConsumer(reader, ConsumerOptions{
		Retry: RetryPolicy{
			MaxRetries:      3,
			InitialInterval: time.Millisecond,
			MaxInterval:     2 * time.Millisecond,
			Retryable:       func(err error) bool { return errors.Is(err, errTransient) },
		},
		DLQ: dlq,
	})
	return c, reader, ctx
}

func TestConsumeRetriesTransientFailures(t *testing.T) {
	c, reader, ctx := newTestConsumer(t, nil, syncMessage(t, 7))

	calls := 0
	err := c.Consume(ctx, func(ctx context.Context, event models.Event) error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int64{7}, reader.committed)
}

func TestConsumeDeadLettersPermanentFailures(t *testing.T) {
	dlq := &capturingPublisher{}
	first := syncMessage(t, 1)
	c, reader, ctx := newTestConsumer(t, dlq, first, syncMessage(t, 2))

	calls := 0
	err := c.Consume(ctx, func(ctx context.Context, event models.Event) error {
		calls++
		if calls == 1 {
			return errors.New("constraint violation")
		}
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, calls, "permanent errors are not retried")
	assert.Equal(t, []int64{1, 2}, reader.committed)
	require.Len(t, dlq.events, 1)
	assert.Equal(t, string(first.Key), dlq.events[0]["original_event_id"])
	assert.Equal(t, "constraint violation", dlq.events[0]["error"])
	assert.Contains(t, dlq.events[0], "patients")
}

func TestConsumeDeadLettersExhaustedRetries(t *testing.T) {
	dlq := &capturingPublisher{}
	c, reader, ctx := newTestConsumer(t, dlq, syncMessage(t, 4))

	calls := 0
	err := c.Consume(ctx, func(ctx context.Context, event models.Event) error {
		calls++
		return errTransient
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 4, calls)
	assert.Len(t, dlq.events, 1)
	assert.Equal(t, []int64{4}, reader.committed)
}

func TestConsumeStopsWhenDeadLetterFails(t *testing.T) {
	dlq := &capturingPublisher{err: errors.New("broker down")}
	c, reader, ctx := newTestConsumer(t, dlq, syncMessage(t, 9), syncMessage(t, 10))

	err := c.Consume(ctx, func(ctx context.Context, event models.Event) error {
		return errors.New("bad payload")
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	assert.Empty(t, reader.committed)
}

func TestConsumeCommitsUndecodableMessages(t *testing.T) {
	c, reader, ctx := newTestConsumer(t, nil, kafka.Message{Offset: 3, Value: []byte("not json")})

	called := false
	err := c.Consume(ctx, func(ctx context.Context, event models.Event) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
	assert.Equal(t, []int64{3}, reader.committed)
}

func TestConsumeStopsOnCancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reader := &queueReader{messages: []kafka.Message{syncMessage(t, 5)}, cancel: cancel}
	c := newConsumer(reader, ConsumerOptions{
		Retry: RetryPolicy{
			MaxRetries:      10,
			InitialInterval: time.Hour,
			Retryable:       func(error) bool { return true },
		},
		DLQ: &capturingPublisher{},
	})

	err := c.Consume(ctx, func(context.Context, models.Event) error {
		cancel()
		return errTransient
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, reader.committed)
}
