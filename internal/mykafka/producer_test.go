package mykafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestNewProducer_RequiresBrokers(t *testing.T) {
	_, err := NewProducer(nil)
	require.Error(t, err)

	p, err := NewProducer([]string{"localhost:9092"})
	require.NoError(t, err)
	require.NoError(t, p.Close())
}

func TestPublishEvent_WritesEnvelope(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w}

	ev := NewEvent("product_created", map[string]any{"productId": 7})
	require.NoError(t, p.PublishEvent(context.Background(), TopicProducts, "7", ev))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, TopicProducts, msg.Topic)
	assert.Equal(t, "7", string(msg.Key))
	assert.Equal(t, "product_created", string(msg.Headers[0].Value))

	var got map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, "product_created", got["type"])
	assert.Equal(t, ev.ID, got["id"])
	assert.EqualValues(t, 7, got["data"].(map[string]any)["productId"])
}

func TestPublishEvent_WrapsWriterError(t *testing.T) {
	boom := errors.New("broker down")
	p := &Producer{writer: &fakeWriter{err: boom}}

	err := p.PublishEvent(context.Background(), TopicCarts, "1", NewEvent("cart_checked_out", nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestNewEvent_UniqueIDs(t *testing.T) {
	a := NewEvent("x", nil)
	b := NewEvent("x", nil)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.OccurredAt.IsZero())
}
