package event

import (
	"context"
	"errors"
	"testing"

	"github.com/grocer/backend/internal/domain/shared"
	"github.com/grocer/backend/internal/infrastructure/config"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func headerValue(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestKafkaPublisher_PublishEntry(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w, topic: "grocer.orders"}

	entry := shared.NewOutboxEntry(newTestEvent("OrderPlaced"), []byte(`{"order_number":"GR-1"}`))
	require.NoError(t, p.PublishEntry(context.Background(), entry))

	require.Len(t, w.messages, 1)
	msg := w.messages[0]
	assert.Equal(t, entry.AggregateID.String(), string(msg.Key))
	assert.Equal(t, entry.Payload, msg.Value)
	assert.Equal(t, "OrderPlaced", headerValue(msg, HeaderEventType))
	assert.Equal(t, entry.EventID.String(), headerValue(msg, HeaderEventID))
	assert.Equal(t, "Order", headerValue(msg, HeaderAggregateType))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	p := &KafkaPublisher{writer: &fakeWriter{err: errors.New("no brokers")}, topic: "grocer.orders"}
	err := p.PublishEntry(context.Background(), shared.NewOutboxEntry(newTestEvent("OrderPaid"), []byte(`{}`)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "grocer.orders")
}

func TestNewEntryPublisher(t *testing.T) {
	logger := zap.NewNop()

	assert.IsType(t, &LogPublisher{}, NewEntryPublisher(config.KafkaConfig{}, logger))

	p := NewEntryPublisher(config.KafkaConfig{Enabled: true, Brokers: []string{"localhost:9092"}, Topic: "grocer.orders", ClientID: "grocer"}, logger)
	kp, ok := p.(*KafkaPublisher)
	require.True(t, ok)
	assert.Equal(t, "grocer.orders", kp.topic)
	require.NoError(t, kp.Close())
}

func TestLogPublisher(t *testing.T) {
	p := NewLogPublisher(zap.NewNop())
	assert.NoError(t, p.PublishEntry(context.Background(), shared.NewOutboxEntry(newTestEvent("OrderPaid"), []byte(`{}`))))
	assert.NoError(t, p.Close())
}
