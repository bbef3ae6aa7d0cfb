package shared

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEntry() *OutboxEntry {
	event := NewBaseDomainEvent("OrderPlaced", "Order", uuid.New())
	return NewOutboxEntry(&event, []byte(`{"ok":true}`))
}

func TestNewOutboxEntry(t *testing.T) {
	event := NewBaseDomainEvent("OrderPlaced", "Order", uuid.New())
	entry := NewOutboxEntry(&event, []byte(`{"ok":true}`))

	assert.Equal(t, event.ID, entry.EventID)
	assert.Equal(t, "OrderPlaced", entry.EventType)
	assert.Equal(t, "Order", entry.AggregateType)
	assert.Equal(t, event.AggID, entry.AggregateID)
	assert.Equal(t, OutboxStatusPending, entry.Status)
	assert.Equal(t, DefaultMaxRetries, entry.MaxRetries)
}

func TestOutboxEntry_MarkProcessing(t *testing.T) {
	entry := newTestEntry()
	require.NoError(t, entry.MarkProcessing())
	assert.ErrorIs(t, entry.MarkProcessing(), ErrOutboxNotClaimable)

	entry.MarkFailed("broker down")
	assert.NoError(t, entry.MarkProcessing(), "failed entries can be claimed again")
}

func TestRetryDelay(t *testing.T) {
	tests := []struct {
		failures int
		want     time.Duration
	}{
		{0, 0},
		{1, time.Second},
		{2, 2 * time.Second},
		{4, 8 * time.Second},
		{9, 256 * time.Second},
		{10, RetryMaxDelay},
		{40, RetryMaxDelay},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RetryDelay(tt.failures), "failures=%d", tt.failures)
	}
}

func TestOutboxEntry_MarkFailed(t *testing.T) {
	entry := newTestEntry()
	entry.MaxRetries = 3

	before := time.Now()
	entry.MarkFailed("timeout")
	assert.Equal(t, OutboxStatusFailed, entry.Status)
	assert.Equal(t, 1, entry.RetryCount)
	require.NotNil(t, entry.NextRetryAt)
	assert.WithinDuration(t, before.Add(time.Second), *entry.NextRetryAt, 500*time.Millisecond)

	entry.MarkFailed("timeout")
	assert.WithinDuration(t, time.Now().Add(2*time.Second), *entry.NextRetryAt, 500*time.Millisecond)

	entry.MarkFailed("final error")
	assert.True(t, entry.Dead())
	assert.Equal(t, 3, entry.RetryCount)
	assert.Equal(t, "final error", entry.LastError)
	assert.Nil(t, entry.NextRetryAt)
}

func TestOutboxEntry_MarkSent(t *testing.T) {
	entry := newTestEntry()
	entry.MarkFailed("timeout")
	entry.MarkSent()

	assert.Equal(t, OutboxStatusSent, entry.Status)
	assert.NotNil(t, entry.ProcessedAt)
	assert.Nil(t, entry.NextRetryAt)
}

func TestOutboxEntry_Requeue(t *testing.T) {
	entry := newTestEntry()
	entry.MaxRetries = 1
	entry.MarkFailed("poison message")
	require.True(t, entry.Dead())

	require.NoError(t, entry.Requeue())
	assert.Equal(t, OutboxStatusPending, entry.Status)
	assert.Zero(t, entry.RetryCount)
	assert.Empty(t, entry.LastError)

	for _, status := range []OutboxStatus{OutboxStatusPending, OutboxStatusProcessing, OutboxStatusSent, OutboxStatusFailed} {
		e := &OutboxEntry{Status: status}
		assert.ErrorIs(t, e.Requeue(), ErrOutboxNotDead, status)
	}
}
