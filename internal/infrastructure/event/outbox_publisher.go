package event

import (
	"context"

	"github.com/grocer/backend/internal/domain/shared"
)

// OutboxPublisher serializes domain events into outbox entries. The
// repository joins the transaction carried by ctx, so entries written
// inside TransactionManager.WithinTransaction commit with the aggregate.
type OutboxPublisher struct {
	serializer *EventSerializer
	repo       shared.OutboxRepository
	maxRetries int
}

// NewOutboxPublisher creates a new outbox publisher
func NewOutboxPublisher(serializer *EventSerializer, repo shared.OutboxRepository) *OutboxPublisher {
	return &OutboxPublisher{serializer: serializer, repo: repo, maxRetries: shared.DefaultMaxRetries}
}

// WithMaxRetries sets the delivery attempts allowed before an entry is dead-lettered
func (p *OutboxPublisher) WithMaxRetries(n int) *OutboxPublisher {
	if n > 0 {
		p.maxRetries = n
	}
	return p
}

// SaveEvents writes one outbox entry per event
func (p *OutboxPublisher) SaveEvents(ctx context.Context, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	entries := make([]*shared.OutboxEntry, 0, len(events))
	for _, event := range events {
		payload, err := p.serializer.Serialize(event)
		if err != nil {
			return err
		}
		entry := shared.NewOutboxEntry(event, payload)
		entry.MaxRetries = p.maxRetries
		entries = append(entries, entry)
	}
	return p.repo.Save(ctx, entries...)
}

var _ shared.OutboxEventSaver = (*OutboxPublisher)(nil)
