package shared

import "context"

// TransactionManager runs fn inside a database transaction. Repositories
// called with the context passed to fn join that transaction.
type TransactionManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// OutboxEventSaver writes domain events to the outbox. Called inside
// WithinTransaction, the events commit atomically with the aggregate.
type OutboxEventSaver interface {
	SaveEvents(ctx context.Context, events ...DomainEvent) error
}
