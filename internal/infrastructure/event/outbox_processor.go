package event

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// EntryPublisher delivers raw outbox entries to a system outside the
// process, such as a message broker.
type EntryPublisher interface {
	PublishEntry(ctx context.Context, entry *shared.OutboxEntry) error
	Close() error
}

// OutboxProcessorConfig holds configuration for the outbox processor
type OutboxProcessorConfig struct {
	BatchSize        int
	PollInterval     time.Duration
	CleanupEnabled   bool
	CleanupRetention time.Duration
	CleanupInterval  time.Duration
}

// DefaultOutboxProcessorConfig returns default configuration
func DefaultOutboxProcessorConfig() OutboxProcessorConfig {
	return OutboxProcessorConfig{
		BatchSize:        100,
		PollInterval:     5 * time.Second,
		CleanupEnabled:   true,
		CleanupRetention: 7 * 24 * time.Hour,
		CleanupInterval:  time.Hour,
	}
}

// OutboxProcessor polls the outbox and delivers each entry first to the
// external publisher, then to the in-process bus. An entry is marked sent
// only after the external publisher accepted it; failures back off
// exponentially and end in the dead-letter state.
type OutboxProcessor struct {
	repo       shared.OutboxRepository
	bus        shared.EventBus
	external   EntryPublisher
	serializer *EventSerializer
	config     OutboxProcessorConfig
	logger     *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOutboxProcessor creates a new outbox processor. external may be nil.
func NewOutboxProcessor(
	repo shared.OutboxRepository,
	bus shared.EventBus,
	external EntryPublisher,
	serializer *EventSerializer,
	config OutboxProcessorConfig,
	logger *zap.Logger,
) *OutboxProcessor {
	defaults := DefaultOutboxProcessorConfig()
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = defaults.CleanupInterval
	}
	return &OutboxProcessor{
		repo:       repo,
		bus:        bus,
		external:   external,
		serializer: serializer,
		config:     config,
		logger:     logger,
	}
}

// Start runs one round immediately, then polls on the configured
// interval. Sent entries are purged by a second loop when cleanup is on.
func (p *OutboxProcessor) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.spawn(ctx, p.config.PollInterval, p.drain)
	if p.config.CleanupEnabled {
		p.spawn(ctx, p.config.CleanupInterval, p.cleanup)
	}

	p.logger.Info("outbox processor started",
		zap.Int("batch_size", p.config.BatchSize),
		zap.Duration("poll_interval", p.config.PollInterval),
		zap.Bool("external_publisher", p.external != nil),
	)
	return nil
}

// Stop cancels the loops and waits for the current batch to finish
func (p *OutboxProcessor) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("outbox processor stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *OutboxProcessor) spawn(ctx context.Context, every time.Duration, fn func(context.Context)) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			fn(ctx)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

// drain keeps running rounds while they come back full so a backlog does
// not wait one poll interval per batch.
func (p *OutboxProcessor) drain(ctx context.Context) {
	for ctx.Err() == nil {
		_, claimed := p.round(ctx)
		if claimed < p.config.BatchSize {
			return
		}
	}
}

// ProcessOnce handles one batch of new entries and one batch of due
// retries. It returns the number of entries marked sent.
func (p *OutboxProcessor) ProcessOnce(ctx context.Context) int {
	sent, _ := p.round(ctx)
	return sent
}

func (p *OutboxProcessor) round(ctx context.Context) (sent, claimed int) {
	fetchers := []struct {
		name  string
		fetch func() ([]*shared.OutboxEntry, error)
	}{
		{"pending", func() ([]*shared.OutboxEntry, error) { return p.repo.FindPending(ctx, p.config.BatchSize) }},
		{"retryable", func() ([]*shared.OutboxEntry, error) {
			return p.repo.FindRetryable(ctx, time.Now(), p.config.BatchSize)
		}},
	}

	for _, f := range fetchers {
		entries, err := f.fetch()
		if err != nil {
			p.logger.Error("outbox fetch failed", zap.String("source", f.name), zap.Error(err))
			return sent, claimed
		}
		batch, err := p.claim(ctx, entries)
		if err != nil {
			p.logger.Error("outbox claim failed", zap.String("source", f.name), zap.Error(err))
			return sent, claimed
		}
		claimed = max(claimed, len(batch))
		for _, entry := range batch {
			if p.settle(ctx, entry, p.deliver(ctx, entry)) {
				sent++
			}
		}
	}
	return sent, claimed
}

func (p *OutboxProcessor) claim(ctx context.Context, entries []*shared.OutboxEntry) ([]*shared.OutboxEntry, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	return p.repo.MarkProcessing(ctx, ids)
}

// deliver decodes the entry, hands it to the broker and then to local
// subscribers. Only decode and broker failures count against the entry.
func (p *OutboxProcessor) deliver(ctx context.Context, entry *shared.OutboxEntry) error {
	event, err := p.serializer.Deserialize(entry.EventType, entry.Payload)
	if err != nil {
		return err
	}
	if p.external != nil {
		if err := p.external.PublishEntry(ctx, entry); err != nil {
			return err
		}
	}
	if err := p.bus.Publish(ctx, event); err != nil {
		p.logger.Warn("in-process delivery failed", append(entryFields(entry), zap.Error(err))...)
	}
	return nil
}

// settle records the outcome of deliver and reports whether the entry
// ended up sent.
func (p *OutboxProcessor) settle(ctx context.Context, entry *shared.OutboxEntry, cause error) bool {
	if cause == nil {
		entry.MarkSent()
	} else {
		entry.MarkFailed(cause.Error())
		fields := append(entryFields(entry), zap.Int("retry_count", entry.RetryCount), zap.Error(cause))
		if entry.Dead() {
			p.logger.Warn("outbox entry moved to dead letter", fields...)
		} else {
			p.logger.Error("outbox delivery failed", fields...)
		}
	}

	if err := p.repo.Update(ctx, entry); err != nil {
		p.logger.Error("outbox entry update failed", append(entryFields(entry), zap.Error(err))...)
		return false
	}
	if cause != nil {
		return false
	}
	p.logger.Debug("outbox entry delivered", entryFields(entry)...)
	return true
}

func entryFields(entry *shared.OutboxEntry) []zap.Field {
	return []zap.Field{
		zap.String("event_id", entry.EventID.String()),
		zap.String("event_type", entry.EventType),
		zap.String("aggregate_type", entry.AggregateType),
		zap.String("aggregate_id", entry.AggregateID.String()),
	}
}

func (p *OutboxProcessor) cleanup(ctx context.Context) {
	cutoff := time.Now().Add(-p.config.CleanupRetention)
	deleted, err := p.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		p.logger.Error("outbox cleanup failed", zap.Error(err))
		return
	}
	if deleted > 0 {
		p.logger.Info("purged sent outbox entries",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff),
		)
	}
}
