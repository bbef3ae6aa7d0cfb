package event

import (
	"context"
	"fmt"

	"github.com/grocer/backend/internal/domain/shared"
	"github.com/grocer/backend/internal/infrastructure/config"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Kafka message header names
const (
	HeaderEventID       = "event_id"
	HeaderEventType     = "event_type"
	HeaderAggregateType = "aggregate_type"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes outbox entries to a Kafka topic. Messages are keyed
// by aggregate ID so events of one order stay in one partition, in order.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

// NewKafkaPublisher creates a publisher writing to cfg.Topic
func NewKafkaPublisher(cfg config.KafkaConfig) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	if cfg.ClientID != "" {
		w.Transport = &kafka.Transport{ClientID: cfg.ClientID}
	}
	return &KafkaPublisher{writer: w, topic: cfg.Topic}
}

// PublishEntry writes one entry and waits for the broker acknowledgement
func (p *KafkaPublisher) PublishEntry(ctx context.Context, entry *shared.OutboxEntry) error {
	msg := kafka.Message{
		Key:   []byte(entry.AggregateID.String()),
		Value: entry.Payload,
		Time:  entry.CreatedAt.UTC(),
		Headers: []kafka.Header{
			{Key: HeaderEventID, Value: []byte(entry.EventID.String())},
			{Key: HeaderEventType, Value: []byte(entry.EventType)},
			{Key: HeaderAggregateType, Value: []byte(entry.AggregateType)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write to %s: %w", p.topic, err)
	}
	return nil
}

// Close flushes and closes the writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher stands in for the broker when Kafka is disabled. It only
// logs each entry.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher creates a new log publisher
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// PublishEntry logs the entry
func (p *LogPublisher) PublishEntry(_ context.Context, entry *shared.OutboxEntry) error {
	p.logger.Info("domain event",
		zap.String("event_id", entry.EventID.String()),
		zap.String("event_type", entry.EventType),
		zap.String("aggregate_type", entry.AggregateType),
		zap.String("aggregate_id", entry.AggregateID.String()),
		zap.ByteString("payload", entry.Payload),
	)
	return nil
}

// Close does nothing
func (p *LogPublisher) Close() error { return nil }

// NewEntryPublisher returns a Kafka publisher when enabled, otherwise a
// log publisher
func NewEntryPublisher(cfg config.KafkaConfig, logger *zap.Logger) EntryPublisher {
	if cfg.Enabled {
		logger.Info("publishing domain events to Kafka",
			zap.Strings("brokers", cfg.Brokers),
			zap.String("topic", cfg.Topic),
		)
		return NewKafkaPublisher(cfg)
	}
	return NewLogPublisher(logger)
}

var (
	_ EntryPublisher = (*KafkaPublisher)(nil)
	_ EntryPublisher = (*LogPublisher)(nil)
)
