package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"WasteGuard-Backend/pkg/logger"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

// Publisher pushes product change events onto the change feed. Publishing is
// best-effort from the caller's perspective: a feed outage must never fail a
// product mutation.
type Publisher interface {
	PublishProductChange(ctx context.Context, event ProductChangeEvent) error
	Close() error
}

type kafkaPublisher struct {
	producer sarama.SyncProducer
	brokers  []string
}

func NewPublisher(brokers []string) (Publisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Retry.Max = 3
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Compression = sarama.CompressionSnappy

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	logger.Logger.Info().
		Strs("brokers", brokers).
		Msg("Kafka publisher initialized")

	return &kafkaPublisher{
		producer: producer,
		brokers:  brokers,
	}, nil
}

func (p *kafkaPublisher) PublishProductChange(ctx context.Context, event ProductChangeEvent) error {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	event.Timestamp = time.Now()

	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: TopicProductChanges,
		Key:   sarama.StringEncoder(event.UserID),
		Value: sarama.ByteEncoder(eventBytes),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(event.EventType)},
			{Key: []byte("event_id"), Value: []byte(event.EventID)},
		},
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		logger.Logger.Error().
			Err(err).
			Str("topic", TopicProductChanges).
			Str("event_type", event.EventType).
			Str("user_id", event.UserID).
			Msg("Failed to publish event")
		return fmt.Errorf("failed to send message to Kafka: %w", err)
	}

	logger.Logger.Info().
		Str("event_id", event.EventID).
		Str("event_type", event.EventType).
		Str("topic", TopicProductChanges).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("Product change event published")

	return nil
}

func (p *kafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// nopPublisher is used when no brokers are configured.
type nopPublisher struct{}

func NewNopPublisher() Publisher { return nopPublisher{} }

func (nopPublisher) PublishProductChange(ctx context.Context, event ProductChangeEvent) error {
	return nil
}

func (nopPublisher) Close() error { return nil }
