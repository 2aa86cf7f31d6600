package events

import (
	"context"
	"encoding/json"
	"fmt"

	"WasteGuard-Backend/pkg/logger"

	"github.com/IBM/sarama"
)

// EventHandler is invoked for every product change event received.
type EventHandler func(ctx context.Context, event ProductChangeEvent)

// Consumer subscribes to the product change feed.
type Consumer struct {
	consumer sarama.ConsumerGroup
	groupID  string
	topics   []string
	handler  EventHandler
}

func NewConsumer(brokers []string, groupID string, handler EventHandler) (*Consumer, error) {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.Strategy = sarama.NewBalanceStrategyRoundRobin()
	config.Consumer.Offsets.Initial = sarama.OffsetNewest
	config.Consumer.Return.Errors = true

	consumer, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka consumer: %w", err)
	}

	logger.Logger.Info().
		Strs("brokers", brokers).
		Str("group_id", groupID).
		Msg("Kafka consumer initialized")

	return &Consumer{
		consumer: consumer,
		groupID:  groupID,
		topics:   []string{TopicProductChanges},
		handler:  handler,
	}, nil
}

func (c *Consumer) Start(ctx context.Context) error {
	handler := &consumerGroupHandler{consumer: c}

	go func() {
		for {
			select {
			case <-ctx.Done():
				logger.Logger.Info().Msg("Consumer context cancelled, stopping...")
				return
			default:
				if err := c.consumer.Consume(ctx, c.topics, handler); err != nil {
					logger.Logger.Error().
						Err(err).
						Msg("Error from consumer")
				}
			}
		}
	}()

	go func() {
		for err := range c.consumer.Errors() {
			logger.Logger.Error().
				Err(err).
				Msg("Consumer error")
		}
	}()

	return nil
}

func (c *Consumer) Close() error {
	if c.consumer != nil {
		return c.consumer.Close()
	}
	return nil
}

type consumerGroupHandler struct {
	consumer *Consumer
}

func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		var event ProductChangeEvent
		if err := json.Unmarshal(message.Value, &event); err != nil {
			logger.Logger.Warn().
				Err(err).
				Str("topic", message.Topic).
				Msg("Skipping malformed change event")
			session.MarkMessage(message, "")
			continue
		}

		h.consumer.handler(session.Context(), event)
		session.MarkMessage(message, "")
	}
	return nil
}
