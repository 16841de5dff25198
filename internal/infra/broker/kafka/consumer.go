package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	"rentshare/internal/app/outbox"
)

// handleAttempts bounds in-process retries before the session is restarted.
const handleAttempts = 3

type MessageHandler interface {
	Handle(ctx context.Context, msg *sarama.ConsumerMessage) error
}

// PayloadHandler adapts a function over the raw message value.
type PayloadHandler func(ctx context.Context, payload []byte) error

func (f PayloadHandler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	return f(ctx, msg.Value)
}

// Consumer reads projected topics as one consumer group.
type Consumer struct {
	group   sarama.ConsumerGroup
	handler MessageHandler
	logger  *slog.Logger
	backoff time.Duration
}

func NewConsumer(brokers []string, groupID string, handler MessageHandler, logger *slog.Logger) (*Consumer, error) {
	if handler == nil {
		return nil, errors.New("kafka: consumer needs a handler")
	}
	cfg := newConfig()
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	cfg.Consumer.Return.Errors = true
	cfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategySticky()}
	group, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka: consumer group %s: %w", groupID, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{group: group, handler: handler, logger: logger.With("group", groupID), backoff: 500 * time.Millisecond}, nil
}

// Run consumes until ctx is cancelled. Consume returns on every rebalance,
// so it is called in a loop.
func (c *Consumer) Run(ctx context.Context, topics []string) error {
	go c.drainErrors(ctx)
	claims := claimHandler{consumer: c}
	for {
		if err := c.group.Consume(ctx, topics, claims); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			return fmt.Errorf("kafka: consume %v: %w", topics, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

func (c *Consumer) Close() error {
	return c.group.Close()
}

func (c *Consumer) drainErrors(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-c.group.Errors():
			if !ok {
				return
			}
			c.logger.Warn("kafka consumer error", "error", err)
		}
	}
}

// deliver runs the handler with retries and reports whether the message may
// be marked. The correlation header is restored onto the handler context.
func (c *Consumer) deliver(ctx context.Context, msg *sarama.ConsumerMessage) bool {
	ctx = outbox.WithCorrelationID(ctx, headerValue(msg, outbox.CorrelationHeader))
	var err error
	for attempt := 1; attempt <= handleAttempts; attempt++ {
		if err = c.handler.Handle(ctx, msg); err == nil {
			return true
		}
		if attempt == handleAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(c.backoff * time.Duration(attempt)):
		}
	}
	c.logger.Warn("kafka message not handled",
		"topic", msg.Topic,
		"partition", msg.Partition,
		"offset", msg.Offset,
		"attempts", handleAttempts,
		"error", err,
	)
	return false
}

func headerValue(msg *sarama.ConsumerMessage, key string) string {
	for _, h := range msg.Headers {
		if h != nil && string(h.Key) == key {
			return string(h.Value)
		}
	}
	return ""
}

type claimHandler struct {
	consumer *Consumer
}

func (h claimHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h claimHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim returns at the first undeliverable message. That ends the
// session, Run rejoins the group, and the message is read again from the last
// committed offset.
func (h claimHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case <-sess.Context().Done():
			return nil
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if !h.consumer.deliver(sess.Context(), msg) {
				return nil
			}
			sess.MarkMessage(msg, "")
		}
	}
}
