package kafka

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/IBM/sarama"
)

// FulfillmentEvent is published by the warehouse system when an order leaves
// a fulfillment stage.
type FulfillmentEvent struct {
	OrderID      string `json:"orderId"`
	Status       string `json:"status"` // "SHIPPED" | "DELIVERED"
	Carrier      string `json:"carrier,omitempty"`
	TrackingCode string `json:"trackingCode,omitempty"`
}

// HandlerFunc processes a decoded event.
type HandlerFunc func(ctx context.Context, ev FulfillmentEvent) error

// Consumer consumes a topic with a single handler.
type Consumer struct {
	Group  sarama.ConsumerGroup
	Topics []string
	Handle HandlerFunc
	Logger *slog.Logger
}

func NewConsumer(group sarama.ConsumerGroup, topics []string, h HandlerFunc, l *slog.Logger) *Consumer {
	return &Consumer{
		Group:  group,
		Topics: topics,
		Handle: h,
		Logger: l,
	}
}

func (c *Consumer) Start(ctx context.Context) error {
	handler := &cgHandler{handle: c.Handle, logger: c.Logger}
	for {
		if err := c.Group.Consume(ctx, c.Topics, handler); err != nil {
			return err
		}
		// Consume returns on rebalance or cancellation.
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

type cgHandler struct {
	handle HandlerFunc
	logger *slog.Logger
}

func (h *cgHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *cgHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *cgHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		var ev FulfillmentEvent
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			h.logger.Error("kafka decode error", "err", err, "offset", msg.Offset)
			// mark to avoid reprocessing poison
			sess.MarkMessage(msg, "decode-error")
			continue
		}
		if err := h.handle(sess.Context(), ev); err != nil {
			h.logger.Error("fulfillment handler error",
				"err", err, "key", string(msg.Key), "offset", msg.Offset)
			// Do not mark; the event retries on the next poll.
			continue
		}
		sess.MarkMessage(msg, "")
	}
	return nil
}
