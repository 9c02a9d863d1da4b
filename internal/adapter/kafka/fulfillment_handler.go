package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Galleee2002/fueradecontexto-api/internal/entity"
	"github.com/Galleee2002/fueradecontexto-api/internal/usecase"
)

// FulfillmentHandler advances an order's fulfillment status from warehouse
// events. Transitions are guarded (shipped only from confirmed, delivered
// only from shipped); an event arriving for an order in the wrong state is
// dropped and logged rather than retried, since retrying cannot fix it.
type FulfillmentHandler struct {
	Orders usecase.OrderStore
	Cache  usecase.OrderCache // optional
	Logger *slog.Logger
}

func NewFulfillmentHandler(orders usecase.OrderStore, cache usecase.OrderCache, l *slog.Logger) *FulfillmentHandler {
	return &FulfillmentHandler{Orders: orders, Cache: cache, Logger: l}
}

func (h *FulfillmentHandler) Handle(ctx context.Context, ev FulfillmentEvent) error {
	var from, to entity.OrderStatus
	switch ev.Status {
	case "SHIPPED":
		from, to = entity.OrderConfirmed, entity.OrderShipped
	case "DELIVERED":
		from, to = entity.OrderShipped, entity.OrderDelivered
	default:
		return fmt.Errorf("unknown fulfillment status: %s", ev.Status)
	}

	ok, err := h.Orders.UpdateStatus(ctx, ev.OrderID, from, to)
	if err != nil {
		return err
	}
	if !ok {
		h.Logger.Warn("fulfillment event dropped: order not in expected state",
			"order_id", ev.OrderID, "expected", string(from), "target", string(to))
		return nil
	}

	if h.Cache != nil {
		_ = h.Cache.Invalidate(ctx, ev.OrderID)
	}
	return nil
}
