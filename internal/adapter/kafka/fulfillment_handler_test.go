package kafka

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Galleee2002/fueradecontexto-api/internal/entity"
	"github.com/Galleee2002/fueradecontexto-api/internal/usecase"
)

type memOrders struct {
	order *entity.Order
}

func (m *memOrders) Create(context.Context, usecase.OrderDraft) (*entity.Order, error) {
	panic("not used")
}

func (m *memOrders) AttachPreference(context.Context, string, string) error {
	panic("not used")
}

func (m *memOrders) UpdatePaymentStatus(context.Context, usecase.PaymentRef, entity.PaymentStatus, string) (*usecase.PaymentTransition, error) {
	panic("not used")
}

func (m *memOrders) GetByID(_ context.Context, id string) (*entity.Order, error) {
	if m.order == nil || m.order.ID != id {
		return nil, usecase.ErrNotFound
	}
	return m.order, nil
}

func (m *memOrders) ListByUser(context.Context, string) ([]entity.Order, error) {
	panic("not used")
}

func (m *memOrders) UpdateStatus(_ context.Context, id string, from, to entity.OrderStatus) (bool, error) {
	if m.order == nil || m.order.ID != id || m.order.Status != from {
		return false, nil
	}
	m.order.Status = to
	return true, nil
}

type memCache struct{ invalidated []string }

func (c *memCache) Get(context.Context, string) (*entity.Order, bool, error) { return nil, false, nil }
func (c *memCache) Set(context.Context, *entity.Order) error                 { return nil }
func (c *memCache) Invalidate(_ context.Context, id string) error {
	c.invalidated = append(c.invalidated, id)
	return nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestShippedEventAdvancesConfirmedOrder(t *testing.T) {
	orders := &memOrders{order: &entity.Order{ID: "order-1", Status: entity.OrderConfirmed}}
	cache := &memCache{}
	h := NewFulfillmentHandler(orders, cache, discard())

	err := h.Handle(context.Background(), FulfillmentEvent{
		OrderID: "order-1", Status: "SHIPPED", Carrier: "andreani", TrackingCode: "AR123",
	})

	require.NoError(t, err)
	assert.Equal(t, entity.OrderShipped, orders.order.Status)
	assert.Equal(t, []string{"order-1"}, cache.invalidated)
}

func TestDeliveredEventAdvancesShippedOrder(t *testing.T) {
	orders := &memOrders{order: &entity.Order{ID: "order-1", Status: entity.OrderShipped}}
	h := NewFulfillmentHandler(orders, nil, discard())

	require.NoError(t, h.Handle(context.Background(), FulfillmentEvent{OrderID: "order-1", Status: "DELIVERED"}))
	assert.Equal(t, entity.OrderDelivered, orders.order.Status)
}

func TestOutOfOrderEventIsDroppedWithoutError(t *testing.T) {
	// SHIPPED for an order still pending payment: the guard refuses and the
	// event is dropped, not retried.
	orders := &memOrders{order: &entity.Order{ID: "order-1", Status: entity.OrderPending}}
	h := NewFulfillmentHandler(orders, nil, discard())

	require.NoError(t, h.Handle(context.Background(), FulfillmentEvent{OrderID: "order-1", Status: "SHIPPED"}))
	assert.Equal(t, entity.OrderPending, orders.order.Status)
}

func TestDuplicateShippedEventIsIdempotent(t *testing.T) {
	orders := &memOrders{order: &entity.Order{ID: "order-1", Status: entity.OrderConfirmed}}
	h := NewFulfillmentHandler(orders, nil, discard())

	ev := FulfillmentEvent{OrderID: "order-1", Status: "SHIPPED"}
	require.NoError(t, h.Handle(context.Background(), ev))
	require.NoError(t, h.Handle(context.Background(), ev))

	assert.Equal(t, entity.OrderShipped, orders.order.Status)
}

func TestUnknownStatusIsAnError(t *testing.T) {
	h := NewFulfillmentHandler(&memOrders{}, nil, discard())

	err := h.Handle(context.Background(), FulfillmentEvent{OrderID: "order-1", Status: "LOST"})
	assert.Error(t, err)
}
