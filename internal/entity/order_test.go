package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeTotals(t *testing.T) {
	o := &Order{
		Items: []OrderItem{
			{ProductID: "p1", Quantity: 2, UnitPriceCents: 1500},
			{ProductID: "p2", Quantity: 1, UnitPriceCents: 4990},
		},
		DiscountCents: 500,
		TaxCents:      0,
		ShippingCents: 1200,
	}
	o.ComputeTotals()

	assert.Equal(t, int64(7990), o.SubtotalCents)
	assert.Equal(t, int64(8690), o.TotalCents)
	assert.True(t, o.TotalsConsistent())
}

func TestTotalsConsistentDetectsDrift(t *testing.T) {
	o := &Order{
		Items:         []OrderItem{{ProductID: "p1", Quantity: 1, UnitPriceCents: 1000}},
		SubtotalCents: 1000,
		TotalCents:    999,
	}
	assert.False(t, o.TotalsConsistent())
}

func TestItemSubtotal(t *testing.T) {
	it := OrderItem{Quantity: 3, UnitPriceCents: 333}
	assert.Equal(t, int64(999), it.SubtotalCents())
}

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		ok       bool
	}{
		{OrderPending, OrderConfirmed, true},
		{OrderConfirmed, OrderShipped, true},
		{OrderShipped, OrderDelivered, true},
		{OrderPending, OrderShipped, false},
		{OrderDelivered, OrderPending, false},
		{OrderShipped, OrderConfirmed, false},
		{OrderStatus("bogus"), OrderConfirmed, false},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.ok, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}
