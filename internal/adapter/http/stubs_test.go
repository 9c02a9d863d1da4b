package http

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Galleee2002/fueradecontexto-api/internal/entity"
	"github.com/Galleee2002/fueradecontexto-api/internal/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// asUser mimics the authz middleware for handler tests, storing identity under
// the same gin context keys.
func asUser(userID, email string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("auth.userID", userID)
		c.Set("auth.email", email)
		c.Next()
	}
}

func withPerms(perms ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		m := map[string]struct{}{}
		for _, p := range perms {
			m[p] = struct{}{}
		}
		c.Set("auth.perms", m)
		c.Next()
	}
}

type stubCatalog struct{ products map[string]entity.Product }

func (s *stubCatalog) GetByIDs(_ context.Context, ids []string) (map[string]entity.Product, error) {
	out := map[string]entity.Product{}
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type stubStock struct {
	stocks       map[string]int
	restoreCalls int
}

func (s *stubStock) CheckAvailability(_ context.Context, items []entity.ItemQuantity) ([]entity.Shortfall, error) {
	var out []entity.Shortfall
	for _, it := range items {
		if avail := s.stocks[it.ProductID]; avail < it.Quantity {
			out = append(out, entity.Shortfall{ProductID: it.ProductID, Available: avail, Requested: it.Quantity})
		}
	}
	return out, nil
}

func (s *stubStock) Reserve(_ context.Context, items []entity.ItemQuantity) error {
	for _, it := range items {
		if s.stocks[it.ProductID] < it.Quantity {
			return &usecase.StockError{Shortfalls: []entity.Shortfall{{ProductID: it.ProductID}}}
		}
	}
	for _, it := range items {
		s.stocks[it.ProductID] -= it.Quantity
	}
	return nil
}

func (s *stubStock) Restore(_ context.Context, items []entity.ItemQuantity) error {
	s.restoreCalls++
	for _, it := range items {
		s.stocks[it.ProductID] += it.Quantity
	}
	return nil
}

type stubOrders struct {
	order     *entity.Order
	updateErr error
}

func (s *stubOrders) Create(_ context.Context, draft usecase.OrderDraft) (*entity.Order, error) {
	o := &entity.Order{
		ID:              "order-1",
		OrderNumber:     "FDC-000001",
		UserID:          draft.UserID,
		PayerEmail:      draft.PayerEmail,
		Status:          entity.OrderPending,
		PaymentStatus:   entity.PaymentPending,
		Items:           draft.Items,
		ShippingAddress: draft.ShippingAddress,
		BillingAddress:  draft.BillingAddress,
		ShippingMethod:  draft.ShippingMethod,
		SubtotalCents:   draft.SubtotalCents,
		DiscountCents:   draft.DiscountCents,
		TaxCents:        draft.TaxCents,
		ShippingCents:   draft.ShippingCents,
		TotalCents:      draft.TotalCents,
	}
	s.order = o
	return o, nil
}

func (s *stubOrders) AttachPreference(_ context.Context, orderID, preferenceID string) error {
	if s.order == nil || s.order.ID != orderID {
		return usecase.ErrNotFound
	}
	s.order.MPPreferenceID = preferenceID
	return nil
}

func (s *stubOrders) UpdatePaymentStatus(_ context.Context, ref usecase.PaymentRef, status entity.PaymentStatus, _ string) (*usecase.PaymentTransition, error) {
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	o := s.order
	if o == nil || (ref.PreferenceID != o.MPPreferenceID && ref.PaymentID != o.MPPaymentID) {
		return nil, nil
	}
	prev := o.PaymentStatus
	o.PaymentStatus = status
	o.MPPaymentID = ref.PaymentID
	return &usecase.PaymentTransition{Order: o, From: prev, To: status}, nil
}

func (s *stubOrders) GetByID(_ context.Context, id string) (*entity.Order, error) {
	if s.order == nil || s.order.ID != id {
		return nil, usecase.ErrNotFound
	}
	return s.order, nil
}

func (s *stubOrders) ListByUser(_ context.Context, userID string) ([]entity.Order, error) {
	if s.order != nil && s.order.UserID == userID {
		return []entity.Order{*s.order}, nil
	}
	return nil, nil
}

func (s *stubOrders) UpdateStatus(_ context.Context, id string, from, to entity.OrderStatus) (bool, error) {
	if s.order == nil || s.order.ID != id || s.order.Status != from {
		return false, nil
	}
	s.order.Status = to
	return true, nil
}

type stubGateway struct {
	pref    *usecase.Preference
	prefErr error

	payment     *usecase.Payment
	paymentErr  error
	getPayments int
}

func (s *stubGateway) CreatePreference(_ context.Context, _ usecase.PreferenceRequest) (*usecase.Preference, error) {
	if s.prefErr != nil {
		return nil, s.prefErr
	}
	return s.pref, nil
}

func (s *stubGateway) GetPayment(_ context.Context, paymentID string) (*usecase.Payment, error) {
	s.getPayments++
	if s.paymentErr != nil {
		return nil, s.paymentErr
	}
	if s.payment == nil || s.payment.ID != paymentID {
		return nil, errors.New("payment not found")
	}
	return s.payment, nil
}

type stubOutbox struct{ enqueued []*entity.Order }

func (s *stubOutbox) EnqueueOrderConfirmation(_ context.Context, order *entity.Order) error {
	s.enqueued = append(s.enqueued, order)
	return nil
}

type stubDedup struct{}

func (stubDedup) FirstDelivery(_ context.Context, _ string, _ entity.PaymentStatus) (bool, error) {
	return true, nil
}

type stubCache struct {
	byID        map[string]*entity.Order
	invalidated []string
}

func (s *stubCache) Get(_ context.Context, id string) (*entity.Order, bool, error) {
	if o, ok := s.byID[id]; ok {
		return o, true, nil
	}
	return nil, false, nil
}

func (s *stubCache) Set(_ context.Context, order *entity.Order) error {
	if s.byID == nil {
		s.byID = map[string]*entity.Order{}
	}
	s.byID[order.ID] = order
	return nil
}

func (s *stubCache) Invalidate(_ context.Context, id string) error {
	s.invalidated = append(s.invalidated, id)
	delete(s.byID, id)
	return nil
}
