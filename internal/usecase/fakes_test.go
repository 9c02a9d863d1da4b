package usecase

import (
	"context"
	"errors"

	"github.com/Galleee2002/fueradecontexto-api/internal/entity"
)

type fakeCatalog struct {
	products map[string]entity.Product
	err      error
}

func (f *fakeCatalog) GetByIDs(_ context.Context, ids []string) (map[string]entity.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := map[string]entity.Product{}
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

// fakeStock keeps real counters so reserve/restore conservation is
// observable.
type fakeStock struct {
	stocks map[string]int

	checkErr   error
	reserveErr error
	restoreErr error

	reserveCalls int
	restoreCalls int
}

func (f *fakeStock) CheckAvailability(_ context.Context, items []entity.ItemQuantity) ([]entity.Shortfall, error) {
	if f.checkErr != nil {
		return nil, f.checkErr
	}
	var out []entity.Shortfall
	for _, it := range items {
		if avail := f.stocks[it.ProductID]; avail < it.Quantity {
			out = append(out, entity.Shortfall{ProductID: it.ProductID, Available: avail, Requested: it.Quantity})
		}
	}
	return out, nil
}

func (f *fakeStock) Reserve(_ context.Context, items []entity.ItemQuantity) error {
	f.reserveCalls++
	if f.reserveErr != nil {
		return f.reserveErr
	}
	var shortfalls []entity.Shortfall
	for _, it := range items {
		if avail := f.stocks[it.ProductID]; avail < it.Quantity {
			shortfalls = append(shortfalls, entity.Shortfall{ProductID: it.ProductID, Available: avail, Requested: it.Quantity})
		}
	}
	if len(shortfalls) > 0 {
		return &StockError{Shortfalls: shortfalls}
	}
	for _, it := range items {
		f.stocks[it.ProductID] -= it.Quantity
	}
	return nil
}

func (f *fakeStock) Restore(_ context.Context, items []entity.ItemQuantity) error {
	f.restoreCalls++
	if f.restoreErr != nil {
		return f.restoreErr
	}
	for _, it := range items {
		f.stocks[it.ProductID] += it.Quantity
	}
	return nil
}

type fakeOrders struct {
	// order is the single persisted order; Create sets it, the webhook path
	// mutates it.
	order *entity.Order

	createErr error
	updateErr error
	attachErr error

	attachedPrefs []string
}

func (f *fakeOrders) Create(_ context.Context, draft OrderDraft) (*entity.Order, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
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
	f.order = o
	return o, nil
}

func (f *fakeOrders) AttachPreference(_ context.Context, orderID, preferenceID string) error {
	if f.attachErr != nil {
		return f.attachErr
	}
	if f.order == nil || f.order.ID != orderID {
		return ErrNotFound
	}
	f.order.MPPreferenceID = preferenceID
	f.attachedPrefs = append(f.attachedPrefs, preferenceID)
	return nil
}

func match(a, b string) bool { return a != "" && a == b }

func (f *fakeOrders) UpdatePaymentStatus(_ context.Context, ref PaymentRef, status entity.PaymentStatus, _ string) (*PaymentTransition, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	o := f.order
	if o == nil {
		return nil, nil
	}
	if !match(ref.PaymentID, o.MPPaymentID) &&
		!match(ref.PreferenceID, o.MPPreferenceID) &&
		!match(ref.ExternalReference, o.OrderNumber) {
		return nil, nil
	}
	prev := o.PaymentStatus
	o.PaymentStatus = status
	o.MPPaymentID = ref.PaymentID
	return &PaymentTransition{Order: o, From: prev, To: status}, nil
}

func (f *fakeOrders) GetByID(_ context.Context, id string) (*entity.Order, error) {
	if f.order == nil || f.order.ID != id {
		return nil, ErrNotFound
	}
	return f.order, nil
}

func (f *fakeOrders) ListByUser(_ context.Context, userID string) ([]entity.Order, error) {
	if f.order != nil && f.order.UserID == userID {
		return []entity.Order{*f.order}, nil
	}
	return nil, nil
}

func (f *fakeOrders) UpdateStatus(_ context.Context, id string, from, to entity.OrderStatus) (bool, error) {
	if f.order == nil || f.order.ID != id || f.order.Status != from {
		return false, nil
	}
	f.order.Status = to
	return true, nil
}

type fakeGateway struct {
	pref    *Preference
	prefErr error

	payment    *Payment
	paymentErr error

	prefReqs []PreferenceRequest
}

func (f *fakeGateway) CreatePreference(_ context.Context, req PreferenceRequest) (*Preference, error) {
	f.prefReqs = append(f.prefReqs, req)
	if f.prefErr != nil {
		return nil, f.prefErr
	}
	return f.pref, nil
}

func (f *fakeGateway) GetPayment(_ context.Context, paymentID string) (*Payment, error) {
	if f.paymentErr != nil {
		return nil, f.paymentErr
	}
	if f.payment == nil || f.payment.ID != paymentID {
		return nil, errors.New("payment not found")
	}
	return f.payment, nil
}

type fakeOutbox struct {
	enqueued []*entity.Order
	err      error
}

func (f *fakeOutbox) EnqueueOrderConfirmation(_ context.Context, order *entity.Order) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, order)
	return nil
}

type fakeDedup struct {
	seen map[string]bool
	err  error
	// passAll makes every delivery look like the first one, as after a TTL
	// expiry, so the transition guard is exercised alone.
	passAll bool
}

func (f *fakeDedup) FirstDelivery(_ context.Context, paymentID string, status entity.PaymentStatus) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.passAll {
		return true, nil
	}
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	k := paymentID + ":" + string(status)
	if f.seen[k] {
		return false, nil
	}
	f.seen[k] = true
	return true, nil
}
