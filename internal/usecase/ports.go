package usecase

import (
	"context"

	"github.com/Galleee2002/fueradecontexto-api/internal/entity"
)

// ProductCatalog is the read-side of the products table used for server-side
// re-pricing. Client-supplied names and prices are never trusted.
type ProductCatalog interface {
	GetByIDs(ctx context.Context, ids []string) (map[string]entity.Product, error)
}

// StockLedger mutates Product.stock. Reserve and Restore are batch
// all-or-nothing: either every row is adjusted or none is.
type StockLedger interface {
	// CheckAvailability returns the requested items whose current stock is
	// insufficient; empty means all satisfiable. Read-only, no locks.
	CheckAvailability(ctx context.Context, items []entity.ItemQuantity) ([]entity.Shortfall, error)
	// Reserve decrements stock with a per-row stock >= quantity guard.
	// Returns *StockError if any row's guard fails.
	Reserve(ctx context.Context, items []entity.ItemQuantity) error
	// Restore increments stock back; the compensating action for Reserve.
	Restore(ctx context.Context, items []entity.ItemQuantity) error
}

// OrderDraft is everything Create needs; the store allocates id and order
// number itself.
type OrderDraft struct {
	UserID          string
	PayerEmail      string
	Items           []entity.OrderItem
	ShippingAddress entity.Address
	BillingAddress  entity.Address
	ShippingMethod  string
	SubtotalCents   int64
	DiscountCents   int64
	TaxCents        int64
	ShippingCents   int64
	TotalCents      int64
}

// PaymentRef identifies the order a gateway payment belongs to. The payment
// id wins when already recorded; preference id and external reference (the
// order number) cover the first notification, which arrives before the
// payment id has been attached.
type PaymentRef struct {
	PaymentID         string
	PreferenceID      string
	ExternalReference string
}

// PaymentTransition reports what a payment-status write actually changed.
// Side effects key off From != To, so redelivered notifications are no-ops.
type PaymentTransition struct {
	Order *entity.Order
	From  entity.PaymentStatus
	To    entity.PaymentStatus
}

func (t *PaymentTransition) Changed() bool { return t.From != t.To }

type OrderStore interface {
	Create(ctx context.Context, draft OrderDraft) (*entity.Order, error)
	AttachPreference(ctx context.Context, orderID, preferenceID string) error
	// UpdatePaymentStatus overwrites the order's payment status and records
	// the payment id. Returns (nil, nil) when no order matches the ref.
	UpdatePaymentStatus(ctx context.Context, ref PaymentRef, status entity.PaymentStatus, paymentType string) (*PaymentTransition, error)
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	ListByUser(ctx context.Context, userID string) ([]entity.Order, error)
	// UpdateStatus performs a guarded fulfillment transition; false means
	// the order was not in fromStatus (or does not exist).
	UpdateStatus(ctx context.Context, id string, from, to entity.OrderStatus) (bool, error)
}

// PreferenceRequest is the slice of a hosted-checkout preference this service
// fills in.
type PreferenceRequest struct {
	Order      *entity.Order
	SuccessURL string
	FailureURL string
	PendingURL string
	NotifyURL  string
}

type Preference struct {
	ID          string
	CheckoutURL string
}

// Payment is the gateway's record fetched by id; the webhook body is never
// trusted for status or amount.
type Payment struct {
	ID                string
	Status            string
	StatusDetail      string
	PaymentTypeID     string
	PreferenceID      string
	ExternalReference string
	AmountCents       int64
}

type PaymentGateway interface {
	CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error)
	GetPayment(ctx context.Context, paymentID string) (*Payment, error)
}

// ConfirmationOutbox durably enqueues the order-confirmation email job; a
// background dispatcher drains it to the message broker.
type ConfirmationOutbox interface {
	EnqueueOrderConfirmation(ctx context.Context, order *entity.Order) error
}

// WebhookDedup remembers (payment id, status) pairs so a redelivered
// notification racing the database write cannot fire side effects twice.
type WebhookDedup interface {
	FirstDelivery(ctx context.Context, paymentID string, status entity.PaymentStatus) (bool, error)
}

// OrderCache is a best-effort read-through cache for order lookups; every
// method failure is non-fatal.
type OrderCache interface {
	Get(ctx context.Context, orderID string) (*entity.Order, bool, error)
	Set(ctx context.Context, order *entity.Order) error
	Invalidate(ctx context.Context, orderID string) error
}
