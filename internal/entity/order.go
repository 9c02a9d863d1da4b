package entity

import "time"

// OrderStatus is the fulfillment lifecycle, independent of payment.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
)

// CanTransitionTo reports whether s may advance to next. The lifecycle only
// moves forward: pending -> confirmed -> shipped -> delivered.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	order := map[OrderStatus]int{
		OrderPending:   0,
		OrderConfirmed: 1,
		OrderShipped:   2,
		OrderDelivered: 3,
	}
	cur, ok1 := order[s]
	nxt, ok2 := order[next]
	return ok1 && ok2 && nxt == cur+1
}

// PaymentStatus is derived from Mercado Pago's status vocabulary, never set
// directly by a client.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

func ValidPaymentStatus(s PaymentStatus) bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

type Address struct {
	FullName   string `json:"fullName"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// ProductSnapshot captures what was on the product page at order time, so a
// historical order stays stable when the catalog product changes or is
// deleted.
type ProductSnapshot struct {
	Name       string `json:"name"`
	PriceCents int64  `json:"priceCents"`
	ImageURL   string `json:"imageUrl,omitempty"`
}

type OrderItem struct {
	ID             string          `json:"id"`
	ProductID      string          `json:"productId"`
	Quantity       int             `json:"quantity"`
	UnitPriceCents int64           `json:"unitPriceCents"`
	SelectedSize   string          `json:"selectedSize,omitempty"`
	SelectedColor  string          `json:"selectedColor,omitempty"`
	Snapshot       ProductSnapshot `json:"productSnapshot"`
}

// SubtotalCents is always unit price times quantity.
func (i OrderItem) SubtotalCents() int64 {
	return i.UnitPriceCents * int64(i.Quantity)
}

type Order struct {
	ID          string `json:"id"`
	OrderNumber string `json:"orderNumber"`
	UserID      string `json:"userId"`
	PayerEmail  string `json:"payerEmail"`

	Status        OrderStatus   `json:"status"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`

	Items []OrderItem `json:"items"`

	ShippingAddress Address `json:"shippingAddress"`
	BillingAddress  Address `json:"billingAddress"`
	ShippingMethod  string  `json:"shippingMethod"`

	SubtotalCents int64 `json:"subtotalCents"`
	DiscountCents int64 `json:"discountCents"`
	TaxCents      int64 `json:"taxCents"`
	ShippingCents int64 `json:"shippingCents"`
	TotalCents    int64 `json:"totalCents"`

	// Correlation to the payment gateway, set after creation.
	MPPreferenceID string `json:"mpPreferenceId,omitempty"`
	MPPaymentID    string `json:"mpPaymentId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ComputeTotals fills SubtotalCents and TotalCents from the items and the
// already-set discount/tax/shipping amounts.
func (o *Order) ComputeTotals() {
	var subtotal int64
	for _, it := range o.Items {
		subtotal += it.SubtotalCents()
	}
	o.SubtotalCents = subtotal
	o.TotalCents = subtotal - o.DiscountCents + o.TaxCents + o.ShippingCents
}

// TotalsConsistent verifies the arithmetic invariant
// sum(item subtotals) - discount + tax + shipping == total.
func (o *Order) TotalsConsistent() bool {
	var subtotal int64
	for _, it := range o.Items {
		subtotal += it.SubtotalCents()
	}
	return subtotal == o.SubtotalCents &&
		subtotal-o.DiscountCents+o.TaxCents+o.ShippingCents == o.TotalCents
}
