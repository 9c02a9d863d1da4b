package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Galleee2002/fueradecontexto-api/internal/entity"
	"github.com/Galleee2002/fueradecontexto-api/internal/logging"
)

type CheckoutItemInput struct {
	ProductID     string
	Quantity      int
	SelectedSize  string
	SelectedColor string
}

type CheckoutInput struct {
	UserID     string
	PayerEmail string

	ShippingAddress entity.Address
	// BillingAddress falls back to the shipping address when nil.
	BillingAddress    *entity.Address
	ShippingMethod    string
	ShippingCostCents int64

	Items []CheckoutItemInput
}

type CheckoutOutput struct {
	OrderID     string
	OrderNumber string
	TotalCents  int64
	CheckoutURL string
}

// Checkout runs the checkout saga:
//
//	VALIDATE -> CHECK_STOCK -> RESERVE_STOCK -> CREATE_ORDER -> CREATE_PREFERENCE
//
// Any failure after RESERVE_STOCK runs the accumulated compensations (in
// reverse) before the error is surfaced, so reserved stock is never stranded.
type Checkout struct {
	catalog ProductCatalog
	stock   StockLedger
	orders  OrderStore
	gateway PaymentGateway

	publicBaseURL string
}

func NewCheckout(catalog ProductCatalog, stock StockLedger, orders OrderStore, gateway PaymentGateway, publicBaseURL string) *Checkout {
	return &Checkout{
		catalog:       catalog,
		stock:         stock,
		orders:        orders,
		gateway:       gateway,
		publicBaseURL: publicBaseURL,
	}
}

type compensation struct {
	stage string
	fn    func(ctx context.Context) error
}

func (uc *Checkout) Execute(ctx context.Context, in CheckoutInput) (CheckoutOutput, error) {
	l := logging.FromCtx(ctx)

	// VALIDATE: re-price server-side from the catalog.
	draft, quantities, err := uc.validate(ctx, in)
	if err != nil {
		sagasTotal.WithLabelValues("validation_failed").Inc()
		return CheckoutOutput{}, err
	}

	// CHECK_STOCK: read-only; nothing to roll back on shortfall.
	shortfalls, err := uc.stock.CheckAvailability(ctx, quantities)
	if err != nil {
		sagasTotal.WithLabelValues("stock_check_failed").Inc()
		return CheckoutOutput{}, &PersistenceError{Op: "check availability", Err: err}
	}
	if len(shortfalls) > 0 {
		sagasTotal.WithLabelValues("insufficient_stock").Inc()
		return CheckoutOutput{}, &StockError{Shortfalls: shortfalls}
	}

	var comps []compensation

	// RESERVE_STOCK: guarded decrement; a race lost since the check above
	// surfaces here as *StockError and aborts with nothing reserved.
	if err := uc.stock.Reserve(ctx, quantities); err != nil {
		sagasTotal.WithLabelValues("reserve_failed").Inc()
		return CheckoutOutput{}, err
	}
	comps = append(comps, compensation{
		stage: "reserve_stock",
		fn: func(ctx context.Context) error {
			return uc.stock.Restore(ctx, quantities)
		},
	})

	// CREATE_ORDER
	order, err := uc.orders.Create(ctx, draft)
	if err != nil {
		uc.compensate(ctx, l, "create_order", comps)
		sagasTotal.WithLabelValues("create_order_failed").Inc()
		return CheckoutOutput{}, &PersistenceError{Op: "create order", Err: err}
	}

	// CREATE_PREFERENCE: the order row stays in place on failure (unpaid,
	// auditable); only the stock reservation is compensated.
	pref, err := uc.gateway.CreatePreference(ctx, PreferenceRequest{
		Order:      order,
		SuccessURL: uc.publicBaseURL + "/checkout/success",
		FailureURL: uc.publicBaseURL + "/checkout/failure",
		PendingURL: uc.publicBaseURL + "/checkout/pending",
		NotifyURL:  uc.publicBaseURL + "/v1/payments/webhook",
	})
	if err != nil {
		uc.compensate(ctx, l, "create_preference", comps)
		sagasTotal.WithLabelValues("create_preference_failed").Inc()
		return CheckoutOutput{}, err
	}

	// DONE: attach the correlation id. The webhook can still match the order
	// through its external reference, so this write is best-effort.
	if err := uc.orders.AttachPreference(ctx, order.ID, pref.ID); err != nil {
		l.Error("attach preference failed",
			"order_id", order.ID, "preference_id", pref.ID, "err", err)
	}

	sagasTotal.WithLabelValues("completed").Inc()
	l.Info("checkout completed",
		"order_id", order.ID, "order_number", order.OrderNumber, "total_cents", order.TotalCents)

	return CheckoutOutput{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		TotalCents:  order.TotalCents,
		CheckoutURL: pref.CheckoutURL,
	}, nil
}

func (uc *Checkout) validate(ctx context.Context, in CheckoutInput) (OrderDraft, []entity.ItemQuantity, error) {
	if len(in.Items) == 0 {
		return OrderDraft{}, nil, &ValidationError{Msg: "cart is empty"}
	}
	ids := make([]string, 0, len(in.Items))
	for _, it := range in.Items {
		if it.Quantity <= 0 {
			return OrderDraft{}, nil, &ValidationError{Msg: fmt.Sprintf("invalid quantity for product %s", it.ProductID)}
		}
		ids = append(ids, it.ProductID)
	}

	products, err := uc.catalog.GetByIDs(ctx, ids)
	if err != nil {
		return OrderDraft{}, nil, &PersistenceError{Op: "load products", Err: err}
	}

	items := make([]entity.OrderItem, 0, len(in.Items))
	quantities := make([]entity.ItemQuantity, 0, len(in.Items))
	for _, it := range in.Items {
		p, ok := products[it.ProductID]
		if !ok {
			return OrderDraft{}, nil, &ValidationError{Msg: fmt.Sprintf("product not found: %s", it.ProductID)}
		}
		items = append(items, entity.OrderItem{
			ProductID:      p.ID,
			Quantity:       it.Quantity,
			UnitPriceCents: p.PriceCents,
			SelectedSize:   it.SelectedSize,
			SelectedColor:  it.SelectedColor,
			Snapshot: entity.ProductSnapshot{
				Name:       p.Name,
				PriceCents: p.PriceCents,
				ImageURL:   p.ImageURL,
			},
		})
		quantities = append(quantities, entity.ItemQuantity{ProductID: p.ID, Quantity: it.Quantity})
	}

	billing := in.ShippingAddress
	if in.BillingAddress != nil {
		billing = *in.BillingAddress
	}

	draft := OrderDraft{
		UserID:          in.UserID,
		PayerEmail:      in.PayerEmail,
		Items:           items,
		ShippingAddress: in.ShippingAddress,
		BillingAddress:  billing,
		ShippingMethod:  in.ShippingMethod,
		ShippingCents:   in.ShippingCostCents,
	}
	var subtotal int64
	for _, it := range items {
		subtotal += it.SubtotalCents()
	}
	draft.SubtotalCents = subtotal
	draft.TotalCents = subtotal - draft.DiscountCents + draft.TaxCents + draft.ShippingCents
	return draft, quantities, nil
}

// compensate runs the accumulated undo actions in reverse. A failed
// compensation is logged with enough context to repair by hand; it does not
// mask the original saga error.
func (uc *Checkout) compensate(ctx context.Context, l *slog.Logger, failedStage string, comps []compensation) {
	compensationsTotal.WithLabelValues(failedStage).Inc()
	for i := len(comps) - 1; i >= 0; i-- {
		if err := comps[i].fn(ctx); err != nil {
			l.Error("compensation failed",
				"failed_stage", failedStage, "compensation", comps[i].stage, "err", err)
		}
	}
}
