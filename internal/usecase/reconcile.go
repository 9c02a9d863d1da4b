package usecase

import (
	"context"

	"github.com/Galleee2002/fueradecontexto-api/internal/entity"
	"github.com/Galleee2002/fueradecontexto-api/internal/logging"
)

// Reconcile maps asynchronous Mercado Pago payment notifications back onto
// orders. It is idempotent: side effects (confirmation email, stock restore)
// fire only on a genuine payment-status transition, so redelivered
// notifications are no-ops. Errors returned here are for logging only; the
// webhook endpoint always acks 200 to stop the gateway's retries.
type Reconcile struct {
	gateway PaymentGateway
	orders  OrderStore
	stock   StockLedger
	outbox  ConfirmationOutbox
	dedup   WebhookDedup
}

func NewReconcile(gateway PaymentGateway, orders OrderStore, stock StockLedger, outbox ConfirmationOutbox, dedup WebhookDedup) *Reconcile {
	return &Reconcile{gateway: gateway, orders: orders, stock: stock, outbox: outbox, dedup: dedup}
}

// HandlePaymentNotification processes one "payment" notification by id.
func (uc *Reconcile) HandlePaymentNotification(ctx context.Context, paymentID string) error {
	l := logging.FromCtx(ctx).With("payment_id", paymentID)

	// Confirmation round-trip: the webhook body is not trusted as the source
	// of truth for status or amount.
	payment, err := uc.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		webhooksTotal.WithLabelValues("gateway_lookup_failed").Inc()
		return err
	}

	status := MapPaymentStatus(payment.Status)
	l = l.With("mp_status", payment.Status, "status", string(status))

	// Fast-path guard against two deliveries of the same notification racing
	// each other; best-effort, the transition check below is the real gate.
	first, err := uc.dedup.FirstDelivery(ctx, paymentID, status)
	if err != nil {
		l.Warn("webhook dedup unavailable", "err", err)
	} else if !first {
		webhooksTotal.WithLabelValues("duplicate").Inc()
		return nil
	}

	transition, err := uc.orders.UpdatePaymentStatus(ctx, PaymentRef{
		PaymentID:         payment.ID,
		PreferenceID:      payment.PreferenceID,
		ExternalReference: payment.ExternalReference,
	}, status, payment.PaymentTypeID)
	if err != nil {
		webhooksTotal.WithLabelValues("update_failed").Inc()
		return err
	}
	if transition == nil {
		// Stale or foreign payment id; the order may have been removed.
		webhooksTotal.WithLabelValues("no_matching_order").Inc()
		l.Warn("no order matches payment notification")
		return nil
	}
	if !transition.Changed() {
		webhooksTotal.WithLabelValues("no_change").Inc()
		return nil
	}

	order := transition.Order
	l = l.With("order_id", order.ID, "order_number", order.OrderNumber)

	switch status {
	case entity.PaymentPaid:
		// Best-effort: the payment is already real, a lost email must not
		// fail the webhook or revert the status.
		if err := uc.outbox.EnqueueOrderConfirmation(ctx, order); err != nil {
			l.Error("enqueue confirmation email failed", "err", err)
		}
	case entity.PaymentFailed:
		// Return the reserved stock. Best-effort: failing the webhook would
		// only make the gateway retry without fixing the restore.
		if err := uc.stock.Restore(ctx, itemQuantities(order.Items)); err != nil {
			l.Error("stock restore failed", "err", err)
		}
	}

	webhooksTotal.WithLabelValues("processed").Inc()
	l.Info("payment reconciled", "from", string(transition.From), "to", string(transition.To))
	return nil
}

func itemQuantities(items []entity.OrderItem) []entity.ItemQuantity {
	out := make([]entity.ItemQuantity, 0, len(items))
	for _, it := range items {
		out = append(out, entity.ItemQuantity{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return out
}
