package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Galleee2002/fueradecontexto-api/internal/entity"
	"github.com/Galleee2002/fueradecontexto-api/internal/usecase"
)

type MySQLOrderRepo struct{ db *sql.DB }

func NewMySQLOrderRepo(db *sql.DB) *MySQLOrderRepo { return &MySQLOrderRepo{db: db} }

var _ usecase.OrderStore = (*MySQLOrderRepo)(nil)

// Create persists the order and its items in one transaction. The human-facing
// order number comes from a dedicated auto-increment table so it is monotonic
// across concurrent checkouts.
func (r *MySQLOrderRepo) Create(ctx context.Context, draft usecase.OrderDraft) (*entity.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT INTO order_numbers () VALUES ()`)
	if err != nil {
		return nil, err
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	order := &entity.Order{
		ID:              uuid.NewString(),
		OrderNumber:     fmt.Sprintf("FDC-%06d", seq),
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

	shipJSON, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return nil, err
	}
	billJSON, err := json.Marshal(order.BillingAddress)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO orders
  (id, order_number, user_id, payer_email, status, payment_status,
   shipping_address, billing_address, shipping_method,
   subtotal_cents, discount_cents, tax_cents, shipping_cents, total_cents,
   created_at, updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,NOW(),NOW())`,
		order.ID, order.OrderNumber, order.UserID, order.PayerEmail,
		string(order.Status), string(order.PaymentStatus),
		shipJSON, billJSON, order.ShippingMethod,
		order.SubtotalCents, order.DiscountCents, order.TaxCents,
		order.ShippingCents, order.TotalCents)
	if err != nil {
		return nil, err
	}

	for i := range order.Items {
		it := &order.Items[i]
		it.ID = uuid.NewString()
		snapJSON, err := json.Marshal(it.Snapshot)
		if err != nil {
			return nil, err
		}
		_, err = tx.ExecContext(ctx, `
INSERT INTO order_items
  (id, order_id, product_id, quantity, unit_price_cents,
   selected_size, selected_color, product_snapshot)
VALUES (?,?,?,?,?,?,?,?)`,
			it.ID, order.ID, it.ProductID, it.Quantity, it.UnitPriceCents,
			it.SelectedSize, it.SelectedColor, snapJSON)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *MySQLOrderRepo) AttachPreference(ctx context.Context, orderID, preferenceID string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE orders SET mp_preference_id = ?, updated_at = NOW() WHERE id = ?`,
		preferenceID, orderID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return usecase.ErrNotFound
	}
	return nil
}

// UpdatePaymentStatus locates the order through any of the gateway
// correlations, overwrites its payment status and records the payment id. The
// row is locked for the read-modify-write so two concurrent deliveries of the
// same notification serialize on the database. Returns (nil, nil) when no
// order matches.
func (r *MySQLOrderRepo) UpdatePaymentStatus(ctx context.Context, ref usecase.PaymentRef, status entity.PaymentStatus, paymentType string) (*usecase.PaymentTransition, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var (
		orderID string
		prev    string
	)
	err = tx.QueryRowContext(ctx, `
SELECT id, payment_status FROM orders
WHERE (mp_payment_id = ? AND ? <> '')
   OR (mp_preference_id = ? AND ? <> '')
   OR (order_number = ? AND ? <> '')
LIMIT 1
FOR UPDATE`,
		ref.PaymentID, ref.PaymentID,
		ref.PreferenceID, ref.PreferenceID,
		ref.ExternalReference, ref.ExternalReference).Scan(&orderID, &prev)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
UPDATE orders
SET payment_status = ?, mp_payment_id = ?, payment_type = ?, updated_at = NOW()
WHERE id = ?`,
		string(status), ref.PaymentID, paymentType, orderID)
	if err != nil {
		return nil, err
	}

	order, err := r.loadOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &usecase.PaymentTransition{
		Order: order,
		From:  entity.PaymentStatus(prev),
		To:    status,
	}, nil
}

func (r *MySQLOrderRepo) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	return r.loadOrder(ctx, r.db, id)
}

func (r *MySQLOrderRepo) ListByUser(ctx context.Context, userID string) ([]entity.Order, error) {
	rows, err := r.db.QueryContext(ctx, orderColumns+`
FROM orders WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		items, err := r.loadItems(ctx, r.db, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Items = items
	}
	return out, nil
}

func (r *MySQLOrderRepo) UpdateStatus(ctx context.Context, id string, from, to entity.OrderStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE orders SET status = ?, updated_at = NOW()
WHERE id = ? AND status = ?`,
		string(to), id, string(from))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	// n == 0: not found or not in the expected state.
	return n > 0, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const orderColumns = `
SELECT id, order_number, user_id, payer_email, status, payment_status,
       shipping_address, billing_address, shipping_method,
       subtotal_cents, discount_cents, tax_cents, shipping_cents, total_cents,
       COALESCE(mp_preference_id,''), COALESCE(mp_payment_id,''),
       created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (*entity.Order, error) {
	var (
		o                  entity.Order
		status, payStatus  string
		shipJSON, billJSON []byte
	)
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.PayerEmail, &status, &payStatus,
		&shipJSON, &billJSON, &o.ShippingMethod,
		&o.SubtotalCents, &o.DiscountCents, &o.TaxCents, &o.ShippingCents, &o.TotalCents,
		&o.MPPreferenceID, &o.MPPaymentID,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.Status = entity.OrderStatus(status)
	o.PaymentStatus = entity.PaymentStatus(payStatus)
	if err := json.Unmarshal(shipJSON, &o.ShippingAddress); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(billJSON, &o.BillingAddress); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *MySQLOrderRepo) loadOrder(ctx context.Context, q querier, id string) (*entity.Order, error) {
	o, err := scanOrder(q.QueryRowContext(ctx, orderColumns+`
FROM orders WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, usecase.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	items, err := r.loadItems(ctx, q, id)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (r *MySQLOrderRepo) loadItems(ctx context.Context, q querier, orderID string) ([]entity.OrderItem, error) {
	rows, err := q.QueryContext(ctx, `
SELECT id, product_id, quantity, unit_price_cents,
       COALESCE(selected_size,''), COALESCE(selected_color,''), product_snapshot
FROM order_items WHERE order_id = ? ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []entity.OrderItem
	for rows.Next() {
		var (
			it       entity.OrderItem
			snapJSON []byte
		)
		if err := rows.Scan(&it.ID, &it.ProductID, &it.Quantity, &it.UnitPriceCents,
			&it.SelectedSize, &it.SelectedColor, &snapJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(snapJSON, &it.Snapshot); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
