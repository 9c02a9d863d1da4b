package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Galleee2002/fueradecontexto-api/internal/entity"
	"github.com/Galleee2002/fueradecontexto-api/internal/usecase"
)

// MySQLStockRepo is the stock ledger over the products table. Reserve and
// Restore adjust every row inside one transaction; a partial batch is never
// committed.
type MySQLStockRepo struct{ db *sql.DB }

func NewMySQLStockRepo(db *sql.DB) *MySQLStockRepo { return &MySQLStockRepo{db: db} }

var _ usecase.StockLedger = (*MySQLStockRepo)(nil)

func (r *MySQLStockRepo) CheckAvailability(ctx context.Context, items []entity.ItemQuantity) ([]entity.Shortfall, error) {
	if len(items) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(items)), ",")
	args := make([]any, 0, len(items))
	for _, it := range items {
		args = append(args, it.ProductID)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, stock FROM products WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stocks := make(map[string]int, len(items))
	for rows.Next() {
		var id string
		var stock int
		if err := rows.Scan(&id, &stock); err != nil {
			return nil, err
		}
		stocks[id] = stock
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []entity.Shortfall
	for _, it := range items {
		// A vanished product reads as zero available.
		if avail := stocks[it.ProductID]; avail < it.Quantity {
			out = append(out, entity.Shortfall{
				ProductID: it.ProductID,
				Available: avail,
				Requested: it.Quantity,
			})
		}
	}
	return out, nil
}

// Reserve decrements stock with a per-row stock >= quantity guard. Zero rows
// affected means the guard failed; the whole transaction rolls back and the
// shortfall detail is reported, closing the race between a prior availability
// check and this decrement.
func (r *MySQLStockRepo) Reserve(ctx context.Context, items []entity.ItemQuantity) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var shortfalls []entity.Shortfall
	for _, it := range items {
		res, err := tx.ExecContext(ctx,
			`UPDATE products SET stock = stock - ?, updated_at = NOW()
			 WHERE id = ? AND stock >= ?`,
			it.Quantity, it.ProductID, it.Quantity)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			var avail int
			if err := tx.QueryRowContext(ctx,
				`SELECT stock FROM products WHERE id = ?`, it.ProductID).Scan(&avail); err != nil && err != sql.ErrNoRows {
				return err
			}
			shortfalls = append(shortfalls, entity.Shortfall{
				ProductID: it.ProductID,
				Available: avail,
				Requested: it.Quantity,
			})
		}
	}

	if len(shortfalls) > 0 {
		return &usecase.StockError{Shortfalls: shortfalls}
	}
	return tx.Commit()
}

// Restore is the compensating increment for Reserve, same all-or-nothing
// shape.
func (r *MySQLStockRepo) Restore(ctx context.Context, items []entity.ItemQuantity) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, it := range items {
		res, err := tx.ExecContext(ctx,
			`UPDATE products SET stock = stock + ?, updated_at = NOW() WHERE id = ?`,
			it.Quantity, it.ProductID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("restore stock: product not found: %s", it.ProductID)
		}
	}
	return tx.Commit()
}
