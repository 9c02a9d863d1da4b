package repo

import (
	"context"
	"database/sql"
	"strings"

	"github.com/Galleee2002/fueradecontexto-api/internal/entity"
	"github.com/Galleee2002/fueradecontexto-api/internal/usecase"
)

type MySQLProductRepo struct{ db *sql.DB }

func NewMySQLProductRepo(db *sql.DB) *MySQLProductRepo { return &MySQLProductRepo{db: db} }

var _ usecase.ProductCatalog = (*MySQLProductRepo)(nil)

// GetByIDs loads the catalog rows checkout re-prices from. Missing ids are
// simply absent from the result; the caller decides whether that is fatal.
func (r *MySQLProductRepo) GetByIDs(ctx context.Context, ids []string) (map[string]entity.Product, error) {
	if len(ids) == 0 {
		return map[string]entity.Product{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, price_cents, image_url, stock
		 FROM products WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]entity.Product, len(ids))
	for rows.Next() {
		var p entity.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.PriceCents, &p.ImageURL, &p.Stock); err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}
