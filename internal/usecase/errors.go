package usecase

import (
	"errors"
	"fmt"

	"github.com/Galleee2002/fueradecontexto-api/internal/entity"
)

var ErrNotFound = errors.New("not found")

// ValidationError covers bad or missing checkout input: empty carts, unknown
// products, non-positive quantities.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// StockError carries the per-product shortfall detail so the client can show
// what ran out. A guarded reserve that affected zero rows produces the same
// error as a failed availability check.
type StockError struct {
	Shortfalls []entity.Shortfall
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %d product(s)", len(e.Shortfalls))
}

// PersistenceError wraps an order-write failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *PersistenceError) Unwrap() error { return e.Err }

// GatewayError wraps a Mercado Pago call failure, including timeouts.
type GatewayError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *GatewayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("mercadopago %s: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("mercadopago %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }
