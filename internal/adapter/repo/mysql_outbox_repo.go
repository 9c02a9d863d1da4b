package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/Galleee2002/fueradecontexto-api/internal/entity"
	"github.com/Galleee2002/fueradecontexto-api/internal/usecase"
)

// MySQLOutboxRepo stores side-effect jobs (currently only confirmation
// emails) durably; the queue dispatcher drains them to RabbitMQ.
type MySQLOutboxRepo struct{ db *sql.DB }

func NewMySQLOutboxRepo(db *sql.DB) *MySQLOutboxRepo { return &MySQLOutboxRepo{db: db} }

var (
	_ usecase.ConfirmationOutbox = (*MySQLOutboxRepo)(nil)
	_ usecase.OutboxDrain        = (*MySQLOutboxRepo)(nil)
)

const channelOrderConfirmation = "email.order-confirmation"

// confirmationJob is what the external mailer consumes; it carries everything
// needed to render the email so the mailer never calls back into this service.
type confirmationJob struct {
	OrderID     string                `json:"orderId"`
	OrderNumber string                `json:"orderNumber"`
	Email       string                `json:"email"`
	TotalCents  int64                 `json:"totalCents"`
	Items       []confirmationJobItem `json:"items"`
}

type confirmationJobItem struct {
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unitPriceCents"`
}

func (r *MySQLOutboxRepo) EnqueueOrderConfirmation(ctx context.Context, order *entity.Order) error {
	job := confirmationJob{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Email:       order.PayerEmail,
		TotalCents:  order.TotalCents,
	}
	for _, it := range order.Items {
		job.Items = append(job.Items, confirmationJobItem{
			Name:           it.Snapshot.Name,
			Quantity:       it.Quantity,
			UnitPriceCents: it.UnitPriceCents,
		})
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO outbox (channel, payload, status, retry_count, next_attempt_at, created_at)
VALUES (?, ?, 'PENDING', 0, NOW(), NOW())`,
		channelOrderConfirmation, payload)
	return err
}

func (r *MySQLOutboxRepo) FetchPending(ctx context.Context, limit int) ([]usecase.OutboxMessage, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, channel, payload, created_at
FROM outbox
WHERE status = 'PENDING' AND next_attempt_at <= NOW()
ORDER BY id
LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []usecase.OutboxMessage
	for rows.Next() {
		var m usecase.OutboxMessage
		if err := rows.Scan(&m.ID, &m.Channel, &m.Payload, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *MySQLOutboxRepo) MarkSent(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE outbox SET status = 'SENT', sent_at = NOW() WHERE id = ?`, id)
	return err
}

// MarkFailed pushes the row back with a linear backoff, capped at ten
// minutes.
func (r *MySQLOutboxRepo) MarkFailed(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE outbox
SET retry_count = retry_count + 1,
    next_attempt_at = DATE_ADD(NOW(), INTERVAL LEAST(retry_count + 1, 10) MINUTE)
WHERE id = ?`, id)
	return err
}
