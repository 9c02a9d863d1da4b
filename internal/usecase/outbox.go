package usecase

import (
	"context"
	"time"
)

// OutboxMessage is one pending row from the outbox table. Channel doubles as
// the broker routing key.
type OutboxMessage struct {
	ID        int64
	Channel   string
	Payload   []byte
	CreatedAt time.Time
}

// OutboxDrain is the dispatcher's view of the outbox: fetch due messages,
// mark them sent, or push them back with a delay.
type OutboxDrain interface {
	FetchPending(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkSent(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64) error
}
