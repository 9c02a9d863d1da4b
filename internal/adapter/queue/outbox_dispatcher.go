package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Galleee2002/fueradecontexto-api/internal/usecase"
)

var outboxDispatchTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "outbox_dispatch_total",
		Help: "Outbox messages dispatched to the broker, by outcome",
	},
	[]string{"outcome"},
)

// Publisher is the broker side of the dispatcher.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload []byte) error
}

// OutboxDispatcher polls the outbox table and forwards due messages to the
// broker. Delivery is at-least-once: a message is marked sent only after the
// publish succeeds, so a crash in between re-publishes it.
type OutboxDispatcher struct {
	drain     usecase.OutboxDrain
	publisher Publisher
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
}

func NewOutboxDispatcher(drain usecase.OutboxDrain, publisher Publisher, interval time.Duration, batchSize int, logger *slog.Logger) *OutboxDispatcher {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	return &OutboxDispatcher{
		drain:     drain,
		publisher: publisher,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Run blocks until ctx is cancelled.
func (d *OutboxDispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.drainOnce(ctx)
		}
	}
}

func (d *OutboxDispatcher) drainOnce(ctx context.Context) {
	msgs, err := d.drain.FetchPending(ctx, d.batchSize)
	if err != nil {
		d.logger.Error("outbox fetch failed", "err", err)
		return
	}

	for _, m := range msgs {
		if err := d.publisher.Publish(ctx, m.Channel, m.Payload); err != nil {
			outboxDispatchTotal.WithLabelValues("publish_failed").Inc()
			d.logger.Error("outbox publish failed", "outbox_id", m.ID, "channel", m.Channel, "err", err)
			if err := d.drain.MarkFailed(ctx, m.ID); err != nil {
				d.logger.Error("outbox mark failed errored", "outbox_id", m.ID, "err", err)
			}
			continue
		}
		if err := d.drain.MarkSent(ctx, m.ID); err != nil {
			// The mailer dedupes on order id, so an extra delivery is safe.
			d.logger.Error("outbox mark sent errored", "outbox_id", m.ID, "err", err)
			continue
		}
		outboxDispatchTotal.WithLabelValues("sent").Inc()
	}
}
