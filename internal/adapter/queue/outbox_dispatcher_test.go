package queue

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Galleee2002/fueradecontexto-api/internal/usecase"
)

type memDrain struct {
	pending  []usecase.OutboxMessage
	fetchErr error

	sent   []int64
	failed []int64
}

func (d *memDrain) FetchPending(_ context.Context, limit int) ([]usecase.OutboxMessage, error) {
	if d.fetchErr != nil {
		return nil, d.fetchErr
	}
	if len(d.pending) > limit {
		return d.pending[:limit], nil
	}
	return d.pending, nil
}

func (d *memDrain) MarkSent(_ context.Context, id int64) error {
	d.sent = append(d.sent, id)
	return nil
}

func (d *memDrain) MarkFailed(_ context.Context, id int64) error {
	d.failed = append(d.failed, id)
	return nil
}

type memPublisher struct {
	failFor  map[int]bool // by call index
	calls    int
	payloads []string
}

func (p *memPublisher) Publish(_ context.Context, _ string, payload []byte) error {
	defer func() { p.calls++ }()
	if p.failFor[p.calls] {
		return errors.New("broker unavailable")
	}
	p.payloads = append(p.payloads, string(payload))
	return nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func msg(id int64) usecase.OutboxMessage {
	return usecase.OutboxMessage{ID: id, Channel: "email.order-confirmation", Payload: []byte(`{"orderId":"order-1"}`)}
}

func TestDrainMarksPublishedMessagesSent(t *testing.T) {
	drain := &memDrain{pending: []usecase.OutboxMessage{msg(1), msg(2)}}
	pub := &memPublisher{}
	d := NewOutboxDispatcher(drain, pub, time.Second, 10, discard())

	d.drainOnce(context.Background())

	assert.Equal(t, []int64{1, 2}, drain.sent)
	assert.Empty(t, drain.failed)
	assert.Len(t, pub.payloads, 2)
}

func TestDrainMarksFailedAndKeepsGoing(t *testing.T) {
	drain := &memDrain{pending: []usecase.OutboxMessage{msg(1), msg(2), msg(3)}}
	pub := &memPublisher{failFor: map[int]bool{1: true}} // second publish fails
	d := NewOutboxDispatcher(drain, pub, time.Second, 10, discard())

	d.drainOnce(context.Background())

	assert.Equal(t, []int64{1, 3}, drain.sent)
	assert.Equal(t, []int64{2}, drain.failed)
}

func TestDrainHonorsBatchSize(t *testing.T) {
	drain := &memDrain{pending: []usecase.OutboxMessage{msg(1), msg(2), msg(3)}}
	pub := &memPublisher{}
	d := NewOutboxDispatcher(drain, pub, time.Second, 2, discard())

	d.drainOnce(context.Background())

	assert.Equal(t, []int64{1, 2}, drain.sent)
}

func TestDrainSurvivesFetchFailure(t *testing.T) {
	drain := &memDrain{fetchErr: errors.New("db down")}
	d := NewOutboxDispatcher(drain, &memPublisher{}, time.Second, 10, discard())

	d.drainOnce(context.Background())

	assert.Empty(t, drain.sent)
	assert.Empty(t, drain.failed)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	drain := &memDrain{pending: []usecase.OutboxMessage{msg(1)}}
	d := NewOutboxDispatcher(drain, &memPublisher{}, 5*time.Millisecond, 10, discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop after cancel")
	}
	assert.NotEmpty(t, drain.sent)
}
