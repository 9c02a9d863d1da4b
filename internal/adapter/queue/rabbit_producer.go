package queue

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitProducer publishes side-effect jobs (confirmation emails) to the
// topic exchange the external mailer consumes from. The routing key is the
// outbox channel name.
type RabbitProducer struct {
	ch       *amqp.Channel
	exchange string
}

// NewRabbitProducer declares the exchange once at startup and enables
// publisher confirms so a broker-side drop is not silently treated as sent.
func NewRabbitProducer(ch *amqp.Channel, exchange string) (*RabbitProducer, error) {
	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	if err := ch.Confirm(false); err != nil {
		return nil, fmt.Errorf("enable confirm mode: %w", err)
	}

	return &RabbitProducer{ch: ch, exchange: exchange}, nil
}

func (p *RabbitProducer) Publish(ctx context.Context, routingKey string, payload []byte) error {
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // survive broker restarts
		Body:         payload,
	}

	if err := p.ch.PublishWithContext(
		ctx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		pub,
	); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}
