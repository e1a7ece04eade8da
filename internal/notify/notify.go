package notify

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/voyager-commerce/storefront/internal/checkout"
)

// Publisher emits order confirmations to RabbitMQ for downstream consumers
// (email, fulfilment). It implements checkout.Notifier.
type Publisher struct {
	ch    *amqp.Channel
	queue string
}

// Connect dials the broker and declares the confirmation queue.
func Connect(url, queue string) (*Publisher, func(), error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	if _, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, err
	}

	cleanup := func() {
		ch.Close()
		conn.Close()
	}
	return &Publisher{ch: ch, queue: queue}, cleanup, nil
}

func (p *Publisher) OrderConfirmed(ctx context.Context, event checkout.OrderEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

// Nop is the publisher used when no broker is configured.
type Nop struct{}

func (Nop) OrderConfirmed(ctx context.Context, event checkout.OrderEvent) error {
	return nil
}
