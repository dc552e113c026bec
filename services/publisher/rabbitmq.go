package publisher

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQPublisher publishes deal events to an AMQP exchange.
// The publish key becomes the routing key.
type RabbitMQPublisher struct {
	connection *amqp.Connection
	channel    *amqp.Channel
	exchange   string
}

var _ Publisher = (*RabbitMQPublisher)(nil)

// NewRabbitMQPublisher dials url and declares a durable topic exchange.
func NewRabbitMQPublisher(url, exchange string) (*RabbitMQPublisher, error) {
	connection, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("can't open RabbitMQ connection: %w", err)
	}

	channel, err := connection.Channel()
	if err != nil {
		connection.Close()
		return nil, fmt.Errorf("can't open channel: %w", err)
	}

	if err := channel.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		connection.Close()
		return nil, fmt.Errorf("can't declare exchange %s: %w", exchange, err)
	}

	return &RabbitMQPublisher{
		connection: connection,
		channel:    channel,
		exchange:   exchange,
	}, nil
}

// Publish publishes message to routing key.
func (p *RabbitMQPublisher) Publish(ctx context.Context, key string, message []byte) error {
	return p.channel.PublishWithContext(
		ctx,
		p.exchange,
		key,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         message,
		},
	)
}

// TrimStreams is a no-op; queue length is bounded by broker policy.
func (p *RabbitMQPublisher) TrimStreams(context.Context) error {
	return nil
}

// Close closes the channel and connection.
func (p *RabbitMQPublisher) Close() error {
	if err := p.channel.Close(); err != nil {
		p.connection.Close()
		return err
	}
	return p.connection.Close()
}
