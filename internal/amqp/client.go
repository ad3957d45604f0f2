package amqp

import (
	"context"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"expenses/internal/log"
)

const (
	dialTimeout    = 5 * time.Second
	publishTimeout = 5 * time.Second
	heartbeat      = 10 * time.Second
)

// Publisher sends expense events to a durable direct exchange. It connects
// on first publish so read-only commands never touch the broker.
type Publisher struct {
	url          string
	exchangeName string
	routingKey   string
	logger       *log.Logger
	dialTimeout  time.Duration

	conn    *amqp091.Connection
	channel *amqp091.Channel
}

func NewPublisher(url, exchangeName, routingKey string, logger *log.Logger) *Publisher {
	return &Publisher{
		url:          url,
		exchangeName: exchangeName,
		routingKey:   routingKey,
		logger:       logger.WithComponent(log.ComponentAMQP),
		dialTimeout:  dialTimeout,
	}
}

func (p *Publisher) connect() error {
	if p.channel != nil {
		return nil
	}

	// The dial timeout also bounds the AMQP handshake, so an unresponsive
	// broker cannot stall the command for the library's 30s default.
	conn, err := amqp091.DialConfig(p.url, amqp091.Config{
		Heartbeat: heartbeat,
		Locale:    "en_US",
		Dial:      amqp091.DefaultDial(p.dialTimeout),
	})
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	p.conn, p.channel = conn, channel
	if err := p.setup(); err != nil {
		p.Close()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}
	return nil
}

func (p *Publisher) setup() error {
	err := p.channel.ExchangeDeclare(
		p.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	// The queue shares the routing key's name so events are retained even
	// before a consumer shows up.
	_, err = p.channel.QueueDeclare(
		p.routingKey, // name
		true,         // durable
		false,        // delete when unused
		false,        // exclusive
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	err = p.channel.QueueBind(
		p.routingKey,   // queue name
		p.routingKey,   // routing key
		p.exchangeName, // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// PublishExpenseEvent publishes a persistent JSON event.
func (p *Publisher) PublishExpenseEvent(ctx context.Context, event *ExpenseEvent) error {
	body, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := p.connect(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = p.channel.PublishWithContext(
		ctx,
		p.exchangeName, // exchange
		p.routingKey,   // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    event.Timestamp,
			Type:         event.Type,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	p.logger.InfoContext(ctx, "Published expense event",
		log.FieldEventType, event.Type,
		log.FieldExpenseID, event.Expense.ID,
		log.FieldExchange, p.exchangeName,
		log.FieldRoutingKey, p.routingKey)

	return nil
}

func (p *Publisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
		p.channel = nil
	}
	if p.conn != nil {
		err := p.conn.Close()
		p.conn = nil
		return err
	}
	return nil
}
