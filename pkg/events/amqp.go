package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultExchange is the topic exchange events are published to.
const DefaultExchange = "ticketpanel.events"

// AMQPPublisher publishes events to a RabbitMQ topic exchange, routed by event type.
type AMQPPublisher struct {
	// l is the logger.
	l *slog.Logger

	url      string
	exchange string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewAMQPPublisher connects to the broker and declares the exchange.
func NewAMQPPublisher(l *slog.Logger, url, exchange string) (*AMQPPublisher, error) {
	if url == "" {
		return nil, errors.New("amqp url is empty")
	}
	if exchange == "" {
		exchange = DefaultExchange
	}

	p := &AMQPPublisher{
		l:        l,
		url:      url,
		exchange: exchange,
	}

	if err := p.connect(); err != nil {
		return nil, err
	}

	l.Info("AMQP publisher connected", slog.String("exchange", exchange))
	return p, nil
}

// connect (re)opens the connection and channel. Must be called with mu held or before the publisher is shared.
func (p *AMQPPublisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("error connecting to amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("error opening amqp channel: %w", err)
	}

	if err := ch.ExchangeDeclare(p.exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("error declaring exchange %s: %w", p.exchange, err)
	}

	p.conn = conn
	p.ch = ch
	return nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, e *Event) error {
	body, err := Marshal(e)
	if err != nil {
		return fmt.Errorf("error encoding event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil || p.conn.IsClosed() || p.ch == nil || p.ch.IsClosed() {
		p.l.Warn("AMQP connection lost, reconnecting")
		if err := p.connect(); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.ch.PublishWithContext(ctx, p.exchange, string(e.Type), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    e.Time,
		Type:         string(e.Type),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("error publishing event: %w", err)
	}
	return nil
}

// Ping reports whether the broker connection is usable, reconnecting when it was lost.
func (p *AMQPPublisher) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn != nil && !p.conn.IsClosed() && p.ch != nil && !p.ch.IsClosed() {
		return nil
	}
	return p.connect()
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
