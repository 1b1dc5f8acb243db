package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// Publisher delivers a JSON payload under a routing key.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message interface{}) error
	Close() error
}

// AMQPPublisher publishes persistent JSON messages to a topic exchange.
type AMQPPublisher struct {
	url      string
	exchange string
	logger   *zap.Logger

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewAMQPPublisher dials the broker and declares the exchange.
func NewAMQPPublisher(url, exchange string, logger *zap.Logger) (*AMQPPublisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &AMQPPublisher{url: url, exchange: exchange, logger: logger}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *AMQPPublisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("connect to broker: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	err = channel.ExchangeDeclare(
		p.exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return fmt.Errorf("declare exchange: %w", err)
	}
	p.conn = conn
	p.channel = channel
	return nil
}

// Publish marshals message and sends it. A dropped connection is redialled once.
func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, message interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil || p.conn.IsClosed() {
		p.logger.Warn("broker connection lost, redialling", zap.String("exchange", p.exchange))
		if err := p.connect(); err != nil {
			return err
		}
	}

	err = p.channel.Publish(p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}

// Close shuts the channel and connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var err error
	if p.channel != nil {
		if cErr := p.channel.Close(); cErr != nil {
			p.logger.Warn("close channel", zap.Error(cErr))
			err = cErr
		}
	}
	if p.conn != nil {
		if cErr := p.conn.Close(); cErr != nil {
			p.logger.Warn("close connection", zap.Error(cErr))
			if err == nil {
				err = cErr
			}
		}
	}
	return err
}

// LogPublisher writes events to the logger. Used when no broker is configured.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher builds a publisher that only logs.
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, routingKey string, message interface{}) error {
	p.logger.Debug("domain event", zap.String("routing_key", routingKey), zap.Any("payload", message))
	return nil
}

func (p *LogPublisher) Close() error { return nil }
