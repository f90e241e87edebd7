package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"alfredoptarigan/resume-screener/internal/models"
)

const (
	RoutingKeyScreened = "screening.completed"
	RoutingKeyFailed   = "screening.failed"
)

// ScreeningEvent is published once per screened file.
type ScreeningEvent struct {
	JobID  string                 `json:"jobId,omitempty"`
	Failed bool                   `json:"failed"`
	Result models.ScreeningResult `json:"result"`
}

type EventPublisher interface {
	Publish(ctx context.Context, event ScreeningEvent) error
	Close() error
}

type amqpChannel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type amqpPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  amqpChannel
	exchange string
	log      *zap.Logger
}

// NewAMQPPublisher dials the broker and declares a durable topic exchange.
func NewAMQPPublisher(url, exchange string, log *zap.Logger) (EventPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	log.Info("connected to event broker", zap.String("exchange", exchange))

	p := newAMQPPublisher(ch, exchange, log)
	p.conn = conn
	return p, nil
}

func newAMQPPublisher(ch amqpChannel, exchange string, log *zap.Logger) *amqpPublisher {
	return &amqpPublisher{
		channel:  ch,
		exchange: exchange,
		log:      log,
	}
}

// Publish implements EventPublisher.
func (p *amqpPublisher) Publish(ctx context.Context, event ScreeningEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	key := RoutingKeyScreened
	if event.Failed {
		key = RoutingKeyFailed
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.Publish(p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", key, err)
	}

	p.log.Debug("event published", zap.String("routing_key", key), zap.String("file", event.Result.FileName))
	return nil
}

// Close implements EventPublisher.
func (p *amqpPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.channel.Close(); err != nil {
		return err
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
