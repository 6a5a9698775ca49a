// Package event публикует доменные события в RabbitMQ (topic exchange)
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"

	"github.com/firewise/fireedu-api/pkg/logger"
)

// Ключи маршрутизации доменных событий
const (
	ActivityRecorded = "activity.recorded"
	TestCompleted    = "test.completed"
	ProfileCompleted = "profile.completed"
)

// Envelope — конверт события
type Envelope struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurredAt"`
	Payload    interface{} `json:"payload"`
}

// Publisher публикует события. Реализации: AMQPPublisher и NoopPublisher.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload interface{}) error
	Close()
}

// AMQPPublisher публикует события в topic exchange
type AMQPPublisher struct {
	mu       sync.Mutex // amqp.Channel не безопасен для параллельной публикации
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	log      *logger.Logger
}

// NewAMQPPublisher подключается к брокеру и объявляет exchange
func NewAMQPPublisher(amqpURL, exchange string, log *logger.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("amqp exchange declare: %w", err)
	}
	return &AMQPPublisher{
		conn:     conn,
		channel:  ch,
		exchange: exchange,
		log:      log.With("component", "AMQPPublisher"),
	}, nil
}

// Publish публикует событие; тип события служит ключом маршрутизации
func (p *AMQPPublisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	env, body, err := newEnvelope(eventType, payload)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.Publish(
		p.exchange,
		eventType,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    env.ID,
			Timestamp:    env.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("amqp publish %s: %w", eventType, err)
	}
	p.log.Debug("event published", "type", eventType, "id", env.ID)
	return nil
}

// Close закрывает канал и соединение
func (p *AMQPPublisher) Close() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

// newEnvelope оборачивает полезную нагрузку и сериализует конверт
func newEnvelope(eventType string, payload interface{}) (Envelope, []byte, error) {
	env := Envelope{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
	body, err := json.Marshal(env)
	if err != nil {
		return Envelope{}, nil, fmt.Errorf("marshal %s event: %w", eventType, err)
	}
	return env, body, nil
}

// NoopPublisher используется, когда брокер отключен
type NoopPublisher struct {
	log *logger.Logger
}

// NewNoopPublisher создает NoopPublisher
func NewNoopPublisher(log *logger.Logger) *NoopPublisher {
	return &NoopPublisher{log: log}
}

func (p *NoopPublisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	p.log.Debug("broker disabled, event dropped", "type", eventType)
	return nil
}

func (p *NoopPublisher) Close() {}
