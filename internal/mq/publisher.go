package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Courier/internal/domain"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// MessageTypeJobEnqueued — в durable-очередь добавлен job.
const MessageTypeJobEnqueued MessageType = "job.enqueued"

// Message — конверт сообщения.
type Message struct {
	ID        string      `json:"id"`
	Type      MessageType `json:"type"`
	Payload   any         `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// JobEnqueuedPayload — payload уведомления о новом job.
type JobEnqueuedPayload struct {
	JobID string           `json:"job_id"`
	Queue domain.QueueName `json:"queue"`
}

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Publish публикует сообщение в exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),
			string(routingKey),
			false, // mandatory
			false, // immediate
			amqp.Publishing{
				ContentType: "application/json",
				MessageId:   msg.ID,
				Timestamp:   msg.Timestamp,
				Body:        body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)
		return nil
	})
}

// NotifyEnqueued сообщает воркерам, что в очередь q добавлен job.
func (p *Publisher) NotifyEnqueued(ctx context.Context, q domain.QueueName, jobID string) error {
	msg := &Message{
		ID:        uuid.NewString(),
		Type:      MessageTypeJobEnqueued,
		Payload:   JobEnqueuedPayload{JobID: jobID, Queue: q},
		Timestamp: time.Now().UTC(),
	}

	return p.Publish(ctx, ExchangeJobs, RoutingKeyFor(q), msg)
}
