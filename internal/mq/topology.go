package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Courier/internal/domain"
)

// Exchange — имя обменника.
type Exchange string

// Queue — имя очереди.
type Queue string

// RoutingKey — ключ маршрутизации.
type RoutingKey string

// ExchangeJobs — обменник уведомлений о новых job.
const ExchangeJobs Exchange = "courier.jobs"

// Очереди уведомлений, по одной на durable-очередь job.
const (
	QueueJobsParallel   Queue = "jobs.parallel"
	QueueJobsSequential Queue = "jobs.sequential"
)

// notificationTTL — уведомление без потребителя устаревает:
// воркер всё равно подберёт job polling'ом.
const notificationTTL = 60_000

// QueueFor возвращает очередь уведомлений для durable-очереди.
func QueueFor(q domain.QueueName) Queue {
	if q == domain.QueueSequential {
		return QueueJobsSequential
	}
	return QueueJobsParallel
}

// RoutingKeyFor — ключ маршрутизации совпадает с именем durable-очереди.
func RoutingKeyFor(q domain.QueueName) RoutingKey {
	return RoutingKey(q)
}

// SetupTopology объявляет обменник, очереди и привязки.
// Операция идемпотентна.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.ExchangeDeclare(
			string(ExchangeJobs), // name
			"direct",             // type
			true,                 // durable
			false,                // auto-deleted
			false,                // internal
			false,                // no-wait
			nil,                  // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ExchangeJobs, err)
		}

		for _, q := range domain.Queues {
			name := QueueFor(q)
			_, err := ch.QueueDeclare(
				string(name), // name
				true,         // durable
				false,        // delete when unused
				false,        // exclusive
				false,        // no-wait
				amqp.Table{"x-message-ttl": int32(notificationTTL)},
			)
			if err != nil {
				return fmt.Errorf("declare queue %s: %w", name, err)
			}

			if err := ch.QueueBind(string(name), string(RoutingKeyFor(q)), string(ExchangeJobs), false, nil); err != nil {
				return fmt.Errorf("bind queue %s to %s: %w", name, ExchangeJobs, err)
			}
		}

		return nil
	})
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  Courier RabbitMQ Topology:

    courier.jobs (direct)
    ├── jobs.parallel   [routing: parallel]    Consumer: courier-worker (parallel pool)
    └── jobs.sequential [routing: sequential]  Consumer: courier-worker (sequential pool)

    Messages are wake-up hints (ttl 60s); jobs live in the durable backend.
  `
}
