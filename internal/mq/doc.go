// Package mq — уведомления о новых job через RabbitMQ.
//
// Структура:
//   - connection.go — соединение с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — обменник courier.jobs и очереди jobs.parallel / jobs.sequential
//   - publisher.go  — NotifyEnqueued (API после постановки job)
//   - consumer.go   — потребление уведомлений (воркер будит пул)
//
// Сообщения — только подсказки: источник истины — durable backend
// очереди. Потеря уведомления задерживает job не больше чем на
// POLL_INTERVAL.
package mq
