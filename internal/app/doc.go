// Package app собирает зависимости процессов courier-api и courier-worker
// из config.Config: backend очереди, соединение с RabbitMQ, worker.Service.
package app
