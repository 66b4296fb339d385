// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go      — Handler с DI (фасад tasks, logger)
//   - routes.go       — chi-маршруты
//   - middleware.go   — middleware (request id, logging, recovery, metrics)
//   - response.go     — унифицированные JSON-ответы
//   - dto.go          — Data Transfer Objects
//   - task_handler.go — обработчики /api/tasks и /api/queue
//
// API принимает task на асинхронное выполнение и администрирует очереди.
package api
