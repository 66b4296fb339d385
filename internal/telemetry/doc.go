// Package telemetry обеспечивает наблюдаемость системы.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики
//
// Оба бинарника (courier-api, courier-worker) используют единый формат
// логирования и экспортируют метрики на /metrics endpoint.
package telemetry
