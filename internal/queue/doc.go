// Package queue определяет контракт durable-очереди job.
//
// Очередей ровно две: parallel и sequential. Backend хранит job
// и выдаёт их воркерам через lease:
//
//	Add → WAITING
//	Lease → ACTIVE (до LeaseExpiresAt, продлевается Extend)
//	Complete → COMPLETED
//	Fail → FAILED
//	Clean(status) / Remove → удалено
//
// ACTIVE job с истёкшим lease снова доступен для Lease (at-least-once
// после падения воркера). Для sequential очереди Lease ничего не выдаёт,
// пока предыдущий job не завершён, что даёт строгий FIFO между воркерами.
//
// Реализации:
//   - Memory — в памяти (тесты и QUEUE_BACKEND=memory)
//   - repo.JobRepo — Postgres
//   - redisq.Backend — Redis
//
// Пакет queuetest содержит общий набор проверок контракта.
package queue
