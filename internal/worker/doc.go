// Package worker ставит task в durable-очереди и выполняет их.
//
// # Очереди и пулы
//
// Очередей две, у каждой свой Pool:
//
//   - parallel — Concurrency слотов (default: 5), порядок не гарантирован
//   - sequential — ровно один слот над эксклюзивной очередью, строгий FIFO
//
// Слот берёт job через queue.Backend.Lease и держит его до конца:
// все попытки, паузы между ними и доставка callback выполняются в слоте.
// Пока job в работе, lease продлевается каждые LeaseTTL/3.
//
// Новые job слоты находят polling'ом (PollInterval) или раньше,
// по уведомлению из RabbitMQ (mq.Consumer → Pool.Notify).
//
// # Обработка job
//
//  1. attempts = 1..maxAttempts (task.MaxRetries или DefaultMaxRetries)
//  2. Executor.Execute; ответы 429 и 5xx считаются неудачей
//  3. Ошибка → faults.Classify → ShouldRetry
//  4. Retry → пауза baseDelay * attempts (линейный backoff)
//  5. Итог → callback (completed/failed) → Complete/Fail в backend
//
// # Остановка
//
// Close прекращает lease, ждёт job в работе до дедлайна ctx,
// после дедлайна отменяет их (job остаются ACTIVE и будут взяты
// снова после истечения lease), затем закрывает очередь.
//
//	svc := worker.New(worker.Config{
//	    Backend:  backend,
//	    Executor: executor.New(executor.Config{Logger: logger}),
//	    Callback: callback.New(callback.Config{Logger: logger}),
//	    Logger:   logger,
//	})
//	if err := svc.Start(ctx); err != nil {
//	    return err
//	}
//	defer svc.Close(shutdownCtx)
package worker
