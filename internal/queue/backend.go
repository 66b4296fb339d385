package queue

import (
	"context"
	"errors"
	"time"

	"github.com/shaiso/Courier/internal/domain"
)

// Ошибки durable-очереди.
var (
	// ErrNoJob — нет job, доступного для lease.
	ErrNoJob = errors.New("no job available")

	// ErrJobNotFound — job с таким ID нет в очереди.
	ErrJobNotFound = errors.New("job not found")

	// ErrJobActive — job сейчас обрабатывается и не может быть удалён.
	ErrJobActive = errors.New("job is being processed")

	// ErrLeaseLost — lease истёк или job больше не ACTIVE.
	ErrLeaseLost = errors.New("job lease lost")

	// ErrClosed — очередь закрыта.
	ErrClosed = errors.New("queue closed")
)

// Backend — примитивы durable-очереди.
//
// Реализации: Memory (тесты, QUEUE_BACKEND=memory),
// repo.JobRepo (Postgres), redisq.Backend (Redis).
//
// Все изменения состояния job идут только через эти методы.
type Backend interface {
	// Add ставит job в очередь job.Queue. Повторный Add с тем же ID —
	// no-op, added=false.
	Add(ctx context.Context, job *domain.Job) (added bool, err error)

	// Lease берёт самый старый WAITING job (или ACTIVE с истёкшим lease)
	// и переводит его в ACTIVE до now+ttl. Для эксклюзивной очереди
	// ничего не выдаётся, пока в ней есть ACTIVE job с живым lease.
	// Пустая очередь — ErrNoJob.
	Lease(ctx context.Context, queue domain.QueueName, ttl time.Duration) (*domain.Job, error)

	// Extend продлевает lease активного job.
	Extend(ctx context.Context, queue domain.QueueName, id string, ttl time.Duration) error

	// Complete переводит ACTIVE job в COMPLETED.
	Complete(ctx context.Context, queue domain.QueueName, id string, attempts int) error

	// Fail переводит ACTIVE job в FAILED.
	Fail(ctx context.Context, queue domain.QueueName, id string, attempts int, reason string) error

	// Clean удаляет все job с данным статусом, возвращает их число.
	Clean(ctx context.Context, queue domain.QueueName, status domain.JobStatus) (int, error)

	// Get возвращает job или ErrJobNotFound.
	Get(ctx context.Context, queue domain.QueueName, id string) (*domain.Job, error)

	// Remove удаляет не-ACTIVE job. ErrJobNotFound, ErrJobActive.
	Remove(ctx context.Context, queue domain.QueueName, id string) error

	// Close освобождает ресурсы очереди (не соединение с хранилищем).
	Close() error
}
