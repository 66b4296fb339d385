package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/shaiso/Courier/internal/callback"
	"github.com/shaiso/Courier/internal/domain"
	"github.com/shaiso/Courier/internal/mq"
	"github.com/shaiso/Courier/internal/queue"
	"github.com/shaiso/Courier/internal/telemetry"
)

// Значения по умолчанию.
const (
	defaultConcurrency  = 5
	defaultMaxRetries   = 3
	defaultRetryDelay   = time.Second
	defaultPollInterval = time.Second
	defaultLeaseTTL     = time.Minute
)

// Executor выполняет один исходящий вызов.
type Executor interface {
	Execute(ctx context.Context, task *domain.Task) (*domain.Response, error)
}

// CallbackSender доставляет отчёт о результате. Никогда не падает.
type CallbackSender interface {
	Send(ctx context.Context, url string, payload *domain.CallbackPayload)
}

// Notifier сообщает воркерам о новом job (опционально).
type Notifier interface {
	NotifyEnqueued(ctx context.Context, q domain.QueueName, jobID string) error
}

// SleepFunc ждёт d или отмены ctx.
type SleepFunc = callback.SleepFunc

// Service — очереди parallel/sequential и пулы воркеров над ними.
//
// Процесс API использует только AddTask и административные методы,
// процесс воркера дополнительно вызывает Start/Close.
type Service struct {
	backend  queue.Backend
	executor Executor
	callback CallbackSender
	notifier Notifier
	mqConn   *mq.Connection

	maxRetries int
	retryDelay time.Duration

	pools map[domain.QueueName]*Pool

	sleep  SleepFunc
	now    func() time.Time
	logger *slog.Logger

	mu             sync.Mutex
	started        bool
	closed         bool
	stopConsumers  context.CancelFunc
	consumersGroup sync.WaitGroup
}

// Config — конфигурация Service. Читается один раз в New.
type Config struct {
	// Backend — durable-очередь (обязательно).
	Backend queue.Backend

	// Executor и Callback нужны только процессу воркера.
	Executor Executor
	Callback CallbackSender

	// Notifier — публикация уведомлений о новых job (опционально).
	Notifier Notifier

	// MQ — соединение для приёма уведомлений (опционально; без него
	// слоты опрашивают backend каждые PollInterval).
	MQ *mq.Connection

	// Concurrency — число слотов parallel пула (default: 5).
	Concurrency int

	// DefaultMaxRetries — лимит попыток, если у task не задан (default: 3).
	DefaultMaxRetries int

	// DefaultRetryDelay — база линейного backoff (default: 1s).
	DefaultRetryDelay time.Duration

	PollInterval time.Duration // default: 1s
	LeaseTTL     time.Duration // default: 60s

	Sleep  SleepFunc
	Now    func() time.Time
	Logger *slog.Logger
}

// New создаёт Service.
func New(cfg Config) *Service {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	maxRetries := cfg.DefaultMaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	retryDelay := cfg.DefaultRetryDelay
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}

	sleep := cfg.Sleep
	if sleep == nil {
		sleep = callback.Sleep
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		backend:    cfg.Backend,
		executor:   cfg.Executor,
		callback:   cfg.Callback,
		notifier:   cfg.Notifier,
		mqConn:     cfg.MQ,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		sleep:      sleep,
		now:        now,
		logger:     logger,
	}

	slots := map[domain.QueueName]int{
		domain.QueueParallel:   concurrency,
		domain.QueueSequential: 1,
	}

	s.pools = make(map[domain.QueueName]*Pool, len(slots))
	for q, n := range slots {
		s.pools[q] = NewPool(PoolConfig{
			Queue:        q,
			Slots:        n,
			Backend:      cfg.Backend,
			Handler:      s.processJob,
			PollInterval: cfg.PollInterval,
			LeaseTTL:     cfg.LeaseTTL,
			Logger:       logger,
		})
	}

	return s
}

// AddTask ставит task в очередь по флагу Sequential.
// Повторная постановка task с тем же ID — no-op.
func (s *Service) AddTask(ctx context.Context, task *domain.Task) (*domain.Job, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrServiceClosed
	}

	job := domain.NewJob(*task, s.now())

	added, err := s.backend.Add(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrEnqueue, task.ID, err)
	}

	logger := telemetry.WithQueue(telemetry.WithTaskID(s.logger, task.ID), string(job.Queue))
	if !added {
		logger.Info("task already queued, skipping duplicate")
		return job, nil
	}

	telemetry.TasksEnqueued.WithLabelValues(string(job.Queue)).Inc()
	logger.Info("task queued", "method", task.Method, "url", task.URL)

	if s.notifier != nil {
		if err := s.notifier.NotifyEnqueued(ctx, job.Queue, job.ID); err != nil {
			// Job уже в backend, воркер подберёт его polling'ом
			logger.Warn("failed to publish enqueue notification", "error", err)
		}
	}

	return job, nil
}

// Start запускает пулы и, если задано MQ, потребителей уведомлений.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrServiceClosed
	}
	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true

	for _, q := range domain.Queues {
		s.pools[q].Start(ctx)
	}

	if s.mqConn != nil {
		consumerCtx, cancel := context.WithCancel(ctx)
		s.stopConsumers = cancel

		for _, q := range domain.Queues {
			pool := s.pools[q]
			consumer := mq.NewConsumer(s.mqConn, mq.ConsumerConfig{
				Queue:   mq.QueueFor(q),
				Handler: wakeOnEnqueue(pool, s.logger),
				Logger:  s.logger,
			})

			s.consumersGroup.Add(1)
			go func() {
				defer s.consumersGroup.Done()
				if err := consumer.Run(consumerCtx); err != nil && !errors.Is(err, context.Canceled) {
					s.logger.Error("notification consumer stopped", "queue", q, "error", err)
				}
			}()
		}
	}

	s.logger.Info("worker service started")
	return nil
}

// wakeOnEnqueue будит пул по уведомлению о новом job.
// Сообщение только подсказка: job читается из backend, поэтому
// нечитаемый payload не мешает разбудить слоты.
func wakeOnEnqueue(pool *Pool, logger *slog.Logger) mq.Handler {
	return func(_ context.Context, msg *mq.Message) error {
		payload, err := mq.ParsePayload[mq.JobEnqueuedPayload](msg)
		if err != nil {
			logger.Warn("malformed enqueue notification", "message_id", msg.ID, "error", err)
		} else {
			logger.Debug("job enqueued notification", "job_id", payload.JobID, "queue", payload.Queue)
		}
		pool.Notify()
		return nil
	}
}

// Close останавливает пулы (ждёт job в работе до дедлайна ctx),
// затем потребителей уведомлений, затем закрывает очередь.
// Соединение с хранилищем закрывает владелец.
func (s *Service) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.logger.Info("stopping worker service...")

	var g errgroup.Group
	for _, pool := range s.pools {
		g.Go(func() error {
			return pool.Close(ctx)
		})
	}
	err := g.Wait()

	if s.stopConsumers != nil {
		s.stopConsumers()
		s.consumersGroup.Wait()
	}

	if cerr := s.backend.Close(); cerr != nil {
		err = multierr.Append(err, fmt.Errorf("close queue: %w", cerr))
	}

	s.logger.Info("worker service stopped")
	return err
}

// GetJob ищет job сначала в sequential, потом в parallel очереди.
// Ошибки backend логируются, поиск продолжается. Не найден — nil.
func (s *Service) GetJob(ctx context.Context, jobID string) *domain.Job {
	for _, q := range domain.Queues {
		job, err := s.backend.Get(ctx, q, jobID)
		if err == nil {
			return job
		}
		if !errors.Is(err, queue.ErrJobNotFound) {
			s.logger.Error("failed to look up job", "queue", q, "job_id", jobID, "error", err)
		}
	}
	return nil
}

// RemoveJob удаляет job. Ошибка не возвращается, а сообщается в результате.
func (s *Service) RemoveJob(ctx context.Context, job *domain.Job) domain.OperationResult {
	if err := s.backend.Remove(ctx, job.Queue, job.ID); err != nil {
		s.logger.Error("failed to remove job", "queue", job.Queue, "job_id", job.ID, "error", err)
		return domain.OperationResult{
			Success: false,
			Message: fmt.Sprintf("Failed to remove job with id=%s", job.ID),
			Error:   err.Error(),
		}
	}

	s.logger.Info("job removed", "queue", job.Queue, "job_id", job.ID)
	return domain.OperationResult{
		Success: true,
		Message: fmt.Sprintf("Job with id=%s removed successfully", job.ID),
	}
}

// ClearQueue удаляет job с указанными статусами из обеих очередей.
//
// На время очистки пулы не берут новые job; job в ожидании и в работе
// не затрагиваются. Частичные ошибки агрегируются в результат.
func (s *Service) ClearQueue(ctx context.Context, statuses []domain.JobStatus) domain.OperationResult {
	for _, pool := range s.pools {
		pool.Pause()
		defer pool.Resume()
	}

	var (
		mu      sync.Mutex
		errs    error
		removed int
		g       errgroup.Group
	)

	for _, q := range domain.Queues {
		for _, status := range statuses {
			g.Go(func() error {
				n, err := s.backend.Clean(ctx, q, status)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					errs = multierr.Append(errs, fmt.Errorf("clean %s %s jobs: %w", q, status, err))
					return nil
				}
				removed += n
				return nil
			})
		}
	}
	g.Wait()

	if errs != nil {
		for _, err := range multierr.Errors(errs) {
			s.logger.Error("clear queue operation failed", "error", err)
		}
		return domain.OperationResult{
			Success: false,
			Message: "Failed to clear queues",
			Error:   errs.Error(),
		}
	}

	s.logger.Info("all clear queue operations succeeded", "removed", removed)
	return domain.OperationResult{
		Success: true,
		Message: "Queue cleanup successfully",
	}
}

// Pool возвращает пул очереди q.
func (s *Service) Pool(q domain.QueueName) *Pool {
	return s.pools[q]
}
