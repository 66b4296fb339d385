package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/Courier/internal/callback"
	"github.com/shaiso/Courier/internal/config"
	"github.com/shaiso/Courier/internal/executor"
	"github.com/shaiso/Courier/internal/mq"
	"github.com/shaiso/Courier/internal/queue"
	"github.com/shaiso/Courier/internal/redisq"
	"github.com/shaiso/Courier/internal/repo"
	"github.com/shaiso/Courier/internal/worker"
)

// Deps — внешние ресурсы процесса.
type Deps struct {
	Backend queue.Backend

	// MQ — nil, если RabbitMQ выключен или недоступен.
	MQ *mq.Connection

	closers []func()
}

// Open подключает backend очереди и, если включено, RabbitMQ.
//
// Недоступность RabbitMQ не фатальна: процесс работает на polling.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Deps, error) {
	d := &Deps{}

	switch cfg.QueueBackend {
	case config.BackendPostgres:
		pool, err := repo.NewPool(ctx, cfg.DBURL)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		d.closers = append(d.closers, pool.Close)

		if err := repo.Migrate(ctx, pool, logger); err != nil {
			d.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		d.Backend = repo.NewJobRepo(pool)
		logger.Info("database connected")

	case config.BackendRedis:
		rdb, err := redisq.NewClient(ctx, cfg.RedisAddr(), cfg.RedisPassword)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		d.closers = append(d.closers, func() { rdb.Close() })
		d.Backend = redisq.New(redisq.Config{Client: rdb})
		logger.Info("redis connected", "addr", cfg.RedisAddr())

	case config.BackendMemory:
		d.Backend = queue.NewMemory()
		logger.Warn("using in-memory queue, jobs are lost on restart")

	default:
		return nil, fmt.Errorf("%w: unknown queue backend %q", config.ErrInvalidConfig, cfg.QueueBackend)
	}

	if cfg.MQEnabled() {
		conn, err := mq.NewConnection(cfg.RabbitMQURL, logger)
		if err != nil {
			logger.Warn("RabbitMQ not available, running in polling-only mode", "error", err)
			return d, nil
		}
		d.closers = append(d.closers, func() { conn.Close() })

		if err := mq.SetupTopology(ctx, conn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}
		d.MQ = conn
		logger.Info("RabbitMQ connected")
	}

	return d, nil
}

// Notifier возвращает публикатор уведомлений или nil без RabbitMQ.
func (d *Deps) Notifier(logger *slog.Logger) worker.Notifier {
	if d.MQ == nil {
		return nil
	}
	return mq.NewPublisher(d.MQ, logger)
}

// Close освобождает ресурсы в обратном порядке.
func (d *Deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	d.closers = nil
}

// NewWorkerService собирает worker.Service.
//
// С execute=false сервис только ставит и администрирует job (процесс API);
// пулы при этом не запускаются.
func NewWorkerService(cfg config.Config, deps *Deps, execute bool, logger *slog.Logger) *worker.Service {
	wcfg := worker.Config{
		Backend:           deps.Backend,
		Notifier:          deps.Notifier(logger),
		Concurrency:       cfg.ParallelConcurrency,
		DefaultMaxRetries: cfg.DefaultMaxRetries,
		DefaultRetryDelay: cfg.DefaultRetryDelay(),
		PollInterval:      cfg.PollInterval,
		LeaseTTL:          cfg.LeaseTTL,
		Logger:            logger,
	}

	if execute {
		wcfg.Executor = executor.New(executor.Config{
			DefaultTimeout: cfg.DefaultTimeout(),
			Logger:         logger,
		})
		wcfg.Callback = callback.New(callback.Config{
			Timeout:     cfg.CallbackTimeout(),
			MaxAttempts: cfg.CallbackMaxRetries,
			RetryDelay:  callbackRetryDelay(cfg),
			Logger:      logger,
		})
		wcfg.MQ = deps.MQ
	}

	return worker.New(wcfg)
}

// callbackRetryDelay переводит CALLBACK_RETRY_DELAY=0 в повторы без паузы:
// нулевой RetryDelay dispatcher заменил бы значением по умолчанию.
func callbackRetryDelay(cfg config.Config) time.Duration {
	if d := cfg.CallbackRetryDelay(); d > 0 {
		return d
	}
	return callback.NoRetryDelay
}
