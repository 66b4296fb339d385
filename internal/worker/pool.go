package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shaiso/Courier/internal/domain"
	"github.com/shaiso/Courier/internal/queue"
	"github.com/shaiso/Courier/internal/telemetry"
)

// minHeartbeatInterval — нижняя граница периода продления lease.
const minHeartbeatInterval = 10 * time.Millisecond

// JobHandler обрабатывает один взятый job до терминального исхода.
type JobHandler func(ctx context.Context, job *domain.Job)

// Pool — фиксированный набор слотов, каждый слот — горутина,
// которая в цикле берёт job из одной очереди и обрабатывает его.
//
// Слот держит job до конца обработки, включая паузы между retry
// и доставку callback. Пул из одного слота над эксклюзивной очередью
// даёт строгий FIFO.
type Pool struct {
	queue        domain.QueueName
	slots        int
	backend      queue.Backend
	handler      JobHandler
	pollInterval time.Duration
	leaseTTL     time.Duration
	logger       *slog.Logger

	mu      sync.Mutex
	paused  int
	wake    chan struct{}
	started bool

	stopLeasing context.CancelFunc
	cancelJobs  context.CancelFunc
	wg          sync.WaitGroup
}

// PoolConfig — конфигурация Pool.
type PoolConfig struct {
	Queue        domain.QueueName
	Slots        int
	Backend      queue.Backend
	Handler      JobHandler
	PollInterval time.Duration
	LeaseTTL     time.Duration
	Logger       *slog.Logger
}

// NewPool создаёт пул. Слоты запускаются в Start.
func NewPool(cfg PoolConfig) *Pool {
	slots := cfg.Slots
	if slots <= 0 {
		slots = 1
	}

	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	leaseTTL := cfg.LeaseTTL
	if leaseTTL <= 0 {
		leaseTTL = defaultLeaseTTL
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Pool{
		queue:        cfg.Queue,
		slots:        slots,
		backend:      cfg.Backend,
		handler:      cfg.Handler,
		pollInterval: pollInterval,
		leaseTTL:     leaseTTL,
		logger:       telemetry.WithQueue(logger, string(cfg.Queue)),
		wake:         make(chan struct{}),
	}
}

// Start запускает слоты.
//
// Отмена ctx прекращает lease новых job; уже взятые job
// обрабатываются до конца (до Close с истёкшим дедлайном).
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return
	}
	p.started = true

	leaseCtx, stopLeasing := context.WithCancel(ctx)
	jobCtx, cancelJobs := context.WithCancel(context.WithoutCancel(ctx))
	p.stopLeasing = stopLeasing
	p.cancelJobs = cancelJobs

	p.logger.Info("starting pool", "slots", p.slots, "poll_interval", p.pollInterval)

	for i := range p.slots {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.runSlot(leaseCtx, jobCtx, i)
		}()
	}
}

// Close прекращает lease и ждёт завершения job в работе.
// Если ctx истекает раньше, job в работе отменяются.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	started := p.started
	p.mu.Unlock()

	if !started {
		return nil
	}

	p.stopLeasing()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancelJobs()
		p.logger.Info("pool stopped")
		return nil
	case <-ctx.Done():
		p.logger.Warn("drain deadline exceeded, cancelling in-flight jobs")
		p.cancelJobs()
		<-done
		return fmt.Errorf("close %s pool: %w", p.queue, ctx.Err())
	}
}

// Pause запрещает lease новых job. Вызовы вкладываются:
// lease возобновится после такого же числа Resume.
func (p *Pool) Pause() {
	p.mu.Lock()
	p.paused++
	p.mu.Unlock()
}

// Resume снимает одну паузу и будит слоты.
func (p *Pool) Resume() {
	p.mu.Lock()
	if p.paused > 0 {
		p.paused--
	}
	p.mu.Unlock()
	p.Notify()
}

// Paused возвращает true, пока действует хотя бы одна пауза.
func (p *Pool) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused > 0
}

// Notify будит все простаивающие слоты.
func (p *Pool) Notify() {
	p.mu.Lock()
	close(p.wake)
	p.wake = make(chan struct{})
	p.mu.Unlock()
}

func (p *Pool) wakeChan() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.wake
}

// runSlot — цикл одного слота.
func (p *Pool) runSlot(leaseCtx, jobCtx context.Context, slot int) {
	logger := p.logger.With("slot", slot)

	for {
		if leaseCtx.Err() != nil {
			return
		}

		// Канал берётся до lease: Notify между lease и ожиданием не теряется.
		wake := p.wakeChan()

		if p.Paused() {
			p.idle(leaseCtx, wake)
			continue
		}

		job, err := p.backend.Lease(leaseCtx, p.queue, p.leaseTTL)
		if err != nil {
			if leaseCtx.Err() != nil {
				return
			}
			if !errors.Is(err, queue.ErrNoJob) {
				logger.Error("failed to lease job", "error", err)
			}
			p.idle(leaseCtx, wake)
			continue
		}

		p.process(jobCtx, job)
	}
}

// idle ждёт Notify, тик polling или отмену.
func (p *Pool) idle(ctx context.Context, wake <-chan struct{}) {
	timer := time.NewTimer(p.pollInterval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-wake:
	case <-timer.C:
	}
}

// process обрабатывает job, продлевая lease, пока handler работает.
func (p *Pool) process(ctx context.Context, job *domain.Job) {
	busy := telemetry.BusySlots.WithLabelValues(string(p.queue))
	busy.Inc()
	defer busy.Dec()

	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	var hb sync.WaitGroup
	hb.Add(1)
	go func() {
		defer hb.Done()
		p.heartbeat(hbCtx, job.ID)
	}()

	p.handler(ctx, job)

	stopHeartbeat()
	hb.Wait()
}

// heartbeat продлевает lease каждые leaseTTL/3.
func (p *Pool) heartbeat(ctx context.Context, jobID string) {
	ticker := time.NewTicker(p.heartbeatInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := p.backend.Extend(ctx, p.queue, jobID, p.leaseTTL)
			if err != nil && ctx.Err() == nil && !errors.Is(err, queue.ErrLeaseLost) {
				p.logger.Warn("failed to extend lease", "job_id", jobID, "error", err)
			}
		}
	}
}

func (p *Pool) heartbeatInterval() time.Duration {
	return max(p.leaseTTL/3, minHeartbeatInterval)
}
