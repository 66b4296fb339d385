package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shaiso/Courier/internal/domain"
	"github.com/shaiso/Courier/internal/queue"
)

func TestPool_PauseIsNested(t *testing.T) {
	p := NewPool(PoolConfig{Queue: domain.QueueParallel, Backend: queue.NewMemory()})

	p.Pause()
	p.Pause()
	p.Resume()
	if !p.Paused() {
		t.Error("pool must stay paused until every Pause is resumed")
	}
	p.Resume()
	if p.Paused() {
		t.Error("pool must be resumed")
	}
	p.Resume()
	if p.Paused() {
		t.Error("extra Resume must not go negative")
	}
}

func TestPool_PausedPoolDoesNotLease(t *testing.T) {
	ctx := context.Background()
	backend := queue.NewMemory()
	var handled atomic.Int32

	p := NewPool(PoolConfig{
		Queue:        domain.QueueParallel,
		Slots:        2,
		Backend:      backend,
		PollInterval: 5 * time.Millisecond,
		Handler: func(ctx context.Context, job *domain.Job) {
			handled.Add(1)
			backend.Complete(ctx, job.Queue, job.ID, 1)
		},
	})

	p.Pause()
	p.Start(ctx)
	defer p.Close(ctx)

	backend.Add(ctx, domain.NewJob(*newTask("held", false), time.Now()))
	time.Sleep(30 * time.Millisecond)

	if handled.Load() != 0 {
		t.Fatal("paused pool must not lease jobs")
	}

	p.Resume()

	deadline := time.Now().Add(2 * time.Second)
	for handled.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if handled.Load() != 1 {
		t.Errorf("expected job to be handled after resume, got %d", handled.Load())
	}
}

func TestPool_NotifyWakesIdleSlot(t *testing.T) {
	ctx := context.Background()
	backend := queue.NewMemory()
	done := make(chan struct{})

	p := NewPool(PoolConfig{
		Queue:        domain.QueueSequential,
		Backend:      backend,
		PollInterval: time.Hour,
		Handler: func(ctx context.Context, job *domain.Job) {
			backend.Complete(ctx, job.Queue, job.ID, 1)
			close(done)
		},
	})
	p.Start(ctx)
	defer p.Close(ctx)

	// Слот успевает уйти в ожидание с часовым polling
	time.Sleep(20 * time.Millisecond)
	backend.Add(ctx, domain.NewJob(*newTask("wake", true), time.Now()))
	p.Notify()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify must wake an idle slot")
	}
}

type extendCounter struct {
	*queue.Memory
	extends atomic.Int32
}

func (b *extendCounter) Extend(ctx context.Context, q domain.QueueName, id string, ttl time.Duration) error {
	b.extends.Add(1)
	return b.Memory.Extend(ctx, q, id, ttl)
}

func TestPool_HeartbeatExtendsLease(t *testing.T) {
	ctx := context.Background()
	backend := &extendCounter{Memory: queue.NewMemory()}
	done := make(chan struct{})

	p := NewPool(PoolConfig{
		Queue:        domain.QueueParallel,
		Backend:      backend,
		PollInterval: 5 * time.Millisecond,
		LeaseTTL:     30 * time.Millisecond,
		Handler: func(ctx context.Context, job *domain.Job) {
			time.Sleep(100 * time.Millisecond)
			backend.Complete(ctx, job.Queue, job.ID, 1)
			close(done)
		},
	})

	backend.Add(ctx, domain.NewJob(*newTask("long", false), time.Now()))
	p.Start(ctx)
	defer p.Close(ctx)

	<-done
	if backend.extends.Load() < 2 {
		t.Errorf("expected lease to be extended while job runs, got %d extends", backend.extends.Load())
	}
}

func TestPool_HeartbeatIntervalIsClamped(t *testing.T) {
	tests := []struct {
		name     string
		leaseTTL time.Duration
		want     time.Duration
	}{
		{"third of lease", 30 * time.Second, 10 * time.Second},
		{"sub-millisecond lease", 2 * time.Nanosecond, minHeartbeatInterval},
		{"default lease", 0, defaultLeaseTTL / 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPool(PoolConfig{Queue: domain.QueueParallel, Backend: queue.NewMemory(), LeaseTTL: tt.leaseTTL})
			if got := p.heartbeatInterval(); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestPool_TinyLeaseTTLDoesNotPanic(t *testing.T) {
	ctx := context.Background()
	backend := queue.NewMemory()
	done := make(chan struct{})

	p := NewPool(PoolConfig{
		Queue:        domain.QueueParallel,
		Backend:      backend,
		PollInterval: 5 * time.Millisecond,
		LeaseTTL:     2 * time.Nanosecond,
		Handler: func(ctx context.Context, job *domain.Job) {
			time.Sleep(30 * time.Millisecond)
			close(done)
		},
	})

	backend.Add(ctx, domain.NewJob(*newTask("tiny", false), time.Now()))
	p.Start(ctx)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not handled")
	}
	p.Close(ctx)
}
