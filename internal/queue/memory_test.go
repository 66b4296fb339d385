package queue_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shaiso/Courier/internal/domain"
	"github.com/shaiso/Courier/internal/queue"
	"github.com/shaiso/Courier/internal/queue/queuetest"
)

func TestMemory_Contract(t *testing.T) {
	queuetest.Run(t, func(*testing.T) queue.Backend {
		return queue.NewMemory()
	})
}

// fakeClock — управляемые часы.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemory_ExpiredLeaseIsReleased(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := queue.NewMemoryWithClock(clock.Now)

	job := queuetest.NewJob(domain.QueueSequential)
	if _, err := m.Add(ctx, job); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Lease(ctx, domain.QueueSequential, time.Minute); err != nil {
		t.Fatal(err)
	}

	clock.Advance(30 * time.Second)
	if _, err := m.Lease(ctx, domain.QueueSequential, time.Minute); !errors.Is(err, queue.ErrNoJob) {
		t.Fatalf("live lease must block the sequential queue, got %v", err)
	}

	clock.Advance(31 * time.Second)
	got, err := m.Lease(ctx, domain.QueueSequential, time.Minute)
	if err != nil {
		t.Fatalf("expired lease must be leasable again: %v", err)
	}
	if got.ID != job.ID {
		t.Errorf("expected %s, got %s", job.ID, got.ID)
	}
}

func TestMemory_ClosedRejectsWork(t *testing.T) {
	ctx := context.Background()
	m := queue.NewMemory()
	m.Close()

	if _, err := m.Add(ctx, queuetest.NewJob(domain.QueueParallel)); !errors.Is(err, queue.ErrClosed) {
		t.Errorf("expected ErrClosed on add, got %v", err)
	}
	if _, err := m.Lease(ctx, domain.QueueParallel, time.Minute); !errors.Is(err, queue.ErrClosed) {
		t.Errorf("expected ErrClosed on lease, got %v", err)
	}
}

func TestMemory_LeaseReturnsCopy(t *testing.T) {
	ctx := context.Background()
	m := queue.NewMemory()
	job := queuetest.NewJob(domain.QueueParallel)
	m.Add(ctx, job)

	leased, _ := m.Lease(ctx, domain.QueueParallel, time.Minute)
	leased.Status = domain.JobStatusCompleted

	stored, err := m.Get(ctx, domain.QueueParallel, job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != domain.JobStatusActive {
		t.Errorf("mutating a leased copy must not affect the queue, got %s", stored.Status)
	}
}
