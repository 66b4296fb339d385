// Package queuetest — общий набор проверок для реализаций queue.Backend.
package queuetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Courier/internal/domain"
	"github.com/shaiso/Courier/internal/queue"
)

const leaseTTL = time.Minute

// Factory создаёт backend для одного подтеста.
type Factory func(t *testing.T) queue.Backend

// Run прогоняет проверки контракта Backend.
func Run(t *testing.T, factory Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, b queue.Backend)
	}{
		{"AddIsIdempotent", testAddIsIdempotent},
		{"IDIsUniqueAcrossQueues", testIDIsUniqueAcrossQueues},
		{"LeaseIsFIFO", testLeaseIsFIFO},
		{"LeaseEmpty", testLeaseEmpty},
		{"ExclusiveLease", testExclusiveLease},
		{"CompleteAndFail", testCompleteAndFail},
		{"FinishRequiresLease", testFinishRequiresLease},
		{"Clean", testClean},
		{"Remove", testRemove},
		{"Extend", testExtend},
		{"QueuesAreIsolated", testQueuesAreIsolated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := factory(t)
			reset(t, b)
			tt.fn(t, b)
		})
	}
}

// reset очищает обе очереди от данных предыдущих прогонов.
func reset(t *testing.T, b queue.Backend) {
	t.Helper()
	ctx := context.Background()
	statuses := []domain.JobStatus{
		domain.JobStatusWaiting, domain.JobStatusActive,
		domain.JobStatusCompleted, domain.JobStatusFailed,
	}
	for _, q := range domain.Queues {
		for _, s := range statuses {
			if _, err := b.Clean(ctx, q, s); err != nil {
				t.Fatalf("reset %s/%s: %v", q, s, err)
			}
		}
	}
}

// NewJob создаёт WAITING job в заданной очереди.
func NewJob(queueName domain.QueueName) *domain.Job {
	task := domain.Task{
		ID:          uuid.NewString(),
		Method:      domain.MethodPost,
		URL:         "http://target.local/hook",
		CallbackURL: "http://caller.local/cb",
		Headers:     map[string]string{"X-Trace": "1"},
		CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
		Sequential:  queueName == domain.QueueSequential,
	}
	return domain.NewJob(task, task.CreatedAt)
}

func mustAdd(t *testing.T, b queue.Backend, job *domain.Job) {
	t.Helper()
	added, err := b.Add(context.Background(), job)
	if err != nil {
		t.Fatalf("add %s: %v", job.ID, err)
	}
	if !added {
		t.Fatalf("job %s was not added", job.ID)
	}
}

func mustLease(t *testing.T, b queue.Backend, q domain.QueueName) *domain.Job {
	t.Helper()
	job, err := b.Lease(context.Background(), q, leaseTTL)
	if err != nil {
		t.Fatalf("lease from %s: %v", q, err)
	}
	return job
}

func testAddIsIdempotent(t *testing.T, b queue.Backend) {
	ctx := context.Background()
	job := NewJob(domain.QueueParallel)
	mustAdd(t, b, job)

	added, err := b.Add(ctx, job)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if added {
		t.Error("duplicate add must be a no-op")
	}

	mustLease(t, b, domain.QueueParallel)
	if _, err := b.Lease(ctx, domain.QueueParallel, leaseTTL); !errors.Is(err, queue.ErrNoJob) {
		t.Errorf("expected a single job in queue, got %v", err)
	}
}

func testIDIsUniqueAcrossQueues(t *testing.T, b queue.Backend) {
	ctx := context.Background()
	seq := NewJob(domain.QueueSequential)
	mustAdd(t, b, seq)

	par := NewJob(domain.QueueParallel)
	par.ID = seq.ID
	added, err := b.Add(ctx, par)
	if err != nil {
		t.Fatalf("add to other queue: %v", err)
	}
	if added {
		t.Fatal("id already used in another queue must not be added again")
	}

	if _, err := b.Lease(ctx, domain.QueueParallel, leaseTTL); !errors.Is(err, queue.ErrNoJob) {
		t.Errorf("parallel queue must stay empty, got %v", err)
	}
	if _, err := b.Get(ctx, domain.QueueParallel, seq.ID); !errors.Is(err, queue.ErrJobNotFound) {
		t.Errorf("job must not be visible in parallel queue, got %v", err)
	}
	got, err := b.Get(ctx, domain.QueueSequential, seq.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Task.Sequential {
		t.Errorf("original job must be preserved: %+v", got.Task)
	}
}

func testLeaseIsFIFO(t *testing.T, b queue.Backend) {
	var ids []string
	for range 3 {
		job := NewJob(domain.QueueParallel)
		mustAdd(t, b, job)
		ids = append(ids, job.ID)
	}

	for i, want := range ids {
		got := mustLease(t, b, domain.QueueParallel)
		if got.ID != want {
			t.Fatalf("lease %d: expected %s, got %s", i, want, got.ID)
		}
		if got.Status != domain.JobStatusActive {
			t.Errorf("leased job must be active, got %s", got.Status)
		}
		if got.LeaseExpiresAt == nil {
			t.Error("leased job must carry lease expiry")
		}
		if got.Task.URL != "http://target.local/hook" || got.Task.Headers["X-Trace"] != "1" {
			t.Errorf("task payload not preserved: %+v", got.Task)
		}
	}
}

func testLeaseEmpty(t *testing.T, b queue.Backend) {
	_, err := b.Lease(context.Background(), domain.QueueParallel, leaseTTL)
	if !errors.Is(err, queue.ErrNoJob) {
		t.Errorf("expected ErrNoJob, got %v", err)
	}
}

func testExclusiveLease(t *testing.T, b queue.Backend) {
	ctx := context.Background()
	first := NewJob(domain.QueueSequential)
	second := NewJob(domain.QueueSequential)
	mustAdd(t, b, first)
	mustAdd(t, b, second)

	got := mustLease(t, b, domain.QueueSequential)
	if got.ID != first.ID {
		t.Fatalf("expected %s first, got %s", first.ID, got.ID)
	}

	if _, err := b.Lease(ctx, domain.QueueSequential, leaseTTL); !errors.Is(err, queue.ErrNoJob) {
		t.Fatalf("sequential queue must not lease while a job is active, got %v", err)
	}

	if err := b.Complete(ctx, domain.QueueSequential, first.ID, 1); err != nil {
		t.Fatalf("complete: %v", err)
	}

	got = mustLease(t, b, domain.QueueSequential)
	if got.ID != second.ID {
		t.Errorf("expected %s after completion, got %s", second.ID, got.ID)
	}
}

func testCompleteAndFail(t *testing.T, b queue.Backend) {
	ctx := context.Background()
	ok := NewJob(domain.QueueParallel)
	bad := NewJob(domain.QueueParallel)
	mustAdd(t, b, ok)
	mustAdd(t, b, bad)
	mustLease(t, b, domain.QueueParallel)
	mustLease(t, b, domain.QueueParallel)

	if err := b.Complete(ctx, domain.QueueParallel, ok.ID, 2); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := b.Fail(ctx, domain.QueueParallel, bad.ID, 3, "Request failed with status code 404"); err != nil {
		t.Fatalf("fail: %v", err)
	}

	got, err := b.Get(ctx, domain.QueueParallel, ok.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.JobStatusCompleted || got.Attempts != 2 || got.FinishedAt == nil {
		t.Errorf("unexpected completed job: %+v", got)
	}

	got, err = b.Get(ctx, domain.QueueParallel, bad.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.JobStatusFailed || got.Attempts != 3 {
		t.Errorf("unexpected failed job: %+v", got)
	}
	if got.FailedReason != "Request failed with status code 404" {
		t.Errorf("unexpected failed reason: %q", got.FailedReason)
	}
}

func testFinishRequiresLease(t *testing.T, b queue.Backend) {
	ctx := context.Background()
	job := NewJob(domain.QueueParallel)
	mustAdd(t, b, job)

	if err := b.Complete(ctx, domain.QueueParallel, job.ID, 1); !errors.Is(err, queue.ErrLeaseLost) {
		t.Errorf("completing a waiting job: expected ErrLeaseLost, got %v", err)
	}
	if err := b.Fail(ctx, domain.QueueParallel, "missing", 1, "x"); !errors.Is(err, queue.ErrJobNotFound) {
		t.Errorf("failing a missing job: expected ErrJobNotFound, got %v", err)
	}
}

func testClean(t *testing.T, b queue.Backend) {
	ctx := context.Background()
	done := NewJob(domain.QueueParallel)
	waiting := NewJob(domain.QueueParallel)
	mustAdd(t, b, done)
	mustLease(t, b, domain.QueueParallel)
	if err := b.Complete(ctx, domain.QueueParallel, done.ID, 1); err != nil {
		t.Fatalf("complete: %v", err)
	}
	mustAdd(t, b, waiting)

	n, err := b.Clean(ctx, domain.QueueParallel, domain.JobStatusCompleted)
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 removed job, got %d", n)
	}

	if _, err := b.Get(ctx, domain.QueueParallel, done.ID); !errors.Is(err, queue.ErrJobNotFound) {
		t.Errorf("completed job must be purged, got %v", err)
	}
	if _, err := b.Get(ctx, domain.QueueParallel, waiting.ID); err != nil {
		t.Errorf("waiting job must be untouched, got %v", err)
	}
}

func testRemove(t *testing.T, b queue.Backend) {
	ctx := context.Background()
	active := NewJob(domain.QueueParallel)
	waiting := NewJob(domain.QueueParallel)
	mustAdd(t, b, active)
	mustAdd(t, b, waiting)
	mustLease(t, b, domain.QueueParallel)

	if err := b.Remove(ctx, domain.QueueParallel, active.ID); !errors.Is(err, queue.ErrJobActive) {
		t.Errorf("expected ErrJobActive, got %v", err)
	}
	if err := b.Remove(ctx, domain.QueueParallel, waiting.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := b.Get(ctx, domain.QueueParallel, waiting.ID); !errors.Is(err, queue.ErrJobNotFound) {
		t.Errorf("removed job must be gone, got %v", err)
	}
	if err := b.Remove(ctx, domain.QueueParallel, waiting.ID); !errors.Is(err, queue.ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func testExtend(t *testing.T, b queue.Backend) {
	ctx := context.Background()
	job := NewJob(domain.QueueParallel)
	mustAdd(t, b, job)
	leased := mustLease(t, b, domain.QueueParallel)

	if err := b.Extend(ctx, domain.QueueParallel, job.ID, 2*leaseTTL); err != nil {
		t.Fatalf("extend: %v", err)
	}

	got, err := b.Get(ctx, domain.QueueParallel, job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.LeaseExpiresAt == nil || !got.LeaseExpiresAt.After(*leased.LeaseExpiresAt) {
		t.Errorf("lease was not extended: before %v, after %v", leased.LeaseExpiresAt, got.LeaseExpiresAt)
	}

	if err := b.Extend(ctx, domain.QueueParallel, "missing", leaseTTL); !errors.Is(err, queue.ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func testQueuesAreIsolated(t *testing.T, b queue.Backend) {
	ctx := context.Background()
	job := NewJob(domain.QueueSequential)
	mustAdd(t, b, job)

	if _, err := b.Lease(ctx, domain.QueueParallel, leaseTTL); !errors.Is(err, queue.ErrNoJob) {
		t.Errorf("parallel queue must be empty, got %v", err)
	}
	if _, err := b.Get(ctx, domain.QueueParallel, job.ID); !errors.Is(err, queue.ErrJobNotFound) {
		t.Errorf("job must only be visible in its own queue, got %v", err)
	}
}
