package queue

import (
	"context"
	"sync"
	"time"

	"github.com/shaiso/Courier/internal/domain"
)

// Memory — Backend в памяти процесса.
//
// Порядок lease — порядок Add. Не переживает рестарт.
type Memory struct {
	mu     sync.Mutex
	queues map[domain.QueueName][]*domain.Job
	now    func() time.Time
	closed bool
}

// NewMemory создаёт пустой Memory backend.
func NewMemory() *Memory {
	return NewMemoryWithClock(time.Now)
}

// NewMemoryWithClock создаёт Memory backend с заданными часами.
func NewMemoryWithClock(now func() time.Time) *Memory {
	return &Memory{
		queues: make(map[domain.QueueName][]*domain.Job),
		now:    now,
	}
}

func (m *Memory) Add(_ context.Context, job *domain.Job) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false, ErrClosed
	}

	// id уникален во всех очередях, а не только в своей.
	for _, q := range domain.Queues {
		if _, ok := m.find(q, job.ID); ok {
			return false, nil
		}
	}

	stored := *job
	if stored.Status == "" {
		stored.Status = domain.JobStatusWaiting
	}
	m.queues[job.Queue] = append(m.queues[job.Queue], &stored)
	return true, nil
}

func (m *Memory) Lease(_ context.Context, queue domain.QueueName, ttl time.Duration) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	now := m.now()

	if queue.IsExclusive() {
		for _, j := range m.queues[queue] {
			if j.Status == domain.JobStatusActive && !j.LeaseExpired(now) {
				return nil, ErrNoJob
			}
		}
	}

	for _, j := range m.queues[queue] {
		if j.Status != domain.JobStatusWaiting && !j.LeaseExpired(now) {
			continue
		}

		expires := now.Add(ttl)
		j.Status = domain.JobStatusActive
		j.ProcessedAt = &now
		j.LeaseExpiresAt = &expires

		leased := *j
		return &leased, nil
	}

	return nil, ErrNoJob
}

func (m *Memory) Extend(_ context.Context, queue domain.QueueName, id string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, err := m.active(queue, id)
	if err != nil {
		return err
	}

	expires := m.now().Add(ttl)
	j.LeaseExpiresAt = &expires
	return nil
}

func (m *Memory) Complete(_ context.Context, queue domain.QueueName, id string, attempts int) error {
	return m.finish(queue, id, domain.JobStatusCompleted, attempts, "")
}

func (m *Memory) Fail(_ context.Context, queue domain.QueueName, id string, attempts int, reason string) error {
	return m.finish(queue, id, domain.JobStatusFailed, attempts, reason)
}

func (m *Memory) finish(queue domain.QueueName, id string, status domain.JobStatus, attempts int, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, err := m.active(queue, id)
	if err != nil {
		return err
	}

	now := m.now()
	j.Status = status
	j.Attempts = attempts
	j.FailedReason = reason
	j.FinishedAt = &now
	j.LeaseExpiresAt = nil
	return nil
}

func (m *Memory) Clean(_ context.Context, queue domain.QueueName, status domain.JobStatus) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrClosed
	}

	jobs := m.queues[queue]
	kept := jobs[:0]
	removed := 0
	for _, j := range jobs {
		if j.Status == status {
			removed++
			continue
		}
		kept = append(kept, j)
	}
	m.queues[queue] = kept
	return removed, nil
}

func (m *Memory) Get(_ context.Context, queue domain.QueueName, id string) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx, ok := m.find(queue, id)
	if !ok {
		return nil, ErrJobNotFound
	}

	job := *m.queues[queue][idx]
	return &job, nil
}

func (m *Memory) Remove(_ context.Context, queue domain.QueueName, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx, ok := m.find(queue, id)
	if !ok {
		return ErrJobNotFound
	}

	jobs := m.queues[queue]
	if j := jobs[idx]; j.Status == domain.JobStatusActive && !j.LeaseExpired(m.now()) {
		return ErrJobActive
	}

	m.queues[queue] = append(jobs[:idx], jobs[idx+1:]...)
	return nil
}

// Close помечает backend закрытым. Данные остаются доступны для Get.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *Memory) find(queue domain.QueueName, id string) (int, bool) {
	for i, j := range m.queues[queue] {
		if j.ID == id {
			return i, true
		}
	}
	return -1, false
}

func (m *Memory) active(queue domain.QueueName, id string) (*domain.Job, error) {
	idx, ok := m.find(queue, id)
	if !ok {
		return nil, ErrJobNotFound
	}

	j := m.queues[queue][idx]
	if j.Status != domain.JobStatusActive {
		return nil, ErrLeaseLost
	}
	return j, nil
}
