package redisq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	r "github.com/redis/go-redis/v9"

	"github.com/shaiso/Courier/internal/domain"
	"github.com/shaiso/Courier/internal/queue"
)

// DefaultPrefix — префикс всех ключей.
const DefaultPrefix = "courier"

// Backend — queue.Backend поверх Redis.
//
// Все ключи делят hash tag {jobs}: хэш job общий для обеих очередей
// (id уникален глобально), и Lua-скрипты видят его вместе с индексами
// любой очереди на одном слоте кластера.
type Backend struct {
	rdb    *r.Client
	prefix string
	now    func() time.Time
}

var _ queue.Backend = (*Backend)(nil)

// Config — конфигурация Backend.
type Config struct {
	// Client — клиент Redis (обязательно; закрывается вызывающим).
	Client *r.Client

	// Prefix — префикс ключей (default: "courier").
	Prefix string

	// Now — часы (для тестов).
	Now func() time.Time
}

// New создаёт Backend.
func New(cfg Config) *Backend {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Backend{
		rdb:    cfg.Client,
		prefix: prefix,
		now:    now,
	}
}

// hashTag — общий hash tag всех ключей.
const hashTag = "{jobs}"

// keys возвращает ключи очереди в порядке, ожидаемом скриптами.
func (b *Backend) keys(q domain.QueueName) []string {
	base := fmt.Sprintf("%s:%s:%s:", b.prefix, hashTag, q)
	return []string{
		base + "seq",
		base + "waiting",
		base + "active",
		base + "completed",
		base + "failed",
	}
}

func (b *Backend) jobPrefix() string {
	return fmt.Sprintf("%s:%s:job:", b.prefix, hashTag)
}

func (b *Backend) nowMs() int64 {
	return b.now().UnixMilli()
}

func (b *Backend) Add(ctx context.Context, job *domain.Job) (bool, error) {
	taskJSON, err := json.Marshal(job.Task)
	if err != nil {
		return false, fmt.Errorf("marshal task: %w", err)
	}

	res, err := addScript.Run(ctx, b.rdb, b.keys(job.Queue),
		b.jobPrefix(), job.ID, taskJSON, job.CreatedAt.UnixMilli(), string(job.Queue),
	).Int64()
	if err != nil {
		return false, fmt.Errorf("add job: %w", err)
	}
	return res == 1, nil
}

func (b *Backend) Lease(ctx context.Context, q domain.QueueName, ttl time.Duration) (*domain.Job, error) {
	exclusive := "0"
	if q.IsExclusive() {
		exclusive = "1"
	}

	id, err := leaseScript.Run(ctx, b.rdb, b.keys(q),
		b.jobPrefix(), b.nowMs(), ttl.Milliseconds(), exclusive,
	).Text()
	if errors.Is(err, r.Nil) {
		return nil, queue.ErrNoJob
	}
	if err != nil {
		return nil, fmt.Errorf("lease job: %w", err)
	}

	return b.Get(ctx, q, id)
}

func (b *Backend) Extend(ctx context.Context, q domain.QueueName, id string, ttl time.Duration) error {
	res, err := extendScript.Run(ctx, b.rdb, b.keys(q),
		b.jobPrefix(), id, b.nowMs(), ttl.Milliseconds(), string(q),
	).Int64()
	if err != nil {
		return fmt.Errorf("extend lease: %w", err)
	}
	return scriptResult(res, queue.ErrLeaseLost)
}

func (b *Backend) Complete(ctx context.Context, q domain.QueueName, id string, attempts int) error {
	return b.finish(ctx, q, id, domain.JobStatusCompleted, attempts, "")
}

func (b *Backend) Fail(ctx context.Context, q domain.QueueName, id string, attempts int, reason string) error {
	return b.finish(ctx, q, id, domain.JobStatusFailed, attempts, reason)
}

func (b *Backend) finish(ctx context.Context, q domain.QueueName, id string, status domain.JobStatus, attempts int, reason string) error {
	res, err := finishScript.Run(ctx, b.rdb, b.keys(q),
		b.jobPrefix(), id, string(status), attempts, reason, b.nowMs(), string(q),
	).Int64()
	if err != nil {
		return fmt.Errorf("mark job %s: %w", status, err)
	}
	return scriptResult(res, queue.ErrLeaseLost)
}

func (b *Backend) Clean(ctx context.Context, q domain.QueueName, status domain.JobStatus) (int, error) {
	index, err := b.indexKey(q, status)
	if err != nil {
		return 0, err
	}

	n, err := cleanScript.Run(ctx, b.rdb, []string{index}, b.jobPrefix()).Int()
	if err != nil {
		return 0, fmt.Errorf("clean %s jobs: %w", status, err)
	}
	return n, nil
}

func (b *Backend) Get(ctx context.Context, q domain.QueueName, id string) (*domain.Job, error) {
	fields, err := b.rdb.HGetAll(ctx, b.jobPrefix()+id).Result()
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	if len(fields) == 0 || fields["queue"] != string(q) {
		return nil, queue.ErrJobNotFound
	}
	return parseJob(q, fields)
}

func (b *Backend) Remove(ctx context.Context, q domain.QueueName, id string) error {
	res, err := removeScript.Run(ctx, b.rdb, b.keys(q),
		b.jobPrefix(), id, b.nowMs(), string(q),
	).Int64()
	if err != nil {
		return fmt.Errorf("remove job: %w", err)
	}
	return scriptResult(res, queue.ErrJobActive)
}

// Close ничего не делает: клиент принадлежит вызывающему.
func (b *Backend) Close() error {
	return nil
}

func (b *Backend) indexKey(q domain.QueueName, status domain.JobStatus) (string, error) {
	keys := b.keys(q)
	switch status {
	case domain.JobStatusWaiting:
		return keys[1], nil
	case domain.JobStatusActive:
		return keys[2], nil
	case domain.JobStatusCompleted:
		return keys[3], nil
	case domain.JobStatusFailed:
		return keys[4], nil
	default:
		return "", fmt.Errorf("unknown job status %q", status)
	}
}

// scriptResult переводит код ответа скрипта в ошибку.
func scriptResult(res int64, wrongState error) error {
	switch res {
	case -1:
		return queue.ErrJobNotFound
	case -2:
		return wrongState
	default:
		return nil
	}
}

// parseJob собирает domain.Job из полей хэша.
func parseJob(q domain.QueueName, fields map[string]string) (*domain.Job, error) {
	job := &domain.Job{
		ID:           fields["id"],
		Queue:        q,
		Status:       domain.JobStatus(fields["status"]),
		FailedReason: fields["failed_reason"],
	}

	if err := json.Unmarshal([]byte(fields["task"]), &job.Task); err != nil {
		return nil, fmt.Errorf("unmarshal task: %w", err)
	}

	if v := fields["attempts"]; v != "" {
		attempts, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parse attempts: %w", err)
		}
		job.Attempts = attempts
	}

	if t := msTime(fields["created_at"]); t != nil {
		job.CreatedAt = *t
	}
	job.ProcessedAt = msTime(fields["processed_at"])
	job.FinishedAt = msTime(fields["finished_at"])
	job.LeaseExpiresAt = msTime(fields["lease_expires_at"])

	return job, nil
}

func msTime(v string) *time.Time {
	if v == "" {
		return nil
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil
	}
	t := time.UnixMilli(ms).UTC()
	return &t
}
