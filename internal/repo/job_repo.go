package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Courier/internal/domain"
	"github.com/shaiso/Courier/internal/queue"
)

// JobRepo — queue.Backend поверх Postgres.
//
// Lease использует FOR UPDATE SKIP LOCKED, поэтому несколько воркеров
// могут брать job из одной таблицы. Для эксклюзивной очереди Lease
// дополнительно берёт pg_advisory_xact_lock по имени очереди.
type JobRepo struct {
	pool *pgxpool.Pool
}

var _ queue.Backend = (*JobRepo)(nil)

// NewJobRepo создаёт новый JobRepo.
func NewJobRepo(pool *pgxpool.Pool) *JobRepo {
	return &JobRepo{pool: pool}
}

const jobColumns = `id, queue, task, status, attempts, failed_reason,
	created_at, processed_at, finished_at, lease_expires_at`

// Add вставляет job. id уникален во всех очередях: конфликт по id — no-op.
func (r *JobRepo) Add(ctx context.Context, job *domain.Job) (bool, error) {
	taskJSON, err := json.Marshal(job.Task)
	if err != nil {
		return false, fmt.Errorf("marshal task: %w", err)
	}

	query := `
		INSERT INTO jobs (id, queue, task, status, created_at)
		VALUES ($1, $2, $3, 'waiting', $4)
		ON CONFLICT (id) DO NOTHING
	`
	tag, err := r.pool.Exec(ctx, query, job.ID, job.Queue, taskJSON, job.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("insert job: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Lease берёт самый старый доступный job.
func (r *JobRepo) Lease(ctx context.Context, q domain.QueueName, ttl time.Duration) (*domain.Job, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if q.IsExclusive() {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "courier.lease."+string(q)); err != nil {
			return nil, fmt.Errorf("lock queue %s: %w", q, err)
		}

		var busy bool
		err := tx.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM jobs
				WHERE queue = $1 AND status = 'active' AND lease_expires_at > now()
			)
		`, q).Scan(&busy)
		if err != nil {
			return nil, fmt.Errorf("check active job: %w", err)
		}
		if busy {
			return nil, queue.ErrNoJob
		}
	}

	query := `
		UPDATE jobs
		SET status = 'active',
		    processed_at = now(),
		    lease_expires_at = now() + make_interval(secs => $2)
		WHERE (queue, id) = (
			SELECT queue, id FROM jobs
			WHERE queue = $1
			  AND (status = 'waiting' OR (status = 'active' AND lease_expires_at <= now()))
			ORDER BY seq ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + jobColumns

	job, err := scanJob(tx.QueryRow(ctx, query, q, ttl.Seconds()))
	if err != nil {
		return nil, mapNoRows(err, queue.ErrNoJob)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit lease: %w", err)
	}
	return job, nil
}

// Extend продлевает lease активного job.
func (r *JobRepo) Extend(ctx context.Context, q domain.QueueName, id string, ttl time.Duration) error {
	query := `
		UPDATE jobs
		SET lease_expires_at = now() + make_interval(secs => $3)
		WHERE queue = $1 AND id = $2 AND status = 'active'
	`
	tag, err := r.pool.Exec(ctx, query, q, id, ttl.Seconds())
	if err != nil {
		return fmt.Errorf("extend lease: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.missingOr(ctx, q, id, queue.ErrLeaseLost)
	}
	return nil
}

// Complete переводит job в COMPLETED.
func (r *JobRepo) Complete(ctx context.Context, q domain.QueueName, id string, attempts int) error {
	return r.finish(ctx, q, id, domain.JobStatusCompleted, attempts, nil)
}

// Fail переводит job в FAILED.
func (r *JobRepo) Fail(ctx context.Context, q domain.QueueName, id string, attempts int, reason string) error {
	return r.finish(ctx, q, id, domain.JobStatusFailed, attempts, &reason)
}

func (r *JobRepo) finish(ctx context.Context, q domain.QueueName, id string, status domain.JobStatus, attempts int, reason *string) error {
	query := `
		UPDATE jobs
		SET status = $3, attempts = $4, failed_reason = $5,
		    finished_at = now(), lease_expires_at = NULL
		WHERE queue = $1 AND id = $2 AND status = 'active'
	`
	tag, err := r.pool.Exec(ctx, query, q, id, status, attempts, reason)
	if err != nil {
		return fmt.Errorf("mark job %s: %w", status, err)
	}
	if tag.RowsAffected() == 0 {
		return r.missingOr(ctx, q, id, queue.ErrLeaseLost)
	}
	return nil
}

// Clean удаляет все job с данным статусом.
func (r *JobRepo) Clean(ctx context.Context, q domain.QueueName, status domain.JobStatus) (int, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM jobs WHERE queue = $1 AND status = $2`, q, status)
	if err != nil {
		return 0, fmt.Errorf("clean %s jobs: %w", status, err)
	}
	return int(tag.RowsAffected()), nil
}

// Get возвращает job по ID.
func (r *JobRepo) Get(ctx context.Context, q domain.QueueName, id string) (*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE queue = $1 AND id = $2`

	job, err := scanJob(r.pool.QueryRow(ctx, query, q, id))
	if err != nil {
		return nil, mapNoRows(err, queue.ErrJobNotFound)
	}
	return job, nil
}

// Remove удаляет job, если он не обрабатывается.
func (r *JobRepo) Remove(ctx context.Context, q domain.QueueName, id string) error {
	query := `
		DELETE FROM jobs
		WHERE queue = $1 AND id = $2
		  AND NOT (status = 'active' AND lease_expires_at > now())
	`
	tag, err := r.pool.Exec(ctx, query, q, id)
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.missingOr(ctx, q, id, queue.ErrJobActive)
	}
	return nil
}

// Close ничего не делает: пул принадлежит вызывающему.
func (r *JobRepo) Close() error {
	return nil
}

// missingOr возвращает ErrJobNotFound, если job нет, иначе err.
func (r *JobRepo) missingOr(ctx context.Context, q domain.QueueName, id string, err error) error {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM jobs WHERE queue = $1 AND id = $2)`
	if qerr := r.pool.QueryRow(ctx, query, q, id).Scan(&exists); qerr != nil {
		return fmt.Errorf("check job: %w", qerr)
	}
	if !exists {
		return queue.ErrJobNotFound
	}
	return err
}

// scanJob сканирует строку в domain.Job.
func scanJob(row pgx.Row) (*domain.Job, error) {
	var (
		job          domain.Job
		taskJSON     []byte
		failedReason *string
	)

	err := row.Scan(
		&job.ID,
		&job.Queue,
		&taskJSON,
		&job.Status,
		&job.Attempts,
		&failedReason,
		&job.CreatedAt,
		&job.ProcessedAt,
		&job.FinishedAt,
		&job.LeaseExpiresAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(taskJSON, &job.Task); err != nil {
		return nil, fmt.Errorf("unmarshal task: %w", err)
	}
	if failedReason != nil {
		job.FailedReason = *failedReason
	}

	return &job, nil
}
