package janitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shaiso/Courier/internal/domain"
)

// cronParser — парсер cron-выражений.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Cleaner — очистка очередей по статусам. Реализуется *worker.Service.
type Cleaner interface {
	ClearQueue(ctx context.Context, statuses []domain.JobStatus) domain.OperationResult
}

// Janitor — периодическая очистка очередей.
type Janitor struct {
	cleaner  Cleaner
	schedule cron.Schedule
	statuses []domain.JobStatus
	now      func() time.Time
	logger   *slog.Logger
}

// Config — конфигурация Janitor.
type Config struct {
	Cleaner Cleaner

	// Schedule — cron-выражение, например "0 * * * *".
	Schedule string

	// Statuses — что очищать (default: completed, failed).
	Statuses []domain.JobStatus

	Now    func() time.Time
	Logger *slog.Logger
}

// New создаёт Janitor. Невалидное расписание — ошибка.
func New(cfg Config) (*Janitor, error) {
	schedule, err := cronParser.Parse(cfg.Schedule)
	if err != nil {
		return nil, fmt.Errorf("parse cron expression %q: %w", cfg.Schedule, err)
	}

	statuses := cfg.Statuses
	if len(statuses) == 0 {
		statuses = []domain.JobStatus{domain.JobStatusCompleted, domain.JobStatusFailed}
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Janitor{
		cleaner:  cfg.Cleaner,
		schedule: schedule,
		statuses: statuses,
		now:      now,
		logger:   logger.With("component", "janitor"),
	}, nil
}

// NextRun возвращает время следующего тика после from (в UTC).
func (j *Janitor) NextRun(from time.Time) time.Time {
	return j.schedule.Next(from.UTC())
}

// Tick выполняет одну очистку.
func (j *Janitor) Tick(ctx context.Context) domain.OperationResult {
	start := j.now()
	result := j.cleaner.ClearQueue(ctx, j.statuses)

	if !result.Success {
		j.logger.Error("scheduled cleanup failed", "error", result.Error)
		return result
	}

	j.logger.Info("scheduled cleanup completed",
		"statuses", j.statuses,
		"duration", j.now().Sub(start),
	)
	return result
}

// Run выполняет тики по расписанию до отмены ctx.
func (j *Janitor) Run(ctx context.Context) error {
	j.logger.Info("janitor started")

	for {
		next := j.NextRun(j.now())
		j.logger.Debug("next cleanup scheduled", "at", next)

		timer := time.NewTimer(next.Sub(j.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			j.logger.Info("janitor stopped")
			return ctx.Err()
		case <-timer.C:
			j.Tick(ctx)
		}
	}
}
