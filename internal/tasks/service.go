package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Courier/internal/domain"
	"github.com/shaiso/Courier/internal/telemetry"
)

// StatusQueued — статус, возвращаемый при успешном приёме task.
const StatusQueued = "queued"

// Queue — операции очереди, нужные фасаду. Реализуется *worker.Service.
type Queue interface {
	AddTask(ctx context.Context, task *domain.Task) (*domain.Job, error)
	GetJob(ctx context.Context, jobID string) *domain.Job
	RemoveJob(ctx context.Context, job *domain.Job) domain.OperationResult
	ClearQueue(ctx context.Context, statuses []domain.JobStatus) domain.OperationResult
}

// CreateTaskResult — ответ на создание task.
type CreateTaskResult struct {
	TaskID    string    `json:"taskId"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Service — фасад приёма task.
type Service struct {
	queue  Queue
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

// Config — конфигурация Service.
type Config struct {
	Queue Queue

	// Now — источник времени (опционально, для тестов).
	Now func() time.Time

	// NewID — генератор ID task (опционально; по умолчанию UUID v4).
	NewID func() string

	Logger *slog.Logger
}

// New создаёт Service.
func New(cfg Config) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	newID := cfg.NewID
	if newID == nil {
		newID = func() string { return uuid.NewString() }
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		queue:  cfg.Queue,
		now:    now,
		newID:  newID,
		logger: logger,
	}
}

// CreateTask валидирует вход, присваивает ID и ставит task в очередь.
//
// Ошибки: *ValidationError при некорректном входе,
// ошибка очереди, если task не удалось поставить.
func (s *Service) CreateTask(ctx context.Context, in CreateTaskInput) (*CreateTaskResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	task := in.toTask()
	task.ID = s.newID()
	task.CreatedAt = s.now().UTC()

	if _, err := s.queue.AddTask(ctx, &task); err != nil {
		telemetry.WithTaskID(s.logger, task.ID).Error("failed to create task", "error", err)
		return nil, fmt.Errorf("create task: %w", err)
	}

	return &CreateTaskResult{
		TaskID:    task.ID,
		Status:    StatusQueued,
		CreatedAt: task.CreatedAt,
	}, nil
}

// DeleteTask удаляет job из очереди, в которой он находится.
// Если job не найден ни в одной очереди — ErrTaskNotFound.
func (s *Service) DeleteTask(ctx context.Context, jobID string) (*domain.OperationResult, error) {
	job := s.queue.GetJob(ctx, jobID)
	if job == nil {
		return nil, fmt.Errorf("%w: id=%s", ErrTaskNotFound, jobID)
	}

	result := s.queue.RemoveJob(ctx, job)
	return &result, nil
}

// ClearQueue удаляет завершённые и упавшие job из обеих очередей.
func (s *Service) ClearQueue(ctx context.Context) domain.OperationResult {
	return s.queue.ClearQueue(ctx, []domain.JobStatus{domain.JobStatusCompleted, domain.JobStatusFailed})
}
