package api

import (
	"context"
	"log/slog"

	"github.com/shaiso/Courier/internal/domain"
	"github.com/shaiso/Courier/internal/tasks"
)

// TaskService — операции фасада, которые обслуживает API.
type TaskService interface {
	CreateTask(ctx context.Context, in tasks.CreateTaskInput) (*tasks.CreateTaskResult, error)
	DeleteTask(ctx context.Context, jobID string) (*domain.OperationResult, error)
	ClearQueue(ctx context.Context) domain.OperationResult
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	tasks  TaskService
	logger *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Tasks  TaskService
	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		tasks:  cfg.Tasks,
		logger: logger,
	}
}
