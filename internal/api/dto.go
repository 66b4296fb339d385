package api

import "github.com/shaiso/Courier/internal/tasks"

// CreateTaskRequest — тело POST /api/tasks.
type CreateTaskRequest = tasks.CreateTaskInput

// CreateTaskResponse — ответ 201 на создание task.
type CreateTaskResponse = tasks.CreateTaskResult

// FailureResponse — ответ 500 с текстом ошибки.
type FailureResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// NotFoundResponse — ответ 404 на удаление отсутствующей task.
type NotFoundResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// HealthResponse — ответ /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}
