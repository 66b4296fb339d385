package domain

import "time"

// Job — единица durable-очереди: Task плюс состояние lease и попыток.
type Job struct {
	// ID совпадает с Task.ID.
	ID string `json:"id"`

	// Queue — очередь, в которой находится job.
	Queue QueueName `json:"queue"`

	// Task — данные задачи.
	Task Task `json:"task"`

	// Status — текущий статус job.
	Status JobStatus `json:"status"`

	// Attempts — число выполненных попыток (записывается при ack).
	Attempts int `json:"attempts"`

	// FailedReason — сообщение об ошибке для FAILED.
	FailedReason string `json:"failedReason,omitempty"`

	// CreatedAt — время постановки в очередь.
	CreatedAt time.Time `json:"createdAt"`

	// ProcessedAt — время последнего lease.
	ProcessedAt *time.Time `json:"processedAt,omitempty"`

	// FinishedAt — время перехода в финальный статус.
	FinishedAt *time.Time `json:"finishedAt,omitempty"`

	// LeaseExpiresAt — момент, после которого ACTIVE job снова можно взять.
	LeaseExpiresAt *time.Time `json:"leaseExpiresAt,omitempty"`
}

// IsFinished возвращает true, если job в финальном статусе.
func (j *Job) IsFinished() bool {
	return j.Status.IsTerminal()
}

// LeaseExpired проверяет, истёк ли lease активного job.
func (j *Job) LeaseExpired(now time.Time) bool {
	return j.Status == JobStatusActive && j.LeaseExpiresAt != nil && !now.Before(*j.LeaseExpiresAt)
}

// NewJob создаёт WAITING job для task.
func NewJob(task Task, now time.Time) *Job {
	return &Job{
		ID:        task.ID,
		Queue:     task.QueueName(),
		Task:      task,
		Status:    JobStatusWaiting,
		CreatedAt: now,
	}
}
