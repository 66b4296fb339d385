package worker

import "errors"

// Ошибки воркера.
var (
	// ErrServiceClosed — сервис закрыт, новые task не принимаются.
	ErrServiceClosed = errors.New("worker service closed")

	// ErrAlreadyStarted — Start вызван повторно.
	ErrAlreadyStarted = errors.New("worker service already started")

	// ErrEnqueue — не удалось поставить task в очередь.
	ErrEnqueue = errors.New("failed to enqueue task")
)
