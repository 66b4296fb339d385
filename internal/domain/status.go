package domain

// QueueName — имя одной из двух durable-очередей.
type QueueName string

const (
	// QueueParallel — очередь с ограниченной параллельностью, без гарантий порядка.
	QueueParallel QueueName = "parallel"

	// QueueSequential — очередь с параллельностью 1, строгий FIFO.
	QueueSequential QueueName = "sequential"
)

// Queues — все очереди в порядке поиска job (сначала sequential).
var Queues = []QueueName{QueueSequential, QueueParallel}

// IsExclusive возвращает true для очереди, где одновременно может
// выполняться только один job.
func (q QueueName) IsExclusive() bool {
	return q == QueueSequential
}

// JobStatus — статус job в durable-очереди.
//
// Жизненный цикл:
//
//	WAITING → ACTIVE → COMPLETED
//	                 ↘ FAILED
//	(ACTIVE с истёкшим lease снова доступен для lease)
type JobStatus string

const (
	// JobStatusWaiting — job ждёт lease.
	JobStatusWaiting JobStatus = "waiting"

	// JobStatusActive — job взят воркером.
	JobStatusActive JobStatus = "active"

	// JobStatusCompleted — task выполнена успешно.
	JobStatusCompleted JobStatus = "completed"

	// JobStatusFailed — task завершилась ошибкой (после всех retry).
	JobStatusFailed JobStatus = "failed"
)

// IsTerminal возвращает true, если статус финальный.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed:
		return true
	default:
		return false
	}
}

// ParseJobStatus парсит строку в JobStatus. ok=false для неизвестных значений.
func ParseJobStatus(s string) (JobStatus, bool) {
	switch JobStatus(s) {
	case JobStatusWaiting, JobStatusActive, JobStatusCompleted, JobStatusFailed:
		return JobStatus(s), true
	default:
		return "", false
	}
}
