package worker

import (
	"context"
	"errors"

	"github.com/shaiso/Courier/internal/domain"
	"github.com/shaiso/Courier/internal/faults"
	"github.com/shaiso/Courier/internal/queue"
	"github.com/shaiso/Courier/internal/telemetry"
)

// timestampLayout — ISO 8601 с миллисекундами, UTC.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// outcome — итог обработки task.
type outcome struct {
	response *domain.Response
	err      *faults.NormalizedError
	attempts int

	// interrupted — обработка прервана остановкой сервиса,
	// job остаётся ACTIVE и будет взят снова после истечения lease.
	interrupted bool
}

// processJob — JobHandler пулов: выполнение, callback, ack.
func (s *Service) processJob(ctx context.Context, job *domain.Job) {
	logger := telemetry.WithQueue(telemetry.WithTaskID(s.logger, job.ID), string(job.Queue))
	start := s.now()

	logger.Info("job started", "method", job.Task.Method, "url", job.Task.URL)

	res := s.processTask(ctx, &job.Task)
	if res.interrupted {
		logger.Warn("job interrupted by shutdown, lease will expire", "attempts", res.attempts)
		return
	}

	elapsed := s.now().Sub(start)
	telemetry.TaskDuration.WithLabelValues(string(job.Queue)).Observe(elapsed.Seconds())

	if res.err == nil {
		s.handleSuccess(ctx, job, res, elapsed.Milliseconds())
		return
	}
	s.handleFailure(ctx, job, res, elapsed.Milliseconds())
}

// processTask выполняет попытки, пока вызов не удастся
// или ShouldRetry не запретит следующую попытку.
func (s *Service) processTask(ctx context.Context, task *domain.Task) outcome {
	maxAttempts := task.EffectiveMaxRetries(s.maxRetries)
	baseDelay := task.EffectiveRetryDelay(s.retryDelay)
	queueLabel := string(task.QueueName())
	logger := telemetry.WithTaskID(s.logger, task.ID)

	for attempts := 1; ; attempts++ {
		resp, err := s.executor.Execute(ctx, task)
		if err == nil && isRetryableStatus(resp.StatusCode) {
			err = responseFault(resp)
		}

		if err == nil {
			telemetry.TaskAttempts.WithLabelValues(queueLabel, "success").Inc()
			return outcome{response: resp, attempts: attempts}
		}

		if ctx.Err() != nil {
			return outcome{attempts: attempts, interrupted: true}
		}

		telemetry.TaskAttempts.WithLabelValues(queueLabel, "failure").Inc()
		n := faults.Classify(err)

		if !ShouldRetry(n, attempts, maxAttempts) {
			return outcome{err: &n, attempts: attempts}
		}

		delay := BackoffDelay(baseDelay, attempts)
		logger.Warn("attempt failed, retrying",
			"attempt", attempts,
			"max_attempts", maxAttempts,
			"status", n.Status,
			"error", n.Message,
			"delay", delay,
		)

		if err := s.sleep(ctx, delay); err != nil {
			return outcome{attempts: attempts, interrupted: true}
		}
	}
}

// handleSuccess отправляет success callback и помечает job COMPLETED.
func (s *Service) handleSuccess(ctx context.Context, job *domain.Job, res outcome, executionTime int64) {
	s.callback.Send(ctx, job.Task.CallbackURL, &domain.CallbackPayload{
		TaskID:        job.ID,
		Status:        domain.CallbackStatusCompleted,
		Attempts:      res.attempts,
		ExecutionTime: executionTime,
		Timestamp:     s.now().UTC().Format(timestampLayout),
		Response:      res.response,
	})

	s.ack(ctx, job, domain.JobStatusCompleted, res.attempts, "")
}

// handleFailure отправляет failure callback и помечает job FAILED.
func (s *Service) handleFailure(ctx context.Context, job *domain.Job, res outcome, executionTime int64) {
	message := res.err.Message
	if message == "" {
		message = faults.UnknownErrorMessage
	}

	s.callback.Send(ctx, job.Task.CallbackURL, &domain.CallbackPayload{
		TaskID:        job.ID,
		Status:        domain.CallbackStatusFailed,
		Attempts:      res.attempts,
		ExecutionTime: executionTime,
		Timestamp:     s.now().UTC().Format(timestampLayout),
		Error: &domain.CallbackError{
			Message: message,
			Status:  res.err.Status,
		},
	})

	s.ack(ctx, job, domain.JobStatusFailed, res.attempts, message)
}

// ack фиксирует терминальный статус в backend.
func (s *Service) ack(ctx context.Context, job *domain.Job, status domain.JobStatus, attempts int, reason string) {
	logger := telemetry.WithQueue(telemetry.WithTaskID(s.logger, job.ID), string(job.Queue))

	var err error
	if status == domain.JobStatusCompleted {
		err = s.backend.Complete(ctx, job.Queue, job.ID, attempts)
	} else {
		err = s.backend.Fail(ctx, job.Queue, job.ID, attempts, reason)
	}

	if err != nil {
		if errors.Is(err, queue.ErrJobNotFound) || errors.Is(err, queue.ErrLeaseLost) {
			logger.Warn("job state changed while processing", "status", status, "error", err)
		} else {
			logger.Error("failed to record job outcome", "status", status, "error", err)
		}
		return
	}

	telemetry.TasksFinished.WithLabelValues(string(job.Queue), string(status)).Inc()
	if status == domain.JobStatusCompleted {
		logger.Info("job completed", "attempts", attempts)
	} else {
		logger.Error("job failed", "attempts", attempts, "error", reason)
	}
}
