package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/shaiso/Courier/internal/domain"
	"github.com/shaiso/Courier/internal/faults"
	"github.com/shaiso/Courier/internal/telemetry"
)

// Значения по умолчанию.
const (
	DefaultTimeout     = 10 * time.Second
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = time.Second
)

// NoRetryDelay — значение RetryDelay для повторов без паузы
// (нулевое значение означает DefaultRetryDelay).
const NoRetryDelay time.Duration = -1

// Sender доставляет payload на callback URL.
type Sender interface {
	Send(ctx context.Context, url string, payload *domain.CallbackPayload)
}

// SleepFunc ждёт d или отмены ctx.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Dispatcher — Sender поверх net/http с фиксированной задержкой между попытками.
//
// Send никогда не возвращает ошибку: исчерпание попыток только логируется.
type Dispatcher struct {
	client      *http.Client
	timeout     time.Duration
	maxAttempts int
	retryDelay  time.Duration
	sleep       SleepFunc
	logger      *slog.Logger
}

// Config — конфигурация Dispatcher. Читается один раз в New.
type Config struct {
	Client *http.Client

	// Timeout — таймаут одного вызова (default: 10s).
	Timeout time.Duration

	// MaxAttempts — максимум попыток доставки (default: 3).
	MaxAttempts int

	// RetryDelay — фиксированная пауза между попытками (default: 1s).
	// Отрицательное значение (NoRetryDelay) — повтор без паузы.
	RetryDelay time.Duration

	// Sleep — функция ожидания (для тестов).
	Sleep SleepFunc

	Logger *slog.Logger
}

// New создаёт Dispatcher.
func New(cfg Config) *Dispatcher {
	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	retryDelay := cfg.RetryDelay
	if retryDelay < 0 {
		retryDelay = 0
	} else if retryDelay == 0 {
		retryDelay = DefaultRetryDelay
	}

	sleep := cfg.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		client:      client,
		timeout:     timeout,
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
		sleep:       sleep,
		logger:      logger,
	}
}

// Send отправляет payload POST-запросом.
//
// Попытки: 1..maxAttempts, между ними ровно retryDelay.
// Не-2xx ответ считается неудачей.
func (d *Dispatcher) Send(ctx context.Context, url string, payload *domain.CallbackPayload) {
	logger := telemetry.WithTaskID(d.logger, payload.TaskID)

	body, err := json.Marshal(payload)
	if err != nil {
		logger.Error("failed to marshal callback payload", "error", err)
		telemetry.CallbackDeliveries.WithLabelValues("failed").Inc()
		return
	}

	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		err := d.post(ctx, url, body)
		if err == nil {
			logger.Info("callback delivered",
				"url", url,
				"attempt", attempt,
				"status", payload.Status,
			)
			telemetry.CallbackDeliveries.WithLabelValues("delivered").Inc()
			return
		}

		n := faults.Classify(err)
		logger.Warn("callback attempt failed",
			"url", url,
			"attempt", attempt,
			"max_attempts", d.maxAttempts,
			"status", n.Status,
			"error", n.Message,
		)

		if attempt == d.maxAttempts {
			break
		}

		if err := d.sleep(ctx, d.retryDelay); err != nil {
			logger.Warn("callback retry interrupted", "error", err)
			break
		}
	}

	logger.Error("callback delivery failed, giving up",
		"url", url,
		"max_attempts", d.maxAttempts,
	)
	telemetry.CallbackDeliveries.WithLabelValues("failed").Inc()
}

// post выполняет одну попытку доставки.
func (d *Dispatcher) post(ctx context.Context, url string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &faults.GenericFault{
			Message: fmt.Sprintf("create callback request: %v", err),
			Status:  http.StatusBadRequest,
		}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return &faults.TransportFault{Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var parsed any
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			parsed = string(respBody)
		}
		return &faults.TransportFault{
			Message: fmt.Sprintf("Request failed with status code %d", resp.StatusCode),
			Status:  resp.StatusCode,
			Body:    parsed,
		}
	}

	return nil
}

// Sleep — SleepFunc по умолчанию.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
