package worker

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shaiso/Courier/internal/domain"
	"github.com/shaiso/Courier/internal/faults"
)

// Диапазон серверных ошибок, полуоткрытый: [500, 600).
const (
	serverErrorStart = 500
	serverErrorEnd   = 600
)

// retriableCodes — сетевые ошибки, после которых имеет смысл повторить вызов.
var retriableCodes = []string{
	faults.CodeConnRefused,
	faults.CodeTimedOut,
	faults.CodeNotFound,
}

// ShouldRetry решает, нужна ли ещё одна попытка.
//
//   - attempts >= maxAttempts → нет
//   - 429 → да
//   - 5xx → да
//   - ECONNREFUSED / ETIMEDOUT / ENOTFOUND в коде или сообщении → да
//   - всё остальное (включая 4xx) → нет
func ShouldRetry(err faults.NormalizedError, attempts, maxAttempts int) bool {
	if attempts >= maxAttempts {
		return false
	}

	if err.Status == http.StatusTooManyRequests {
		return true
	}

	if err.Status >= serverErrorStart && err.Status < serverErrorEnd {
		return true
	}

	for _, code := range retriableCodes {
		if err.Code == code || strings.Contains(err.Message, code) {
			return true
		}
	}

	return false
}

// BackoffDelay — линейный backoff: base * attempts.
func BackoffDelay(base time.Duration, attempts int) time.Duration {
	return base * time.Duration(attempts)
}

// isRetryableStatus — ответы, которые транспорт отдаёт как Response,
// но воркер считает неудачной попыткой: 429 и 5xx.
func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests ||
		(status >= serverErrorStart && status < serverErrorEnd)
}

// responseFault превращает 429/5xx ответ в ошибку транспорта.
func responseFault(resp *domain.Response) error {
	return &faults.TransportFault{
		Message: fmt.Sprintf("Request failed with status code %d", resp.StatusCode),
		Status:  resp.StatusCode,
		Headers: resp.Headers,
		Body:    resp.Body,
	}
}
