package executor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shaiso/Courier/internal/domain"
	"github.com/shaiso/Courier/internal/faults"
)

// DefaultTimeout — таймаут вызова, если не задан ни в task, ни в конфигурации.
const DefaultTimeout = 30 * time.Second

// Executor выполняет один исходящий HTTP-вызов для task.
//
// Ошибки: *faults.TransportFault (4xx кроме 429, терминальная),
// *faults.GenericFault (таймаут, сбой запроса, неподдерживаемый метод).
type Executor interface {
	Execute(ctx context.Context, task *domain.Task) (*domain.Response, error)
}

// HTTPExecutor — Executor поверх net/http.
//
// Не считает не-2xx ответы ошибкой транспорта: 2xx, 3xx, 429 и 5xx
// возвращаются как обычный Response, решение о retry принимает воркер.
type HTTPExecutor struct {
	client         *http.Client
	defaultTimeout time.Duration
	logger         *slog.Logger
}

// Config — конфигурация HTTPExecutor.
type Config struct {
	// Client — HTTP-клиент (опционально; по умолчанию новый http.Client).
	Client *http.Client

	// DefaultTimeout — таймаут, если у task не задан свой (default: 30s).
	DefaultTimeout time.Duration

	Logger *slog.Logger
}

// New создаёт HTTPExecutor.
func New(cfg Config) *HTTPExecutor {
	client := cfg.Client
	if client == nil {
		client = &http.Client{
			// Редиректы не выполняем: 3xx отдаём вызывающему как есть.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}

	timeout := cfg.DefaultTimeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &HTTPExecutor{
		client:         client,
		defaultTimeout: timeout,
		logger:         logger,
	}
}

// Execute выполняет ровно один HTTP-вызов.
func (e *HTTPExecutor) Execute(ctx context.Context, task *domain.Task) (*domain.Response, error) {
	method := strings.ToUpper(task.Method)
	if !domain.IsSupportedMethod(method) {
		return nil, &faults.GenericFault{
			Message: fmt.Sprintf("Unsupported HTTP method: %s", task.Method),
			Status:  http.StatusMethodNotAllowed,
			Err:     ErrUnsupportedMethod,
		}
	}

	target, err := BuildURL(task.URL, task.QueryParams)
	if err != nil {
		return nil, &faults.GenericFault{
			Message: fmt.Sprintf("invalid url %q: %v", task.URL, err),
			Status:  http.StatusBadRequest,
			Err:     ErrInvalidURL,
		}
	}

	timeout := task.EffectiveTimeout(e.defaultTimeout)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var bodyReader io.Reader
	if hasBody(method, task.Body) {
		bodyReader = bytes.NewReader(task.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, &faults.GenericFault{
			Message: fmt.Sprintf("create request: %v", err),
			Err:     ErrRequestFailed,
		}
	}

	for key, val := range task.Headers {
		req.Header.Set(key, val)
	}
	if bodyReader != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, e.networkFault(task, transportFault(err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, e.networkFault(task, transportFault(err))
	}

	response := &domain.Response{
		StatusCode: resp.StatusCode,
		Headers:    normalizeHeaders(resp.Header),
		Body:       parseBody(respBody),
	}

	if IsClientError(resp.StatusCode) {
		return nil, &faults.TransportFault{
			Message: fmt.Sprintf("Request failed with status code %d", resp.StatusCode),
			Status:  resp.StatusCode,
			Headers: response.Headers,
			Body:    response.Body,
		}
	}

	return response, nil
}

// networkFault классифицирует сетевую ошибку и превращает её
// в "request timed out" или "request failed".
func (e *HTTPExecutor) networkFault(task *domain.Task, fault *faults.TransportFault) error {
	n := faults.Classify(fault)

	e.logger.Debug("outbound request failed",
		"task_id", task.ID,
		"url", task.URL,
		"code", n.Code,
		"error", n.Message,
	)

	if n.Status == http.StatusRequestTimeout || n.Code == faults.CodeTimedOut {
		return &faults.GenericFault{
			Message: RequestTimeoutMessage,
			Code:    faults.CodeTimedOut,
			Err:     ErrRequestTimeout,
		}
	}

	msg := n.Message
	if msg == "" {
		msg = RequestFailedMessage
	}
	if n.Code != "" && !strings.Contains(msg, n.Code) {
		msg = n.Code + ": " + msg
	}

	return &faults.GenericFault{
		Message: msg,
		Code:    n.Code,
		Err:     ErrRequestFailed,
	}
}

// IsClientError — терминальная клиентская ошибка: 4xx, кроме 429.
// Диапазон полуоткрытый: [400, 500).
func IsClientError(status int) bool {
	return status >= clientErrorStart && status < clientErrorEnd && status != http.StatusTooManyRequests
}

const (
	clientErrorStart = 400
	clientErrorEnd   = 500
)

// BuildURL дописывает query-параметры к URL.
// Значения (строки или числа) приводятся к строке.
func BuildURL(rawURL string, params map[string]any) (string, error) {
	if len(params) == 0 {
		return rawURL, nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	q := u.Query()
	for key, val := range params {
		q.Add(key, formatParam(val))
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func formatParam(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		// JSON-числа приходят как float64: 3 → "3", 1.5 → "1.5"
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

// hasBody — тело отправляется для всех методов кроме GET и DELETE.
func hasBody(method string, body []byte) bool {
	if len(body) == 0 || string(body) == "null" {
		return false
	}
	return method != http.MethodGet && method != http.MethodDelete
}
