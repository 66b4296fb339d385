package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// HTTP-методы, которые умеет выполнять executor.
const (
	MethodGet    = "GET"
	MethodPost   = "POST"
	MethodPut    = "PUT"
	MethodPatch  = "PATCH"
	MethodDelete = "DELETE"
)

// SupportedMethods — полный список допустимых методов.
var SupportedMethods = []string{MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete}

// IsSupportedMethod проверяет метод без учёта регистра.
func IsSupportedMethod(method string) bool {
	m := strings.ToUpper(method)
	for _, s := range SupportedMethods {
		if s == m {
			return true
		}
	}
	return false
}

// Task — описание HTTP-вызова, который нужно выполнить асинхронно,
// и адрес, на который нужно сообщить результат.
//
// Task создаётся фасадом (tasks.Service) при приёме запроса и дальше
// принадлежит очереди, в которую был поставлен. Method, URL и CallbackURL
// обязательны и не меняются после создания. Нулевые значения
// опциональных полей означают "использовать системное значение по умолчанию".
type Task struct {
	// ID — уникальный идентификатор task.
	// Одновременно является идентификатором job в durable-очереди
	// и ключом идемпотентности: повторная постановка с тем же ID — no-op.
	ID string `json:"id"`

	// Method — HTTP-метод (GET, POST, PUT, PATCH, DELETE).
	Method string `json:"method"`

	// URL — абсолютный адрес целевого вызова.
	URL string `json:"url"`

	// CallbackURL — абсолютный адрес, на который отправляется результат.
	CallbackURL string `json:"callbackUrl"`

	// Headers — заголовки исходящего запроса.
	Headers map[string]string `json:"headers,omitempty"`

	// Body — непрозрачное тело запроса (сырой JSON).
	Body json.RawMessage `json:"body,omitempty"`

	// QueryParams — параметры, дописываемые к URL. Значения — строки или числа.
	QueryParams map[string]any `json:"queryParams,omitempty"`

	// TimeoutMs — таймаут одного вызова в миллисекундах.
	TimeoutMs int `json:"timeout,omitempty"`

	// MaxRetries — максимальное число попыток выполнения.
	MaxRetries int `json:"maxRetries,omitempty"`

	// RetryDelayMs — базовая задержка линейного backoff в миллисекундах.
	RetryDelayMs int `json:"retryDelay,omitempty"`

	// CreatedAt — время приёма task.
	CreatedAt time.Time `json:"createdAt"`

	// Sequential — маршрутизация в последовательную очередь.
	// Читается один раз при постановке в очередь.
	Sequential bool `json:"sequential,omitempty"`
}

// EffectiveTimeout возвращает таймаут task или def.
func (t *Task) EffectiveTimeout(def time.Duration) time.Duration {
	if t.TimeoutMs > 0 {
		return time.Duration(t.TimeoutMs) * time.Millisecond
	}
	return def
}

// EffectiveMaxRetries возвращает лимит попыток task или def.
func (t *Task) EffectiveMaxRetries(def int) int {
	if t.MaxRetries > 0 {
		return t.MaxRetries
	}
	return def
}

// EffectiveRetryDelay возвращает базовую задержку task или def.
func (t *Task) EffectiveRetryDelay(def time.Duration) time.Duration {
	if t.RetryDelayMs > 0 {
		return time.Duration(t.RetryDelayMs) * time.Millisecond
	}
	return def
}

// QueueName возвращает очередь, в которую должна попасть task.
func (t *Task) QueueName() QueueName {
	if t.Sequential {
		return QueueSequential
	}
	return QueueParallel
}
