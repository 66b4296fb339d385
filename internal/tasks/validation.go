package tasks

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/shaiso/Courier/internal/domain"
)

// Ограничения входных данных.
const (
	MinTimeoutMs    = 1000
	MinMaxRetries   = 1
	MaxMaxRetries   = 10
	MinRetryDelayMs = 100
)

// CreateTaskInput — входные данные для создания task.
//
// Числовые поля — указатели: nil означает "взять значение по умолчанию",
// явно переданный ноль проверяется как обычное значение.
type CreateTaskInput struct {
	Method      string            `json:"method"`
	URL         string            `json:"url"`
	CallbackURL string            `json:"callbackUrl"`
	Headers     map[string]string `json:"headers,omitempty"`
	Body        json.RawMessage   `json:"body,omitempty"`
	QueryParams map[string]any    `json:"queryParams,omitempty"`
	Timeout     *int              `json:"timeout,omitempty"`
	MaxRetries  *int              `json:"maxRetries,omitempty"`
	RetryDelay  *int              `json:"retryDelay,omitempty"`
	Sequential  bool              `json:"shouldBeSequential,omitempty"`
}

// Validate проверяет входные данные. Возвращает первую найденную ошибку.
func (in *CreateTaskInput) Validate() error {
	if in.Method == "" {
		return NewValidationError("method", "method is required", ErrMissingField)
	}
	if !domain.IsSupportedMethod(in.Method) {
		return NewValidationError("method",
			fmt.Sprintf("method must be one of: %s", strings.Join(domain.SupportedMethods, ", ")),
			ErrInvalidInput)
	}

	if err := validateURL("url", in.URL); err != nil {
		return err
	}
	if err := validateURL("callbackUrl", in.CallbackURL); err != nil {
		return err
	}

	for key, val := range in.QueryParams {
		if !isScalarParam(val) {
			return NewValidationError("queryParams",
				fmt.Sprintf("queryParams.%s must be a string or a number", key),
				ErrInvalidInput)
		}
	}

	if in.Timeout != nil && *in.Timeout < MinTimeoutMs {
		return NewValidationError("timeout",
			fmt.Sprintf("timeout must not be less than %d", MinTimeoutMs), ErrOutOfRange)
	}
	if in.MaxRetries != nil && (*in.MaxRetries < MinMaxRetries || *in.MaxRetries > MaxMaxRetries) {
		return NewValidationError("maxRetries",
			fmt.Sprintf("maxRetries must be between %d and %d", MinMaxRetries, MaxMaxRetries), ErrOutOfRange)
	}
	if in.RetryDelay != nil && *in.RetryDelay < MinRetryDelayMs {
		return NewValidationError("retryDelay",
			fmt.Sprintf("retryDelay must not be less than %d", MinRetryDelayMs), ErrOutOfRange)
	}

	return nil
}

// validateURL — абсолютный URL со схемой http или https.
func validateURL(field, raw string) error {
	if raw == "" {
		return NewValidationError(field, field+" is required", ErrMissingField)
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return NewValidationError(field, field+" must be a URL address with protocol", ErrInvalidInput)
	}
	return nil
}

func isScalarParam(v any) bool {
	switch v.(type) {
	case string, float64, float32, int, int32, int64, json.Number:
		return true
	default:
		return false
	}
}

// toTask собирает domain.Task. ID и CreatedAt проставляет Service.
func (in *CreateTaskInput) toTask() domain.Task {
	task := domain.Task{
		Method:      strings.ToUpper(in.Method),
		URL:         in.URL,
		CallbackURL: in.CallbackURL,
		Headers:     in.Headers,
		Body:        in.Body,
		QueryParams: in.QueryParams,
		Sequential:  in.Sequential,
	}
	if in.Timeout != nil {
		task.TimeoutMs = *in.Timeout
	}
	if in.MaxRetries != nil {
		task.MaxRetries = *in.MaxRetries
	}
	if in.RetryDelay != nil {
		task.RetryDelayMs = *in.RetryDelay
	}
	return task
}

// UnmarshalJSON принимает флаг очереди и как shouldBeSequential, и как sequential.
func (in *CreateTaskInput) UnmarshalJSON(data []byte) error {
	type plain CreateTaskInput
	aux := struct {
		*plain
		LegacySequential *bool `json:"sequential,omitempty"`
	}{plain: (*plain)(in)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.LegacySequential != nil && !in.Sequential {
		in.Sequential = *aux.LegacySequential
	}
	return nil
}
