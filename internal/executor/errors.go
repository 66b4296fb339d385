package executor

import "errors"

// Сообщения, которые видит получатель callback.
const (
	RequestTimeoutMessage = "request timed out"
	RequestFailedMessage  = "request failed"
)

// Ошибки executor'а. Доступны через errors.Is на возвращённом fault.
var (
	// ErrUnsupportedMethod — метод не входит в GET/POST/PUT/PATCH/DELETE.
	ErrUnsupportedMethod = errors.New("unsupported http method")

	// ErrInvalidURL — URL task не разбирается.
	ErrInvalidURL = errors.New("invalid url")

	// ErrRequestTimeout — вызов не уложился в таймаут.
	ErrRequestTimeout = errors.New("request timed out")

	// ErrRequestFailed — сетевой сбой без ответа.
	ErrRequestFailed = errors.New("request failed")
)
