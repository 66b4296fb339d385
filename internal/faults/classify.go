package faults

import (
	"errors"
	"net/http"
)

// UnknownErrorMessage — сообщение для значений неизвестной формы.
const UnknownErrorMessage = "Unknown error"

// NormalizedError — каноническая форма любой ошибки.
//
// Все решения о retry принимаются только по NormalizedError.
type NormalizedError struct {
	// Message — человекочитаемое сообщение.
	Message string `json:"message"`

	// Status — числовой статус, 500 если неизвестен.
	Status int `json:"status"`

	// FromTransport — ошибка пришла из транспортного уровня HTTP.
	FromTransport bool `json:"fromTransport"`

	// Code — код сетевой ошибки (ECONNREFUSED и т.п.), если известен.
	Code string `json:"code,omitempty"`

	// Data — сырые данные (тело ответа или исходное значение).
	Data any `json:"data,omitempty"`
}

// Error позволяет возвращать NormalizedError как error.
func (e NormalizedError) Error() string {
	return e.Message
}

// Classify приводит любую ошибку к NormalizedError.
//
// Функция детерминирована и никогда не паникует:
//   - агрегат → классификация первой составляющей
//   - TransportFault → сообщение из body.message, статус ответа или 500
//   - GenericFault и любой другой error → собственное сообщение, статус или 500
//   - всё остальное → "Unknown error", 500, Data = исходное значение
func Classify(fault any) NormalizedError {
	switch f := fault.(type) {
	case nil:
		return unknown(fault)

	case *AggregateFault:
		if f == nil {
			return unknown(fault)
		}
		return classifyFirst(fault, f.Faults)

	case *TransportFault:
		if f == nil {
			return unknown(fault)
		}
		return classifyTransport(f)

	case *GenericFault:
		if f == nil {
			return unknown(fault)
		}
		return NormalizedError{
			Message: f.Message,
			Status:  statusOrDefault(f.Status),
			Code:    f.Code,
		}

	case *UnknownFault:
		if f == nil {
			return unknown(fault)
		}
		return unknown(f.Raw)

	case NormalizedError:
		return f

	case interface{ Unwrap() []error }:
		// errors.Join и аналоги
		return classifyFirst(fault, f.Unwrap())

	case error:
		return classifyError(f)

	default:
		return unknown(fault)
	}
}

// classifyError обрабатывает обёрнутые ошибки: если внутри есть Fault,
// классифицируется он, иначе ошибка считается generic.
func classifyError(err error) NormalizedError {
	var transport *TransportFault
	if errors.As(err, &transport) {
		return classifyTransport(transport)
	}

	var generic *GenericFault
	if errors.As(err, &generic) {
		n := Classify(generic)
		n.Message = err.Error()
		return n
	}

	var agg *AggregateFault
	if errors.As(err, &agg) {
		return Classify(agg)
	}

	var normalized NormalizedError
	if errors.As(err, &normalized) {
		return normalized
	}

	return NormalizedError{
		Message: err.Error(),
		Status:  http.StatusInternalServerError,
	}
}

func classifyFirst(original any, errs []error) NormalizedError {
	for _, e := range errs {
		if e != nil {
			return Classify(e)
		}
	}
	return unknown(original)
}

func classifyTransport(f *TransportFault) NormalizedError {
	n := NormalizedError{
		Message:       f.Message,
		Status:        statusOrDefault(f.Status),
		FromTransport: true,
		Code:          f.Code,
	}

	if body, ok := f.Body.(map[string]any); ok {
		if msg, ok := body["message"].(string); ok {
			n.Message = msg
		}
		n.Data = body
	}

	return n
}

func unknown(raw any) NormalizedError {
	return NormalizedError{
		Message: UnknownErrorMessage,
		Status:  http.StatusInternalServerError,
		Data:    raw,
	}
}

func statusOrDefault(status int) int {
	if status == 0 {
		return http.StatusInternalServerError
	}
	return status
}
