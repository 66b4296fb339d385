package executor

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/shaiso/Courier/internal/faults"
)

// transportFault превращает ошибку http.Client.Do в *faults.TransportFault.
//
// Это граница транспортного уровня: выше неё ошибки сети существуют
// только в виде кода (ECONNREFUSED, ETIMEDOUT, ENOTFOUND, ECONNRESET).
func transportFault(err error) *faults.TransportFault {
	code := networkCode(err)

	f := &faults.TransportFault{
		Message: err.Error(),
		Code:    code,
	}
	if code == faults.CodeTimedOut {
		f.Status = http.StatusRequestTimeout
	}
	return f
}

// networkCode определяет код сетевой ошибки.
func networkCode(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return faults.CodeTimedOut
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return faults.CodeTimedOut
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return faults.CodeTimedOut
		}
		return faults.CodeNotFound
	}

	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return faults.CodeConnRefused
	case errors.Is(err, syscall.ECONNRESET):
		return faults.CodeConnReset
	case errors.Is(err, syscall.ETIMEDOUT):
		return faults.CodeTimedOut
	}

	return ""
}

// normalizeHeaders приводит ключи заголовков к нижнему регистру.
// Для многозначных заголовков значения склеиваются через ", ".
func normalizeHeaders(h http.Header) map[string]string {
	headers := make(map[string]string, len(h))
	for key, values := range h {
		headers[strings.ToLower(key)] = strings.Join(values, ", ")
	}
	return headers
}

// parseBody пробует JSON, иначе возвращает строку.
// Пустое тело — nil.
func parseBody(body []byte) any {
	if len(body) == 0 {
		return nil
	}

	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return string(body)
	}
	return parsed
}
