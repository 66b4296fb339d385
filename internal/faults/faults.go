package faults

import (
	"fmt"
	"strings"
)

// Коды сетевых ошибок, которые выставляет транспортный слой.
const (
	CodeConnRefused = "ECONNREFUSED"
	CodeTimedOut    = "ETIMEDOUT"
	CodeNotFound    = "ENOTFOUND"
	CodeConnReset   = "ECONNRESET"
)

// Fault — закрытое множество ошибок, которые понимает Classify.
//
// Реализации: *TransportFault, *AggregateFault, *GenericFault, *UnknownFault.
type Fault interface {
	error
	fault()
}

// TransportFault — ошибка транспортного уровня HTTP.
//
// Status == 0 означает, что ответа не было (обрыв соединения, DNS, таймаут).
type TransportFault struct {
	Message string
	Code    string
	Status  int
	Headers map[string]string
	Body    any
}

func (f *TransportFault) Error() string {
	if f.Code != "" && !strings.Contains(f.Message, f.Code) {
		return fmt.Sprintf("%s: %s", f.Code, f.Message)
	}
	return f.Message
}

func (*TransportFault) fault() {}

// AggregateFault — несколько ошибок одной операции.
type AggregateFault struct {
	Faults []error
}

func (f *AggregateFault) Error() string {
	msgs := make([]string, 0, len(f.Faults))
	for _, e := range f.Faults {
		if e != nil {
			msgs = append(msgs, e.Error())
		}
	}
	return strings.Join(msgs, "; ")
}

// Unwrap позволяет errors.Is/As проходить по составляющим.
func (f *AggregateFault) Unwrap() []error {
	return f.Faults
}

func (*AggregateFault) fault() {}

// GenericFault — ошибка с сообщением и (опционально) статусом.
type GenericFault struct {
	Message string
	Code    string
	Status  int

	// Err — исходная ошибка (для errors.Is).
	Err error
}

func (f *GenericFault) Error() string {
	return f.Message
}

func (f *GenericFault) Unwrap() error {
	return f.Err
}

func (*GenericFault) fault() {}

// UnknownFault — значение неизвестной формы.
type UnknownFault struct {
	Raw any
}

func (f *UnknownFault) Error() string {
	return fmt.Sprintf("unknown fault: %v", f.Raw)
}

func (*UnknownFault) fault() {}
