package tasks

import "errors"

var (
	// ErrTaskNotFound — job с указанным ID нет ни в одной очереди.
	ErrTaskNotFound = errors.New("task not found")

	// ErrInvalidInput — базовая ошибка валидации.
	ErrInvalidInput = errors.New("invalid task input")

	// ErrMissingField — обязательное поле не заполнено.
	ErrMissingField = errors.New("required field is missing")

	// ErrOutOfRange — числовое значение вне допустимого диапазона.
	ErrOutOfRange = errors.New("value out of range")
)

// ValidationError — ошибка валидации с указанием поля.
type ValidationError struct {
	Field   string // поле запроса, вызвавшее ошибку
	Message string // описание ошибки
	Err     error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	return e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError создаёт новую ошибку валидации.
func NewValidationError(field, message string, err error) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}
