package domain

// CallbackStatus — финальный статус task в callback.
type CallbackStatus string

const (
	CallbackStatusCompleted CallbackStatus = "completed"
	CallbackStatusFailed    CallbackStatus = "failed"
)

// Response — нормализованный ответ целевого сервиса.
// Ключи Headers приведены к нижнему регистру.
type Response struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers"`
	Body       any               `json:"body"`
}

// CallbackError — сокращённая ошибка в callback.
type CallbackError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// CallbackPayload — отчёт о результате task, отправляемый на CallbackURL.
//
// Ровно одно из Response / Error заполнено в зависимости от Status.
type CallbackPayload struct {
	TaskID        string         `json:"taskId"`
	Status        CallbackStatus `json:"status"`
	Attempts      int            `json:"attempts"`
	ExecutionTime int64          `json:"executionTime"`
	Timestamp     string         `json:"timestamp"`
	Response      *Response      `json:"response,omitempty"`
	Error         *CallbackError `json:"error,omitempty"`
}

// OperationResult — результат административной операции.
// Административные операции не возвращают error, а сообщают итог здесь.
type OperationResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}
