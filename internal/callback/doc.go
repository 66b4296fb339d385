// Package callback доставляет результат выполнения task на callback URL.
//
// Доставка best-effort: Dispatcher.Send делает до MaxAttempts попыток
// с фиксированной паузой RetryDelay (без множителя) и никогда не
// возвращает ошибку. Неудача после всех попыток только логируется
// и учитывается в метрике courier_callback_deliveries_total.
//
// Payload:
//
//	{
//	  "taskId": "…",
//	  "status": "completed" | "failed",
//	  "attempts": 2,
//	  "executionTime": 1530,
//	  "timestamp": "2024-01-01T00:00:00.000Z",
//	  "response": {"statusCode": 200, "headers": {…}, "body": …},
//	  "error": {"message": "…", "status": 404}
//	}
package callback
