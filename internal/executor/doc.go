// Package executor выполняет исходящий HTTP-вызов task.
//
// HTTPExecutor отправляет ровно один запрос с таймаутом task (или
// системным), дописывает query-параметры к URL и нормализует ответ:
// ключи заголовков в нижнем регистре, тело — JSON или строка.
//
// Классификация ответа:
//   - 4xx, кроме 429 — терминальная клиентская ошибка (*faults.TransportFault)
//   - 2xx, 3xx, 429, 5xx — обычный Response, решение принимает воркер
//   - сетевой сбой — GenericFault "request timed out" или "request failed"
//   - неизвестный метод — GenericFault со статусом 405, без retry
package executor
