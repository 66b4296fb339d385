// Package janitor периодически очищает очереди от завершённых job.
//
// Расписание задаётся cron-выражением (5 полей, UTC). Тик вызывает
// ClearQueue для completed и failed; ошибки тика логируются и не
// останавливают janitor.
package janitor
