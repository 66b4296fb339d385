// Package repo — Postgres backend durable-очереди.
//
// Таблица jobs (миграции в migrations/, применяются через goose в Migrate):
//
//	(queue, id) — первичный ключ, id = Task.ID
//	seq         — порядок постановки, по нему идёт FIFO
//	task        — JSONB с данными задачи
//	status      — waiting | active | completed | failed
//
// JobRepo реализует queue.Backend. Пул соединений создаётся NewPool
// и закрывается вызывающим.
package repo
