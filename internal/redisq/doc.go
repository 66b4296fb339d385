// Package redisq — Redis backend durable-очереди.
//
// Раскладка ключей (общий hash tag {jobs}, q — имя очереди):
//
//	courier:{jobs}:q:seq         — счётчик порядка постановки
//	courier:{jobs}:q:waiting     — zset, score = seq
//	courier:{jobs}:q:active      — zset, score = lease_expires_at (ms)
//	courier:{jobs}:q:completed   — zset, score = finished_at (ms)
//	courier:{jobs}:q:failed      — zset, score = finished_at (ms)
//	courier:{jobs}:job:<id>      — hash с данными job (поле queue — владелец)
//
// Хэш job не зависит от очереди, поэтому id уникален в обеих.
//
// Переходы состояний выполняются Lua-скриптами атомарно.
package redisq
