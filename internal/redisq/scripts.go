package redisq

import r "github.com/redis/go-redis/v9"

// Все скрипты работают с ключами одной очереди; хэш job общий для
// всех очередей (id уникален глобально), поле queue хранит владельца:
//
//	KEYS[1] — seq (счётчик порядка)
//	KEYS[2] — waiting (zset, score = seq)
//	KEYS[3] — active (zset, score = lease_expires_at, ms)
//	KEYS[4] — completed (zset, score = finished_at, ms)
//	KEYS[5] — failed (zset, score = finished_at, ms)
//	ARGV[1] — префикс ключа job-хэша
//
// Ответы < 0: -1 job не найден (или принадлежит другой очереди),
// -2 job не в нужном статусе.

// addScript: ARGV[2]=id ARGV[3]=task json ARGV[4]=created_at ms
// ARGV[5]=queue.
var addScript = r.NewScript(`
local key = ARGV[1] .. ARGV[2]
if redis.call('EXISTS', key) == 1 then
  return 0
end
local seq = redis.call('INCR', KEYS[1])
redis.call('HSET', key,
  'id', ARGV[2], 'queue', ARGV[5], 'seq', seq, 'task', ARGV[3],
  'status', 'waiting', 'attempts', 0, 'created_at', ARGV[4])
redis.call('ZADD', KEYS[2], seq, ARGV[2])
return 1
`)

// leaseScript: ARGV[2]=now ms ARGV[3]=ttl ms ARGV[4]=exclusive (1|0).
// Истёкшие lease возвращаются в waiting с исходным seq.
var leaseScript = r.NewScript(`
local now = tonumber(ARGV[2])
local expired = redis.call('ZRANGEBYSCORE', KEYS[3], '-inf', now)
for _, id in ipairs(expired) do
  local seq = redis.call('HGET', ARGV[1] .. id, 'seq')
  redis.call('ZREM', KEYS[3], id)
  if seq then
    redis.call('ZADD', KEYS[2], seq, id)
    redis.call('HSET', ARGV[1] .. id, 'status', 'waiting')
  end
end
if ARGV[4] == '1' and redis.call('ZCARD', KEYS[3]) > 0 then
  return false
end
local ids = redis.call('ZRANGE', KEYS[2], 0, 0)
if #ids == 0 then
  return false
end
local id = ids[1]
local expires = now + tonumber(ARGV[3])
redis.call('ZREM', KEYS[2], id)
redis.call('ZADD', KEYS[3], expires, id)
redis.call('HSET', ARGV[1] .. id,
  'status', 'active', 'processed_at', now, 'lease_expires_at', expires)
return id
`)

// extendScript: ARGV[2]=id ARGV[3]=now ms ARGV[4]=ttl ms ARGV[5]=queue.
var extendScript = r.NewScript(`
local key = ARGV[1] .. ARGV[2]
local fields = redis.call('HMGET', key, 'status', 'queue')
local status = fields[1]
if not status or fields[2] ~= ARGV[5] then
  return -1
end
if status ~= 'active' then
  return -2
end
local expires = tonumber(ARGV[3]) + tonumber(ARGV[4])
redis.call('ZADD', KEYS[3], expires, ARGV[2])
redis.call('HSET', key, 'lease_expires_at', expires)
return 1
`)

// finishScript: ARGV[2]=id ARGV[3]=status ARGV[4]=attempts
// ARGV[5]=failed_reason ARGV[6]=now ms ARGV[7]=queue.
var finishScript = r.NewScript(`
local key = ARGV[1] .. ARGV[2]
local fields = redis.call('HMGET', key, 'status', 'queue')
local status = fields[1]
if not status or fields[2] ~= ARGV[7] then
  return -1
end
if status ~= 'active' then
  return -2
end
redis.call('ZREM', KEYS[3], ARGV[2])
local target = KEYS[4]
if ARGV[3] == 'failed' then
  target = KEYS[5]
end
redis.call('ZADD', target, ARGV[6], ARGV[2])
redis.call('HSET', key, 'status', ARGV[3], 'attempts', ARGV[4],
  'failed_reason', ARGV[5], 'finished_at', ARGV[6])
redis.call('HDEL', key, 'lease_expires_at')
return 1
`)

// cleanScript: KEYS[1] — индекс статуса. Удаляет все job из индекса.
var cleanScript = r.NewScript(`
local ids = redis.call('ZRANGE', KEYS[1], 0, -1)
for _, id in ipairs(ids) do
  redis.call('DEL', ARGV[1] .. id)
end
redis.call('DEL', KEYS[1])
return #ids
`)

// removeScript: ARGV[2]=id ARGV[3]=now ms ARGV[4]=queue.
var removeScript = r.NewScript(`
local key = ARGV[1] .. ARGV[2]
local fields = redis.call('HMGET', key, 'status', 'lease_expires_at', 'queue')
if not fields[1] or fields[3] ~= ARGV[4] then
  return -1
end
if fields[1] == 'active' and tonumber(fields[2] or '0') > tonumber(ARGV[3]) then
  return -2
end
redis.call('ZREM', KEYS[2], ARGV[2])
redis.call('ZREM', KEYS[3], ARGV[2])
redis.call('ZREM', KEYS[4], ARGV[2])
redis.call('ZREM', KEYS[5], ARGV[2])
redis.call('DEL', key)
return 1
`)
