package repo

import (
	"github.com/redis/go-redis/v9"
)

// ScriptQuota is an atomic token bucket used by scoped quotas.
// Check and record happen in one script so two concurrent callers can
// never both see the last token.
var ScriptQuota = redis.NewScript(`
-- KEYS[1] = bucket hash {level, last}
-- ARGV[1] = capacity (tokens per window)
-- ARGV[2] = window_ms
-- ARGV[3] = now_ms
-- ARGV[4] = ttl_ms
--
-- One token is window_ms units and the bucket refills capacity units per
-- ms, so the level stays an integer and a window boundary is exact.

local cap    = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local now    = tonumber(ARGV[3])
local ttl    = tonumber(ARGV[4])
local full   = cap * window

local state = redis.call('HMGET', KEYS[1], 'level', 'last')
local level = tonumber(state[1]) or full
local last  = tonumber(state[2]) or now

-- refill, never backwards
if now > last then
  level = math.min(full, level + (now - last) * cap)
  last = now
end

local ok = 0
local retry = 0
if level >= window then
  level = level - window
  ok = 1
else
  retry = math.ceil((window - level) / cap)
end

redis.call('HSET', KEYS[1], 'level', level, 'last', last)
redis.call('PEXPIRE', KEYS[1], ttl)

return {ok, math.floor(level / window), retry}
`)
