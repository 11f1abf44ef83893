package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const tokenBucketLua = `
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local requested = tonumber(ARGV[4])

if rate <= 0 or burst <= 0 then
  return {1, 0, burst}
end

local data = redis.call("HMGET", key, "tokens", "ts")
local tokens = tonumber(data[1])
local ts = tonumber(data[2])
if tokens == nil then
  tokens = burst
end
if ts == nil then
  ts = now
end

local delta = math.max(0, now - ts)
local refill = (delta * rate) / 1000.0
tokens = math.min(burst, tokens + refill)

local allowed = tokens >= requested
local wait_ms = 0
if allowed then
  tokens = tokens - requested
else
  wait_ms = math.ceil((requested - tokens) * 1000.0 / rate)
end

redis.call("HMSET", key, "tokens", tokens, "ts", now)
redis.call("PEXPIRE", key, math.ceil((burst / rate) * 1000.0 * 2))

return {allowed and 1 or 0, wait_ms, tokens}
`

// RateLimiter 基于 Redis 的令牌桶限流器。
//
// 桶按调用方标识（如客户端 IP）分开，脚本在 Redis 侧原子执行。
type RateLimiter struct {
	rdb       *redis.Client
	keyPrefix string
	rate      float64
	burst     float64
	logger    *slog.Logger
	script    *redis.Script
}

// NewRedisRateLimiter 创建限流器。rdb 为 nil 时所有请求直接放行。
func NewRedisRateLimiter(rdb *redis.Client, logger *slog.Logger, keyPrefix string, rate float64, burst float64) *RateLimiter {
	if keyPrefix == "" {
		keyPrefix = "eznews:ratelimit:default:"
	}
	return &RateLimiter{
		rdb:       rdb,
		keyPrefix: keyPrefix,
		rate:      rate,
		burst:     burst,
		logger:    logger,
		script:    redis.NewScript(tokenBucketLua),
	}
}

// Allow 判断标识为 id 的调用方当前是否可以执行一次请求。
//
// 返回值:
//
//	bool: 是否放行
//	int: 拒绝时建议等待的毫秒数
//	error: Redis 访问失败返回错误（调用方可选择放行）
func (r *RateLimiter) Allow(ctx context.Context, id string) (bool, int, error) {
	if r == nil || r.rdb == nil {
		return true, 0, nil
	}

	key := r.keyPrefix + id
	now := time.Now().UnixMilli()
	res, err := r.script.Run(ctx, r.rdb, []string{key},
		formatFloat(r.rate), formatFloat(r.burst), now, 1).Result()
	if err != nil {
		return false, 0, fmt.Errorf("ratelimit script: %w", err)
	}

	values, ok := res.([]interface{})
	if !ok || len(values) < 2 {
		return false, 0, fmt.Errorf("ratelimit script: unexpected reply %v", res)
	}

	allowed, _ := values[0].(int64)
	waitMs, _ := values[1].(int64)
	if allowed == 1 {
		return true, 0, nil
	}

	if r.logger != nil {
		r.logger.Debug("rate limited", slog.String("id", id), slog.Int64("wait_ms", waitMs))
	}
	return false, int(waitMs), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
