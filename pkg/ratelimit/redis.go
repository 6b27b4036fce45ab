package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// fixedWindowScript 原子地自增计数，并在窗口的第一次请求时设置过期时间。
// 返回 {当前计数, 剩余毫秒}。
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

// RedisStore 把计数保存在 Redis 中，多个实例共享同一个逻辑限额。
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedisStore 创建 RedisStore，键名统一加上 "ratelimit:" 前缀。
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client, prefix: "ratelimit:", now: time.Now}
}

// Hit 执行固定窗口脚本。超过上限的请求同样会自增计数，但判定结果与内存实现一致。
func (s *RedisStore) Hit(ctx context.Context, key string, rule Rule) (Decision, error) {
	windowMs := rule.Window.Milliseconds()
	if windowMs < 1 {
		windowMs = 1
	}
	res, err := fixedWindowScript.Run(ctx, s.client, []string{s.prefix + key}, windowMs).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("failed to run rate limit script: %w", err)
	}
	values, ok := res.([]interface{})
	if !ok || len(values) != 2 {
		return Decision{}, fmt.Errorf("unexpected rate limit script result: %v", res)
	}
	count, ok1 := values[0].(int64)
	ttl, ok2 := values[1].(int64)
	if !ok1 || !ok2 {
		return Decision{}, fmt.Errorf("unexpected rate limit script result: %v", res)
	}

	remaining := int64(rule.Max) - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count <= int64(rule.Max),
		Limit:     rule.Max,
		Remaining: int(remaining),
		ResetAt:   s.now().Add(time.Duration(ttl) * time.Millisecond),
	}, nil
}
