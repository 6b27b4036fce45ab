// Package ratelimit 实现按 (客户端, 端点) 计数的固定窗口限流。
//
// 计数记录可以保存在进程内（MemoryStore，有界 LRU）或 Redis 中（RedisStore，多实例共享）。
// 进程内存储只对当前进程生效，多个实例之间互不协调。
package ratelimit

import (
	"context"
	"math"
	"time"
)

// Rule 描述一个端点的限流预算：每个窗口最多 Max 次请求。
type Rule struct {
	Name   string
	Max    int
	Window time.Duration
}

// Decision 是一次限流判定的结果。
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfterSeconds 返回 Retry-After 头使用的秒数，向上取整，至少 1 秒。
func (d Decision) RetryAfterSeconds(now time.Time) int {
	secs := int(math.Ceil(d.ResetAt.Sub(now).Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Store 保存计数记录并原子地完成一次 "读取-判定-自增"。
type Store interface {
	Hit(ctx context.Context, key string, rule Rule) (Decision, error)
}

// Limiter 将某条规则绑定到具体的存储上。
type Limiter struct {
	store Store
	rule  Rule
}

// New 创建一个 Limiter。
func New(store Store, rule Rule) *Limiter {
	return &Limiter{store: store, rule: rule}
}

// Rule 返回限流规则。
func (l *Limiter) Rule() Rule {
	return l.rule
}

// Allow 对 clientID 在当前规则下计数一次。
func (l *Limiter) Allow(ctx context.Context, clientID string) (Decision, error) {
	return l.store.Hit(ctx, Key(clientID, l.rule.Name), l.rule)
}

// Key 构造记录键：同一客户端在不同端点上的预算互相独立。
func Key(clientID, endpoint string) string {
	return endpoint + ":" + clientID
}
