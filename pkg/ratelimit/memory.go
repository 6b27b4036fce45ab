package ratelimit

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// MemoryStore 是进程内的有界计数表。
// 过期记录在被访问或 Sweep 时删除；超过容量时淘汰最久未访问的记录。
type MemoryStore struct {
	mu         sync.Mutex
	maxEntries int
	items      map[string]*list.Element
	order      *list.List // 队首为最近访问
	now        func() time.Time
}

type record struct {
	key     string
	count   int
	resetAt time.Time
}

// MemoryOption 配置 MemoryStore。
type MemoryOption func(*MemoryStore)

// WithClock 替换时间来源，测试中用来推进时间。
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore 创建最多保存 maxEntries 条记录的存储。
func NewMemoryStore(maxEntries int, opts ...MemoryOption) *MemoryStore {
	if maxEntries < 1 {
		maxEntries = 1
	}
	s := &MemoryStore{
		maxEntries: maxEntries,
		items:      make(map[string]*list.Element),
		order:      list.New(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hit 实现固定窗口算法：
// 记录不存在或窗口已过期时新建计数为 1 的窗口；计数已达上限时拒绝；否则自增并放行。
func (s *MemoryStore) Hit(_ context.Context, key string, rule Rule) (Decision, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	element, ok := s.items[key]
	if !ok || !now.Before(element.Value.(*record).resetAt) {
		rec := &record{key: key, count: 1, resetAt: now.Add(rule.Window)}
		if ok {
			element.Value = rec
			s.order.MoveToFront(element)
		} else {
			s.items[key] = s.order.PushFront(rec)
			s.evictIfNeeded()
		}
		return Decision{Allowed: true, Limit: rule.Max, Remaining: rule.Max - 1, ResetAt: rec.resetAt}, nil
	}

	s.order.MoveToFront(element)
	rec := element.Value.(*record)
	if rec.count >= rule.Max {
		return Decision{Allowed: false, Limit: rule.Max, Remaining: 0, ResetAt: rec.resetAt}, nil
	}
	rec.count++
	return Decision{Allowed: true, Limit: rule.Max, Remaining: rule.Max - rec.count, ResetAt: rec.resetAt}, nil
}

// Sweep 删除所有已过期的记录，返回删除数量。
func (s *MemoryStore) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for element := s.order.Back(); element != nil; {
		prev := element.Prev()
		rec := element.Value.(*record)
		if !now.Before(rec.resetAt) {
			s.order.Remove(element)
			delete(s.items, rec.key)
			removed++
		}
		element = prev
	}
	return removed
}

// Len 返回当前保存的记录数。
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// StartSweeper 按 interval 周期清理过期记录，直到 ctx 结束。
func (s *MemoryStore) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

func (s *MemoryStore) evictIfNeeded() {
	for len(s.items) > s.maxEntries {
		element := s.order.Back()
		if element == nil {
			return
		}
		s.order.Remove(element)
		delete(s.items, element.Value.(*record).key)
	}
}
