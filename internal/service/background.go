package service

import (
	"context"
	"sync"
	"time"

	"eventsite-api/pkg/log"
)

// TaskGroup 运行与请求无关的后台任务（自动回复、线索事件）。
// 任务失败只记录日志；关闭时通过 Wait 等待它们结束。
type TaskGroup struct {
	wg      sync.WaitGroup
	timeout time.Duration
}

// NewTaskGroup 创建 TaskGroup，每个任务使用独立的 timeout。
func NewTaskGroup(timeout time.Duration) *TaskGroup {
	return &TaskGroup{timeout: timeout}
}

// Go 在后台启动一个任务。
func (g *TaskGroup) Go(name string, fn func(ctx context.Context) error) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Errorw("后台任务 panic", "task", name, "panic", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			log.Warnw("后台任务失败", "task", name, "error", err)
		}
	}()
}

// Wait 等待所有后台任务结束，或在 ctx 结束时返回 ctx.Err()。
func (g *TaskGroup) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
