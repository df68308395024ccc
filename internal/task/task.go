package task

import (
	"context"
	"time"
)

// TaskFunc 任务执行函数类型
type TaskFunc func(ctx context.Context)

// Task 延迟任务，同一个 ID 在时间轮中只保留一个
type Task struct {
	ID        string        `json:"id"`        // 任务唯一ID（一局游戏一个）
	Delay     time.Duration `json:"delay"`     // 延迟时长
	Fn        TaskFunc      `json:"-"`         // 执行函数
	CreatedAt time.Time     `json:"createdAt"` // 创建时间

	rounds int // 剩余圈数
	slot   int // 所在槽位
}

// NewTask 创建新任务
func NewTask(id string, delay time.Duration, fn TaskFunc) *Task {
	return &Task{
		ID:        id,
		Delay:     delay,
		Fn:        fn,
		CreatedAt: time.Now(),
	}
}

// Execute 执行任务
func (t *Task) Execute(ctx context.Context) {
	if t.Fn == nil {
		return
	}
	t.Fn(ctx)
}
