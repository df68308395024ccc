package task

import (
	"errors"
	"sync"
	"time"
)

const (
	// DefaultTickInterval 默认刻度
	DefaultTickInterval = 100 * time.Millisecond

	// DefaultSlotCount 默认槽位数量，配合默认刻度一圈 6 秒
	DefaultSlotCount = 60
)

// ErrInvalidTask 任务不合法
var ErrInvalidTask = errors.New("invalid task")

// TimeWheel 单层时间轮，超过一圈的延迟用圈数表示
type TimeWheel struct {
	interval    time.Duration
	slots       []*Slot
	currentSlot int
	index       map[string]int // taskID -> 槽位
	mu          sync.RWMutex
	ticker      *time.Ticker
}

// NewTimeWheel 创建时间轮
func NewTimeWheel(interval time.Duration, slotCount int) *TimeWheel {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	if slotCount <= 0 {
		slotCount = DefaultSlotCount
	}

	tw := &TimeWheel{
		interval: interval,
		slots:    make([]*Slot, slotCount),
		index:    make(map[string]int),
	}
	for i := range tw.slots {
		tw.slots[i] = NewSlot()
	}
	return tw
}

// ticksFor 延迟折算为刻度数，向上取整，至少 1
func (tw *TimeWheel) ticksFor(delay time.Duration) int {
	ticks := int((delay + tw.interval - 1) / tw.interval)
	return max(ticks, 1)
}

// AddTask 添加任务，已存在同 ID 任务时替换
func (tw *TimeWheel) AddTask(task *Task) error {
	if task == nil || task.ID == "" {
		return ErrInvalidTask
	}

	tw.mu.Lock()
	defer tw.mu.Unlock()

	if old, ok := tw.index[task.ID]; ok {
		tw.slots[old].RemoveTask(task.ID)
	}

	n := len(tw.slots)
	ticks := tw.ticksFor(task.Delay)
	task.rounds = (ticks - 1) / n
	task.slot = (tw.currentSlot + ticks) % n

	tw.slots[task.slot].AddTask(task)
	tw.index[task.ID] = task.slot
	return nil
}

// RemoveTask 删除任务
func (tw *TimeWheel) RemoveTask(taskID string) bool {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	slot, ok := tw.index[taskID]
	if !ok {
		return false
	}
	delete(tw.index, taskID)
	return tw.slots[slot].RemoveTask(taskID)
}

// Tick 推进一格，返回到期任务
func (tw *TimeWheel) Tick() []*Task {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	tw.currentSlot = (tw.currentSlot + 1) % len(tw.slots)
	due := tw.slots[tw.currentSlot].TakeDue()
	for _, task := range due {
		delete(tw.index, task.ID)
	}
	return due
}

// Start 启动刻度定时器
func (tw *TimeWheel) Start() <-chan time.Time {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.ticker == nil {
		tw.ticker = time.NewTicker(tw.interval)
	}
	return tw.ticker.C
}

// Stop 停止时间轮
func (tw *TimeWheel) Stop() {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.ticker != nil {
		tw.ticker.Stop()
		tw.ticker = nil
	}
}

// Interval 刻度
func (tw *TimeWheel) Interval() time.Duration {
	return tw.interval
}

// GetCurrentSlot 获取当前槽位索引
func (tw *TimeWheel) GetCurrentSlot() int {
	tw.mu.RLock()
	defer tw.mu.RUnlock()

	return tw.currentSlot
}

// GetTotalTaskCount 获取所有槽位的任务总数
func (tw *TimeWheel) GetTotalTaskCount() int {
	tw.mu.RLock()
	defer tw.mu.RUnlock()

	return len(tw.index)
}
