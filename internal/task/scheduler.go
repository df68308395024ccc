package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var (
	// ErrSchedulerRunning 调度器已在运行
	ErrSchedulerRunning = errors.New("scheduler already running")

	// ErrSchedulerStopped 调度器未运行
	ErrSchedulerStopped = errors.New("scheduler not running")
)

// Config 调度器配置
type Config struct {
	TickInterval time.Duration `mapstructure:"tick_interval"`
	SlotCount    int           `mapstructure:"slot_count"`
	WorkerCount  int           `mapstructure:"worker_count"`
}

// Scheduler 任务调度器：时间轮负责计时，工作池负责执行
type Scheduler struct {
	wheel      *TimeWheel
	workerPool *WorkerPool
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	logger     *slog.Logger
	running    bool
	runningMu  sync.RWMutex
}

// NewScheduler 创建任务调度器
func NewScheduler(cfg Config) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		wheel:      NewTimeWheel(cfg.TickInterval, cfg.SlotCount),
		workerPool: NewWorkerPool(cfg.WorkerCount),
		ctx:        ctx,
		cancel:     cancel,
		logger:     slog.Default().With("component", "Scheduler"),
	}
}

// Start 启动调度器
func (s *Scheduler) Start() error {
	s.runningMu.Lock()
	if s.running {
		s.runningMu.Unlock()
		return ErrSchedulerRunning
	}
	s.running = true
	s.runningMu.Unlock()

	s.workerPool.Start()

	ticks := s.wheel.Start()
	s.wg.Add(1)
	go s.tickLoop(ticks)

	s.logger.Info("任务调度器已启动", "tick", s.wheel.Interval())
	return nil
}

// tickLoop 时钟循环协程
func (s *Scheduler) tickLoop(ticks <-chan time.Time) {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticks:
			s.onTick()
		}
	}
}

// onTick 推进时间轮并提交到期任务
func (s *Scheduler) onTick() {
	tasks := s.wheel.Tick()
	if len(tasks) == 0 {
		return
	}

	s.logger.Debug("时钟触发",
		"currentSlot", s.wheel.GetCurrentSlot(),
		"taskCount", len(tasks))

	s.workerPool.SubmitBatch(tasks)
}

// Stop 停止调度器，未到期任务直接丢弃
func (s *Scheduler) Stop() {
	s.runningMu.Lock()
	if !s.running {
		s.runningMu.Unlock()
		return
	}
	s.running = false
	s.runningMu.Unlock()

	s.cancel()
	s.wg.Wait()
	s.wheel.Stop()
	s.workerPool.Stop()

	s.logger.Info("任务调度器已停止")
}

// AddTask 添加任务，同 ID 任务会被替换
func (s *Scheduler) AddTask(task *Task) error {
	s.runningMu.RLock()
	defer s.runningMu.RUnlock()

	if !s.running {
		return ErrSchedulerStopped
	}
	if err := s.wheel.AddTask(task); err != nil {
		return fmt.Errorf("add task: %w", err)
	}

	s.logger.Debug("添加任务", "taskID", task.ID, "delay", task.Delay)
	return nil
}

// RemoveTask 删除任务，任务不存在时返回 false
func (s *Scheduler) RemoveTask(taskID string) bool {
	return s.wheel.RemoveTask(taskID)
}

// Schedule 在 delay 后执行 fn，替换 key 之前的任务
func (s *Scheduler) Schedule(key string, delay time.Duration, fn func(ctx context.Context)) error {
	return s.AddTask(NewTask(key, delay, fn))
}

// Cancel 取消 key 对应的任务
func (s *Scheduler) Cancel(key string) bool {
	return s.RemoveTask(key)
}

// IsRunning 检查调度器是否运行中
func (s *Scheduler) IsRunning() bool {
	s.runningMu.RLock()
	defer s.runningMu.RUnlock()

	return s.running
}

// Stats 调度器统计
type Stats struct {
	Running      bool      `json:"running"`
	CurrentSlot  int       `json:"currentSlot"`
	PendingTasks int       `json:"pendingTasks"`
	Pool         PoolStats `json:"pool"`
}

// GetStats 获取调度器统计信息
func (s *Scheduler) GetStats() Stats {
	return Stats{
		Running:      s.IsRunning(),
		CurrentSlot:  s.wheel.GetCurrentSlot(),
		PendingTasks: s.wheel.GetTotalTaskCount(),
		Pool:         s.workerPool.Stats(),
	}
}
