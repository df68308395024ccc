package task

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// PoolStats 执行池计数
type PoolStats struct {
	Workers  int           `json:"workers"`
	Pending  int           `json:"pending"`
	Executed int64         `json:"executed"`
	Panicked int64         `json:"panicked"`
	Dropped  int64         `json:"dropped"`
	MaxLag   time.Duration `json:"maxLag"` // 到期到实际执行的最大延迟
}

// WorkerPool 到期任务执行池
// 时间轮只负责计时，回调在这里执行，慢回调不会拖住时钟
type WorkerPool struct {
	workers int
	due     chan *Task

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	executed atomic.Int64
	panicked atomic.Int64
	dropped  atomic.Int64
	maxLag   atomic.Int64

	logger *slog.Logger
}

// NewWorkerPool 创建执行池，workers <= 0 时使用 10
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = 10
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		workers: workers,
		due:     make(chan *Task, workers*4),
		ctx:     ctx,
		cancel:  cancel,
		logger:  slog.Default().With("component", "WorkerPool"),
	}
}

// Start 启动执行协程
func (wp *WorkerPool) Start() {
	wp.wg.Add(wp.workers)
	for id := 0; id < wp.workers; id++ {
		go wp.run(id)
	}
	wp.logger.Info("执行池已启动", "workers", wp.workers)
}

func (wp *WorkerPool) run(id int) {
	defer wp.wg.Done()

	for {
		select {
		case <-wp.ctx.Done():
			return
		case t := <-wp.due:
			wp.execute(id, t)
		}
	}
}

// execute 执行单个任务；panic 只记日志，不影响同一协程后续任务
func (wp *WorkerPool) execute(workerID int, t *Task) {
	if lag := time.Since(t.CreatedAt.Add(t.Delay)); lag > 0 {
		wp.observeLag(lag)
	}

	defer func() {
		if r := recover(); r != nil {
			wp.panicked.Add(1)
			wp.logger.Error("任务执行 panic", "workerId", workerID, "taskId", t.ID, "panic", r)
		}
	}()

	t.Execute(wp.ctx)
	wp.executed.Add(1)
}

func (wp *WorkerPool) observeLag(lag time.Duration) {
	for {
		cur := wp.maxLag.Load()
		if int64(lag) <= cur || wp.maxLag.CompareAndSwap(cur, int64(lag)) {
			return
		}
	}
}

// Submit 投递到期任务，队列满时等待；执行池已关闭时丢弃并返回 false
func (wp *WorkerPool) Submit(t *Task) bool {
	if t == nil {
		return false
	}

	select {
	case wp.due <- t:
		return true
	default:
	}

	wp.logger.Warn("执行队列已满，任务将延迟执行", "taskId", t.ID, "pending", len(wp.due))
	select {
	case wp.due <- t:
		return true
	case <-wp.ctx.Done():
		wp.dropped.Add(1)
		wp.logger.Warn("执行池已关闭，丢弃任务", "taskId", t.ID)
		return false
	}
}

// SubmitBatch 批量投递，返回成功投递的数量
func (wp *WorkerPool) SubmitBatch(tasks []*Task) int {
	n := 0
	for _, t := range tasks {
		if wp.Submit(t) {
			n++
		}
	}
	return n
}

// Stats 当前计数
func (wp *WorkerPool) Stats() PoolStats {
	return PoolStats{
		Workers:  wp.workers,
		Pending:  len(wp.due),
		Executed: wp.executed.Load(),
		Panicked: wp.panicked.Load(),
		Dropped:  wp.dropped.Load(),
		MaxLag:   time.Duration(wp.maxLag.Load()),
	}
}

// Stop 停止执行池，队列中未执行的任务丢弃
func (wp *WorkerPool) Stop() {
	wp.cancel()
	wp.wg.Wait()

	if n := len(wp.due); n > 0 {
		wp.dropped.Add(int64(n))
	}
	wp.logger.Info("执行池已停止", "executed", wp.executed.Load(), "dropped", wp.dropped.Load())
}
