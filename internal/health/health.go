package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"sudooom.tetrecs/internal/task"
)

const (
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
)

// Status 健康状态
type Status struct {
	NATS     string `json:"nats"`
	Redis    string `json:"redis"`
	Database string `json:"database"`

	// Loop 循环计时调度器统计，不参与健康判定
	Loop *task.Stats `json:"loop,omitempty"`
}

// Healthy 三个依赖是否都可用
func (s *Status) Healthy() bool {
	return s.NATS == StatusConnected &&
		s.Redis == StatusConnected &&
		s.Database == StatusConnected
}

// ConnState 连接状态，*nats.Client 实现
type ConnState interface {
	IsConnected() bool
}

// LoopStats 调度器统计来源，*task.Scheduler 实现
type LoopStats interface {
	GetStats() task.Stats
}

// PingFunc 探活函数
type PingFunc func(ctx context.Context) error

// Checker 健康检查器
type Checker struct {
	nats    ConnState
	redis   PingFunc
	db      PingFunc
	loop    LoopStats
	timeout time.Duration
}

// NewChecker 创建健康检查器
func NewChecker(nats ConnState, redis, db PingFunc) *Checker {
	return &Checker{
		nats:    nats,
		redis:   redis,
		db:      db,
		timeout: 2 * time.Second,
	}
}

// WithLoop 附带调度器统计
func (h *Checker) WithLoop(loop LoopStats) *Checker {
	h.loop = loop
	return h
}

// Check 执行健康检查
func (h *Checker) Check(ctx context.Context) *Status {
	status := &Status{
		NATS:     StatusDisconnected,
		Redis:    h.ping(ctx, h.redis),
		Database: h.ping(ctx, h.db),
	}
	if h.nats != nil && h.nats.IsConnected() {
		status.NATS = StatusConnected
	}
	if h.loop != nil {
		stats := h.loop.GetStats()
		status.Loop = &stats
	}
	return status
}

func (h *Checker) ping(ctx context.Context, fn PingFunc) string {
	if fn == nil {
		return StatusDisconnected
	}
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		return StatusDisconnected
	}
	return StatusConnected
}

// IsHealthy 检查是否健康
func (h *Checker) IsHealthy(ctx context.Context) bool {
	return h.Check(ctx).Healthy()
}

// ServeHTTP HTTP 健康检查端点
func (h *Checker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := h.Check(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if status.Healthy() {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(status)
}
