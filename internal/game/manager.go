package game

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// GameManager 游戏管理器
type GameManager struct {
	games sync.Map // gameId -> *Session

	maxGames     int
	evictTimeout time.Duration
	evictTicker  *time.Ticker

	stopChan chan struct{}
	stopOnce sync.Once

	logger *slog.Logger
}

// NewGameManager 创建游戏管理器，maxGames <= 0 表示不限制
func NewGameManager(maxGames int, evictTimeout, evictInterval time.Duration) *GameManager {
	if evictInterval <= 0 {
		evictInterval = 60 * time.Second
	}

	m := &GameManager{
		maxGames:     maxGames,
		evictTimeout: evictTimeout,
		evictTicker:  time.NewTicker(evictInterval),
		stopChan:     make(chan struct{}),
		logger:       slog.Default().With("component", "GameManager"),
	}

	go m.evictLoop()

	return m
}

// Add 登记一局游戏；已结束等待淘汰的游戏不占名额
func (m *GameManager) Add(session *Session) error {
	if m.maxGames > 0 && m.ActiveCount() >= m.maxGames {
		return ErrTooManyGames
	}
	if _, loaded := m.games.LoadOrStore(session.ID(), session); loaded {
		return ErrGameExists
	}
	m.logger.Info("Added game", "gameId", session.ID(), "playerId", session.PlayerID())
	return nil
}

// Get 获取游戏
func (m *GameManager) Get(gameID string) (*Session, bool) {
	val, ok := m.games.Load(gameID)
	if !ok {
		return nil, false
	}
	return val.(*Session), true
}

// Remove 移除游戏
func (m *GameManager) Remove(gameID string) {
	if _, ok := m.games.LoadAndDelete(gameID); ok {
		m.logger.Info("Removed game", "gameId", gameID)
	}
}

// Count 返回当前游戏数
func (m *GameManager) Count() int {
	count := 0
	m.games.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

// ActiveCount 返回未结束的游戏数
func (m *GameManager) ActiveCount() int {
	count := 0
	m.Range(func(session *Session) bool {
		if !session.IsEnded() {
			count++
		}
		return true
	})
	return count
}

// Range 遍历所有游戏，fn 返回 false 时停止
func (m *GameManager) Range(fn func(session *Session) bool) {
	m.games.Range(func(_, value any) bool {
		return fn(value.(*Session))
	})
}

// evictLoop 淘汰循环
func (m *GameManager) evictLoop() {
	for {
		select {
		case <-m.evictTicker.C:
			m.evictInactive(time.Now())
		case <-m.stopChan:
			m.logger.Info("Evict loop stopped")
			return
		}
	}
}

// evictInactive 结束并移除不活跃的游戏
func (m *GameManager) evictInactive(now time.Time) int {
	toEvict := []*Session{}

	m.Range(func(session *Session) bool {
		if now.Sub(session.LastActiveTime()) > m.evictTimeout {
			toEvict = append(toEvict, session)
		}
		return true
	})

	for _, session := range toEvict {
		// 已结束的游戏 End 无副作用
		session.End()
		m.Remove(session.ID())
		m.logger.Info("Evicted inactive game", "gameId", session.ID())
	}
	return len(toEvict)
}

// Shutdown 关闭管理器，结束所有进行中的游戏以便结算
func (m *GameManager) Shutdown(ctx context.Context) error {
	m.logger.Info("Shutting down GameManager")

	m.stopOnce.Do(func() {
		close(m.stopChan)
		m.evictTicker.Stop()
	})

	ended := 0
	m.Range(func(session *Session) bool {
		if ctx.Err() != nil {
			return false
		}
		if !session.IsEnded() {
			session.End()
			ended++
		}
		return true
	})

	m.logger.Info("GameManager shutdown complete", "ended", ended)
	return ctx.Err()
}
