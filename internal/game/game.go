package game

import (
	"sync"
	"sync/atomic"
	"time"

	"sudooom.tetrecs/internal/game/core"
	"sudooom.tetrecs/internal/model"
)

// Session 一局游戏
// 引擎本身不加锁，Session 用互斥锁把 NATS worker 与循环计时器的调用串行化
// 引擎监听器在持锁期间执行，监听器内不能再调用 Session 的加锁方法
type Session struct {
	mu sync.Mutex

	id         string
	roomID     string
	playerID   string
	playerName string
	engine     *core.Engine

	startedAt    time.Time
	lastActive   time.Time
	linesCleared int

	// loopSeq 每次重新计时递增，过期的计时任务据此丢弃
	loopSeq atomic.Uint64
}

// Stats 计分信息
type Stats struct {
	Score      int `json:"score"`
	Level      int `json:"level"`
	Lives      int `json:"lives"`
	Multiplier int `json:"multiplier"`
}

func statsOf(e *core.Engine) Stats {
	return Stats{
		Score:      e.Score(),
		Level:      e.Level(),
		Lives:      e.Lives(),
		Multiplier: e.Multiplier(),
	}
}

// Snapshot 游戏快照（只读）
type Snapshot struct {
	GameID       string     `json:"gameId"`
	RoomID       string     `json:"roomId"`
	PlayerID     string     `json:"playerId"`
	PlayerName   string     `json:"playerName"`
	LinesCleared int        `json:"linesCleared"`
	StartedAt    time.Time  `json:"startedAt"`
	LastActive   time.Time  `json:"lastActive"`
	State        core.State `json:"state"`
}

// NewSession 创建游戏
func NewSession(id, roomID, playerID, playerName string, engine *core.Engine) *Session {
	now := time.Now()
	return &Session{
		id:         id,
		roomID:     roomID,
		playerID:   playerID,
		playerName: playerName,
		engine:     engine,
		startedAt:  now,
		lastActive: now,
	}
}

// ID 游戏ID
func (s *Session) ID() string { return s.id }

// RoomID 房间ID
func (s *Session) RoomID() string { return s.roomID }

// PlayerID 玩家ID
func (s *Session) PlayerID() string { return s.playerID }

// Start 启动引擎
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touch()
	return s.engine.Start()
}

// Place 放置当前方块
func (s *Session) Place(x, y int) (core.PlacementResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.engine.BlockClicked(x, y)
	if err != nil {
		return result, err
	}
	if result.Placed {
		// 放置成功后当前计时作废
		s.loopSeq.Add(1)
		s.linesCleared += result.Lines
	}
	s.touch()
	return result, nil
}

// Rotate 旋转当前方块
func (s *Session) Rotate(turns int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touch()
	return s.engine.RotateCurrentPieceBy(turns)
}

// Swap 交换当前方块与下一个方块
func (s *Session) Swap() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touch()
	return s.engine.SwapCurrentPiece()
}

// Tick 立即触发一次循环超时，等同计时到期
func (s *Session) Tick() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.engine.GameLoop()
}

// tickIf 计时任务到期；seq 不是最新计时时忽略，返回 false
func (s *Session) tickIf(seq uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.loopSeq.Load() {
		return false, nil
	}
	return true, s.engine.GameLoop()
}

// whileRunning 游戏进行中时持锁执行 fn，参数为当前等级的计时时长
// 与 End 串行，fn 内安排的计时不会落在已结束的游戏上
func (s *Session) whileRunning(fn func(delay time.Duration)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine.Status() != core.StatusRunning {
		return false
	}
	fn(s.engine.TimerDelay())
	return true
}

// End 结束游戏
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.engine.End()
}

// Stats 当前分数、等级、生命与倍率
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return statsOf(s.engine)
}

// IsEnded 是否已结束
func (s *Session) IsEnded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Status() == core.StatusEnded
}

// Snapshot 获取快照
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		GameID:       s.id,
		RoomID:       s.roomID,
		PlayerID:     s.playerID,
		PlayerName:   s.playerName,
		LinesCleared: s.linesCleared,
		StartedAt:    s.startedAt,
		LastActive:   s.lastActive,
		State:        s.engine.State(),
	}
}

// LastActiveTime 获取最后活跃时间
func (s *Session) LastActiveTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// nextLoopSeq 开始新一轮计时，之前的计时任务作废
func (s *Session) nextLoopSeq() uint64 {
	return s.loopSeq.Add(1)
}

// resultLocked 构造结算记录，调用方必须已持有锁（监听器内）
func (s *Session) resultLocked(endedAt time.Time) *model.GameResult {
	return &model.GameResult{
		GameId:       s.id,
		RoomId:       s.roomID,
		PlayerId:     s.playerID,
		PlayerName:   s.playerName,
		Score:        s.engine.Score(),
		Level:        s.engine.Level(),
		LinesCleared: s.linesCleared,
		StartedAt:    s.startedAt,
		EndedAt:      endedAt,
	}
}

func (s *Session) touch() {
	s.lastActive = time.Now()
}
