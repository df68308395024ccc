package core

import (
	"fmt"
	"log/slog"
	"time"
)

const (
	// DefaultLives 初始生命数
	DefaultLives = 3

	// PointsPerBlock 每个被清除格子的基础分
	PointsPerBlock = 10

	// PointsPerLevel 每升一级所需分数
	PointsPerLevel = 1000

	// 计时器：基础 12 秒，每级减少 0.5 秒，最低 2.5 秒
	baseTimerDelay = 12000 * time.Millisecond
	levelTimerStep = 500 * time.Millisecond
	minTimerDelay  = 2500 * time.Millisecond
)

// Status 引擎状态，只能 Idle -> Running -> Ended 单向推进
type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusEnded   Status = "ended"
)

// Option 引擎配置项
type Option func(*Engine)

// WithPieceSource 注入方块随机源
func WithPieceSource(src PieceSource) Option {
	return func(e *Engine) { e.source = src }
}

// WithLives 设置初始生命数
func WithLives(lives int) Option {
	return func(e *Engine) { e.lives = lives }
}

// WithLogger 设置日志
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// PlacementResult 一次放置的结果
type PlacementResult struct {
	Placed     bool `json:"placed"`     // 是否放置成功
	Lines      int  `json:"lines"`      // 消除的行+列数
	Blocks     int  `json:"blocks"`     // 消除的不重复格子数
	Points     int  `json:"points"`     // 本次得分
	Multiplier int  `json:"multiplier"` // 放置后的倍率
}

// State 引擎状态快照
type State struct {
	Status     Status  `json:"status"`
	Score      int     `json:"score"`
	Level      int     `json:"level"`
	Lives      int     `json:"lives"`
	Multiplier int     `json:"multiplier"`
	Current    int     `json:"current"`   // 当前方块编号，未开始时为 -1
	Following  int     `json:"following"` // 下一个方块编号，未开始时为 -1
	Rotation   int     `json:"rotation"`  // 当前方块方向
	Grid       [][]int `json:"grid"`
}

// Engine 方块消除游戏引擎
// 单一所有者使用，内部不加锁；跨协程访问需要外部串行化
type Engine struct {
	grid   *Grid
	source PieceSource
	logger *slog.Logger

	status     Status
	current    *GamePiece
	following  *GamePiece
	score      int
	level      int
	lives      int
	multiplier int

	nextPieceListener   NextPieceListener
	lineClearedListener LineClearedListener
	gameLoopListener    GameLoopListener
	gameEndListener     GameEndListener
}

// NewEngine 创建 cols x rows 的游戏引擎
func NewEngine(cols, rows int, opts ...Option) *Engine {
	e := &Engine{
		grid:       NewGrid(cols, rows),
		logger:     slog.Default(),
		status:     StatusIdle,
		lives:      DefaultLives,
		multiplier: 1,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.source == nil {
		e.source = NewRandomSource()
	}
	return e
}

// Start 启动游戏
func (e *Engine) Start() error {
	if e.status != StatusIdle {
		return fmt.Errorf("%w: status %s", ErrAlreadyStarted, e.status)
	}
	e.logger.Info("Starting game", "cols", e.grid.Cols(), "rows", e.grid.Rows())
	e.status = StatusRunning
	e.initialiseGame()
	return nil
}

// initialiseGame 初始化方块队列：先抽取下一个方块，再提升为当前方块
func (e *Engine) initialiseGame() {
	e.logger.Debug("Initialising game")
	e.following = e.spawnPiece()
	e.nextPiece()
}

func (e *Engine) spawnPiece() *GamePiece {
	return SpawnPiece(e.source)
}

// nextPiece 下一个方块成为当前方块，并抽取新的下一个方块
func (e *Engine) nextPiece() {
	e.current = e.following
	e.following = e.spawnPiece()
	e.logger.Debug("Next piece", "current", e.current, "following", e.following)
	e.fireNextPiece()
}

// BlockClicked 在 (x, y) 放置当前方块
// 放不下属于正常的用户输入，返回 Placed=false，状态不变且不触发任何监听器
func (e *Engine) BlockClicked(x, y int) (PlacementResult, error) {
	if e.status != StatusRunning {
		return PlacementResult{}, ErrGameNotRunning
	}

	if !e.grid.CanPlayPiece(e.current, x, y) {
		e.logger.Debug("Piece rejected", "piece", e.current, "x", x, "y", y)
		return PlacementResult{Placed: false, Multiplier: e.multiplier}, nil
	}

	e.grid.PlayPiece(e.current, x, y)
	e.nextPiece()

	result := e.afterPiece()
	result.Placed = true
	return result, nil
}

// afterPiece 扫描满行/满列，清除并计分
func (e *Engine) afterPiece() PlacementResult {
	cleared := NewCoordinateSet(e.grid.Cols())
	lines := 0

	for x := 0; x < e.grid.Cols(); x++ {
		if !e.grid.columnFull(x) {
			continue
		}
		lines++
		for y := 0; y < e.grid.Rows(); y++ {
			cleared.Add(Coordinate{X: x, Y: y})
		}
	}
	for y := 0; y < e.grid.Rows(); y++ {
		if !e.grid.rowFull(y) {
			continue
		}
		lines++
		for x := 0; x < e.grid.Cols(); x++ {
			cleared.Add(Coordinate{X: x, Y: y})
		}
	}

	if lines == 0 {
		e.multiplier = 1
		return PlacementResult{Multiplier: e.multiplier}
	}

	blocks := cleared.Len()
	e.grid.ClearCells(cleared)
	points := e.addScore(lines, blocks)
	e.multiplier++

	e.logger.Debug("Lines cleared",
		"lines", lines,
		"blocks", blocks,
		"points", points,
		"score", e.score,
		"multiplier", e.multiplier)

	e.fireLineCleared(cleared)

	return PlacementResult{
		Lines:      lines,
		Blocks:     blocks,
		Points:     points,
		Multiplier: e.multiplier,
	}
}

// addScore 按 lines × blocks × 10 × multiplier 加分并重算等级，返回本次得分
func (e *Engine) addScore(lines, blocks int) int {
	points := lines * blocks * PointsPerBlock * e.multiplier
	e.score += points
	if level := e.score / PointsPerLevel; level != e.level {
		e.logger.Info("Level up", "level", level, "score", e.score)
		e.level = level
	}
	return points
}

// RotateCurrentPiece 顺时针旋转当前方块，不消耗队列
func (e *Engine) RotateCurrentPiece() error {
	return e.RotateCurrentPieceBy(1)
}

// RotateCurrentPieceBy 旋转当前方块 n 步，负数为逆时针
func (e *Engine) RotateCurrentPieceBy(n int) error {
	if e.status != StatusRunning {
		return ErrGameNotRunning
	}
	e.current.RotateBy(n)
	e.fireNextPiece()
	return nil
}

// SwapCurrentPiece 交换当前方块与下一个方块，不抽取新方块，不影响分数和倍率
func (e *Engine) SwapCurrentPiece() error {
	if e.status != StatusRunning {
		return ErrGameNotRunning
	}
	e.current, e.following = e.following, e.current
	e.fireNextPiece()
	return nil
}

// GameLoop 计时器到期：扣一条命，重置倍率并丢弃当前方块
// 生命数降到 0 以下时结束游戏
func (e *Engine) GameLoop() error {
	if e.status != StatusRunning {
		return ErrGameNotRunning
	}

	e.lives--
	e.multiplier = 1
	e.logger.Info("Game loop expired", "lives", e.lives)

	if e.lives < 0 {
		e.End()
		return nil
	}

	e.nextPiece()
	e.fireGameLoop(e.TimerDelay())
	return nil
}

// End 结束游戏，重复调用无副作用
func (e *Engine) End() {
	if e.status == StatusEnded {
		return
	}
	e.status = StatusEnded
	e.logger.Info("Game ended", "score", e.score, "level", e.level)
	e.fireGameEnd()
}

// TimerDelay 当前等级的计时时长
func (e *Engine) TimerDelay() time.Duration {
	return max(minTimerDelay, baseTimerDelay-time.Duration(e.level)*levelTimerStep)
}

// Grid 棋盘
func (e *Engine) Grid() *Grid { return e.grid }

// Cols 列数
func (e *Engine) Cols() int { return e.grid.Cols() }

// Rows 行数
func (e *Engine) Rows() int { return e.grid.Rows() }

// Status 当前状态
func (e *Engine) Status() Status { return e.status }

// CurrentPiece 当前方块
func (e *Engine) CurrentPiece() *GamePiece { return e.current }

// FollowingPiece 下一个方块
func (e *Engine) FollowingPiece() *GamePiece { return e.following }

// Score 分数
func (e *Engine) Score() int { return e.score }

// Level 等级
func (e *Engine) Level() int { return e.level }

// Lives 剩余生命
func (e *Engine) Lives() int { return e.lives }

// Multiplier 当前倍率
func (e *Engine) Multiplier() int { return e.multiplier }

// State 返回引擎状态快照
func (e *Engine) State() State {
	s := State{
		Status:     e.status,
		Score:      e.score,
		Level:      e.level,
		Lives:      e.lives,
		Multiplier: e.multiplier,
		Current:    -1,
		Following:  -1,
		Grid:       e.grid.Snapshot(),
	}
	if e.current != nil {
		s.Current = e.current.Index()
		s.Rotation = e.current.Rotation()
	}
	if e.following != nil {
		s.Following = e.following.Index()
	}
	return s
}
