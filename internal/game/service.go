package game

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"sudooom.tetrecs/internal/game/core"
	"sudooom.tetrecs/internal/model"
	"sudooom.tetrecs/pkg/proto"
)

// EventPublisher 房间事件发布
type EventPublisher interface {
	PublishRoomEvent(roomID string, message *proto.DownstreamMessage) error
}

// LoopScheduler 循环计时调度，同一个 key 只保留最后一次调度
type LoopScheduler interface {
	Schedule(key string, delay time.Duration, fn func(ctx context.Context)) error
	Cancel(key string) bool
}

// ScoreRecorder 在线高分榜
type ScoreRecorder interface {
	Record(ctx context.Context, name string, score int) error
}

// ResultStore 历史战绩存储
type ResultStore interface {
	Save(ctx context.Context, result *model.GameResult) error
}

// ServiceConfig 游戏服务配置
type ServiceConfig struct {
	Cols          int
	Rows          int
	MaxBoardSize  int
	Lives         int
	RecordTimeout time.Duration
}

// StartRequest 开始游戏请求
type StartRequest struct {
	RoomID     string
	PlayerID   string
	PlayerName string
	Cols       int
	Rows       int
	Seed       *int64
}

// GameService 游戏服务
type GameService struct {
	manager   *GameManager
	publisher EventPublisher
	scheduler LoopScheduler
	scores    ScoreRecorder
	results   ResultStore
	config    ServiceConfig
	wg        sync.WaitGroup
	logger    *slog.Logger
}

// NewGameService 创建游戏服务；scores 与 results 可以为 nil
func NewGameService(
	manager *GameManager,
	publisher EventPublisher,
	scheduler LoopScheduler,
	scores ScoreRecorder,
	results ResultStore,
	config ServiceConfig,
) *GameService {
	if config.Cols <= 0 {
		config.Cols = 5
	}
	if config.Rows <= 0 {
		config.Rows = 5
	}
	if config.MaxBoardSize <= 0 {
		config.MaxBoardSize = 32
	}
	if config.RecordTimeout <= 0 {
		config.RecordTimeout = 5 * time.Second
	}

	return &GameService{
		manager:   manager,
		publisher: publisher,
		scheduler: scheduler,
		scores:    scores,
		results:   results,
		config:    config,
		logger:    slog.Default().With("component", "GameService"),
	}
}

// StartGame 创建并启动一局游戏
func (s *GameService) StartGame(ctx context.Context, req StartRequest) (Snapshot, error) {
	cols, rows := req.Cols, req.Rows
	if cols == 0 && rows == 0 {
		cols, rows = s.config.Cols, s.config.Rows
	}
	if cols <= 0 || rows <= 0 || cols > s.config.MaxBoardSize || rows > s.config.MaxBoardSize {
		return Snapshot{}, fmt.Errorf("%w: %dx%d", ErrInvalidBoardSize, cols, rows)
	}

	gameID := uuid.NewString()
	logger := s.logger.With("gameId", gameID, "playerId", req.PlayerID)

	opts := []core.Option{core.WithLogger(logger)}
	if s.config.Lives > 0 {
		opts = append(opts, core.WithLives(s.config.Lives))
	}
	if req.Seed != nil {
		opts = append(opts, core.WithPieceSource(core.NewSeededSource(*req.Seed)))
	}

	engine := core.NewEngine(cols, rows, opts...)
	session := NewSession(gameID, req.RoomID, req.PlayerID, req.PlayerName, engine)
	s.bindListeners(session, engine)

	if err := s.manager.Add(session); err != nil {
		return Snapshot{}, fmt.Errorf("add game: %w", err)
	}
	if err := session.Start(); err != nil {
		s.manager.Remove(gameID)
		return Snapshot{}, fmt.Errorf("start game: %w", err)
	}
	session.whileRunning(func(delay time.Duration) {
		s.scheduleLoop(session, delay)
	})

	logger.Info("Game started", "roomId", req.RoomID, "cols", cols, "rows", rows)
	return session.Snapshot(), nil
}

// Place 放置当前方块，放置成功后重新计时
func (s *GameService) Place(ctx context.Context, gameID, playerID string, x, y int) (core.PlacementResult, error) {
	session, err := s.owned(gameID, playerID)
	if err != nil {
		return core.PlacementResult{}, err
	}

	result, err := session.Place(x, y)
	if err != nil {
		return result, fmt.Errorf("place piece: %w", err)
	}
	if !result.Placed {
		return result, nil
	}

	s.publish(session, proto.DownstreamPayload{ScoreUpdate: scoreUpdate(session.Stats())})
	session.whileRunning(func(delay time.Duration) {
		s.scheduleLoop(session, delay)
	})
	return result, nil
}

// Rotate 旋转当前方块
func (s *GameService) Rotate(ctx context.Context, gameID, playerID string, turns int) error {
	session, err := s.owned(gameID, playerID)
	if err != nil {
		return err
	}
	if err := session.Rotate(turns); err != nil {
		return fmt.Errorf("rotate piece: %w", err)
	}
	return nil
}

// Swap 交换当前方块与下一个方块
func (s *GameService) Swap(ctx context.Context, gameID, playerID string) error {
	session, err := s.owned(gameID, playerID)
	if err != nil {
		return err
	}
	if err := session.Swap(); err != nil {
		return fmt.Errorf("swap piece: %w", err)
	}
	return nil
}

// Tick 玩家放弃当前方块，立即按计时到期处理：扣命并重新计时
func (s *GameService) Tick(ctx context.Context, gameID, playerID string) error {
	session, err := s.owned(gameID, playerID)
	if err != nil {
		return err
	}
	if err := session.Tick(); err != nil {
		return fmt.Errorf("game loop: %w", err)
	}
	return nil
}

// Quit 玩家主动结束游戏
func (s *GameService) Quit(ctx context.Context, gameID, playerID string) error {
	session, err := s.owned(gameID, playerID)
	if err != nil {
		return err
	}
	session.End()
	return nil
}

// Snapshot 获取游戏快照
func (s *GameService) Snapshot(gameID string) (Snapshot, error) {
	session, err := s.session(gameID)
	if err != nil {
		return Snapshot{}, err
	}
	return session.Snapshot(), nil
}

// Wait 等待未完成的结算写入
func (s *GameService) Wait() {
	s.wg.Wait()
}

func (s *GameService) session(gameID string) (*Session, error) {
	session, ok := s.manager.Get(gameID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	return session, nil
}

// owned 获取玩家自己的游戏，不能操作同房间其他玩家的游戏
func (s *GameService) owned(gameID, playerID string) (*Session, error) {
	session, err := s.session(gameID)
	if err != nil {
		return nil, err
	}
	if session.PlayerID() != playerID {
		return nil, fmt.Errorf("%w: %s by %s", ErrNotGameOwner, gameID, playerID)
	}
	return session, nil
}

// bindListeners 把引擎事件转为房间广播
// 监听器在 Session 持锁期间执行，只能直接读引擎
func (s *GameService) bindListeners(session *Session, engine *core.Engine) {
	engine.SetNextPieceListener(func(current, following *core.GamePiece) {
		s.publish(session, proto.DownstreamPayload{NextPiece: &proto.NextPiece{
			Current:   current.Index(),
			Following: following.Index(),
			Rotation:  current.Rotation(),
			Blocks:    maskRows(current.Blocks()),
		}})
	})

	engine.SetLineClearedListener(func(cleared *core.CoordinateSet) {
		coords := cleared.Coordinates()
		blocks := make([]proto.Coordinate, 0, len(coords))
		for _, c := range coords {
			blocks = append(blocks, proto.Coordinate{X: c.X, Y: c.Y})
		}
		s.publish(session, proto.DownstreamPayload{LinesCleared: &proto.LinesCleared{Blocks: blocks}})
	})

	engine.SetOnGameLoop(func(nextDelay time.Duration) {
		s.publish(session, proto.DownstreamPayload{GameLoop: &proto.GameLoop{
			Lives:   engine.Lives(),
			DelayMs: nextDelay.Milliseconds(),
		}})
		s.publish(session, proto.DownstreamPayload{ScoreUpdate: scoreUpdate(statsOf(engine))})
		s.scheduleLoop(session, nextDelay)
	})

	engine.SetGameEndListener(func(e *core.Engine) {
		s.scheduler.Cancel(session.ID())

		result := session.resultLocked(time.Now())
		s.publish(session, proto.DownstreamPayload{GameOver: &proto.GameOver{
			Score:        result.Score,
			Level:        result.Level,
			LinesCleared: result.LinesCleared,
		}})
		s.record(result)
	})
}

// scheduleLoop 开始新一轮计时
func (s *GameService) scheduleLoop(session *Session, delay time.Duration) {
	seq := session.nextLoopSeq()
	err := s.scheduler.Schedule(session.ID(), delay, func(ctx context.Context) {
		s.onLoopExpired(session, seq)
	})
	if err != nil {
		s.logger.Error("Failed to schedule game loop", "gameId", session.ID(), "error", err)
	}
}

// onLoopExpired 计时任务回调
func (s *GameService) onLoopExpired(session *Session, seq uint64) {
	fired, err := session.tickIf(seq)
	if err != nil {
		s.logger.Debug("Game loop skipped", "gameId", session.ID(), "error", err)
		return
	}
	if !fired {
		s.logger.Debug("Stale game loop ignored", "gameId", session.ID(), "seq", seq)
	}
}

// record 异步写入高分榜和历史战绩
func (s *GameService) record(result *model.GameResult) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.config.RecordTimeout)
		defer cancel()

		if s.scores != nil {
			if err := s.scores.Record(ctx, result.PlayerName, result.Score); err != nil {
				s.logger.Warn("Failed to record high score", "gameId", result.GameId, "error", err)
			}
		}
		if s.results != nil {
			if err := s.results.Save(ctx, result); err != nil {
				s.logger.Warn("Failed to save game result", "gameId", result.GameId, "error", err)
			}
		}

		s.logger.Info("Game result recorded",
			"gameId", result.GameId,
			"player", result.PlayerName,
			"score", result.Score,
			"level", result.Level)
	}()
}

func (s *GameService) publish(session *Session, payload proto.DownstreamPayload) {
	if s.publisher == nil {
		return
	}
	message := &proto.DownstreamMessage{
		GameId:    session.ID(),
		RoomId:    session.RoomID(),
		PlayerId:  session.PlayerID(),
		Timestamp: time.Now().UnixMilli(),
		Payload:   payload,
	}
	if err := s.publisher.PublishRoomEvent(session.RoomID(), message); err != nil {
		s.logger.Warn("Failed to publish game event", "gameId", session.ID(), "error", err)
	}
}

func scoreUpdate(stats Stats) *proto.ScoreUpdate {
	return &proto.ScoreUpdate{
		Score:      stats.Score,
		Level:      stats.Level,
		Lives:      stats.Lives,
		Multiplier: stats.Multiplier,
	}
}

func maskRows(m core.Mask) [][]int {
	rows := make([][]int, len(m))
	for x := range m {
		rows[x] = append([]int(nil), m[x][:]...)
	}
	return rows
}
