package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sudooom.tetrecs/internal/game/core"
	"sudooom.tetrecs/internal/model"
	"sudooom.tetrecs/pkg/proto"
)

type fakePublisher struct {
	mu       sync.Mutex
	messages []*proto.DownstreamMessage
}

func (p *fakePublisher) PublishRoomEvent(roomID string, message *proto.DownstreamMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, message)
	return nil
}

func (p *fakePublisher) count(match func(proto.DownstreamPayload) bool) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, m := range p.messages {
		if match(m.Payload) {
			n++
		}
	}
	return n
}

func (p *fakePublisher) last(match func(proto.DownstreamPayload) bool) *proto.DownstreamMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.messages) - 1; i >= 0; i-- {
		if match(p.messages[i].Payload) {
			return p.messages[i]
		}
	}
	return nil
}

func isNextPiece(p proto.DownstreamPayload) bool   { return p.NextPiece != nil }
func isScoreUpdate(p proto.DownstreamPayload) bool { return p.ScoreUpdate != nil }
func isGameLoop(p proto.DownstreamPayload) bool    { return p.GameLoop != nil }
func isGameOver(p proto.DownstreamPayload) bool    { return p.GameOver != nil }

type scheduledLoop struct {
	delay time.Duration
	fn    func(ctx context.Context)
}

type fakeScheduler struct {
	mu        sync.Mutex
	tasks     map[string]scheduledLoop
	delays    []time.Duration
	cancelled []string
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{tasks: make(map[string]scheduledLoop)}
}

func (f *fakeScheduler) Schedule(key string, delay time.Duration, fn func(ctx context.Context)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks[key] = scheduledLoop{delay: delay, fn: fn}
	f.delays = append(f.delays, delay)
	return nil
}

func (f *fakeScheduler) Cancel(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.tasks[key]
	delete(f.tasks, key)
	f.cancelled = append(f.cancelled, key)
	return ok
}

func (f *fakeScheduler) pending(key string) (scheduledLoop, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[key]
	return t, ok
}

// fire 执行 key 当前的计时任务，模拟到期
func (f *fakeScheduler) fire(t *testing.T, key string) {
	t.Helper()
	task, ok := f.pending(key)
	require.True(t, ok, "no loop scheduled for %s", key)

	f.mu.Lock()
	delete(f.tasks, key)
	f.mu.Unlock()

	task.fn(context.Background())
}

type fakeRecorder struct {
	mu      sync.Mutex
	scores  map[string]int
	results []*model.GameResult
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{scores: make(map[string]int)}
}

func (r *fakeRecorder) Record(ctx context.Context, name string, score int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scores[name] = max(r.scores[name], score)
	return nil
}

func (r *fakeRecorder) Save(ctx context.Context, result *model.GameResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
	return nil
}

type serviceFixture struct {
	service   *GameService
	manager   *GameManager
	publisher *fakePublisher
	scheduler *fakeScheduler
	recorder  *fakeRecorder
}

func newServiceFixture(t *testing.T, config ServiceConfig) *serviceFixture {
	t.Helper()

	manager := NewGameManager(0, time.Hour, time.Hour)
	t.Cleanup(func() { _ = manager.Shutdown(context.Background()) })

	f := &serviceFixture{
		manager:   manager,
		publisher: &fakePublisher{},
		scheduler: newFakeScheduler(),
		recorder:  newFakeRecorder(),
	}
	f.service = NewGameService(manager, f.publisher, f.scheduler, f.recorder, f.recorder, config)
	return f
}

func seed(v int64) *int64 { return &v }

func (f *serviceFixture) start(t *testing.T) Snapshot {
	t.Helper()
	snap, err := f.service.StartGame(context.Background(), StartRequest{
		RoomID:     "room-1",
		PlayerID:   "p1",
		PlayerName: "alice",
		Seed:       seed(1),
	})
	require.NoError(t, err)
	return snap
}

func TestGameService_StartGame(t *testing.T) {
	f := newServiceFixture(t, ServiceConfig{})
	snap := f.start(t)

	assert.NotEmpty(t, snap.GameID)
	assert.Equal(t, "room-1", snap.RoomID)
	assert.Equal(t, core.StatusRunning, snap.State.Status)
	assert.Len(t, snap.State.Grid, 5)
	assert.Equal(t, core.DefaultLives, snap.State.Lives)
	assert.Equal(t, 1, f.manager.Count())

	// 开局推送一次方块队列，并按 0 级开始计时
	assert.Equal(t, 1, f.publisher.count(isNextPiece))
	loop, ok := f.scheduler.pending(snap.GameID)
	require.True(t, ok)
	assert.Equal(t, 12*time.Second, loop.delay)
}

func TestGameService_StartGameInvalidBoard(t *testing.T) {
	f := newServiceFixture(t, ServiceConfig{MaxBoardSize: 10})

	for _, size := range [][2]int{{-1, 5}, {5, 0}, {11, 5}} {
		_, err := f.service.StartGame(context.Background(), StartRequest{Cols: size[0], Rows: size[1]})
		assert.ErrorIs(t, err, ErrInvalidBoardSize, "size %v", size)
	}
	assert.Zero(t, f.manager.Count())
}

func TestGameService_PlaceRestartsLoop(t *testing.T) {
	f := newServiceFixture(t, ServiceConfig{})
	snap := f.start(t)

	// 空棋盘中心必然放得下
	result, err := f.service.Place(context.Background(), snap.GameID, "p1", 2, 2)
	require.NoError(t, err)
	assert.True(t, result.Placed)

	assert.Equal(t, 2, f.publisher.count(isNextPiece))
	assert.Equal(t, 1, f.publisher.count(isScoreUpdate))
	assert.Len(t, f.scheduler.delays, 2)
}

func TestGameService_RejectedPlacementPublishesNothing(t *testing.T) {
	f := newServiceFixture(t, ServiceConfig{})
	snap := f.start(t)

	// 整个方块都在棋盘外
	result, err := f.service.Place(context.Background(), snap.GameID, "p1", -5, -5)
	require.NoError(t, err)
	assert.False(t, result.Placed)

	assert.Equal(t, 1, f.publisher.count(isNextPiece))
	assert.Zero(t, f.publisher.count(isScoreUpdate))
	assert.Len(t, f.scheduler.delays, 1)
}

func TestGameService_StaleLoopIgnoredAfterPlacement(t *testing.T) {
	f := newServiceFixture(t, ServiceConfig{})
	snap := f.start(t)

	stale, ok := f.scheduler.pending(snap.GameID)
	require.True(t, ok)

	_, err := f.service.Place(context.Background(), snap.GameID, "p1", 2, 2)
	require.NoError(t, err)

	// 放置前的计时任务晚到，不能扣命
	stale.fn(context.Background())

	after, err := f.service.Snapshot(snap.GameID)
	require.NoError(t, err)
	assert.Equal(t, core.DefaultLives, after.State.Lives)
	assert.Zero(t, f.publisher.count(isGameLoop))
}

func TestGameService_LoopExpiryCostsLifeAndReschedules(t *testing.T) {
	f := newServiceFixture(t, ServiceConfig{})
	snap := f.start(t)

	f.scheduler.fire(t, snap.GameID)

	after, err := f.service.Snapshot(snap.GameID)
	require.NoError(t, err)
	assert.Equal(t, core.DefaultLives-1, after.State.Lives)
	assert.Equal(t, 1, after.State.Multiplier)

	loopMsg := f.publisher.last(isGameLoop)
	require.NotNil(t, loopMsg)
	assert.Equal(t, core.DefaultLives-1, loopMsg.Payload.GameLoop.Lives)
	assert.Equal(t, int64(12000), loopMsg.Payload.GameLoop.DelayMs)

	_, ok := f.scheduler.pending(snap.GameID)
	assert.True(t, ok, "next loop scheduled")
}

func TestGameService_RunningOutOfLivesEndsGame(t *testing.T) {
	f := newServiceFixture(t, ServiceConfig{Lives: 1})
	snap := f.start(t)

	f.scheduler.fire(t, snap.GameID) // lives 0
	f.scheduler.fire(t, snap.GameID) // lives -1，结束

	f.service.Wait()

	after, err := f.service.Snapshot(snap.GameID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusEnded, after.State.Status)
	assert.Equal(t, 1, f.publisher.count(isGameOver))
	assert.Contains(t, f.scheduler.cancelled, snap.GameID)

	f.recorder.mu.Lock()
	defer f.recorder.mu.Unlock()
	require.Len(t, f.recorder.results, 1)
	assert.Equal(t, snap.GameID, f.recorder.results[0].GameId)
	assert.Equal(t, "alice", f.recorder.results[0].PlayerName)
	assert.Contains(t, f.recorder.scores, "alice")
}

func TestGameService_QuitRecordsOnce(t *testing.T) {
	f := newServiceFixture(t, ServiceConfig{})
	snap := f.start(t)

	require.NoError(t, f.service.Quit(context.Background(), snap.GameID, "p1"))
	require.NoError(t, f.service.Quit(context.Background(), snap.GameID, "p1"))
	f.service.Wait()

	assert.Equal(t, 1, f.publisher.count(isGameOver))
	f.recorder.mu.Lock()
	assert.Len(t, f.recorder.results, 1)
	f.recorder.mu.Unlock()

	_, err := f.service.Place(context.Background(), snap.GameID, "p1", 2, 2)
	assert.ErrorIs(t, err, core.ErrGameNotRunning)
	assert.ErrorIs(t, f.service.Rotate(context.Background(), snap.GameID, "p1", 1), core.ErrGameNotRunning)
	assert.ErrorIs(t, f.service.Swap(context.Background(), snap.GameID, "p1"), core.ErrGameNotRunning)
}

func TestGameService_RotateAndSwapRepaintQueue(t *testing.T) {
	f := newServiceFixture(t, ServiceConfig{})
	snap := f.start(t)

	require.NoError(t, f.service.Rotate(context.Background(), snap.GameID, "p1", 1))
	rotated := f.publisher.last(isNextPiece)
	require.NotNil(t, rotated)
	assert.Equal(t, 1, rotated.Payload.NextPiece.Rotation)

	require.NoError(t, f.service.Swap(context.Background(), snap.GameID, "p1"))
	swapped := f.publisher.last(isNextPiece)
	assert.Equal(t, snap.State.Following, swapped.Payload.NextPiece.Current)
	assert.Equal(t, snap.State.Current, swapped.Payload.NextPiece.Following)
	assert.Equal(t, 3, f.publisher.count(isNextPiece))
}

func TestGameService_UnknownGame(t *testing.T) {
	f := newServiceFixture(t, ServiceConfig{})
	ctx := context.Background()

	_, err := f.service.Place(ctx, "missing", "p1", 0, 0)
	assert.ErrorIs(t, err, ErrGameNotFound)
	assert.ErrorIs(t, f.service.Rotate(ctx, "missing", "p1", 1), ErrGameNotFound)
	assert.ErrorIs(t, f.service.Swap(ctx, "missing", "p1"), ErrGameNotFound)
	assert.ErrorIs(t, f.service.Tick(ctx, "missing", "p1"), ErrGameNotFound)
	assert.ErrorIs(t, f.service.Quit(ctx, "missing", "p1"), ErrGameNotFound)
	_, err = f.service.Snapshot("missing")
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestGameService_ForeignPlayerCannotTouchGame(t *testing.T) {
	f := newServiceFixture(t, ServiceConfig{})
	snap := f.start(t)
	ctx := context.Background()

	// 同房间的 p2 拿到了 p1 的 gameId
	_, err := f.service.Place(ctx, snap.GameID, "p2", 2, 2)
	assert.ErrorIs(t, err, ErrNotGameOwner)
	assert.ErrorIs(t, f.service.Rotate(ctx, snap.GameID, "p2", 1), ErrNotGameOwner)
	assert.ErrorIs(t, f.service.Swap(ctx, snap.GameID, "p2"), ErrNotGameOwner)
	assert.ErrorIs(t, f.service.Tick(ctx, snap.GameID, "p2"), ErrNotGameOwner)
	assert.ErrorIs(t, f.service.Quit(ctx, snap.GameID, "p2"), ErrNotGameOwner)

	after, err := f.service.Snapshot(snap.GameID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusRunning, after.State.Status)
	assert.Equal(t, snap.State.Grid, after.State.Grid)
	assert.Equal(t, snap.State.Current, after.State.Current)
	assert.Equal(t, snap.State.Rotation, after.State.Rotation)
	assert.Equal(t, core.DefaultLives, after.State.Lives)

	// 开局之后没有任何新事件
	assert.Equal(t, 1, f.publisher.count(isNextPiece))
	assert.Zero(t, f.publisher.count(isGameOver))
}

func TestGameService_TickForcesLoopOnRunningGame(t *testing.T) {
	f := newServiceFixture(t, ServiceConfig{})
	snap := f.start(t)

	stale, ok := f.scheduler.pending(snap.GameID)
	require.True(t, ok)

	require.NoError(t, f.service.Tick(context.Background(), snap.GameID, "p1"))

	after, err := f.service.Snapshot(snap.GameID)
	require.NoError(t, err)
	assert.Equal(t, core.DefaultLives-1, after.State.Lives)
	assert.Equal(t, 1, f.publisher.count(isGameLoop))
	assert.Equal(t, 2, f.publisher.count(isNextPiece), "current piece discarded")
	assert.Len(t, f.scheduler.delays, 2, "timer restarted")

	// 强制到期前的计时任务作废
	stale.fn(context.Background())
	after, err = f.service.Snapshot(snap.GameID)
	require.NoError(t, err)
	assert.Equal(t, core.DefaultLives-1, after.State.Lives)
}

func TestGameService_TickUntilGameOver(t *testing.T) {
	f := newServiceFixture(t, ServiceConfig{Lives: 1})
	snap := f.start(t)
	ctx := context.Background()

	require.NoError(t, f.service.Tick(ctx, snap.GameID, "p1"))
	require.NoError(t, f.service.Tick(ctx, snap.GameID, "p1"))
	f.service.Wait()

	assert.Equal(t, 1, f.publisher.count(isGameOver))
	_, ok := f.scheduler.pending(snap.GameID)
	assert.False(t, ok)
	assert.ErrorIs(t, f.service.Tick(ctx, snap.GameID, "p1"), core.ErrGameNotRunning)
}

func TestSession_WhileRunningSkipsEndedGame(t *testing.T) {
	session := newTestSession("g")
	called := 0
	fn := func(delay time.Duration) {
		called++
		assert.Equal(t, 12*time.Second, delay)
	}

	assert.False(t, session.whileRunning(fn), "idle")
	require.NoError(t, session.Start())
	assert.True(t, session.whileRunning(fn))

	// 结束之后不能再安排计时
	session.End()
	assert.False(t, session.whileRunning(fn))
	assert.Equal(t, 1, called)
}
