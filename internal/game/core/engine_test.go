package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	pieceLine = 0
	pieceDot  = 3
)

// sequenceSource 按固定序列循环返回方块编号
type sequenceSource struct {
	seq []int
	i   int
}

func (s *sequenceSource) Intn(n int) int {
	v := s.seq[s.i%len(s.seq)] % n
	s.i++
	return v
}

func newTestEngine(t *testing.T, cols, rows int, seq ...int) *Engine {
	t.Helper()
	e := NewEngine(cols, rows, WithPieceSource(&sequenceSource{seq: seq}))
	require.NoError(t, e.Start())
	return e
}

func TestEngine_StartSeedsQueue(t *testing.T) {
	var calls int
	var gotCurrent, gotFollowing *GamePiece

	e := NewEngine(5, 5, WithPieceSource(&sequenceSource{seq: []int{4, 9}}))
	e.SetNextPieceListener(func(current, following *GamePiece) {
		calls++
		gotCurrent, gotFollowing = current, following
	})

	assert.Equal(t, StatusIdle, e.Status())
	require.NoError(t, e.Start())
	assert.Equal(t, StatusRunning, e.Status())

	require.NotNil(t, e.CurrentPiece())
	require.NotNil(t, e.FollowingPiece())
	assert.NotSame(t, e.CurrentPiece(), e.FollowingPiece())

	// 先抽取的成为当前方块
	assert.Equal(t, 4, e.CurrentPiece().Index())
	assert.Equal(t, 9, e.FollowingPiece().Index())

	assert.Equal(t, 1, calls)
	assert.Same(t, e.CurrentPiece(), gotCurrent)
	assert.Same(t, e.FollowingPiece(), gotFollowing)

	assert.Equal(t, 0, e.Score())
	assert.Equal(t, 0, e.Level())
	assert.Equal(t, DefaultLives, e.Lives())
	assert.Equal(t, 1, e.Multiplier())
}

func TestEngine_SameShapeDrawsAreDistinctObjects(t *testing.T) {
	e := newTestEngine(t, 5, 5, pieceDot)

	assert.Equal(t, e.CurrentPiece().Index(), e.FollowingPiece().Index())
	assert.NotSame(t, e.CurrentPiece(), e.FollowingPiece())

	e.CurrentPiece().Rotate()
	assert.Equal(t, 0, e.FollowingPiece().Rotation())
}

func TestEngine_StartTwice(t *testing.T) {
	e := newTestEngine(t, 5, 5, pieceDot)
	assert.ErrorIs(t, e.Start(), ErrAlreadyStarted)
}

func TestEngine_ActionsBeforeStart(t *testing.T) {
	e := NewEngine(5, 5)

	_, err := e.BlockClicked(1, 1)
	assert.ErrorIs(t, err, ErrGameNotRunning)
	assert.ErrorIs(t, e.RotateCurrentPiece(), ErrGameNotRunning)
	assert.ErrorIs(t, e.SwapCurrentPiece(), ErrGameNotRunning)
	assert.ErrorIs(t, e.GameLoop(), ErrGameNotRunning)

	s := e.State()
	assert.Equal(t, -1, s.Current)
	assert.Equal(t, -1, s.Following)
}

func TestEngine_RejectedPlacementChangesNothing(t *testing.T) {
	e := newTestEngine(t, 5, 5, pieceLine, pieceDot)

	var listenerCalls int
	e.SetNextPieceListener(func(_, _ *GamePiece) { listenerCalls++ })
	e.SetLineClearedListener(func(_ *CoordinateSet) { listenerCalls++ })

	before := e.State()
	current := e.CurrentPiece()

	// 水平线放在最左列会越界
	result, err := e.BlockClicked(0, 2)
	require.NoError(t, err)
	assert.False(t, result.Placed)

	assert.Equal(t, before, e.State())
	assert.Same(t, current, e.CurrentPiece())
	assert.Zero(t, listenerCalls)
}

func TestEngine_PlacementAdvancesQueue(t *testing.T) {
	e := newTestEngine(t, 5, 5, pieceDot, pieceLine, 10)

	var got [][2]int
	e.SetNextPieceListener(func(current, following *GamePiece) {
		got = append(got, [2]int{current.Index(), following.Index()})
	})

	following := e.FollowingPiece()
	result, err := e.BlockClicked(2, 2)
	require.NoError(t, err)
	assert.True(t, result.Placed)
	assert.Zero(t, result.Lines)

	assert.Same(t, following, e.CurrentPiece())
	assert.Equal(t, [][2]int{{pieceLine, 10}}, got)

	v, _ := e.Grid().Get(2, 2)
	assert.Equal(t, pieceDot+1, v)
}

func TestEngine_ColumnScenario(t *testing.T) {
	e := newTestEngine(t, 5, 5, pieceDot)

	var cleared []Coordinate
	var clearCalls int
	e.SetLineClearedListener(func(set *CoordinateSet) {
		clearCalls++
		cleared = set.Coordinates()
	})

	for y := 0; y < 4; y++ {
		result, err := e.BlockClicked(0, y)
		require.NoError(t, err)
		require.True(t, result.Placed)
		assert.Zero(t, result.Lines)
		assert.Equal(t, 1, e.Multiplier())
	}
	assert.Zero(t, clearCalls)

	result, err := e.BlockClicked(0, 4)
	require.NoError(t, err)
	assert.Equal(t, PlacementResult{Placed: true, Lines: 1, Blocks: 5, Points: 50, Multiplier: 2}, result)

	assert.Equal(t, 50, e.Score())
	assert.Equal(t, 2, e.Multiplier())
	assert.Equal(t, 1, clearCalls)
	assert.Equal(t, []Coordinate{{0, 0}, {0, 1}, {0, 2}, {0, 3}, {0, 4}}, cleared)

	for y := 0; y < 5; y++ {
		v, _ := e.Grid().Get(0, y)
		assert.Zero(t, v)
	}
}

func TestEngine_RowAndColumnIntersection(t *testing.T) {
	e := newTestEngine(t, 5, 5, pieceDot)

	for i := 0; i < 5; i++ {
		if i == 2 {
			continue
		}
		require.NoError(t, e.Grid().Set(2, i, 1))
		require.NoError(t, e.Grid().Set(i, 2, 1))
	}
	// 与清除无关的格子应保留
	require.NoError(t, e.Grid().Set(0, 0, 4))

	var cleared *CoordinateSet
	e.SetLineClearedListener(func(set *CoordinateSet) { cleared = set })

	result, err := e.BlockClicked(2, 2)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Lines)
	assert.Equal(t, 5+5-1, result.Blocks)
	assert.Equal(t, 2*9*10*1, result.Points)
	assert.Equal(t, 180, e.Score())

	require.NotNil(t, cleared)
	assert.Equal(t, 9, cleared.Len())
	assert.True(t, cleared.Contains(Coordinate{X: 2, Y: 2}))

	v, _ := e.Grid().Get(0, 0)
	assert.Equal(t, 4, v)
	v, _ = e.Grid().Get(2, 2)
	assert.Zero(t, v)
}

func TestEngine_MultiplierSequence(t *testing.T) {
	e := newTestEngine(t, 3, 3, pieceDot)

	fillColumnExceptLast := func(x int) {
		for y := 0; y < 2; y++ {
			require.NoError(t, e.Grid().Set(x, y, 1))
		}
	}

	// 第一次消除：倍率 1 -> 2
	fillColumnExceptLast(0)
	r, err := e.BlockClicked(0, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Lines)
	assert.Equal(t, 30, r.Points)
	assert.Equal(t, 2, e.Multiplier())

	// 第二次消除使用倍率 2：1×3×10×2
	fillColumnExceptLast(1)
	r, err = e.BlockClicked(1, 2)
	require.NoError(t, err)
	assert.Equal(t, 60, r.Points)
	assert.Equal(t, 3, e.Multiplier())
	assert.Equal(t, 90, e.Score())

	// 不消除任何行：倍率重置为 1，分数不变
	r, err = e.BlockClicked(2, 2)
	require.NoError(t, err)
	assert.True(t, r.Placed)
	assert.Zero(t, r.Lines)
	assert.Equal(t, 1, e.Multiplier())
	assert.Equal(t, 90, e.Score())
}

func TestEngine_MultiplierGrowsByOneRegardlessOfLines(t *testing.T) {
	e := newTestEngine(t, 3, 3, pieceDot)

	// 一次清除两行一列
	for x := 0; x < 3; x++ {
		for y := 0; y < 3; y++ {
			if x == 2 && y == 2 {
				continue
			}
			require.NoError(t, e.Grid().Set(x, y, 1))
		}
	}

	r, err := e.BlockClicked(2, 2)
	require.NoError(t, err)
	assert.Equal(t, 6, r.Lines)
	assert.Equal(t, 9, r.Blocks)
	assert.Equal(t, 2, e.Multiplier())
}

func TestEngine_SecondScanIsNoop(t *testing.T) {
	e := newTestEngine(t, 3, 3, pieceDot)
	for y := 0; y < 2; y++ {
		require.NoError(t, e.Grid().Set(0, y, 1))
	}
	_, err := e.BlockClicked(0, 2)
	require.NoError(t, err)
	score := e.Score()

	var fired bool
	e.SetLineClearedListener(func(_ *CoordinateSet) { fired = true })

	r := e.afterPiece()
	assert.Zero(t, r.Lines)
	assert.Zero(t, r.Points)
	assert.Equal(t, score, e.Score())
	assert.False(t, fired)
}

func TestEngine_LevelFollowsScore(t *testing.T) {
	e := newTestEngine(t, 5, 5, pieceDot)
	e.score = 990

	for y := 0; y < 4; y++ {
		require.NoError(t, e.Grid().Set(0, y, 1))
	}
	_, err := e.BlockClicked(0, 4)
	require.NoError(t, err)

	assert.Equal(t, 1040, e.Score())
	assert.Equal(t, e.Score()/1000, e.Level())
	assert.Equal(t, 1, e.Level())
}

func TestEngine_ScoreNeverDecreases(t *testing.T) {
	e := NewEngine(6, 6, WithPieceSource(NewSeededSource(99)))
	require.NoError(t, e.Start())

	src := NewSeededSource(100)
	last := 0
	for i := 0; i < 500; i++ {
		_, err := e.BlockClicked(src.Intn(6), src.Intn(6))
		require.NoError(t, err)
		require.GreaterOrEqual(t, e.Score(), last)
		require.Equal(t, e.Score()/PointsPerLevel, e.Level())
		require.GreaterOrEqual(t, e.Multiplier(), 1)
		last = e.Score()
	}
}

func TestEngine_RotateCurrentPiece(t *testing.T) {
	e := newTestEngine(t, 5, 5, pieceLine, pieceDot)

	var calls int
	e.SetNextPieceListener(func(_, _ *GamePiece) { calls++ })

	current := e.CurrentPiece()
	following := e.FollowingPiece()

	// 水平线在 x=0 放不下，旋转为垂直后可以
	r, err := e.BlockClicked(0, 2)
	require.NoError(t, err)
	require.False(t, r.Placed)

	require.NoError(t, e.RotateCurrentPiece())
	assert.Same(t, current, e.CurrentPiece())
	assert.Same(t, following, e.FollowingPiece())
	assert.Equal(t, 1, current.Rotation())
	assert.Equal(t, 1, calls)

	r, err = e.BlockClicked(0, 2)
	require.NoError(t, err)
	assert.True(t, r.Placed)
}

func TestEngine_SwapCurrentPiece(t *testing.T) {
	e := newTestEngine(t, 5, 5, pieceLine, pieceDot)
	e.multiplier = 3
	e.score = 120

	current, following := e.CurrentPiece(), e.FollowingPiece()
	require.NoError(t, e.SwapCurrentPiece())

	assert.Same(t, following, e.CurrentPiece())
	assert.Same(t, current, e.FollowingPiece())
	assert.Equal(t, 3, e.Multiplier())
	assert.Equal(t, 120, e.Score())

	require.NoError(t, e.SwapCurrentPiece())
	assert.Same(t, current, e.CurrentPiece())
}

func TestEngine_GameLoopLosesLife(t *testing.T) {
	e := newTestEngine(t, 5, 5, pieceLine, pieceDot, 10)
	e.multiplier = 4

	var delays []time.Duration
	e.SetOnGameLoop(func(d time.Duration) { delays = append(delays, d) })

	following := e.FollowingPiece()
	require.NoError(t, e.GameLoop())

	assert.Equal(t, DefaultLives-1, e.Lives())
	assert.Equal(t, 1, e.Multiplier())
	assert.Same(t, following, e.CurrentPiece())
	assert.Equal(t, []time.Duration{12 * time.Second}, delays)
}

func TestEngine_GameLoopEndsGame(t *testing.T) {
	e := newTestEngine(t, 5, 5, pieceDot)

	var ended []*Engine
	e.SetGameEndListener(func(engine *Engine) { ended = append(ended, engine) })

	for i := 0; i < DefaultLives; i++ {
		require.NoError(t, e.GameLoop())
		assert.Equal(t, StatusRunning, e.Status())
	}
	require.NoError(t, e.GameLoop())

	assert.Equal(t, StatusEnded, e.Status())
	require.Len(t, ended, 1)
	assert.Same(t, e, ended[0])

	// 结束后所有操作被拒绝，结束监听器不再触发
	assert.ErrorIs(t, e.GameLoop(), ErrGameNotRunning)
	e.End()
	assert.Len(t, ended, 1)
}

func TestEngine_TimerDelay(t *testing.T) {
	e := NewEngine(5, 5)

	tests := []struct {
		level    int
		expected time.Duration
	}{
		{0, 12 * time.Second},
		{1, 11500 * time.Millisecond},
		{10, 7 * time.Second},
		{19, 2500 * time.Millisecond},
		{30, 2500 * time.Millisecond},
	}
	for _, tt := range tests {
		e.level = tt.level
		assert.Equal(t, tt.expected, e.TimerDelay(), "level %d", tt.level)
	}
}

func TestEngine_UnsetListenersAreNoops(t *testing.T) {
	e := newTestEngine(t, 3, 3, pieceDot)
	for y := 0; y < 2; y++ {
		require.NoError(t, e.Grid().Set(0, y, 1))
	}

	assert.NotPanics(t, func() {
		_, _ = e.BlockClicked(0, 2)
		_ = e.RotateCurrentPiece()
		_ = e.SwapCurrentPiece()
		_ = e.GameLoop()
		e.End()
	})
}

func TestEngine_StateSnapshot(t *testing.T) {
	e := newTestEngine(t, 4, 3, pieceDot, pieceLine)
	_, err := e.BlockClicked(1, 1)
	require.NoError(t, err)

	s := e.State()
	assert.Equal(t, StatusRunning, s.Status)
	assert.Equal(t, pieceLine, s.Current)
	assert.Equal(t, pieceDot, s.Following)
	require.Len(t, s.Grid, 4)
	require.Len(t, s.Grid[0], 3)
	assert.Equal(t, pieceDot+1, s.Grid[1][1])
}
