package core

import "time"

// 事件监听器
// 未设置的监听器视为空操作

// NextPieceListener 当前方块/下一个方块变化时触发
type NextPieceListener func(current, following *GamePiece)

// LineClearedListener 有行或列被消除时触发，参数为被清除的坐标集合
type LineClearedListener func(cleared *CoordinateSet)

// GameLoopListener 游戏循环计时到期时触发，参数为下一轮计时时长
type GameLoopListener func(nextDelay time.Duration)

// GameEndListener 游戏结束时触发一次
type GameEndListener func(engine *Engine)

// SetNextPieceListener 设置下一个方块监听器
func (e *Engine) SetNextPieceListener(l NextPieceListener) { e.nextPieceListener = l }

// SetLineClearedListener 设置消行监听器
func (e *Engine) SetLineClearedListener(l LineClearedListener) { e.lineClearedListener = l }

// SetOnGameLoop 设置游戏循环监听器
func (e *Engine) SetOnGameLoop(l GameLoopListener) { e.gameLoopListener = l }

// SetGameEndListener 设置游戏结束监听器
func (e *Engine) SetGameEndListener(l GameEndListener) { e.gameEndListener = l }

func (e *Engine) fireNextPiece() {
	if e.nextPieceListener != nil {
		e.nextPieceListener(e.current, e.following)
	}
}

func (e *Engine) fireLineCleared(cleared *CoordinateSet) {
	if e.lineClearedListener != nil {
		e.lineClearedListener(cleared)
	}
}

func (e *Engine) fireGameLoop(delay time.Duration) {
	if e.gameLoopListener != nil {
		e.gameLoopListener(delay)
	}
}

func (e *Engine) fireGameEnd() {
	if e.gameEndListener != nil {
		e.gameEndListener(e)
	}
}
