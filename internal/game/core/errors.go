package core

import (
	"errors"
	"fmt"
)

// 引擎相关错误定义

var (
	// ErrOutOfBounds 坐标超出棋盘范围
	ErrOutOfBounds = errors.New("coordinate out of bounds")

	// ErrInvalidArgument 非法参数
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidPieceIndex 方块编号不在目录范围内
	ErrInvalidPieceIndex = fmt.Errorf("%w: piece index", ErrInvalidArgument)

	// ErrGameNotRunning 游戏未处于运行状态
	ErrGameNotRunning = errors.New("game is not running")

	// ErrAlreadyStarted 游戏已经启动过
	ErrAlreadyStarted = errors.New("game already started")
)
