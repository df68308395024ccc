package game

import (
	"errors"

	"sudooom.tetrecs/internal/game/core"
	apperrors "sudooom.tetrecs/pkg/errors"
)

// 游戏相关错误定义

var (
	// ErrGameNotFound 游戏不存在
	ErrGameNotFound = errors.New("game not found")

	// ErrGameExists 游戏ID已存在
	ErrGameExists = errors.New("game already exists")

	// ErrTooManyGames 超过同时进行的游戏上限
	ErrTooManyGames = errors.New("too many active games")

	// ErrInvalidBoardSize 棋盘尺寸非法
	ErrInvalidBoardSize = errors.New("invalid board size")

	// ErrNotGameOwner 操作者不是这局游戏的玩家
	ErrNotGameOwner = errors.New("player does not own game")
)

// ToAppError 把游戏错误映射为客户端错误码
func ToAppError(err error) *apperrors.AppError {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrGameNotFound):
		return apperrors.ErrGameNotFound.Wrap(err)
	case errors.Is(err, ErrNotGameOwner):
		return apperrors.ErrNotGameOwner.Wrap(err)
	case errors.Is(err, ErrTooManyGames):
		return apperrors.ErrTooManyGames.Wrap(err)
	case errors.Is(err, core.ErrGameNotRunning):
		return apperrors.ErrGameNotRunning.Wrap(err)
	case errors.Is(err, core.ErrAlreadyStarted):
		return apperrors.ErrGameStarted.Wrap(err)
	case errors.Is(err, ErrInvalidBoardSize), errors.Is(err, core.ErrInvalidArgument):
		return apperrors.ErrInvalidParams.Wrap(err)
	default:
		return apperrors.ErrServerError.Wrap(err)
	}
}
