package api

import (
	"github.com/gin-gonic/gin"

	"sudooom.tetrecs/internal/game"
	"sudooom.tetrecs/pkg/response"
)

// GameReader 进行中游戏的只读视图
type GameReader interface {
	Snapshot(gameID string) (game.Snapshot, error)
}

// GameHandler 游戏查询接口
type GameHandler struct {
	games GameReader
}

// NewGameHandler 创建游戏查询处理器
func NewGameHandler(games GameReader) *GameHandler {
	return &GameHandler{games: games}
}

// GetGame 获取游戏快照，棋盘、方块队列与分数
// GET /api/v1/games/:id
func (h *GameHandler) GetGame(c *gin.Context) {
	snap, err := h.games.Snapshot(c.Param("id"))
	if err != nil {
		response.ErrorFromAppError(c, game.ToAppError(err))
		return
	}

	response.Success(c, snap)
}
