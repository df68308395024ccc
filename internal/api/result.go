package api

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"sudooom.tetrecs/internal/model"
	"sudooom.tetrecs/internal/repository"
	apperrors "sudooom.tetrecs/pkg/errors"
	"sudooom.tetrecs/pkg/response"
)

// ResultReader 历史战绩读取
type ResultReader interface {
	FindByGame(ctx context.Context, gameID string) (*model.GameResult, error)
	ListByPlayer(ctx context.Context, playerID string, limit int) ([]model.GameResult, error)
	Top(ctx context.Context, limit int) ([]model.GameResult, error)
}

// ResultHandler 历史战绩接口
type ResultHandler struct {
	results ResultReader
}

// NewResultHandler 创建战绩处理器
func NewResultHandler(results ResultReader) *ResultHandler {
	return &ResultHandler{results: results}
}

// Top 历史最高分战绩
// GET /api/v1/results?limit=20
func (h *ResultHandler) Top(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		return
	}

	results, err := h.results.Top(c.Request.Context(), limit)
	if err != nil {
		response.ErrorFromAppError(c, apperrors.ErrDBError.Wrap(err))
		return
	}

	response.Success(c, gin.H{
		"results": results,
		"total":   len(results),
	})
}

// GetByGame 获取一局游戏的战绩
// GET /api/v1/results/:gameId
func (h *ResultHandler) GetByGame(c *gin.Context) {
	result, err := h.results.FindByGame(c.Request.Context(), c.Param("gameId"))
	if err != nil {
		if errors.Is(err, repository.ErrResultNotFound) {
			response.ErrorWithMsg(c, response.CodeGameNotFound, "战绩不存在")
			return
		}
		response.ErrorFromAppError(c, apperrors.ErrDBError.Wrap(err))
		return
	}

	response.Success(c, result)
}

// ListByPlayer 玩家最近战绩
// GET /api/v1/players/:id/results?limit=20
func (h *ResultHandler) ListByPlayer(c *gin.Context) {
	playerID := c.Param("id")
	if playerID == "" {
		response.Error(c, response.CodeInvalidParams)
		return
	}

	limit, ok := queryLimit(c)
	if !ok {
		return
	}

	results, err := h.results.ListByPlayer(c.Request.Context(), playerID, limit)
	if err != nil {
		response.ErrorFromAppError(c, apperrors.ErrDBError.Wrap(err))
		return
	}

	response.Success(c, gin.H{
		"playerId": playerID,
		"results":  results,
		"total":    len(results),
	})
}
