package api

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"sudooom.tetrecs/internal/model"
	apperrors "sudooom.tetrecs/pkg/errors"
	"sudooom.tetrecs/pkg/response"
)

// ScoreReader 在线高分榜读取
type ScoreReader interface {
	Top(ctx context.Context, n int) ([]model.ScoreEntry, error)
	HighScore(ctx context.Context) (int, error)
}

// ScoreHandler 高分榜接口
type ScoreHandler struct {
	scores ScoreReader
}

// NewScoreHandler 创建高分榜处理器
func NewScoreHandler(scores ScoreReader) *ScoreHandler {
	return &ScoreHandler{scores: scores}
}

// Top 获取高分榜
// GET /api/v1/scores?limit=10
func (h *ScoreHandler) Top(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		return
	}

	entries, err := h.scores.Top(c.Request.Context(), limit)
	if err != nil {
		response.ErrorFromAppError(c, apperrors.ErrCacheError.Wrap(err))
		return
	}

	response.Success(c, gin.H{
		"scores": entries,
		"total":  len(entries),
	})
}

// HighScore 获取当前最高分
// GET /api/v1/scores/high
func (h *ScoreHandler) HighScore(c *gin.Context) {
	score, err := h.scores.HighScore(c.Request.Context())
	if err != nil {
		response.ErrorFromAppError(c, apperrors.ErrCacheError.Wrap(err))
		return
	}

	response.Success(c, gin.H{"score": score})
}

// queryLimit 解析 limit 参数，缺省为 0
func queryLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		response.ErrorWithMsg(c, response.CodeInvalidParams, "limit 必须是非负整数")
		return 0, false
	}
	return limit, true
}
