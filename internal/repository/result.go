package repository

import (
	"context"
	"errors"

	"sudooom.tetrecs/internal/model"
)

// ErrResultNotFound 战绩不存在
var ErrResultNotFound = errors.New("game result not found")

// ResultRepository 历史战绩仓库
type ResultRepository interface {
	Migrate(ctx context.Context) error
	Save(ctx context.Context, result *model.GameResult) error
	FindByGame(ctx context.Context, gameID string) (*model.GameResult, error)
	ListByPlayer(ctx context.Context, playerID string, limit int) ([]model.GameResult, error)
	Top(ctx context.Context, limit int) ([]model.GameResult, error)
	Close() error
}

const defaultListLimit = 20

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return defaultListLimit
	}
	return limit
}
