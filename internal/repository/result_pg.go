package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"sudooom.tetrecs/internal/model"
)

// PgResultRepository PostgreSQL 战绩仓库
type PgResultRepository struct {
	db *pgxpool.Pool
}

// NewPgResultRepository 创建 PostgreSQL 战绩仓库
func NewPgResultRepository(db *pgxpool.Pool) *PgResultRepository {
	return &PgResultRepository{db: db}
}

// Migrate 建表
func (r *PgResultRepository) Migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS game_results (
			id            BIGSERIAL PRIMARY KEY,
			game_id       TEXT NOT NULL UNIQUE,
			room_id       TEXT NOT NULL DEFAULT '',
			player_id     TEXT NOT NULL,
			player_name   TEXT NOT NULL,
			score         INTEGER NOT NULL,
			level         INTEGER NOT NULL,
			lines_cleared INTEGER NOT NULL,
			started_at    TIMESTAMPTZ NOT NULL,
			ended_at      TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_game_results_player ON game_results (player_id, ended_at DESC);
		CREATE INDEX IF NOT EXISTS idx_game_results_score ON game_results (score DESC);
	`
	_, err := r.db.Exec(ctx, query)
	return err
}

// Save 保存战绩，回填 Id
func (r *PgResultRepository) Save(ctx context.Context, result *model.GameResult) error {
	query := `
		INSERT INTO game_results (game_id, room_id, player_id, player_name, score, level, lines_cleared, started_at, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	return r.db.QueryRow(ctx, query,
		result.GameId,
		result.RoomId,
		result.PlayerId,
		result.PlayerName,
		result.Score,
		result.Level,
		result.LinesCleared,
		result.StartedAt,
		result.EndedAt,
	).Scan(&result.Id)
}

const pgSelectColumns = `
	SELECT id, game_id, room_id, player_id, player_name, score, level, lines_cleared, started_at, ended_at
	FROM game_results
`

// FindByGame 根据 gameId 查找
func (r *PgResultRepository) FindByGame(ctx context.Context, gameID string) (*model.GameResult, error) {
	rows, err := r.db.Query(ctx, pgSelectColumns+` WHERE game_id = $1`, gameID)
	if err != nil {
		return nil, err
	}

	result, err := pgx.CollectExactlyOneRow(rows, scanPgResult)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ListByPlayer 玩家最近的战绩
func (r *PgResultRepository) ListByPlayer(ctx context.Context, playerID string, limit int) ([]model.GameResult, error) {
	rows, err := r.db.Query(ctx, pgSelectColumns+` WHERE player_id = $1 ORDER BY ended_at DESC LIMIT $2`,
		playerID, normalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanPgResult)
}

// Top 历史最高分
func (r *PgResultRepository) Top(ctx context.Context, limit int) ([]model.GameResult, error) {
	rows, err := r.db.Query(ctx, pgSelectColumns+` ORDER BY score DESC, ended_at ASC LIMIT $1`, normalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanPgResult)
}

// Close 连接池由调用方管理
func (r *PgResultRepository) Close() error {
	return nil
}

func scanPgResult(row pgx.CollectableRow) (model.GameResult, error) {
	var result model.GameResult
	err := row.Scan(
		&result.Id,
		&result.GameId,
		&result.RoomId,
		&result.PlayerId,
		&result.PlayerName,
		&result.Score,
		&result.Level,
		&result.LinesCleared,
		&result.StartedAt,
		&result.EndedAt,
	)
	return result, err
}
