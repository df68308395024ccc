package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
	"sudooom.tetrecs/internal/model"
)

// SQLiteResultRepository 嵌入式战绩仓库，单机部署与测试使用
type SQLiteResultRepository struct {
	db *sql.DB
}

// NewSQLiteResultRepository 打开 SQLite 数据库，path 为 ":memory:" 时使用内存库
func NewSQLiteResultRepository(path string) (*SQLiteResultRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 单连接：内存库每个连接都是独立的库，文件库也只有一个写者
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	return &SQLiteResultRepository{db: db}, nil
}

// Migrate 建表
func (r *SQLiteResultRepository) Migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS game_results (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			game_id       TEXT NOT NULL UNIQUE,
			room_id       TEXT NOT NULL DEFAULT '',
			player_id     TEXT NOT NULL,
			player_name   TEXT NOT NULL,
			score         INTEGER NOT NULL,
			level         INTEGER NOT NULL,
			lines_cleared INTEGER NOT NULL,
			started_at    INTEGER NOT NULL,
			ended_at      INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_game_results_player ON game_results(player_id, ended_at)`,
		`CREATE INDEX IF NOT EXISTS idx_game_results_score ON game_results(score)`,
	}

	for _, migration := range migrations {
		if _, err := r.db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Save 保存战绩，回填 Id
func (r *SQLiteResultRepository) Save(ctx context.Context, result *model.GameResult) error {
	query := `INSERT INTO game_results (
		game_id, room_id, player_id, player_name, score, level, lines_cleared, started_at, ended_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query,
		result.GameId, result.RoomId, result.PlayerId, result.PlayerName,
		result.Score, result.Level, result.LinesCleared,
		result.StartedAt.UnixMilli(), result.EndedAt.UnixMilli(),
	)
	if err != nil {
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	result.Id = id
	return nil
}

const sqliteSelectColumns = `SELECT id, game_id, room_id, player_id, player_name, score, level, lines_cleared, started_at, ended_at
	FROM game_results`

// FindByGame 根据 gameId 查找
func (r *SQLiteResultRepository) FindByGame(ctx context.Context, gameID string) (*model.GameResult, error) {
	row := r.db.QueryRowContext(ctx, sqliteSelectColumns+` WHERE game_id = ?`, gameID)

	result, err := scanSQLiteResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ListByPlayer 玩家最近的战绩
func (r *SQLiteResultRepository) ListByPlayer(ctx context.Context, playerID string, limit int) ([]model.GameResult, error) {
	return r.list(ctx, sqliteSelectColumns+` WHERE player_id = ? ORDER BY ended_at DESC, id DESC LIMIT ?`,
		playerID, normalizeLimit(limit))
}

// Top 历史最高分
func (r *SQLiteResultRepository) Top(ctx context.Context, limit int) ([]model.GameResult, error) {
	return r.list(ctx, sqliteSelectColumns+` ORDER BY score DESC, ended_at ASC LIMIT ?`, normalizeLimit(limit))
}

// Close 关闭数据库
func (r *SQLiteResultRepository) Close() error {
	return r.db.Close()
}

// Ping 健康检查
func (r *SQLiteResultRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteResultRepository) list(ctx context.Context, query string, args ...any) ([]model.GameResult, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []model.GameResult{}
	for rows.Next() {
		result, err := scanSQLiteResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteResult(row rowScanner) (model.GameResult, error) {
	var (
		result             model.GameResult
		startedAt, endedAt int64
	)
	err := row.Scan(
		&result.Id, &result.GameId, &result.RoomId, &result.PlayerId, &result.PlayerName,
		&result.Score, &result.Level, &result.LinesCleared,
		&startedAt, &endedAt,
	)
	if err != nil {
		return result, err
	}
	result.StartedAt = time.UnixMilli(startedAt)
	result.EndedAt = time.UnixMilli(endedAt)
	return result, nil
}
