package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"sudooom.tetrecs/internal/model"
	tetrecsRedis "sudooom.tetrecs/pkg/redis"
)

// DefaultScoreboardSize 高分榜默认保留条数
const DefaultScoreboardSize = 10

// ErrEmptyName 玩家名为空
var ErrEmptyName = errors.New("empty player name")

// Scoreboard 在线高分榜
// 每个玩家只保留最高分，超出容量的低分被裁掉
type Scoreboard struct {
	rdb    *redis.Client
	key    string
	size   int
	logger *slog.Logger
}

// NewScoreboard 创建高分榜
func NewScoreboard(rdb *redis.Client, size int) *Scoreboard {
	if size <= 0 {
		size = DefaultScoreboardSize
	}
	return &Scoreboard{
		rdb:    rdb,
		key:    tetrecsRedis.HighScoresKey,
		size:   size,
		logger: slog.Default().With("component", "Scoreboard"),
	}
}

// Record 记录分数，仅当高于该玩家已有分数时更新
func (s *Scoreboard) Record(ctx context.Context, name string, score int) error {
	if name == "" {
		return ErrEmptyName
	}

	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAddArgs(ctx, s.key, redis.ZAddArgs{
			GT:      true,
			Members: []redis.Z{{Score: float64(score), Member: name}},
		})
		// 只保留前 size 名
		pipe.ZRemRangeByRank(ctx, s.key, 0, int64(-s.size-1))
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to record score", "name", name, "score", score, "error", err)
		return err
	}

	s.logger.Debug("Score recorded", "name", name, "score", score)
	return nil
}

// Top 返回前 n 名，n <= 0 时返回全部
func (s *Scoreboard) Top(ctx context.Context, n int) ([]model.ScoreEntry, error) {
	if n <= 0 || n > s.size {
		n = s.size
	}

	members, err := s.rdb.ZRevRangeWithScores(ctx, s.key, 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]model.ScoreEntry, 0, len(members))
	for i, z := range members {
		name, _ := z.Member.(string)
		entries = append(entries, model.ScoreEntry{
			Rank:  i + 1,
			Name:  name,
			Score: int(z.Score),
		})
	}
	return entries, nil
}

// HighScore 当前最高分，榜单为空时返回 0
func (s *Scoreboard) HighScore(ctx context.Context) (int, error) {
	top, err := s.Top(ctx, 1)
	if err != nil {
		return 0, err
	}
	if len(top) == 0 {
		return 0, nil
	}
	return top[0].Score, nil
}

// Reset 清空高分榜
func (s *Scoreboard) Reset(ctx context.Context) error {
	return s.rdb.Del(ctx, s.key).Err()
}
