package redis

const (
	// HighScoresKey 在线高分榜（ZSET，member 为玩家名，score 为最高分）
	HighScoresKey = "tetrecs:scores"
)
