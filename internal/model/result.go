package model

import "time"

// GameResult 一局游戏的结算记录
type GameResult struct {
	Id           int64     `json:"id" db:"id"`
	GameId       string    `json:"gameId" db:"game_id"`
	RoomId       string    `json:"roomId" db:"room_id"`
	PlayerId     string    `json:"playerId" db:"player_id"`
	PlayerName   string    `json:"playerName" db:"player_name"`
	Score        int       `json:"score" db:"score"`
	Level        int       `json:"level" db:"level"`
	LinesCleared int       `json:"linesCleared" db:"lines_cleared"`
	StartedAt    time.Time `json:"startedAt" db:"started_at"`
	EndedAt      time.Time `json:"endedAt" db:"ended_at"`
}

// ScoreEntry 排行榜条目
type ScoreEntry struct {
	Rank  int    `json:"rank"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}
