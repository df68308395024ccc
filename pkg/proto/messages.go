package proto

// ============== 上行消息 (Gateway -> Tetrecs) ==============

// UpstreamMessage 上行消息封装
type UpstreamMessage struct {
	ReqId      string          `json:"ReqId"`
	PlayerId   string          `json:"PlayerId"`
	PlayerName string          `json:"PlayerName"`
	RoomId     string          `json:"RoomId"`
	GameId     string          `json:"GameId,omitempty"`
	Payload    UpstreamPayload `json:"Payload"`
}

// UpstreamPayload 上行消息载荷，只有一个字段非空
type UpstreamPayload struct {
	StartGame   *StartGame   `json:"StartGame,omitempty"`
	PlacePiece  *PlacePiece  `json:"PlacePiece,omitempty"`
	RotatePiece *RotatePiece `json:"RotatePiece,omitempty"`
	SwapPiece   *SwapPiece   `json:"SwapPiece,omitempty"`
	ForceLoop   *ForceLoop   `json:"ForceLoop,omitempty"`
	QuitGame    *QuitGame    `json:"QuitGame,omitempty"`
	SendChat    *SendChat    `json:"SendChat,omitempty"`
}

// StartGame 开始游戏；Cols/Rows 为 0 时使用默认棋盘
type StartGame struct {
	Cols int    `json:"Cols"`
	Rows int    `json:"Rows"`
	Seed *int64 `json:"Seed,omitempty"` // 固定随机种子，用于回放
}

// PlacePiece 在 (X, Y) 放置当前方块
type PlacePiece struct {
	X int `json:"X"`
	Y int `json:"Y"`
}

// RotatePiece 旋转当前方块；Turns 为 0 时按 1 处理，负数为逆时针
type RotatePiece struct {
	Turns int `json:"Turns"`
}

// SwapPiece 交换当前方块与下一个方块
type SwapPiece struct{}

// ForceLoop 放弃当前方块，立即按计时到期处理
type ForceLoop struct{}

// QuitGame 退出游戏
type QuitGame struct{}

// SendChat 发送聊天
type SendChat struct {
	Body string `json:"Body"`
}

// ============== 下行消息 (Tetrecs -> Gateway) ==============

// DownstreamMessage 下行消息封装
type DownstreamMessage struct {
	GameId    string            `json:"GameId,omitempty"`
	RoomId    string            `json:"RoomId,omitempty"`
	PlayerId  string            `json:"PlayerId,omitempty"`
	Timestamp int64             `json:"Timestamp"`
	Payload   DownstreamPayload `json:"Payload"`
}

// DownstreamPayload 下行消息载荷
type DownstreamPayload struct {
	NextPiece    *NextPiece    `json:"NextPiece,omitempty"`
	LinesCleared *LinesCleared `json:"LinesCleared,omitempty"`
	ScoreUpdate  *ScoreUpdate  `json:"ScoreUpdate,omitempty"`
	GameLoop     *GameLoop     `json:"GameLoop,omitempty"`
	GameOver     *GameOver     `json:"GameOver,omitempty"`
	ChatMessage  *ChatMessage  `json:"ChatMessage,omitempty"`
	Reply        *Reply        `json:"Reply,omitempty"`
}

// NextPiece 方块队列变化
type NextPiece struct {
	Current   int     `json:"Current"`
	Following int     `json:"Following"`
	Rotation  int     `json:"Rotation"`
	Blocks    [][]int `json:"Blocks"` // 当前方块 3x3 掩码，[x][y]
}

// Coordinate 格子坐标
type Coordinate struct {
	X int `json:"X"`
	Y int `json:"Y"`
}

// LinesCleared 消除的格子
type LinesCleared struct {
	Blocks []Coordinate `json:"Blocks"`
}

// ScoreUpdate 分数变化，多人模式下房间内其他玩家据此刷新排行
type ScoreUpdate struct {
	Score      int `json:"Score"`
	Level      int `json:"Level"`
	Lives      int `json:"Lives"`
	Multiplier int `json:"Multiplier"`
}

// GameLoop 计时超时
type GameLoop struct {
	Lives   int   `json:"Lives"`
	DelayMs int64 `json:"DelayMs"` // 下一轮计时时长
}

// GameOver 游戏结束
type GameOver struct {
	Score        int `json:"Score"`
	Level        int `json:"Level"`
	LinesCleared int `json:"LinesCleared"`
}

// ChatMessage 聊天消息
type ChatMessage struct {
	Sender string `json:"Sender"`
	Body   string `json:"Body"`
}

// Reply 请求应答
type Reply struct {
	ReqId     string     `json:"ReqId"`
	Code      int        `json:"Code"`
	Message   string     `json:"Message"`
	Placement *Placement `json:"Placement,omitempty"`
}

// Placement 放置结果
type Placement struct {
	Placed     bool `json:"Placed"`
	Lines      int  `json:"Lines"`
	Blocks     int  `json:"Blocks"`
	Points     int  `json:"Points"`
	Multiplier int  `json:"Multiplier"`
}
