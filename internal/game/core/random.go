package core

import (
	"math/rand"
	"sync"
	"time"
)

// PieceSource 方块随机源
// Intn 返回 [0,n) 内均匀分布的整数，*rand.Rand 直接满足该接口
type PieceSource interface {
	Intn(n int) int
}

// NewSeededSource 创建固定种子的随机源，相同种子产生相同的方块序列
func NewSeededSource(seed int64) PieceSource {
	return rand.New(rand.NewSource(seed))
}

// NewRandomSource 创建以当前时间为种子的随机源（生产环境使用）
func NewRandomSource() PieceSource {
	return &lockedSource{r: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// lockedSource 可被多个引擎共享的随机源
type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (s *lockedSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Intn(n)
}

// SpawnPiece 从随机源均匀抽取一个方块
func SpawnPiece(src PieceSource) *GamePiece {
	return MustCreatePiece(src.Intn(PieceCount))
}
